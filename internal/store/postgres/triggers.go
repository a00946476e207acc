// internal/store/postgres/triggers.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"award-engine/internal/models"
)

func scanTrigger(row rowScanner) (*models.TriggerRecord, error) {
	var r models.TriggerRecord
	var claimed, fired sql.NullTime
	if err := row.Scan(&r.JobID, &r.FirstBidAt, &r.DueAt, &claimed, &fired, &r.FireCount); err != nil {
		return nil, err
	}
	if claimed.Valid {
		r.ClaimedAt = &claimed.Time
	}
	if fired.Valid {
		r.FiredAt = &fired.Time
	}
	return &r, nil
}

// ArmTrigger opens the job's evaluation window unless one already exists
// and returns the stored record. created reports whether this call armed it.
func (s *Store) ArmTrigger(ctx context.Context, jobID string, firstBidAt, dueAt time.Time) (*models.TriggerRecord, bool, error) {
	res, err := s.db.ExecContext(ctx, qArmTrigger, jobID, firstBidAt, dueAt)
	if err != nil {
		return nil, false, dbError("arm trigger", err)
	}
	n, _ := res.RowsAffected()

	rec, err := scanTrigger(s.db.QueryRowContext(ctx, qGetTrigger, jobID))
	if err != nil {
		return nil, false, dbError("get trigger", err)
	}
	return rec, n == 1, nil
}

// GetTrigger returns nil when the job has no window.
func (s *Store) GetTrigger(ctx context.Context, jobID string) (*models.TriggerRecord, error) {
	rec, err := scanTrigger(s.db.QueryRowContext(ctx, qGetTrigger, jobID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("get trigger", err)
	}
	return rec, nil
}

// ExpediteTrigger makes the window due now and claims it for the caller. It
// reports false when another caller holds a claim newer than staleBefore.
func (s *Store) ExpediteTrigger(ctx context.Context, jobID string, now, staleBefore time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, qExpediteTrigger, jobID, now, staleBefore)
	if err != nil {
		return false, dbError("expedite trigger", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ReleaseTrigger drops a claim so the poller can pick the trigger up.
func (s *Store) ReleaseTrigger(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, qReleaseTrigger, jobID)
	return dbErrorOrNil("release trigger", err)
}

// ClaimDueTriggers claims up to limit unfired triggers due at now. Claims
// older than staleBefore are taken over. Rows locked by another replica are
// skipped.
func (s *Store) ClaimDueTriggers(ctx context.Context, now, staleBefore time.Time, limit int) ([]models.TriggerRecord, error) {
	rows, err := s.db.QueryContext(ctx, qClaimDueTriggers, now, staleBefore, limit)
	if err != nil {
		return nil, dbError("claim triggers", err)
	}
	defer rows.Close()

	var out []models.TriggerRecord
	for rows.Next() {
		rec, err := scanTrigger(rows)
		if err != nil {
			return nil, dbError("scan trigger", err)
		}
		out = append(out, *rec)
	}
	return out, dbErrorOrNil("claim triggers", rows.Err())
}

func (s *Store) MarkFired(ctx context.Context, jobID string, firedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, qMarkFired, jobID, firedAt)
	return dbErrorOrNil("mark trigger fired", err)
}

// ListUnarmedJobs finds open jobs with pending bids but no window.
func (s *Store) ListUnarmedJobs(ctx context.Context, limit int) ([]models.PendingJob, error) {
	rows, err := s.db.QueryContext(ctx, qListUnarmedJobs, limit)
	if err != nil {
		return nil, dbError("list unarmed jobs", err)
	}
	defer rows.Close()

	var out []models.PendingJob
	for rows.Next() {
		var p models.PendingJob
		if err := rows.Scan(&p.JobID, &p.FirstBidAt); err != nil {
			return nil, dbError("scan unarmed job", err)
		}
		out = append(out, p)
	}
	return out, dbErrorOrNil("list unarmed jobs", rows.Err())
}
