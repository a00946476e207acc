// internal/store/postgres/award.go
package postgres

import (
	"context"
	"database/sql"
	"errors"

	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/models"
)

// CommitAward applies an award as one transaction: the winning bid is
// accepted, the job moves OPEN -> AWARDED with its contractor set, history
// is appended, every other pending bid is rejected and the winner's stats
// are folded. Nothing is visible until commit.
func (s *Store) CommitAward(ctx context.Context, c models.AwardCommit) (receipt *models.AwardReceipt, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewAwardCommitFailedError(c.JobID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := scanJob(tx.QueryRowContext(ctx, qGetJobForUpdate, c.JobID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewJobNotFoundError(c.JobID)
	}
	if err != nil {
		return nil, apperrors.NewAwardCommitFailedError(c.JobID, err)
	}
	if current.Status != models.JobStatusOpen {
		return nil, apperrors.NewStatusConflictError(c.JobID, string(models.JobStatusOpen))
	}

	res, err := tx.ExecContext(ctx, qAcceptBid, c.WinningBidID, c.JobID)
	if err != nil {
		return nil, apperrors.NewAwardCommitFailedError(c.JobID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperrors.NewStatusConflictError(c.JobID, "PENDING bid "+c.WinningBidID)
	}

	job, err := scanJob(tx.QueryRowContext(ctx, qAwardJob, c.JobID, c.ProfessionalID, c.History.CreatedAt))
	if err != nil {
		return nil, apperrors.NewAwardCommitFailedError(c.JobID, err)
	}

	if err = insertHistory(ctx, tx, c.History); err != nil {
		return nil, apperrors.NewAwardCommitFailedError(c.JobID, err)
	}

	rows, err := tx.QueryContext(ctx, qRejectOtherBids, c.JobID, c.WinningBidID)
	if err != nil {
		return nil, apperrors.NewAwardCommitFailedError(c.JobID, err)
	}
	rejected, err := scanBids(rows)
	if err != nil {
		return nil, apperrors.NewAwardCommitFailedError(c.JobID, err)
	}

	pro, err := scanProfessional(tx.QueryRowContext(ctx, qGetProfessionalForUpdate, c.ProfessionalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewProfessionalNotFoundError(c.ProfessionalID)
	}
	if err != nil {
		return nil, apperrors.NewAwardCommitFailedError(c.JobID, err)
	}
	updated := pro.WithAward(c.Score)
	if _, err = tx.ExecContext(ctx, qUpdateProfessionalStats,
		updated.ID, updated.TotalBids, updated.SuccessfulBids, *updated.AverageRating); err != nil {
		return nil, apperrors.NewAwardCommitFailedError(c.JobID, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, apperrors.NewAwardCommitFailedError(c.JobID, err)
	}

	s.logger.Info("award committed", map[string]interface{}{
		"jobId":        c.JobID,
		"bidId":        c.WinningBidID,
		"professional": c.ProfessionalID,
		"rejected":     len(rejected),
	})
	return &models.AwardReceipt{Job: *job, Professional: updated, RejectedBids: rejected}, nil
}
