// internal/store/postgres/store.go

// Package postgres is the relational store for jobs, bids, professionals,
// status history, notifications and evaluation triggers.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"
	"award-engine/internal/models"

	"github.com/lib/pq"
)

type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.Component(log, "postgres-store"),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var status string
	var contractor sql.NullString
	if err := row.Scan(&job.ID, &job.CustomerID, &job.Title, &job.Budget, &job.Location,
		&status, &contractor, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	job.Status = models.JobStatus(status)
	if contractor.Valid {
		job.AssignedContractorID = &contractor.String
	}
	return &job, nil
}

func scanBid(row rowScanner) (*models.Bid, error) {
	var bid models.Bid
	var status string
	if err := row.Scan(&bid.ID, &bid.JobID, &bid.ProfessionalID, &bid.Amount, &bid.TimelineWeeks,
		&status, &bid.LocationScore, &bid.MatchTier, &bid.CreatedAt); err != nil {
		return nil, err
	}
	bid.Status = models.BidStatus(status)
	return &bid, nil
}

func scanBids(rows *sql.Rows) ([]models.Bid, error) {
	defer rows.Close()
	var out []models.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *bid)
	}
	return out, rows.Err()
}

func scanProfessional(row rowScanner) (*models.Professional, error) {
	var pro models.Professional
	var rating sql.NullFloat64
	if err := row.Scan(&pro.ID, &pro.NCALevel, &rating, &pro.TotalBids, &pro.SuccessfulBids); err != nil {
		return nil, err
	}
	if rating.Valid {
		pro.AverageRating = &rating.Float64
	}
	return &pro, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &role); err != nil {
		return nil, err
	}
	u.Role = models.UserRole(role)
	return &u, nil
}

func dbError(op string, err error) error {
	if _, ok := apperrors.AsStandard(err); ok {
		return err
	}
	return apperrors.NewDatabaseOperationFailedError(op, err)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	job, err := scanJob(s.db.QueryRowContext(ctx, qGetJob, jobID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewJobNotFoundError(jobID)
	}
	if err != nil {
		return nil, dbError("get job", err)
	}
	return job, nil
}

func (s *Store) GetBid(ctx context.Context, bidID string) (*models.Bid, error) {
	bid, err := scanBid(s.db.QueryRowContext(ctx, qGetBid, bidID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewBidNotFoundError(bidID)
	}
	if err != nil {
		return nil, dbError("get bid", err)
	}
	return bid, nil
}

// ListPendingBids returns PENDING bids in submission order.
func (s *Store) ListPendingBids(ctx context.Context, jobID string) ([]models.Bid, error) {
	rows, err := s.db.QueryContext(ctx, qListPendingBids, jobID)
	if err != nil {
		return nil, dbError("list pending bids", err)
	}
	bids, err := scanBids(rows)
	if err != nil {
		return nil, dbError("scan pending bids", err)
	}
	return bids, nil
}

func (s *Store) CountPendingBids(ctx context.Context, jobID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, qCountPendingBids, jobID).Scan(&n); err != nil {
		return 0, dbError("count pending bids", err)
	}
	return n, nil
}

// GetProfessionals returns the profiles found, keyed by ID. Unknown IDs are
// absent from the map.
func (s *Store) GetProfessionals(ctx context.Context, ids []string) (map[string]models.Professional, error) {
	out := make(map[string]models.Professional, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx, qGetProfessionals, pq.Array(ids))
	if err != nil {
		return nil, dbError("get professionals", err)
	}
	defer rows.Close()
	for rows.Next() {
		pro, err := scanProfessional(rows)
		if err != nil {
			return nil, dbError("scan professional", err)
		}
		out[pro.ID] = *pro
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("get professionals", err)
	}
	return out, nil
}

func (s *Store) GetContact(ctx context.Context, userID string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, qGetUser, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	if err != nil {
		return nil, dbError("get user", err)
	}
	return u, nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, qListAdmins)
	if err != nil {
		return nil, dbError("list admins", err)
	}
	defer rows.Close()
	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, dbError("scan admin", err)
		}
		out = append(out, *u)
	}
	return out, dbErrorOrNil("list admins", rows.Err())
}

func dbErrorOrNil(op string, err error) error {
	if err == nil {
		return nil
	}
	return dbError(op, err)
}

func (s *Store) InsertNotification(ctx context.Context, n models.Notification) error {
	_, err := s.db.ExecContext(ctx, qInsertNotification,
		n.ID, n.UserID, n.Title, n.Message, string(n.Kind), n.CreatedAt)
	return dbErrorOrNil("insert notification", err)
}

func (s *Store) ListHistory(ctx context.Context, jobID string) ([]models.StatusHistory, error) {
	rows, err := s.db.QueryContext(ctx, qListHistory, jobID)
	if err != nil {
		return nil, dbError("list history", err)
	}
	defer rows.Close()
	var out []models.StatusHistory
	for rows.Next() {
		var h models.StatusHistory
		var from, to string
		if err := rows.Scan(&h.ID, &h.JobID, &from, &to, &h.ActorID, &h.Notes, &h.CreatedAt); err != nil {
			return nil, dbError("scan history", err)
		}
		h.FromStatus = models.JobStatus(from)
		h.ToStatus = models.JobStatus(to)
		out = append(out, h)
	}
	return out, dbErrorOrNil("list history", rows.Err())
}

// TransitionJob moves the job from -> to and appends history in one
// transaction. Reopening a job clears its contractor and evaluation window.
func (s *Store) TransitionJob(ctx context.Context, jobID string, from, to models.JobStatus, history models.StatusHistory) (job *models.Job, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, dbError("begin transition", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	job, err = scanJob(tx.QueryRowContext(ctx, qUpdateJobStatus, jobID, string(from), string(to), history.CreatedAt))
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err = tx.QueryRowContext(ctx, qJobExists, jobID).Scan(&exists); err != nil {
			return nil, dbError("check job", err)
		}
		if !exists {
			return nil, apperrors.NewJobNotFoundError(jobID)
		}
		return nil, apperrors.NewStatusConflictError(jobID, string(from))
	}
	if err != nil {
		return nil, dbError("update job status", err)
	}

	if err = insertHistory(ctx, tx, history); err != nil {
		return nil, err
	}
	if to == models.JobStatusOpen {
		if _, err = tx.ExecContext(ctx, qDeleteTrigger, jobID); err != nil {
			return nil, dbError("reset trigger", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, dbError("commit transition", err)
	}
	return job, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, h models.StatusHistory) error {
	_, err := tx.ExecContext(ctx, qInsertHistory,
		h.ID, h.JobID, string(h.FromStatus), string(h.ToStatus), h.ActorID, h.Notes, h.CreatedAt)
	return dbErrorOrNil("insert history", err)
}
