// internal/store/postgres/triggers_test.go
package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ArmTrigger(t *testing.T) {
	due := t0.Add(24 * time.Hour)

	t.Run("first arm", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(qArmTrigger).WithArgs("job-1", t0, due).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(qGetTrigger).WithArgs("job-1").
			WillReturnRows(sqlmock.NewRows(triggerCols).AddRow("job-1", t0, due, nil, nil, 0))

		rec, created, err := store.ArmTrigger(context.Background(), "job-1", t0, due)

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, due, rec.DueAt)
		assert.False(t, rec.Fired())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already armed keeps the original window", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(qArmTrigger).WithArgs("job-1", t0.Add(time.Hour), due.Add(time.Hour)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(qGetTrigger).WithArgs("job-1").
			WillReturnRows(sqlmock.NewRows(triggerCols).AddRow("job-1", t0, due, nil, t0.Add(2*time.Hour), 1))

		rec, created, err := store.ArmTrigger(context.Background(), "job-1", t0.Add(time.Hour), due.Add(time.Hour))

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, due, rec.DueAt)
		assert.True(t, rec.Fired())
		assert.Equal(t, 1, rec.FireCount)
	})
}

func TestStore_GetTrigger_Missing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(qGetTrigger).WithArgs("job-1").WillReturnError(sql.ErrNoRows)

	rec, err := store.GetTrigger(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_ClaimDueTriggers(t *testing.T) {
	store, mock := newMockStore(t)
	now := t0.Add(25 * time.Hour)
	stale := now.Add(-5 * time.Minute)

	mock.ExpectQuery(qClaimDueTriggers).WithArgs(now, stale, 50).WillReturnRows(
		sqlmock.NewRows(triggerCols).
			AddRow("job-1", t0, t0.Add(24*time.Hour), now, nil, 0).
			AddRow("job-2", t0, t0.Add(time.Hour), now, nil, 1))

	recs, err := store.ClaimDueTriggers(context.Background(), now, stale, 50)

	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.NotNil(t, recs[0].ClaimedAt)
	assert.Equal(t, now, *recs[0].ClaimedAt)
	assert.Equal(t, "job-2", recs[1].JobID)
}

func TestStore_TriggerMutations(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(qReleaseTrigger).WithArgs("job-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qMarkFired).WithArgs("job-1", t0).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.ReleaseTrigger(ctx, "job-1"))
	require.NoError(t, store.MarkFired(ctx, "job-1", t0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ExpediteTrigger(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	stale := t0.Add(-5 * time.Minute)

	mock.ExpectExec(qExpediteTrigger).WithArgs("job-1", t0, stale).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qExpediteTrigger).WithArgs("job-1", t0, stale).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.ExpediteTrigger(ctx, "job-1", t0, stale)
	require.NoError(t, err)
	assert.True(t, ok)

	// a live claim held elsewhere leaves the row untouched
	ok, err = store.ExpediteTrigger(ctx, "job-1", t0, stale)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListUnarmedJobs(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(qListUnarmedJobs).WithArgs(100).WillReturnRows(
		sqlmock.NewRows([]string{"id", "min"}).AddRow("job-7", t0))

	jobs, err := store.ListUnarmedJobs(context.Background(), 100)

	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-7", jobs[0].JobID)
	assert.Equal(t, t0, jobs[0].FirstBidAt)
}
