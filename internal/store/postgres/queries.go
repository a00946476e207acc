// internal/store/postgres/queries.go
package postgres

const jobColumns = `id, customer_id, title, budget, location, status, assigned_contractor_id, created_at, updated_at`

const bidColumns = `id, job_id, professional_id, amount, timeline_weeks, status, location_score, match_tier, created_at`

const triggerColumns = `job_id, first_bid_at, due_at, claimed_at, fired_at, fire_count`

const (
	qGetJob = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	qGetJobForUpdate = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 FOR UPDATE`

	qJobExists = `SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`

	qUpdateJobStatus = `UPDATE jobs
		SET status = $3,
			assigned_contractor_id = CASE WHEN $3 = 'OPEN' THEN NULL ELSE assigned_contractor_id END,
			updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + jobColumns

	qAwardJob = `UPDATE jobs
		SET status = 'AWARDED', assigned_contractor_id = $2, updated_at = $3
		WHERE id = $1 AND status = 'OPEN'
		RETURNING ` + jobColumns
)

const (
	qGetBid = `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`

	qListPendingBids = `SELECT ` + bidColumns + ` FROM bids
		WHERE job_id = $1 AND status = 'PENDING'
		ORDER BY created_at, id`

	qCountPendingBids = `SELECT COUNT(*) FROM bids WHERE job_id = $1 AND status = 'PENDING'`

	qAcceptBid = `UPDATE bids SET status = 'ACCEPTED'
		WHERE id = $1 AND job_id = $2 AND status = 'PENDING'`

	// Only bids still PENDING are returned, so bidders rejected earlier are
	// not notified twice.
	qRejectOtherBids = `UPDATE bids SET status = 'REJECTED'
		WHERE job_id = $1 AND id <> $2 AND status = 'PENDING'
		RETURNING ` + bidColumns
)

const (
	qGetProfessionals = `SELECT id, nca_level, average_rating, total_bids, successful_bids
		FROM users WHERE id = ANY($1) AND role = 'professional'`

	qGetProfessionalForUpdate = `SELECT id, nca_level, average_rating, total_bids, successful_bids
		FROM users WHERE id = $1 AND role = 'professional' FOR UPDATE`

	qUpdateProfessionalStats = `UPDATE users
		SET total_bids = $2, successful_bids = $3, average_rating = $4
		WHERE id = $1`

	qGetUser = `SELECT id, name, email, phone, role FROM users WHERE id = $1`

	qListAdmins = `SELECT id, name, email, phone, role FROM users WHERE role = 'admin' ORDER BY id`
)

const (
	qInsertHistory = `INSERT INTO job_status_history
		(id, job_id, from_status, to_status, actor_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	qListHistory = `SELECT id, job_id, from_status, to_status, actor_id, notes, created_at
		FROM job_status_history WHERE job_id = $1
		ORDER BY created_at, id`

	qInsertNotification = `INSERT INTO notifications
		(id, user_id, title, message, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
)

const (
	qArmTrigger = `INSERT INTO evaluation_triggers (job_id, first_bid_at, due_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_id) DO NOTHING`

	qGetTrigger = `SELECT ` + triggerColumns + ` FROM evaluation_triggers WHERE job_id = $1`

	qExpediteTrigger = `UPDATE evaluation_triggers
		SET due_at = $2, fired_at = NULL, claimed_at = $2
		WHERE job_id = $1 AND (claimed_at IS NULL OR claimed_at < $3)`

	qReleaseTrigger = `UPDATE evaluation_triggers SET claimed_at = NULL WHERE job_id = $1 AND fired_at IS NULL`

	qClaimDueTriggers = `UPDATE evaluation_triggers t
		SET claimed_at = $1
		FROM (
			SELECT job_id FROM evaluation_triggers
			WHERE fired_at IS NULL AND due_at <= $1
				AND (claimed_at IS NULL OR claimed_at < $2)
			ORDER BY due_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		) due
		WHERE t.job_id = due.job_id
		RETURNING t.job_id, t.first_bid_at, t.due_at, t.claimed_at, t.fired_at, t.fire_count`

	qMarkFired = `UPDATE evaluation_triggers
		SET fired_at = $2, claimed_at = NULL, fire_count = fire_count + 1
		WHERE job_id = $1`

	qDeleteTrigger = `DELETE FROM evaluation_triggers WHERE job_id = $1`

	qListUnarmedJobs = `SELECT j.id, MIN(b.created_at)
		FROM jobs j
		JOIN bids b ON b.job_id = j.id AND b.status = 'PENDING'
		LEFT JOIN evaluation_triggers t ON t.job_id = j.id
		WHERE j.status = 'OPEN' AND t.job_id IS NULL
		GROUP BY j.id
		ORDER BY MIN(b.created_at)
		LIMIT $1`
)
