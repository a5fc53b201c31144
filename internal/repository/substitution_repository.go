package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"
	appErrors "github.com/toletmelearn/PNS-Dhampur-sub001/pkg/errors"
)

// SubstitutionRepository persists substitution requests and their
// lifecycle transitions.
type SubstitutionRepository struct {
	db *sqlx.DB
}

// NewSubstitutionRepository constructs the repository.
func NewSubstitutionRepository(db *sqlx.DB) *SubstitutionRepository {
	return &SubstitutionRepository{db: db}
}

// Create inserts a new request in its initial state.
func (r *SubstitutionRepository) Create(ctx context.Context, request *models.SubstitutionRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.RequestedAt.IsZero() {
		request.RequestedAt = now
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	if request.Status == "" {
		request.Status = models.StatusPending
	}
	if request.Version == 0 {
		request.Version = 1
	}
	const query = `INSERT INTO substitution_requests
		(id, absent_teacher_id, class_id, subject, date, start_time, end_time, priority, is_emergency,
		 reason, requested_by, requested_at, status, substitute_teacher_id, assigned_by, assigned_at,
		 confirmed_at, completed_at, feedback, rating, cancelled_at, decline_reason, notified,
		 excluded_teacher_ids, failed_searches, escalated, version, created_at, updated_at)
		VALUES (:id, :absent_teacher_id, :class_id, :subject, :date, :start_time, :end_time, :priority, :is_emergency,
		 :reason, :requested_by, :requested_at, :status, :substitute_teacher_id, :assigned_by, :assigned_at,
		 :confirmed_at, :completed_at, :feedback, :rating, :cancelled_at, :decline_reason, :notified,
		 :excluded_teacher_ids, :failed_searches, :escalated, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create substitution request: %w", err)
	}
	return nil
}

// FindByID loads a request.
func (r *SubstitutionRepository) FindByID(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	const query = `SELECT * FROM substitution_requests WHERE id = $1`
	var request models.SubstitutionRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateTransition rewrites the request's mutable fields guarded by the
// optimistic version check. A transition that books a substitute runs in a
// transaction that serialises on the substitute via an advisory lock and
// re-checks for an overlapping booking, so two requests racing on the same
// teacher cannot both commit overlapping windows. sql.ErrNoRows signals a
// lost version race; ErrConflict a substitute booked in between. On success
// the in-memory version is advanced to match the row.
func (r *SubstitutionRepository) UpdateTransition(ctx context.Context, request *models.SubstitutionRequest) error {
	request.UpdatedAt = time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	if request.SubstituteTeacherID != nil &&
		(request.Status == models.StatusAssigned || request.Status == models.StatusConfirmed) {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, *request.SubstituteTeacherID); err != nil {
			return fmt.Errorf("lock substitute: %w", err)
		}
		const overlapQuery = `SELECT 1 FROM substitution_requests
			WHERE substitute_teacher_id = $1 AND date = $2
			  AND status IN ('assigned', 'confirmed')
			  AND start_time < $4 AND end_time > $3
			  AND id <> $5
			LIMIT 1`
		var exists int
		err := tx.GetContext(ctx, &exists, overlapQuery, *request.SubstituteTeacherID, request.Date, request.StartTime, request.EndTime, request.ID)
		if err == nil {
			return appErrors.Clone(appErrors.ErrConflict, "substitute already booked in an overlapping window")
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check substitute overlap: %w", err)
		}
	}

	const query = `UPDATE substitution_requests
		SET status = :status, substitute_teacher_id = :substitute_teacher_id, assigned_by = :assigned_by,
		    assigned_at = :assigned_at, confirmed_at = :confirmed_at, completed_at = :completed_at,
		    feedback = :feedback, rating = :rating, cancelled_at = :cancelled_at, reason = :reason,
		    decline_reason = :decline_reason, notified = :notified, priority = :priority,
		    excluded_teacher_ids = :excluded_teacher_ids, failed_searches = :failed_searches,
		    escalated = :escalated, version = version + 1, updated_at = :updated_at
		WHERE id = :id AND version = :version`
	result, err := tx.NamedExecContext(ctx, query, request)
	if err != nil {
		return fmt.Errorf("update substitution request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated request rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	request.Version++
	return nil
}

// List returns requests matching the filter, newest first.
func (r *SubstitutionRepository) List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRequest, error) {
	query := `SELECT * FROM substitution_requests WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if filter.Date != "" {
		query += fmt.Sprintf(" AND date = $%d", idx)
		args = append(args, filter.Date)
		idx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, filter.Status)
		idx++
	}
	if filter.TeacherID != "" {
		query += fmt.Sprintf(" AND (absent_teacher_id = $%d OR substitute_teacher_id = $%d)", idx, idx)
		args = append(args, filter.TeacherID)
		idx++
	}
	if filter.ClassID != "" {
		query += fmt.Sprintf(" AND class_id = $%d", idx)
		args = append(args, filter.ClassID)
		idx++
	}
	if filter.Escalated != nil {
		query += fmt.Sprintf(" AND escalated = $%d", idx)
		args = append(args, *filter.Escalated)
		idx++
	}
	query += " ORDER BY requested_at DESC"
	var requests []models.SubstitutionRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list substitution requests: %w", err)
	}
	return requests, nil
}

// ListActiveByTeacherAndDate returns the teacher's committing requests on
// the date, optionally ignoring the request being evaluated.
func (r *SubstitutionRepository) ListActiveByTeacherAndDate(ctx context.Context, teacherID, date, excludeRequestID string) ([]models.SubstitutionRequest, error) {
	const query = `SELECT * FROM substitution_requests
		WHERE substitute_teacher_id = $1 AND date = $2
		  AND status IN ('assigned', 'confirmed', 'completed')
		  AND id <> $3
		ORDER BY start_time ASC`
	var requests []models.SubstitutionRequest
	if err := r.db.SelectContext(ctx, &requests, query, teacherID, date, excludeRequestID); err != nil {
		return nil, fmt.Errorf("list active requests for teacher: %w", err)
	}
	return requests, nil
}

// CountActiveByTeacherAndDate counts same-day committing requests for the
// cap check.
func (r *SubstitutionRepository) CountActiveByTeacherAndDate(ctx context.Context, teacherID, date, excludeRequestID string) (int, error) {
	const query = `SELECT COUNT(*) FROM substitution_requests
		WHERE substitute_teacher_id = $1 AND date = $2
		  AND status IN ('assigned', 'confirmed', 'completed')
		  AND id <> $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID, date, excludeRequestID); err != nil {
		return 0, fmt.Errorf("count active requests for teacher: %w", err)
	}
	return count, nil
}

// ExistsActiveOverlap reports whether any committing request for the
// teacher overlaps the window, used by the availability in-use guard.
func (r *SubstitutionRepository) ExistsActiveOverlap(ctx context.Context, teacherID, date string, window models.Window) (bool, error) {
	const query = `SELECT 1 FROM substitution_requests
		WHERE substitute_teacher_id = $1 AND date = $2
		  AND status IN ('assigned', 'confirmed')
		  AND start_time < $4 AND end_time > $3
		LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID, date, window.Start, window.End); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active overlap: %w", err)
	}
	return true, nil
}

// ListPendingAutoAssign returns pending, non-emergency, non-escalated
// requests from the given date forward for the batch sweep.
func (r *SubstitutionRepository) ListPendingAutoAssign(ctx context.Context, fromDate string) ([]models.SubstitutionRequest, error) {
	const query = `SELECT * FROM substitution_requests
		WHERE status = 'pending' AND is_emergency = FALSE AND escalated = FALSE AND date >= $1
		ORDER BY priority = 'urgent' DESC, priority = 'high' DESC, date ASC, start_time ASC`
	var requests []models.SubstitutionRequest
	if err := r.db.SelectContext(ctx, &requests, query, fromDate); err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return requests, nil
}

// ReliabilityStats aggregates the teacher's outcomes since the cutoff date.
func (r *SubstitutionRepository) ReliabilityStats(ctx context.Context, teacherID, sinceDate string) (*models.TeacherReliability, error) {
	const query = `SELECT
		COUNT(*) FILTER (WHERE substitute_teacher_id = $1 AND status IN ('assigned', 'confirmed', 'completed')) AS taken,
		COUNT(*) FILTER (WHERE substitute_teacher_id = $1 AND status = 'completed') AS completed,
		COUNT(*) FILTER (WHERE $1 = ANY(excluded_teacher_ids)) AS declined,
		COUNT(rating) FILTER (WHERE substitute_teacher_id = $1) AS rated_count,
		COALESCE(SUM(rating) FILTER (WHERE substitute_teacher_id = $1), 0) AS rating_sum
	FROM substitution_requests
	WHERE (substitute_teacher_id = $1 OR $1 = ANY(excluded_teacher_ids)) AND date >= $2`
	stats := models.TeacherReliability{TeacherID: teacherID}
	row := r.db.QueryRowxContext(ctx, query, teacherID, sinceDate)
	if err := row.Scan(&stats.Taken, &stats.Completed, &stats.Declined, &stats.RatedCount, &stats.RatingSum); err != nil {
		return nil, fmt.Errorf("load reliability stats: %w", err)
	}
	return &stats, nil
}

// CountByStatusForDate returns per-status request counts for the dashboard.
func (r *SubstitutionRepository) CountByStatusForDate(ctx context.Context, date string) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM substitution_requests
		WHERE date = $1 GROUP BY status`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, date); err != nil {
		return nil, fmt.Errorf("count requests by status: %w", err)
	}
	return counts, nil
}

// CountFlagsForDate returns emergency and escalated counts for the date.
func (r *SubstitutionRepository) CountFlagsForDate(ctx context.Context, date string) (emergencies, escalated int, err error) {
	const query = `SELECT
		COUNT(*) FILTER (WHERE is_emergency) AS emergencies,
		COUNT(*) FILTER (WHERE escalated) AS escalated
	FROM substitution_requests WHERE date = $1`
	row := r.db.QueryRowxContext(ctx, query, date)
	if err = row.Scan(&emergencies, &escalated); err != nil {
		return 0, 0, fmt.Errorf("count request flags: %w", err)
	}
	return emergencies, escalated, nil
}
