package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"
)

// AvailabilityRepository persists teacher availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Create inserts a new availability record.
func (r *AvailabilityRepository) Create(ctx context.Context, record *models.TeacherAvailability) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO teacher_availabilities
		(id, teacher_id, date, start_time, end_time, status, subjects, notes, can_substitute, max_daily_subs, created_at, updated_at)
		VALUES (:id, :teacher_id, :date, :start_time, :end_time, :status, :subjects, :notes, :can_substitute, :max_daily_subs, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create availability: %w", err)
	}
	return nil
}

// FindByID loads a single availability record.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.TeacherAvailability, error) {
	const query = `SELECT * FROM teacher_availabilities WHERE id = $1`
	var record models.TeacherAvailability
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// HasOverlap checks whether a window intersects any declared window for the
// teacher on the date. excludeID skips the record being updated.
func (r *AvailabilityRepository) HasOverlap(ctx context.Context, teacherID, date string, window models.Window, excludeID string) (bool, error) {
	const query = `SELECT 1 FROM teacher_availabilities
		WHERE teacher_id = $1 AND date = $2 AND start_time < $4 AND end_time > $3 AND id <> $5
		LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID, date, window.Start, window.End, excludeID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check availability overlap: %w", err)
	}
	return true, nil
}

// DeclaredDailyCap returns the highest max_daily_subs the teacher declared
// for the date, or zero when the date carries no declaration.
func (r *AvailabilityRepository) DeclaredDailyCap(ctx context.Context, teacherID, date string) (int, error) {
	const query = `SELECT COALESCE(MAX(max_daily_subs), 0) FROM teacher_availabilities
		WHERE teacher_id = $1 AND date = $2 AND can_substitute = TRUE`
	var declared int
	if err := r.db.GetContext(ctx, &declared, query, teacherID, date); err != nil {
		return 0, fmt.Errorf("load declared daily cap: %w", err)
	}
	return declared, nil
}

// ListAvailable returns available, substitution-capable records on the date
// whose window fully contains the requested one. The query is pure and
// restartable; subject filtering stays in the service so the generalist
// rule lives in one place.
func (r *AvailabilityRepository) ListAvailable(ctx context.Context, date string, window models.Window) ([]models.TeacherAvailability, error) {
	const query = `SELECT * FROM teacher_availabilities
		WHERE date = $1 AND status = 'available' AND can_substitute = TRUE
		  AND start_time <= $2 AND end_time >= $3
		ORDER BY teacher_id ASC, start_time ASC`
	var records []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &records, query, date, window.Start, window.End); err != nil {
		return nil, fmt.Errorf("list available windows: %w", err)
	}
	return records, nil
}

// ListBlocking returns busy and on-leave windows for the teacher on the
// date, feeding the conflict detector.
func (r *AvailabilityRepository) ListBlocking(ctx context.Context, teacherID, date string) ([]models.TeacherAvailability, error) {
	const query = `SELECT * FROM teacher_availabilities
		WHERE teacher_id = $1 AND date = $2 AND status IN ('busy', 'on_leave')
		ORDER BY start_time ASC`
	var records []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &records, query, teacherID, date); err != nil {
		return nil, fmt.Errorf("list blocking windows: %w", err)
	}
	return records, nil
}

// ListByTeacher returns a teacher's declarations from the given date on.
func (r *AvailabilityRepository) ListByTeacher(ctx context.Context, teacherID, fromDate string) ([]models.TeacherAvailability, error) {
	const query = `SELECT * FROM teacher_availabilities
		WHERE teacher_id = $1 AND date >= $2
		ORDER BY date ASC, start_time ASC`
	var records []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &records, query, teacherID, fromDate); err != nil {
		return nil, fmt.Errorf("list teacher availability: %w", err)
	}
	return records, nil
}

// Update rewrites a declaration's mutable fields.
func (r *AvailabilityRepository) Update(ctx context.Context, record *models.TeacherAvailability) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teacher_availabilities
		SET start_time = :start_time, end_time = :end_time, status = :status,
		    subjects = :subjects, notes = :notes, can_substitute = :can_substitute,
		    max_daily_subs = :max_daily_subs, updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated availability rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a declaration.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM teacher_availabilities WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted availability rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
