package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAvailabilityRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec("INSERT INTO teacher_availabilities").
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.TeacherAvailability{
		TeacherID:     "teacher-b",
		Date:          "2024-03-04",
		StartTime:     "08:00",
		EndTime:       "12:00",
		Status:        models.AvailabilityAvailable,
		Subjects:      pq.StringArray{"Math"},
		CanSubstitute: true,
		MaxDailySubs:  3,
	}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryHasOverlap(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectQuery("SELECT 1 FROM teacher_availabilities").
		WithArgs("teacher-b", "2024-03-04", "09:00", "10:00", "").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	overlaps, err := repo.HasOverlap(context.Background(), "teacher-b", "2024-03-04", models.Window{Start: "09:00", End: "10:00"}, "")
	require.NoError(t, err)
	assert.True(t, overlaps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryHasOverlapNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectQuery("SELECT 1 FROM teacher_availabilities").
		WithArgs("teacher-b", "2024-03-04", "09:00", "10:00", "").
		WillReturnError(sql.ErrNoRows)

	overlaps, err := repo.HasOverlap(context.Background(), "teacher-b", "2024-03-04", models.Window{Start: "09:00", End: "10:00"}, "")
	require.NoError(t, err)
	assert.False(t, overlaps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDeclaredDailyCap(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(max_daily_subs\), 0\) FROM teacher_availabilities`).
		WithArgs("teacher-b", "2024-03-04").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))

	declared, err := repo.DeclaredDailyCap(context.Background(), "teacher-b", "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, 2, declared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryListAvailable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "date", "start_time", "end_time", "status", "subjects", "notes", "can_substitute", "max_daily_subs", "created_at", "updated_at"}).
		AddRow("avail-1", "teacher-b", "2024-03-04", "08:00", "12:00", "available", pq.StringArray{"Math"}, nil, true, 3, now, now)
	mock.ExpectQuery("SELECT \\* FROM teacher_availabilities").
		WithArgs("2024-03-04", "09:00", "10:00").
		WillReturnRows(rows)

	records, err := repo.ListAvailable(context.Background(), "2024-03-04", models.Window{Start: "09:00", End: "10:00"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "teacher-b", records[0].TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec("DELETE FROM teacher_availabilities").
		WithArgs("avail-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "avail-404")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
