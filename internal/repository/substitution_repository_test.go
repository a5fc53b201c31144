package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"
	appErrors "github.com/toletmelearn/PNS-Dhampur-sub001/pkg/errors"
)

func pendingRequest() *models.SubstitutionRequest {
	return &models.SubstitutionRequest{
		ID:              "req-1",
		AbsentTeacherID: "teacher-a",
		ClassID:         "class-5b",
		Date:            "2024-03-04",
		StartTime:       "09:00",
		EndTime:         "10:00",
		Priority:        models.PriorityMedium,
		RequestedBy:     "admin-1",
		Status:          models.StatusPending,
		Version:         1,
	}
}

func TestSubstitutionRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectExec("INSERT INTO substitution_requests").
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := pendingRequest()
	request.ID = ""
	request.Status = ""
	request.Version = 0
	require.NoError(t, repo.Create(context.Background(), request))
	assert.NotEmpty(t, request.ID)
	assert.Equal(t, models.StatusPending, request.Status)
	assert.Equal(t, 1, request.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryUpdateTransition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE substitution_requests").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	request := pendingRequest()
	require.NoError(t, repo.UpdateTransition(context.Background(), request))
	// The in-memory version follows the row's increment.
	assert.Equal(t, 2, request.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryUpdateTransitionPersistsReason(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectBegin()
	// The SET list must carry the standalone reason column, not just
	// decline_reason.
	mock.ExpectExec(`UPDATE substitution_requests[\s\S]*, reason = \$`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	request := pendingRequest()
	reason := "nobody available this week"
	request.Reason = &reason
	request.Escalated = true
	request.Priority = models.PriorityUrgent
	require.NoError(t, repo.UpdateTransition(context.Background(), request))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryUpdateTransitionLostRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE substitution_requests").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	request := pendingRequest()
	err := repo.UpdateTransition(context.Background(), request)
	assert.Equal(t, sql.ErrNoRows, err)
	assert.Equal(t, 1, request.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryUpdateTransitionBooksWhenWindowFree(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs("teacher-b").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM substitution_requests").
		WithArgs("teacher-b", "2024-03-04", "09:00", "10:00", "req-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("UPDATE substitution_requests").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	request := pendingRequest()
	substitute := "teacher-b"
	request.Status = models.StatusAssigned
	request.SubstituteTeacherID = &substitute
	require.NoError(t, repo.UpdateTransition(context.Background(), request))
	assert.Equal(t, 2, request.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryUpdateTransitionRejectsDoubleBooking(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs("teacher-b").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// Another request already booked the teacher into an overlapping window.
	mock.ExpectQuery("SELECT 1 FROM substitution_requests").
		WithArgs("teacher-b", "2024-03-04", "09:00", "10:00", "req-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	request := pendingRequest()
	substitute := "teacher-b"
	request.Status = models.StatusAssigned
	request.SubstituteTeacherID = &substitute
	err := repo.UpdateTransition(context.Background(), request)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, 1, request.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryCountActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM substitution_requests").
		WithArgs("teacher-b", "2024-03-04", "req-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountActiveByTeacherAndDate(context.Background(), "teacher-b", "2024-03-04", "req-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryExistsActiveOverlapAbsent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectQuery("SELECT 1 FROM substitution_requests").
		WithArgs("teacher-b", "2024-03-04", "09:00", "10:00").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsActiveOverlap(context.Background(), "teacher-b", "2024-03-04", models.Window{Start: "09:00", End: "10:00"})
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "absent_teacher_id", "class_id", "date", "start_time", "end_time", "priority", "is_emergency", "requested_by", "requested_at", "status", "notified", "failed_searches", "escalated", "version", "created_at", "updated_at"}).
		AddRow("req-1", "teacher-a", "class-5b", "2024-03-04", "09:00", "10:00", "medium", false, "admin-1", now, "pending", false, 0, false, 1, now, now)
	mock.ExpectQuery("SELECT \\* FROM substitution_requests WHERE 1=1 AND date = \\$1 AND status = \\$2").
		WithArgs("2024-03-04", models.StatusPending).
		WillReturnRows(rows)

	requests, err := repo.List(context.Background(), models.SubstitutionFilter{Date: "2024-03-04", Status: models.StatusPending})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "req-1", requests[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryReliabilityStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	rows := sqlmock.NewRows([]string{"taken", "completed", "declined", "rated_count", "rating_sum"}).
		AddRow(10, 8, 2, 8, 36)
	mock.ExpectQuery("SELECT").
		WithArgs("teacher-b", "2023-09-04").
		WillReturnRows(rows)

	stats, err := repo.ReliabilityStats(context.Background(), "teacher-b", "2023-09-04")
	require.NoError(t, err)
	assert.Equal(t, 8, stats.Completed)
	assert.Equal(t, 2, stats.Declined)
	assert.InDelta(t, 0.8, stats.CompletionRate(), 1e-9)
	assert.InDelta(t, 4.5, stats.AverageRating(), 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
