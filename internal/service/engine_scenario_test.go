package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/dto"
	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"
	"github.com/toletmelearn/PNS-Dhampur-sub001/pkg/config"
)

// availabilityPoolStub mimics the store's containment query: only windows
// fully covering the requested one come back, filtered by qualification.
type availabilityPoolStub struct {
	records []models.TeacherAvailability
}

func (s availabilityPoolStub) QueryAvailable(ctx context.Context, date string, window models.Window, subjectFilter string) ([]models.TeacherAvailability, error) {
	var out []models.TeacherAvailability
	for _, record := range s.records {
		if record.Date != date || record.Status != models.AvailabilityAvailable || !record.CanSubstitute {
			continue
		}
		if !record.Window().Contains(window) {
			continue
		}
		if !record.QualifiedFor(subjectFilter) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

type scenarioHistoryStub struct {
	loads map[string]int
}

func (s scenarioHistoryStub) CountActiveByTeacherAndDate(ctx context.Context, teacherID, date, excludeRequestID string) (int, error) {
	return s.loads[teacherID], nil
}

func (s scenarioHistoryStub) ReliabilityStats(ctx context.Context, teacherID, sinceDate string) (*models.TeacherReliability, error) {
	return &models.TeacherReliability{}, nil
}

func scenarioEngine(t *testing.T, pool availabilityPoolStub, loads map[string]int) (*SubstitutionService, *substitutionRepoStub) {
	t.Helper()
	repo := newSubstitutionRepoStub()
	history := scenarioHistoryStub{loads: loads}
	conflicts := NewConflictService(requestReaderStub{}, blockingReaderStub{}, nil, zap.NewNop())
	finder := NewCandidateService(pool, conflicts, history, 6, zap.NewNop())
	cfg := config.EngineConfig{
		AutoAssignOnCreate:      true,
		EscalationThreshold:     2,
		DefaultDailyCap:         3,
		ReliabilityWindowMonths: 6,
	}
	svc := NewSubstitutionService(repo, finder, conflicts, nil, nil, nil, nil, cfg, nil, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	}
	return svc, repo
}

func mathAvailability(teacherID, start, end string) models.TeacherAvailability {
	return models.TeacherAvailability{
		ID:            "avail-" + teacherID,
		TeacherID:     teacherID,
		Date:          "2024-03-04",
		StartTime:     start,
		EndTime:       end,
		Status:        models.AvailabilityAvailable,
		Subjects:      pq.StringArray{"Math"},
		CanSubstitute: true,
		MaxDailySubs:  3,
	}
}

// Teacher A is absent 09:00-10:00. B covers the window fully; C's window
// does not contain it. Only B is eligible; after B declines the pool is
// empty and the second failed search escalates.
func TestScenarioAssignDeclineEscalate(t *testing.T) {
	pool := availabilityPoolStub{records: []models.TeacherAvailability{
		mathAvailability("teacher-b", "08:00", "12:00"),
		mathAvailability("teacher-c", "09:00", "09:30"),
	}}
	svc, repo := scenarioEngine(t, pool, nil)

	subject := "Math"
	request, err := svc.Create(context.Background(), dto.CreateSubstitutionRequest{
		AbsentTeacherID: "teacher-a",
		ClassID:         "class-5b",
		Subject:         &subject,
		Date:            "2024-03-04",
		StartTime:       "09:00",
		EndTime:         "10:00",
		RequestedBy:     "admin-1",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusAssigned, request.Status)
	assert.Equal(t, "teacher-b", *request.SubstituteTeacherID)

	declined, err := svc.Decline(context.Background(), request.ID, dto.DeclineRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, declined.Status)
	assert.Nil(t, declined.SubstituteTeacherID)
	assert.Equal(t, 1, declined.FailedSearches)
	assert.False(t, declined.Escalated)

	repo.pending = []models.SubstitutionRequest{*declined}
	result, err := svc.AutoAssignPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Assigned)
	assert.Equal(t, 1, result.StillFailed)

	final, err := svc.Get(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, final.Status)
	assert.Equal(t, 2, final.FailedSearches)
	assert.True(t, final.Escalated)
	assert.Equal(t, models.PriorityUrgent, final.Priority)
}

// B is otherwise available and qualified but already holds a full day.
func TestScenarioDailyCapFiltersCandidate(t *testing.T) {
	pool := availabilityPoolStub{records: []models.TeacherAvailability{
		mathAvailability("teacher-b", "08:00", "12:00"),
	}}
	svc, _ := scenarioEngine(t, pool, map[string]int{"teacher-b": 3})

	subject := "Math"
	request, err := svc.Create(context.Background(), dto.CreateSubstitutionRequest{
		AbsentTeacherID: "teacher-a",
		ClassID:         "class-5b",
		Subject:         &subject,
		Date:            "2024-03-04",
		StartTime:       "09:00",
		EndTime:         "10:00",
		RequestedBy:     "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, request.Status)
	assert.Nil(t, request.SubstituteTeacherID)
}

// A generalist with no qualification tags matches any subject.
func TestScenarioGeneralistMatchesAnySubject(t *testing.T) {
	generalist := mathAvailability("teacher-g", "08:00", "12:00")
	generalist.Subjects = nil
	pool := availabilityPoolStub{records: []models.TeacherAvailability{generalist}}
	svc, _ := scenarioEngine(t, pool, nil)

	subject := "Chemistry"
	request, err := svc.Create(context.Background(), dto.CreateSubstitutionRequest{
		AbsentTeacherID: "teacher-a",
		ClassID:         "class-5b",
		Subject:         &subject,
		Date:            "2024-03-04",
		StartTime:       "09:00",
		EndTime:         "10:00",
		RequestedBy:     "admin-1",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusAssigned, request.Status)
	assert.Equal(t, "teacher-g", *request.SubstituteTeacherID)
}
