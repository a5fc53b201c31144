package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"
)

type availabilitySourceStub struct {
	records []models.TeacherAvailability
	err     error
}

func (s availabilitySourceStub) QueryAvailable(ctx context.Context, date string, window models.Window, subjectFilter string) ([]models.TeacherAvailability, error) {
	return s.records, s.err
}

type conflictCheckerStub struct {
	conflicted map[string]bool
	err        error
}

func (s conflictCheckerStub) HasConflict(ctx context.Context, teacherID, date string, window models.Window, excludeRequestID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.conflicted[teacherID], nil
}

type historyReaderStub struct {
	loads map[string]int
	stats map[string]*models.TeacherReliability
}

func (s historyReaderStub) CountActiveByTeacherAndDate(ctx context.Context, teacherID, date, excludeRequestID string) (int, error) {
	return s.loads[teacherID], nil
}

func (s historyReaderStub) ReliabilityStats(ctx context.Context, teacherID, sinceDate string) (*models.TeacherReliability, error) {
	if stats, ok := s.stats[teacherID]; ok {
		return stats, nil
	}
	return &models.TeacherReliability{}, nil
}

func availabilityFor(teacherID string, subjects ...string) models.TeacherAvailability {
	return models.TeacherAvailability{
		ID:            "avail-" + teacherID,
		TeacherID:     teacherID,
		Date:          "2024-03-04",
		StartTime:     "08:00",
		EndTime:       "12:00",
		Status:        models.AvailabilityAvailable,
		Subjects:      pq.StringArray(subjects),
		CanSubstitute: true,
		MaxDailySubs:  3,
	}
}

func TestFindCandidatesExcludesListedTeachers(t *testing.T) {
	source := availabilitySourceStub{records: []models.TeacherAvailability{
		availabilityFor("teacher-a"),
		availabilityFor("teacher-b"),
	}}
	svc := NewCandidateService(source, conflictCheckerStub{}, historyReaderStub{}, 6, zap.NewNop())

	candidates, err := svc.FindCandidates(context.Background(), CandidateQuery{
		Date:            "2024-03-04",
		Window:          models.Window{Start: "09:00", End: "10:00"},
		ExcludeTeachers: []string{"teacher-a"},
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "teacher-b", candidates[0].TeacherID)
}

func TestFindCandidatesDropsConflicted(t *testing.T) {
	source := availabilitySourceStub{records: []models.TeacherAvailability{
		availabilityFor("teacher-a"),
		availabilityFor("teacher-b"),
	}}
	conflicts := conflictCheckerStub{conflicted: map[string]bool{"teacher-a": true}}
	svc := NewCandidateService(source, conflicts, historyReaderStub{}, 6, zap.NewNop())

	candidates, err := svc.FindCandidates(context.Background(), CandidateQuery{
		Date:   "2024-03-04",
		Window: models.Window{Start: "09:00", End: "10:00"},
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "teacher-b", candidates[0].TeacherID)
}

func TestFindCandidatesEnforcesDailyCap(t *testing.T) {
	source := availabilitySourceStub{records: []models.TeacherAvailability{
		availabilityFor("teacher-b"),
	}}
	history := historyReaderStub{loads: map[string]int{"teacher-b": 3}}
	svc := NewCandidateService(source, conflictCheckerStub{}, history, 6, zap.NewNop())

	candidates, err := svc.FindCandidates(context.Background(), CandidateQuery{
		Date:   "2024-03-04",
		Window: models.Window{Start: "09:00", End: "10:00"},
	})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFindCandidatesEmptyPoolIsNotAnError(t *testing.T) {
	svc := NewCandidateService(availabilitySourceStub{}, conflictCheckerStub{}, historyReaderStub{}, 6, zap.NewNop())

	candidates, err := svc.FindCandidates(context.Background(), CandidateQuery{
		Date:   "2024-03-04",
		Window: models.Window{Start: "09:00", End: "10:00"},
	})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestSelectBestIsDeterministic(t *testing.T) {
	candidates := []models.Candidate{
		{TeacherID: "teacher-c", Score: 4.0, SameDayLoad: 1},
		{TeacherID: "teacher-a", Score: 4.5, SameDayLoad: 0},
		{TeacherID: "teacher-b", Score: 4.5, SameDayLoad: 0},
	}
	svc := NewCandidateService(availabilitySourceStub{}, conflictCheckerStub{}, historyReaderStub{}, 6, zap.NewNop())

	for i := 0; i < 10; i++ {
		best := svc.SelectBest(candidates)
		require.NotNil(t, best)
		// Equal scores and loads fall back to lowest teacher id.
		assert.Equal(t, "teacher-a", best.TeacherID)
	}
}

func TestSelectBestPrefersLowerLoadOnScoreTie(t *testing.T) {
	candidates := []models.Candidate{
		{TeacherID: "teacher-a", Score: 4.5, SameDayLoad: 2},
		{TeacherID: "teacher-b", Score: 4.5, SameDayLoad: 1},
	}
	svc := NewCandidateService(availabilitySourceStub{}, conflictCheckerStub{}, historyReaderStub{}, 6, zap.NewNop())

	best := svc.SelectBest(candidates)
	require.NotNil(t, best)
	assert.Equal(t, "teacher-b", best.TeacherID)
}

func TestSelectBestEmptySet(t *testing.T) {
	svc := NewCandidateService(availabilitySourceStub{}, conflictCheckerStub{}, historyReaderStub{}, 6, zap.NewNop())
	assert.Nil(t, svc.SelectBest(nil))
}

func TestScoreRewardsReliability(t *testing.T) {
	reliable := models.Candidate{
		TeacherID:   "teacher-a",
		Reliability: models.TeacherReliability{Completed: 9, Declined: 1, RatedCount: 9, RatingSum: 40},
	}
	flaky := models.Candidate{
		TeacherID:   "teacher-b",
		Reliability: models.TeacherReliability{Completed: 3, Declined: 7, RatedCount: 3, RatingSum: 6},
	}
	assert.Greater(t, score(reliable), score(flaky))
}

func TestScoreNeutralDefaultsWithoutHistory(t *testing.T) {
	fresh := models.Candidate{TeacherID: "teacher-a"}
	// No history: completion rate 1.0, neutral rating 3.0, zero load.
	expected := weightCompletion*5.0 + weightRating*3.0 + weightLoad*5.0
	assert.InDelta(t, expected, score(fresh), 1e-9)
}

func TestScorePenalisesSameDayLoad(t *testing.T) {
	idle := models.Candidate{TeacherID: "teacher-a", SameDayLoad: 0}
	busy := models.Candidate{TeacherID: "teacher-a", SameDayLoad: 3}
	assert.Greater(t, score(idle), score(busy))
}
