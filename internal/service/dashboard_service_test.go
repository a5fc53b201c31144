package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"
	appErrors "github.com/toletmelearn/PNS-Dhampur-sub001/pkg/errors"
)

type statsReaderStub struct {
	counts      []models.StatusCount
	emergencies int
	escalated   int
	calls       int
}

func (s *statsReaderStub) CountByStatusForDate(ctx context.Context, date string) ([]models.StatusCount, error) {
	s.calls++
	return s.counts, nil
}

func (s *statsReaderStub) CountFlagsForDate(ctx context.Context, date string) (int, int, error) {
	return s.emergencies, s.escalated, nil
}

func TestDashboardStatsAggregates(t *testing.T) {
	repo := &statsReaderStub{
		counts: []models.StatusCount{
			{Status: models.StatusPending, Count: 2},
			{Status: models.StatusAssigned, Count: 3},
			{Status: models.StatusCompleted, Count: 5},
		},
		emergencies: 1,
		escalated:   2,
	}
	svc := NewDashboardService(repo, nil, 0, zap.NewNop())

	stats, err := svc.Stats(context.Background(), "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", stats.Date)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[models.StatusPending])
	assert.Equal(t, 2, stats.Unfilled)
	assert.Equal(t, 1, stats.Emergencies)
	assert.Equal(t, 2, stats.Escalated)
}

func TestDashboardWeekStatsSumsSevenDays(t *testing.T) {
	repo := &statsReaderStub{
		counts: []models.StatusCount{
			{Status: models.StatusPending, Count: 1},
			{Status: models.StatusCompleted, Count: 2},
		},
		emergencies: 1,
	}
	svc := NewDashboardService(repo, nil, 0, zap.NewNop())

	week, err := svc.WeekStats(context.Background(), "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", week.FromDate)
	assert.Equal(t, "2024-03-10", week.ToDate)
	require.Len(t, week.Days, 7)
	assert.Equal(t, 21, week.Total)
	assert.Equal(t, 7, week.Unfilled)
	assert.Equal(t, 7, week.Emergencies)
	assert.Equal(t, 14, week.ByStatus[models.StatusCompleted])
	assert.Equal(t, 7, repo.calls)
}

func TestDashboardStatsRejectsBadDate(t *testing.T) {
	svc := NewDashboardService(&statsReaderStub{}, nil, 0, zap.NewNop())

	_, err := svc.Stats(context.Background(), "04-03-2024")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
