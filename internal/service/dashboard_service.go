package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"
	appErrors "github.com/toletmelearn/PNS-Dhampur-sub001/pkg/errors"
)

type dashboardStatsReader interface {
	CountByStatusForDate(ctx context.Context, date string) ([]models.StatusCount, error)
	CountFlagsForDate(ctx context.Context, date string) (emergencies, escalated int, err error)
}

var dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DashboardService aggregates substitution counts for operational views.
// Results are cached per date; cache failures degrade to a direct read.
type DashboardService struct {
	repo     dashboardStatsReader
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService creates a service instance. cache may be nil.
func NewDashboardService(repo dashboardStatsReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Stats returns the day's substitution summary. An empty date means today.
func (s *DashboardService) Stats(ctx context.Context, date string) (*models.SubstitutionDayStats, error) {
	if date == "" {
		date = s.now().UTC().Format("2006-01-02")
	}
	if !dateFormat.MatchString(date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}

	key := fmt.Sprintf("dash:subs:%s", date)
	var stats models.SubstitutionDayStats
	if hit, err := s.cache.Get(ctx, key, &stats); err == nil && hit {
		return &stats, nil
	}

	counts, err := s.repo.CountByStatusForDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate substitution stats")
	}
	emergencies, escalated, err := s.repo.CountFlagsForDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate substitution flags")
	}

	stats = models.SubstitutionDayStats{
		Date:        date,
		ByStatus:    make(map[models.RequestStatus]int, len(counts)),
		Emergencies: emergencies,
		Escalated:   escalated,
	}
	for _, c := range counts {
		stats.ByStatus[c.Status] = c.Count
		stats.Total += c.Count
		if c.Status == models.StatusPending {
			stats.Unfilled += c.Count
		}
	}

	if err := s.cache.Set(ctx, key, &stats, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return &stats, nil
}

// WeekStats sums the seven days starting at fromDate. An empty fromDate
// starts the range at today. Each day rides the per-date cache.
func (s *DashboardService) WeekStats(ctx context.Context, fromDate string) (*models.SubstitutionWeekStats, error) {
	if fromDate == "" {
		fromDate = s.now().UTC().Format("2006-01-02")
	}
	if !dateFormat.MatchString(fromDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}
	start, err := time.Parse("2006-01-02", fromDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}

	week := &models.SubstitutionWeekStats{
		FromDate: fromDate,
		ToDate:   start.AddDate(0, 0, 6).Format("2006-01-02"),
		ByStatus: make(map[models.RequestStatus]int),
		Days:     make([]models.SubstitutionDayStats, 0, 7),
	}
	for i := 0; i < 7; i++ {
		day, err := s.Stats(ctx, start.AddDate(0, 0, i).Format("2006-01-02"))
		if err != nil {
			return nil, err
		}
		week.Days = append(week.Days, *day)
		week.Total += day.Total
		week.Unfilled += day.Unfilled
		week.Emergencies += day.Emergencies
		week.Escalated += day.Escalated
		for status, count := range day.ByStatus {
			week.ByStatus[status] += count
		}
	}
	return week, nil
}

// InvalidateDate drops the cached summary for the date, typically after a
// lifecycle transition.
func (s *DashboardService) InvalidateDate(ctx context.Context, date string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("dash:subs:%s", date)); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("date", date), zap.Error(err))
	}
}
