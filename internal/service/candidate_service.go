package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"
	appErrors "github.com/toletmelearn/PNS-Dhampur-sub001/pkg/errors"
)

type candidateAvailabilitySource interface {
	QueryAvailable(ctx context.Context, date string, window models.Window, subjectFilter string) ([]models.TeacherAvailability, error)
}

type candidateConflictChecker interface {
	HasConflict(ctx context.Context, teacherID, date string, window models.Window, excludeRequestID string) (bool, error)
}

type candidateHistoryReader interface {
	CountActiveByTeacherAndDate(ctx context.Context, teacherID, date, excludeRequestID string) (int, error)
	ReliabilityStats(ctx context.Context, teacherID, sinceDate string) (*models.TeacherReliability, error)
}

// Reliability score weights. The completion rate dominates, the rating
// refines, and the load term spreads same-day work across the pool. Tuning
// them is fine as long as the ordering contract in SelectBest holds.
const (
	weightCompletion = 0.50
	weightRating     = 0.35
	weightLoad       = 0.15
)

// CandidateQuery narrows the eligible substitute pool. ClassID scopes the
// search for logging and future class-level qualification policy;
// qualification itself is keyed on subject tags.
type CandidateQuery struct {
	Date             string
	Window           models.Window
	Subject          string
	ClassID          string
	ExcludeTeachers  []string
	ExcludeRequestID string
}

// CandidateService finds and ranks eligible substitute teachers.
type CandidateService struct {
	availability      candidateAvailabilitySource
	conflicts         candidateConflictChecker
	history           candidateHistoryReader
	logger            *zap.Logger
	reliabilityWindow int
	now               func() time.Time
}

// NewCandidateService creates a service instance. reliabilityWindowMonths
// bounds the trailing history fed into the score.
func NewCandidateService(availability candidateAvailabilitySource, conflicts candidateConflictChecker, history candidateHistoryReader, reliabilityWindowMonths int, logger *zap.Logger) *CandidateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reliabilityWindowMonths <= 0 {
		reliabilityWindowMonths = 6
	}
	return &CandidateService{
		availability:      availability,
		conflicts:         conflicts,
		history:           history,
		logger:            logger,
		reliabilityWindow: reliabilityWindowMonths,
		now:               time.Now,
	}
}

// FindCandidates applies the eligibility filters in order: window
// containment, exclusion list, conflict check, daily cap, subject
// qualification. An empty result is not an error; the caller decides
// whether to escalate.
func (s *CandidateService) FindCandidates(ctx context.Context, query CandidateQuery) ([]models.Candidate, error) {
	records, err := s.availability.QueryAvailable(ctx, query.Date, query.Window, query.Subject)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{}, len(query.ExcludeTeachers))
	for _, id := range query.ExcludeTeachers {
		excluded[id] = struct{}{}
	}

	sinceDate := s.now().UTC().AddDate(0, -s.reliabilityWindow, 0).Format("2006-01-02")
	seen := make(map[string]struct{})
	candidates := make([]models.Candidate, 0, len(records))
	for _, record := range records {
		if _, skip := excluded[record.TeacherID]; skip {
			continue
		}
		if _, dup := seen[record.TeacherID]; dup {
			continue
		}
		seen[record.TeacherID] = struct{}{}

		conflicted, err := s.conflicts.HasConflict(ctx, record.TeacherID, query.Date, query.Window, query.ExcludeRequestID)
		if err != nil {
			return nil, err
		}
		if conflicted {
			continue
		}

		load, err := s.history.CountActiveByTeacherAndDate(ctx, record.TeacherID, query.Date, query.ExcludeRequestID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count same-day load")
		}
		if load >= record.MaxDailySubs {
			continue
		}

		stats, err := s.history.ReliabilityStats(ctx, record.TeacherID, sinceDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reliability stats")
		}

		candidate := models.Candidate{
			TeacherID:    record.TeacherID,
			Availability: record,
			SameDayLoad:  load,
			Reliability:  *stats,
		}
		candidate.Score = score(candidate)
		candidates = append(candidates, candidate)
	}
	s.logger.Debug("candidate search complete",
		zap.String("date", query.Date),
		zap.String("class_id", query.ClassID),
		zap.Int("pool", len(records)),
		zap.Int("eligible", len(candidates)),
	)
	return candidates, nil
}

// Rank returns a copy of the candidate set in deterministic selection
// order: score descending, then lowest same-day load, then lowest teacher
// id. The ordering contract is relied on by tests and by re-runs after a
// decline.
func (s *CandidateService) Rank(candidates []models.Candidate) []models.Candidate {
	ranked := make([]models.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].SameDayLoad != ranked[j].SameDayLoad {
			return ranked[i].SameDayLoad < ranked[j].SameDayLoad
		}
		return ranked[i].TeacherID < ranked[j].TeacherID
	})
	return ranked
}

// SelectBest returns the top-ranked candidate, or nil for an empty set.
func (s *CandidateService) SelectBest(candidates []models.Candidate) *models.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	best := s.Rank(candidates)[0]
	return &best
}

// score combines completion rate, average rating and a same-day load
// penalty into a single comparable value on a 0-5 scale.
func score(c models.Candidate) float64 {
	loadTerm := 5.0 - float64(c.SameDayLoad)
	if loadTerm < 0 {
		loadTerm = 0
	}
	return weightCompletion*c.Reliability.CompletionRate()*5.0 +
		weightRating*c.Reliability.AverageRating() +
		weightLoad*loadTerm
}
