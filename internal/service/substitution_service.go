package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/dto"
	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"
	"github.com/toletmelearn/PNS-Dhampur-sub001/pkg/config"
	appErrors "github.com/toletmelearn/PNS-Dhampur-sub001/pkg/errors"
)

// systemActor is recorded as assigned_by for automatic assignments.
const systemActor = "system"

const (
	assignModeAuto     = "auto"
	assignModeManual   = "manual"
	assignModeReassign = "reassign"
)

type substitutionRepository interface {
	Create(ctx context.Context, request *models.SubstitutionRequest) error
	FindByID(ctx context.Context, id string) (*models.SubstitutionRequest, error)
	UpdateTransition(ctx context.Context, request *models.SubstitutionRequest) error
	List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRequest, error)
	ListPendingAutoAssign(ctx context.Context, fromDate string) ([]models.SubstitutionRequest, error)
	CountActiveByTeacherAndDate(ctx context.Context, teacherID, date, excludeRequestID string) (int, error)
}

type candidateFinder interface {
	FindCandidates(ctx context.Context, query CandidateQuery) ([]models.Candidate, error)
	Rank(candidates []models.Candidate) []models.Candidate
	SelectBest(candidates []models.Candidate) *models.Candidate
}

type lifecycleConflictChecker interface {
	Detect(ctx context.Context, teacherID, date string, window models.Window, excludeRequestID string) (*Conflict, error)
}

type notifier interface {
	Notify(teacherID, requestID string, kind NotificationKind)
}

type dailyCapSource interface {
	DeclaredDailyCap(ctx context.Context, teacherID, date string) (int, error)
}

// SubstitutionService owns the request lifecycle: creation, assignment,
// confirmation, decline with re-search, completion, cancellation and
// escalation. Every transition goes through the repository's versioned
// update, so two actors racing on the same request cannot both win.
type SubstitutionService struct {
	repo      substitutionRepository
	finder    candidateFinder
	conflicts lifecycleConflictChecker
	teachers  teacherDirectory
	caps      dailyCapSource
	notifier  notifier
	metrics   *MetricsService
	cfg       config.EngineConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubstitutionService creates a service instance. caps, notifier and
// metrics may be nil; without caps the manual path falls back to the
// configured default daily cap.
func NewSubstitutionService(repo substitutionRepository, finder candidateFinder, conflicts lifecycleConflictChecker, teachers teacherDirectory, caps dailyCapSource, notifier notifier, metrics *MetricsService, cfg config.EngineConfig, validate *validator.Validate, logger *zap.Logger) *SubstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.EscalationThreshold <= 0 {
		cfg.EscalationThreshold = 2
	}
	if cfg.DefaultDailyCap <= 0 {
		cfg.DefaultDailyCap = 3
	}
	return &SubstitutionService{
		repo:      repo,
		finder:    finder,
		conflicts: conflicts,
		teachers:  teachers,
		caps:      caps,
		notifier:  notifier,
		metrics:   metrics,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create opens a substitution request. Non-emergency requests trigger an
// immediate automatic search when auto-assign is enabled; emergencies are
// left pending for an administrator to place by hand.
func (s *SubstitutionService) Create(ctx context.Context, req dto.CreateSubstitutionRequest) (*models.SubstitutionRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitution payload")
	}
	window := models.Window{Start: req.StartTime, End: req.EndTime}
	if !window.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	today := s.now().UTC().Format("2006-01-02")
	if req.Date < today {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must not be in the past")
	}
	if err := s.ensureTeacher(ctx, req.AbsentTeacherID); err != nil {
		return nil, err
	}

	priority := models.RequestPriority(req.Priority)
	if priority == "" {
		priority = models.PriorityMedium
		if req.IsEmergency {
			priority = models.PriorityHigh
		}
	}

	request := &models.SubstitutionRequest{
		AbsentTeacherID: req.AbsentTeacherID,
		ClassID:         req.ClassID,
		Subject:         req.Subject,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Priority:        priority,
		IsEmergency:     req.IsEmergency,
		Reason:          req.Reason,
		RequestedBy:     req.RequestedBy,
		RequestedAt:     s.now().UTC(),
		Status:          models.StatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create substitution request")
	}

	if !req.IsEmergency && s.cfg.AutoAssignOnCreate {
		assigned, err := s.runSearch(ctx, request, assignModeAuto)
		if err != nil {
			// The request exists either way; surface the search failure
			// but keep the created row.
			s.logger.Error("automatic search failed on create",
				zap.String("request_id", request.ID),
				zap.Error(err),
			)
			return request, nil
		}
		if err := s.transition(ctx, request); err != nil {
			// A booking race leaves the stored row pending; the sweep
			// retries it later.
			if appErrors.Is(err, appErrors.ErrConflict) || appErrors.Is(err, appErrors.ErrConcurrentModification) {
				s.logger.Warn("assignment lost a booking race on create",
					zap.String("request_id", request.ID),
					zap.Error(err),
				)
				return s.load(ctx, request.ID)
			}
			return nil, err
		}
		if assigned {
			s.notifyAssignment(request, NotifyAssignment)
			s.recordAssignment(assignModeAuto)
		} else if request.Escalated {
			s.recordEscalation(request)
		}
	}
	return request, nil
}

// Get loads a single request.
func (s *SubstitutionService) Get(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	return s.load(ctx, id)
}

// List returns requests matching the filter.
func (s *SubstitutionService) List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRequest, error) {
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list substitution requests")
	}
	return requests, nil
}

// AssignManually places a chosen substitute on a pending request. The
// eligibility checks mirror the automatic path: the teacher must exist, be
// active, not have declined this request, have no conflicting commitment
// and have daily capacity left.
func (s *SubstitutionService) AssignManually(ctx context.Context, requestID string, req dto.AssignRequest) (*models.SubstitutionRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot assign a %s request", request.Status))
	}
	if req.TeacherID == request.AbsentTeacherID {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "substitute cannot be the absent teacher")
	}
	if request.Excludes(req.TeacherID) {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "teacher has already declined this request")
	}
	if err := s.ensureTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	conflict, err := s.conflicts.Detect(ctx, req.TeacherID, request.Date, request.Window(), request.ID)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, appErrors.Clone(appErrors.ErrNotEligible,
			fmt.Sprintf("teacher has a conflicting %s from %s to %s", conflict.Source, conflict.Window.Start, conflict.Window.End))
	}
	load, err := s.repo.CountActiveByTeacherAndDate(ctx, req.TeacherID, request.Date, request.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count same-day load")
	}
	dailyCap := s.cfg.DefaultDailyCap
	if s.caps != nil {
		declared, err := s.caps.DeclaredDailyCap(ctx, req.TeacherID, request.Date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load declared daily cap")
		}
		if declared > 0 {
			dailyCap = declared
		}
	}
	if load >= dailyCap {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "teacher has reached the daily substitution cap")
	}

	s.applyAssignment(request, req.TeacherID, req.ActorID)
	if err := s.transition(ctx, request); err != nil {
		return nil, err
	}
	s.notifyAssignment(request, NotifyAssignment)
	s.recordAssignment(assignModeManual)
	return request, nil
}

// Confirm acknowledges an assignment on behalf of the substitute.
func (s *SubstitutionService) Confirm(ctx context.Context, requestID string, req dto.ConfirmRequest) (*models.SubstitutionRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirmation payload")
	}
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusAssigned {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot confirm a %s request", request.Status))
	}
	now := s.now().UTC()
	request.Status = models.StatusConfirmed
	request.ConfirmedAt = &now
	if err := s.transition(ctx, request); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Notify(request.RequestedBy, request.ID, NotifyConfirmation)
	}
	return request, nil
}

// Decline records a substitute's refusal and immediately re-runs the
// search with the decliner excluded. If a replacement is found the request
// goes straight back to assigned; otherwise it returns to pending and, past
// the failure threshold, escalates. The whole outcome lands in a single
// versioned update.
func (s *SubstitutionService) Decline(ctx context.Context, requestID string, req dto.DeclineRequest) (*models.SubstitutionRequest, error) {
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusAssigned && request.Status != models.StatusConfirmed {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot decline a %s request", request.Status))
	}
	if request.SubstituteTeacherID == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "request has no substitute to decline")
	}

	decliner := *request.SubstituteTeacherID
	request.ExcludedTeacherIDs = append(request.ExcludedTeacherIDs, decliner)
	request.DeclineReason = req.Reason
	s.clearAssignment(request)
	if s.metrics != nil {
		s.metrics.RecordDecline()
	}

	// Escalated requests stay out of the automatic retry loop; they wait
	// for a manual assignment.
	assigned := false
	wasEscalated := request.Escalated
	if !wasEscalated {
		assigned, err = s.runSearch(ctx, request, assignModeReassign)
		if err != nil {
			return nil, err
		}
	}
	if err := s.transition(ctx, request); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Notify(decliner, request.ID, NotifyDecline)
	}
	if assigned {
		s.notifyAssignment(request, NotifyReassignment)
		s.recordAssignment(assignModeReassign)
	} else if request.Escalated && !wasEscalated {
		s.recordEscalation(request)
	}
	return request, nil
}

// Complete closes a substitution after it took place, with optional
// feedback and a 1 to 5 rating. Completing straight from assigned is
// allowed only when implicit confirmation is enabled.
func (s *SubstitutionService) Complete(ctx context.Context, requestID string, req dto.CompleteRequest) (*models.SubstitutionRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	switch request.Status {
	case models.StatusConfirmed:
	case models.StatusAssigned:
		if !s.cfg.ImplicitConfirmOnComplete {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "request must be confirmed before completion")
		}
		request.ConfirmedAt = &now
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot complete a %s request", request.Status))
	}

	request.Status = models.StatusCompleted
	request.CompletedAt = &now
	request.Feedback = req.Feedback
	request.Rating = req.Rating
	if err := s.transition(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Cancel withdraws a request. A confirmed same-day cancellation needs the
// override flag; a substitution already underway cannot be cancelled at
// all. The substitute reference is kept on the row for history.
func (s *SubstitutionService) Cancel(ctx context.Context, requestID string, req dto.CancelRequest) (*models.SubstitutionRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancellation payload")
	}
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot cancel a %s request", request.Status))
	}
	now := s.now().UTC()
	if request.HasStarted(now) && request.SubstituteTeacherID != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "substitution has already started")
	}
	if request.Status == models.StatusConfirmed && request.Date == now.Format("2006-01-02") && !req.Override {
		return nil, appErrors.Clone(appErrors.ErrLateCancellation, "same-day cancellation of a confirmed assignment requires override")
	}

	substitute := request.SubstituteTeacherID
	request.Status = models.StatusCancelled
	request.CancelledAt = &now
	if err := s.transition(ctx, request); err != nil {
		return nil, err
	}
	if substitute != nil && s.notifier != nil {
		s.notifier.Notify(*substitute, request.ID, NotifyCancellation)
	}
	s.logger.Info("substitution cancelled",
		zap.String("request_id", request.ID),
		zap.String("actor_id", req.ActorID),
		zap.Bool("override", req.Override),
	)
	return request, nil
}

// Escalate flags a request for administrator attention and stops the
// automatic sweep from retrying it. Escalation never cancels the request.
func (s *SubstitutionService) Escalate(ctx context.Context, requestID string, reason string) (*models.SubstitutionRequest, error) {
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot escalate a %s request", request.Status))
	}
	if request.Escalated {
		return request, nil
	}
	request.Escalated = true
	request.Priority = models.PriorityUrgent
	if reason != "" {
		request.Reason = mergeReason(request.Reason, reason)
	}
	if err := s.transition(ctx, request); err != nil {
		return nil, err
	}
	s.recordEscalation(request)
	return request, nil
}

// AutoAssignPending sweeps pending non-emergency, non-escalated requests
// from today onward and tries to place each one. Requests that lose a
// version race are skipped and picked up by the next sweep.
func (s *SubstitutionService) AutoAssignPending(ctx context.Context) (*dto.AutoAssignResponse, error) {
	today := s.now().UTC().Format("2006-01-02")
	pending, err := s.repo.ListPendingAutoAssign(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending requests")
	}

	result := &dto.AutoAssignResponse{}
	for i := range pending {
		request := &pending[i]
		assigned, err := s.runSearch(ctx, request, assignModeAuto)
		if err != nil {
			s.logger.Error("automatic search failed",
				zap.String("request_id", request.ID),
				zap.Error(err),
			)
			result.StillFailed++
			continue
		}
		if err := s.transition(ctx, request); err != nil {
			if appErrors.Is(err, appErrors.ErrConcurrentModification) || appErrors.Is(err, appErrors.ErrConflict) {
				s.logger.Warn("request changed mid-sweep, skipping", zap.String("request_id", request.ID))
				result.StillFailed++
				continue
			}
			return nil, err
		}
		if assigned {
			s.notifyAssignment(request, NotifyAssignment)
			s.recordAssignment(assignModeAuto)
			result.Assigned++
		} else {
			if request.Escalated {
				s.recordEscalation(request)
			}
			result.StillFailed++
		}
	}
	return result, nil
}

// FindAvailableTeachers is the read-only candidate listing behind the
// manual assignment UI. It runs the same filters and ranking as the
// automatic search, without touching any request.
func (s *SubstitutionService) FindAvailableTeachers(ctx context.Context, date string, window models.Window, subject, classID string) ([]dto.AvailableTeacher, error) {
	if !window.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	candidates, err := s.finder.FindCandidates(ctx, CandidateQuery{
		Date:    date,
		Window:  window,
		Subject: subject,
		ClassID: classID,
	})
	if err != nil {
		return nil, err
	}
	ranked := s.finder.Rank(candidates)
	teachers := make([]dto.AvailableTeacher, 0, len(ranked))
	for _, c := range ranked {
		teachers = append(teachers, dto.AvailableTeacher{
			TeacherID:    c.TeacherID,
			Window:       models.Window{Start: c.Availability.StartTime, End: c.Availability.EndTime},
			Subjects:     c.Availability.Subjects,
			SameDayLoad:  c.SameDayLoad,
			Score:        c.Score,
			Availability: c.Availability,
		})
	}
	return teachers, nil
}

// runSearch finds the best candidate and mutates the request to the
// resulting state: assigned on success, pending with a bumped failure
// count (and possibly escalation) when the search is exhausted. The caller
// persists the outcome with a single transition.
func (s *SubstitutionService) runSearch(ctx context.Context, request *models.SubstitutionRequest, mode string) (bool, error) {
	best, err := s.searchReplacement(ctx, request)
	if err != nil {
		if !appErrors.Is(err, appErrors.ErrNoCandidate) {
			return false, err
		}
		s.markSearchFailed(request)
		s.logger.Info("no eligible substitute found",
			zap.String("request_id", request.ID),
			zap.String("mode", mode),
			zap.Int("failed_searches", request.FailedSearches),
			zap.Bool("escalated", request.Escalated),
		)
		return false, nil
	}
	s.applyAssignment(request, best.TeacherID, systemActor)
	return true, nil
}

// searchReplacement runs the candidate search for the request and returns
// ErrNoCandidate when the pool is exhausted.
func (s *SubstitutionService) searchReplacement(ctx context.Context, request *models.SubstitutionRequest) (*models.Candidate, error) {
	exclude := make([]string, 0, len(request.ExcludedTeacherIDs)+1)
	exclude = append(exclude, request.ExcludedTeacherIDs...)
	exclude = append(exclude, request.AbsentTeacherID)

	subject := ""
	if request.Subject != nil {
		subject = *request.Subject
	}

	started := s.now()
	candidates, err := s.finder.FindCandidates(ctx, CandidateQuery{
		Date:             request.Date,
		Window:           request.Window(),
		Subject:          subject,
		ClassID:          request.ClassID,
		ExcludeTeachers:  exclude,
		ExcludeRequestID: request.ID,
	})
	if s.metrics != nil {
		s.metrics.ObserveSearch(s.now().Sub(started))
	}
	if err != nil {
		return nil, err
	}

	best := s.finder.SelectBest(candidates)
	if best == nil {
		return nil, appErrors.Clone(appErrors.ErrNoCandidate, fmt.Sprintf("no eligible substitute for request %s", request.ID))
	}
	return best, nil
}

// applyAssignment moves the request to assigned with the given substitute.
func (s *SubstitutionService) applyAssignment(request *models.SubstitutionRequest, teacherID, actorID string) {
	now := s.now().UTC()
	request.Status = models.StatusAssigned
	request.SubstituteTeacherID = &teacherID
	request.AssignedBy = &actorID
	request.AssignedAt = &now
	request.ConfirmedAt = nil
	request.Notified = true
}

// clearAssignment strips the substitute fields after a decline.
func (s *SubstitutionService) clearAssignment(request *models.SubstitutionRequest) {
	request.Status = models.StatusPending
	request.SubstituteTeacherID = nil
	request.AssignedBy = nil
	request.AssignedAt = nil
	request.ConfirmedAt = nil
	request.Notified = false
}

// markSearchFailed returns the request to pending and escalates once the
// consecutive failure threshold is reached.
func (s *SubstitutionService) markSearchFailed(request *models.SubstitutionRequest) {
	request.Status = models.StatusPending
	request.FailedSearches++
	if !request.Escalated && request.FailedSearches >= s.cfg.EscalationThreshold {
		request.Escalated = true
		request.Priority = models.PriorityUrgent
	}
}

func (s *SubstitutionService) load(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitution request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitution request")
	}
	return request, nil
}

func (s *SubstitutionService) transition(ctx context.Context, request *models.SubstitutionRequest) error {
	if err := s.repo.UpdateTransition(ctx, request); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrConcurrentModification, "request was modified concurrently")
		}
		if appErrors.Is(err, appErrors.ErrConflict) {
			return appErrors.Clone(appErrors.ErrConflict, "substitute was booked into an overlapping window concurrently")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update substitution request")
	}
	return nil
}

func (s *SubstitutionService) ensureTeacher(ctx context.Context, teacherID string) error {
	if s.teachers == nil {
		return nil
	}
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !teacher.Active {
		return appErrors.Clone(appErrors.ErrValidation, "teacher is inactive")
	}
	return nil
}

func (s *SubstitutionService) notifyAssignment(request *models.SubstitutionRequest, kind NotificationKind) {
	if s.notifier == nil || request.SubstituteTeacherID == nil {
		return
	}
	s.notifier.Notify(*request.SubstituteTeacherID, request.ID, kind)
}

func (s *SubstitutionService) recordAssignment(mode string) {
	if s.metrics != nil {
		s.metrics.RecordAssignment(mode)
	}
}

func (s *SubstitutionService) recordEscalation(request *models.SubstitutionRequest) {
	if s.metrics != nil {
		s.metrics.RecordEscalation()
	}
	if s.notifier != nil {
		s.notifier.Notify(request.RequestedBy, request.ID, NotifyEscalation)
	}
	s.logger.Warn("substitution request escalated",
		zap.String("request_id", request.ID),
		zap.Int("failed_searches", request.FailedSearches),
	)
}

func mergeReason(existing *string, addition string) *string {
	if existing == nil || *existing == "" {
		return &addition
	}
	merged := *existing + "; " + addition
	return &merged
}
