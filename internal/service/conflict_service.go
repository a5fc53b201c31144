package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"
	appErrors "github.com/toletmelearn/PNS-Dhampur-sub001/pkg/errors"
)

type conflictRequestReader interface {
	ListActiveByTeacherAndDate(ctx context.Context, teacherID, date, excludeRequestID string) ([]models.SubstitutionRequest, error)
}

type conflictAvailabilityReader interface {
	ListBlocking(ctx context.Context, teacherID, date string) ([]models.TeacherAvailability, error)
}

// DutySource exposes a teacher's original timetable commitments as blocking
// windows. Wiring one is optional; the host timetable module provides it.
type DutySource interface {
	ListDuties(ctx context.Context, teacherID, date string) ([]models.Window, error)
}

// Conflict describes the commitment that blocks a candidate window.
type Conflict struct {
	Source    string        `json:"source"`
	TeacherID string        `json:"teacher_id"`
	Window    models.Window `json:"window"`
	RequestID string        `json:"request_id,omitempty"`
}

const (
	conflictSourceSubstitution = "substitution"
	conflictSourceAvailability = "availability"
	conflictSourceDuty         = "timetable_duty"
)

// ConflictService detects overlapping commitments for a teacher.
type ConflictService struct {
	requests     conflictRequestReader
	availability conflictAvailabilityReader
	duties       DutySource
	logger       *zap.Logger
}

// NewConflictService wires the commitment sources. duties may be nil.
func NewConflictService(requests conflictRequestReader, availability conflictAvailabilityReader, duties DutySource, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{requests: requests, availability: availability, duties: duties, logger: logger}
}

// Detect returns the first commitment overlapping the window, or nil when
// the teacher is free. excludeRequestID lets re-evaluation ignore the
// request currently being resolved.
func (s *ConflictService) Detect(ctx context.Context, teacherID, date string, window models.Window, excludeRequestID string) (*Conflict, error) {
	active, err := s.requests.ListActiveByTeacherAndDate(ctx, teacherID, date, excludeRequestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher commitments")
	}
	for _, request := range active {
		if request.Window().Overlaps(window) {
			return &Conflict{
				Source:    conflictSourceSubstitution,
				TeacherID: teacherID,
				Window:    request.Window(),
				RequestID: request.ID,
			}, nil
		}
	}

	blocking, err := s.availability.ListBlocking(ctx, teacherID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load declared unavailability")
	}
	for _, record := range blocking {
		if record.Window().Overlaps(window) {
			return &Conflict{
				Source:    conflictSourceAvailability,
				TeacherID: teacherID,
				Window:    record.Window(),
			}, nil
		}
	}

	if s.duties != nil {
		duties, err := s.duties.ListDuties(ctx, teacherID, date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable duties")
		}
		for _, duty := range duties {
			if duty.Overlaps(window) {
				return &Conflict{
					Source:    conflictSourceDuty,
					TeacherID: teacherID,
					Window:    duty,
				}, nil
			}
		}
	}

	return nil, nil
}

// HasConflict reports whether any existing commitment overlaps the window.
func (s *ConflictService) HasConflict(ctx context.Context, teacherID, date string, window models.Window, excludeRequestID string) (bool, error) {
	conflict, err := s.Detect(ctx, teacherID, date, window, excludeRequestID)
	if err != nil {
		return false, err
	}
	return conflict != nil, nil
}
