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
	appErrors "github.com/toletmelearn/PNS-Dhampur-sub001/pkg/errors"
)

type availabilityRepository interface {
	Create(ctx context.Context, record *models.TeacherAvailability) error
	FindByID(ctx context.Context, id string) (*models.TeacherAvailability, error)
	HasOverlap(ctx context.Context, teacherID, date string, window models.Window, excludeID string) (bool, error)
	ListAvailable(ctx context.Context, date string, window models.Window) ([]models.TeacherAvailability, error)
	ListByTeacher(ctx context.Context, teacherID, fromDate string) ([]models.TeacherAvailability, error)
	Update(ctx context.Context, record *models.TeacherAvailability) error
	Delete(ctx context.Context, id string) error
}

type availabilityUsageReader interface {
	ExistsActiveOverlap(ctx context.Context, teacherID, date string, window models.Window) (bool, error)
}

type teacherDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// AvailabilityService owns teacher availability declarations.
type AvailabilityService struct {
	repo            availabilityRepository
	usage           availabilityUsageReader
	teachers        teacherDirectory
	validator       *validator.Validate
	logger          *zap.Logger
	defaultDailyCap int
}

// NewAvailabilityService creates a service instance.
func NewAvailabilityService(repo availabilityRepository, usage availabilityUsageReader, teachers teacherDirectory, defaultDailyCap int, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultDailyCap <= 0 {
		defaultDailyCap = 3
	}
	return &AvailabilityService{
		repo:            repo,
		usage:           usage,
		teachers:        teachers,
		validator:       validate,
		logger:          logger,
		defaultDailyCap: defaultDailyCap,
	}
}

// Declare records a single availability window. Windows for the same
// teacher and date must not overlap.
func (s *AvailabilityService) Declare(ctx context.Context, req dto.DeclareAvailabilityRequest) (*models.TeacherAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	window := models.Window{Start: req.StartTime, End: req.EndTime}
	if !window.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	if err := s.ensureTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	overlaps, err := s.repo.HasOverlap(ctx, req.TeacherID, req.Date, window, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check window overlap")
	}
	if overlaps {
		return nil, appErrors.Clone(appErrors.ErrOverlap, fmt.Sprintf("teacher %s already has a window overlapping %s-%s on %s", req.TeacherID, req.StartTime, req.EndTime, req.Date))
	}

	record := &models.TeacherAvailability{
		TeacherID:     req.TeacherID,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Status:        models.AvailabilityStatus(req.Status),
		Subjects:      req.Subjects,
		Notes:         req.Notes,
		CanSubstitute: true,
		MaxDailySubs:  req.MaxDailySubs,
	}
	if req.CanSubstitute != nil {
		record.CanSubstitute = *req.CanSubstitute
	}
	if record.MaxDailySubs <= 0 {
		record.MaxDailySubs = s.defaultDailyCap
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability")
	}
	return record, nil
}

// BulkDeclareDefault generates availability for every date in the range
// whose weekday matches a template entry. Idempotent: dates already holding
// an overlapping declaration are skipped, not errored.
func (s *AvailabilityService) BulkDeclareDefault(ctx context.Context, req dto.BulkDeclareRequest) (*dto.BulkDeclareResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk declaration payload")
	}
	from, err := time.Parse("2006-01-02", req.FromDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid from_date")
	}
	to, err := time.Parse("2006-01-02", req.ToDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid to_date")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to_date must not precede from_date")
	}
	if err := s.ensureTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	byWeekday := make(map[time.Weekday][]dto.WeeklyTemplateEntry)
	for _, entry := range req.Template {
		window := models.Window{Start: entry.StartTime, End: entry.EndTime}
		if !window.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("template window %s-%s is invalid", entry.StartTime, entry.EndTime))
		}
		day := time.Weekday(entry.Weekday)
		byWeekday[day] = append(byWeekday[day], entry)
	}

	resp := &dto.BulkDeclareResponse{}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		entries, ok := byWeekday[day.Weekday()]
		if !ok {
			continue
		}
		date := day.Format("2006-01-02")
		for _, entry := range entries {
			window := models.Window{Start: entry.StartTime, End: entry.EndTime}
			overlaps, err := s.repo.HasOverlap(ctx, req.TeacherID, date, window, "")
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check window overlap")
			}
			if overlaps {
				resp.Skipped++
				continue
			}
			dailyCap := entry.MaxDailySubs
			if dailyCap <= 0 {
				dailyCap = s.defaultDailyCap
			}
			record := &models.TeacherAvailability{
				TeacherID:     req.TeacherID,
				Date:          date,
				StartTime:     entry.StartTime,
				EndTime:       entry.EndTime,
				Status:        models.AvailabilityAvailable,
				Subjects:      entry.Subjects,
				CanSubstitute: true,
				MaxDailySubs:  dailyCap,
			}
			if err := s.repo.Create(ctx, record); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability")
			}
			resp.Created++
		}
	}
	return resp, nil
}

// QueryAvailable returns available records on the date whose window fully
// contains the requested one, filtered by subject qualification. Records
// with no qualification tags are generalists and match any subject.
func (s *AvailabilityService) QueryAvailable(ctx context.Context, date string, window models.Window, subjectFilter string) ([]models.TeacherAvailability, error) {
	if !window.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid query window")
	}
	records, err := s.repo.ListAvailable(ctx, date, window)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to query availability")
	}
	if subjectFilter == "" {
		return records, nil
	}
	filtered := records[:0]
	for _, record := range records {
		if record.QualifiedFor(subjectFilter) {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

// ListByTeacher returns a teacher's declarations from fromDate onward.
func (s *AvailabilityService) ListByTeacher(ctx context.Context, teacherID, fromDate string) ([]models.TeacherAvailability, error) {
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	if fromDate == "" {
		fromDate = time.Now().UTC().Format("2006-01-02")
	}
	records, err := s.repo.ListByTeacher(ctx, teacherID, fromDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	return records, nil
}

// Update rewrites a declaration. The record must not be consumed by an
// active substitution, and the new window must not overlap the teacher's
// other declarations on the same date.
func (s *AvailabilityService) Update(ctx context.Context, id string, req dto.UpdateAvailabilityRequest) (*models.TeacherAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	window := models.Window{Start: req.StartTime, End: req.EndTime}
	if !window.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	inUse, err := s.usage.ExistsActiveOverlap(ctx, record.TeacherID, record.Date, record.Window())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check availability usage")
	}
	if inUse {
		return nil, appErrors.Clone(appErrors.ErrInUse, fmt.Sprintf("availability %s is referenced by an active substitution on %s", id, record.Date))
	}

	overlaps, err := s.repo.HasOverlap(ctx, record.TeacherID, record.Date, window, record.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check window overlap")
	}
	if overlaps {
		return nil, appErrors.Clone(appErrors.ErrOverlap, fmt.Sprintf("teacher %s already has a window overlapping %s-%s on %s", record.TeacherID, req.StartTime, req.EndTime, record.Date))
	}

	record.StartTime = req.StartTime
	record.EndTime = req.EndTime
	record.Status = models.AvailabilityStatus(req.Status)
	record.Subjects = req.Subjects
	record.Notes = req.Notes
	if req.CanSubstitute != nil {
		record.CanSubstitute = *req.CanSubstitute
	}
	if req.MaxDailySubs > 0 {
		record.MaxDailySubs = req.MaxDailySubs
	}
	if err := s.repo.Update(ctx, record); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability")
	}
	return record, nil
}

// Delete removes a declaration unless an active substitution still
// references the teacher's time in that window.
func (s *AvailabilityService) Delete(ctx context.Context, id string) error {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "availability not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	inUse, err := s.usage.ExistsActiveOverlap(ctx, record.TeacherID, record.Date, record.Window())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check availability usage")
	}
	if inUse {
		return appErrors.Clone(appErrors.ErrInUse, fmt.Sprintf("availability %s is referenced by an active substitution on %s", id, record.Date))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "availability not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability")
	}
	return nil
}

func (s *AvailabilityService) ensureTeacher(ctx context.Context, teacherID string) error {
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
