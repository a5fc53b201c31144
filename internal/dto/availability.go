package dto

import "github.com/toletmelearn/PNS-Dhampur-sub001/internal/models"

// DeclareAvailabilityRequest describes a single availability declaration.
type DeclareAvailabilityRequest struct {
	TeacherID     string   `json:"teacher_id" validate:"required"`
	Date          string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime     string   `json:"start_time" validate:"required,datetime=15:04"`
	EndTime       string   `json:"end_time" validate:"required,datetime=15:04"`
	Status        string   `json:"status" validate:"required,oneof=available busy on_leave"`
	Subjects      []string `json:"subjects,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	CanSubstitute *bool    `json:"can_substitute,omitempty"`
	MaxDailySubs  int      `json:"max_daily_subs,omitempty" validate:"omitempty,min=1,max=10"`
}

// UpdateAvailabilityRequest rewrites a declaration in place. Records already
// consumed by an active substitution cannot be changed.
type UpdateAvailabilityRequest struct {
	StartTime     string   `json:"start_time" validate:"required,datetime=15:04"`
	EndTime       string   `json:"end_time" validate:"required,datetime=15:04"`
	Status        string   `json:"status" validate:"required,oneof=available busy on_leave"`
	Subjects      []string `json:"subjects,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	CanSubstitute *bool    `json:"can_substitute,omitempty"`
	MaxDailySubs  int      `json:"max_daily_subs,omitempty" validate:"omitempty,min=1,max=10"`
}

// BulkDeclareRequest generates default availability over a date range from
// a weekly template.
type BulkDeclareRequest struct {
	TeacherID string                `json:"teacher_id" validate:"required"`
	FromDate  string                `json:"from_date" validate:"required,datetime=2006-01-02"`
	ToDate    string                `json:"to_date" validate:"required,datetime=2006-01-02"`
	Template  []WeeklyTemplateEntry `json:"template" validate:"required,min=1,dive"`
}

// WeeklyTemplateEntry is the wire form of a recurring weekly window.
type WeeklyTemplateEntry struct {
	Weekday      int      `json:"weekday" validate:"min=0,max=6"`
	StartTime    string   `json:"start_time" validate:"required,datetime=15:04"`
	EndTime      string   `json:"end_time" validate:"required,datetime=15:04"`
	Subjects     []string `json:"subjects,omitempty"`
	MaxDailySubs int      `json:"max_daily_subs,omitempty" validate:"omitempty,min=1,max=10"`
}

// BulkDeclareResponse reports how much of the range was newly generated.
type BulkDeclareResponse struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// AvailableTeacher is the read-only candidate listing entry for UI display.
type AvailableTeacher struct {
	TeacherID    string                     `json:"teacher_id"`
	Window       models.Window              `json:"window"`
	Subjects     []string                   `json:"subjects,omitempty"`
	SameDayLoad  int                        `json:"same_day_load"`
	Score        float64                    `json:"score"`
	Availability models.TeacherAvailability `json:"availability"`
}
