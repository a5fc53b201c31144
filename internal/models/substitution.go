package models

import (
	"time"

	"github.com/lib/pq"
)

// RequestStatus enumerates substitution request lifecycle states.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusAssigned  RequestStatus = "assigned"
	StatusConfirmed RequestStatus = "confirmed"
	StatusCompleted RequestStatus = "completed"
	StatusDeclined  RequestStatus = "declined"
	StatusCancelled RequestStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ActiveStatuses are the states that commit a substitute's time: they count
// toward daily caps and the double-booking check.
var ActiveStatuses = []RequestStatus{StatusAssigned, StatusConfirmed, StatusCompleted}

// RequestPriority enumerates urgency levels.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityMedium RequestPriority = "medium"
	PriorityHigh   RequestPriority = "high"
	PriorityUrgent RequestPriority = "urgent"
)

// Valid reports whether the priority is a declared value.
func (p RequestPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// SubstitutionRequest is a coverage gap working through the assignment
// lifecycle. Version guards transitions: every update increments it and
// matches the previously read value, so concurrent transitions cannot both
// succeed.
type SubstitutionRequest struct {
	ID              string          `db:"id" json:"id"`
	AbsentTeacherID string          `db:"absent_teacher_id" json:"absent_teacher_id"`
	ClassID         string          `db:"class_id" json:"class_id"`
	Subject         *string         `db:"subject" json:"subject,omitempty"`
	Date            string          `db:"date" json:"date"`
	StartTime       string          `db:"start_time" json:"start_time"`
	EndTime         string          `db:"end_time" json:"end_time"`
	Priority        RequestPriority `db:"priority" json:"priority"`
	IsEmergency     bool            `db:"is_emergency" json:"is_emergency"`
	Reason          *string         `db:"reason" json:"reason,omitempty"`
	RequestedBy     string          `db:"requested_by" json:"requested_by"`
	RequestedAt     time.Time       `db:"requested_at" json:"requested_at"`

	Status              RequestStatus  `db:"status" json:"status"`
	SubstituteTeacherID *string        `db:"substitute_teacher_id" json:"substitute_teacher_id,omitempty"`
	AssignedBy          *string        `db:"assigned_by" json:"assigned_by,omitempty"`
	AssignedAt          *time.Time     `db:"assigned_at" json:"assigned_at,omitempty"`
	ConfirmedAt         *time.Time     `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CompletedAt         *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	Feedback            *string        `db:"feedback" json:"feedback,omitempty"`
	Rating              *int           `db:"rating" json:"rating,omitempty"`
	CancelledAt         *time.Time     `db:"cancelled_at" json:"cancelled_at,omitempty"`
	DeclineReason       *string        `db:"decline_reason" json:"decline_reason,omitempty"`
	Notified            bool           `db:"notified" json:"notified"`
	ExcludedTeacherIDs  pq.StringArray `db:"excluded_teacher_ids" json:"excluded_teacher_ids,omitempty"`
	FailedSearches      int            `db:"failed_searches" json:"failed_searches"`
	Escalated           bool           `db:"escalated" json:"escalated"`
	Version             int            `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Window returns the requested coverage window.
func (r *SubstitutionRequest) Window() Window {
	return Window{Start: r.StartTime, End: r.EndTime}
}

// HasStarted reports whether the substitution's start moment has passed.
func (r *SubstitutionRequest) HasStarted(now time.Time) bool {
	today := now.UTC().Format("2006-01-02")
	if r.Date < today {
		return true
	}
	return r.Date == today && r.StartTime <= now.UTC().Format("15:04")
}

// Excludes reports whether the teacher has already declined this request
// (or is otherwise barred from re-selection).
func (r *SubstitutionRequest) Excludes(teacherID string) bool {
	for _, id := range r.ExcludedTeacherIDs {
		if id == teacherID {
			return true
		}
	}
	return false
}

// SubstitutionFilter describes query params for listing requests.
type SubstitutionFilter struct {
	Date      string
	Status    RequestStatus
	TeacherID string
	ClassID   string
	Escalated *bool
}
