package models

import (
	"time"

	"github.com/lib/pq"
)

// AvailabilityStatus enumerates the declared state of a teacher window.
type AvailabilityStatus string

const (
	AvailabilityAvailable AvailabilityStatus = "available"
	AvailabilityBusy      AvailabilityStatus = "busy"
	AvailabilityOnLeave   AvailabilityStatus = "on_leave"
)

// Valid reports whether the status is one of the declared values.
func (s AvailabilityStatus) Valid() bool {
	switch s {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityOnLeave:
		return true
	}
	return false
}

// TeacherAvailability is a per-teacher, per-date declared time window.
// Subjects is the qualification tag set; an empty set marks a generalist
// who is considered qualified for any subject.
type TeacherAvailability struct {
	ID            string             `db:"id" json:"id"`
	TeacherID     string             `db:"teacher_id" json:"teacher_id"`
	Date          string             `db:"date" json:"date"`
	StartTime     string             `db:"start_time" json:"start_time"`
	EndTime       string             `db:"end_time" json:"end_time"`
	Status        AvailabilityStatus `db:"status" json:"status"`
	Subjects      pq.StringArray     `db:"subjects" json:"subjects"`
	Notes         *string            `db:"notes" json:"notes,omitempty"`
	CanSubstitute bool               `db:"can_substitute" json:"can_substitute"`
	MaxDailySubs  int                `db:"max_daily_subs" json:"max_daily_subs"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}

// Window returns the declared time window.
func (a TeacherAvailability) Window() Window {
	return Window{Start: a.StartTime, End: a.EndTime}
}

// QualifiedFor reports whether the record's tags admit the subject.
func (a TeacherAvailability) QualifiedFor(subject string) bool {
	if subject == "" || len(a.Subjects) == 0 {
		return true
	}
	for _, tag := range a.Subjects {
		if tag == subject {
			return true
		}
	}
	return false
}

// WeeklyTemplateEntry describes a recurring availability window used by
// bulk default generation.
type WeeklyTemplateEntry struct {
	Weekday      time.Weekday `json:"weekday"`
	StartTime    string       `json:"start_time"`
	EndTime      string       `json:"end_time"`
	Subjects     []string     `json:"subjects,omitempty"`
	MaxDailySubs int          `json:"max_daily_subs,omitempty"`
}
