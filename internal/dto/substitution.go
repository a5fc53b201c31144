package dto

// CreateSubstitutionRequest opens a coverage gap for an absent teacher.
type CreateSubstitutionRequest struct {
	AbsentTeacherID string  `json:"absent_teacher_id" validate:"required"`
	ClassID         string  `json:"class_id" validate:"required"`
	Subject         *string `json:"subject,omitempty"`
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string  `json:"start_time" validate:"required,datetime=15:04"`
	EndTime         string  `json:"end_time" validate:"required,datetime=15:04"`
	Priority        string  `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	IsEmergency     bool    `json:"is_emergency,omitempty"`
	Reason          *string `json:"reason,omitempty"`
	RequestedBy     string  `json:"requested_by" validate:"required"`
}

// AssignRequest manually assigns a substitute.
type AssignRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	ActorID   string `json:"actor_id" validate:"required"`
}

// ConfirmRequest acknowledges an assignment.
type ConfirmRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
}

// DeclineRequest refuses an assignment, optionally explaining why.
type DeclineRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// CompleteRequest closes out a substitution with optional feedback.
type CompleteRequest struct {
	Feedback *string `json:"feedback,omitempty"`
	Rating   *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
}

// CancelRequest withdraws a request. Override is required for same-day
// cancellation of a confirmed assignment.
type CancelRequest struct {
	ActorID  string `json:"actor_id" validate:"required"`
	Override bool   `json:"override,omitempty"`
}

// AutoAssignResponse summarises a batch sweep over pending requests.
type AutoAssignResponse struct {
	Assigned    int `json:"assigned"`
	StillFailed int `json:"still_failed"`
}
