package models

// TeacherReliability aggregates a teacher's assignment outcomes over the
// trailing reliability window.
type TeacherReliability struct {
	TeacherID  string `db:"teacher_id" json:"teacher_id"`
	Taken      int    `db:"taken" json:"taken"`
	Completed  int    `db:"completed" json:"completed"`
	Declined   int    `db:"declined" json:"declined"`
	RatedCount int    `db:"rated_count" json:"rated_count"`
	RatingSum  int    `db:"rating_sum" json:"-"`
}

// CompletionRate returns completed / (completed + declined) in [0,1].
// Teachers with no history score a full 1.0 so newcomers are not starved
// of assignments.
func (t TeacherReliability) CompletionRate() float64 {
	total := t.Completed + t.Declined
	if total == 0 {
		return 1.0
	}
	return float64(t.Completed) / float64(total)
}

// AverageRating returns the mean post-completion rating, defaulting to a
// neutral 3.0 when unrated.
func (t TeacherReliability) AverageRating() float64 {
	if t.RatedCount == 0 {
		return 3.0
	}
	return float64(t.RatingSum) / float64(t.RatedCount)
}

// Candidate is a teacher passing all eligibility filters for a request,
// annotated with the availability window that admitted them.
type Candidate struct {
	TeacherID    string              `json:"teacher_id"`
	Availability TeacherAvailability `json:"availability"`
	SameDayLoad  int                 `json:"same_day_load"`
	Reliability  TeacherReliability  `json:"reliability"`
	Score        float64             `json:"score"`
}

// StatusCount pairs a lifecycle status with its request count.
type StatusCount struct {
	Status RequestStatus `db:"status" json:"status"`
	Count  int           `db:"count" json:"count"`
}

// SubstitutionDayStats aggregates request counts for a single date.
type SubstitutionDayStats struct {
	Date        string                `json:"date"`
	Total       int                   `json:"total"`
	ByStatus    map[RequestStatus]int `json:"by_status"`
	Emergencies int                   `json:"emergencies"`
	Escalated   int                   `json:"escalated"`
	Unfilled    int                   `json:"unfilled"`
}

// SubstitutionWeekStats sums seven consecutive days of request counts.
type SubstitutionWeekStats struct {
	FromDate    string                 `json:"from_date"`
	ToDate      string                 `json:"to_date"`
	Total       int                    `json:"total"`
	ByStatus    map[RequestStatus]int  `json:"by_status"`
	Emergencies int                    `json:"emergencies"`
	Escalated   int                    `json:"escalated"`
	Unfilled    int                    `json:"unfilled"`
	Days        []SubstitutionDayStats `json:"days"`
}
