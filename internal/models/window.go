package models

// Window is a time-of-day interval in zero-padded "HH:MM" 24h form.
// Lexicographic comparison on that form matches chronological order, so
// interval math stays allocation free.
type Window struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

// Valid reports whether the window is well formed (end strictly after start).
func (w Window) Valid() bool {
	return w.Start != "" && w.End != "" && w.Start < w.End
}

// Overlaps reports symmetric interval intersection. Touching boundaries
// (a.End == b.Start) do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start < other.End && other.Start < w.End
}

// Contains reports whether other fits entirely inside w.
func (w Window) Contains(other Window) bool {
	return w.Start <= other.Start && other.End <= w.End
}
