package domain

import "time"

// Status represents where a book sits in the reading lifecycle.
// The wire values match the original data set ("To Read", not "to_read"),
// so existing exports import cleanly.
type Status string

const (
	// StatusToRead is the default status for a newly catalogued book.
	StatusToRead Status = "To Read"
	// StatusReading marks a book as currently being read.
	StatusReading Status = "Reading"
	// StatusRead marks a book as finished.
	StatusRead Status = "Read"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusToRead, StatusReading, StatusRead:
		return true
	}
	return false
}

// StatusChange describes the derived effects of a status transition.
// It is computed by Transition and applied by the caller, keeping the
// transition rules testable without a store.
type StatusChange struct {
	// SetDateStarted is non-nil when dateStarted should be stamped.
	SetDateStarted *time.Time
	// SetDateFinished is non-nil when dateFinished should be stamped.
	SetDateFinished *time.Time
	// ClearDateFinished is true when dateFinished should be unset
	// (the book moved away from Read).
	ClearDateFinished bool
	// GoalDelta is the adjustment to the owner's reading-goal counter:
	// +1 entering Read, -1 leaving Read, 0 otherwise.
	GoalDelta int
}

// Transition computes the side effects of moving a book from old to new
// status at the given time. hasStarted and hasFinished report whether the
// corresponding timestamps are already set; timestamps are only ever
// stamped once (dateStarted survives re-reads, dateFinished is cleared on
// the way out of Read and re-stamped on the way back in).
//
// The counter delta fires only on edges that cross the Read boundary, so
// a no-op Read -> Read update never double counts.
func Transition(old, new Status, hasStarted, hasFinished bool, now time.Time) StatusChange {
	var change StatusChange

	if old == new {
		return change
	}

	switch new {
	case StatusReading:
		if !hasStarted {
			change.SetDateStarted = &now
		}
	case StatusRead:
		if !hasStarted {
			change.SetDateStarted = &now
		}
		if !hasFinished {
			change.SetDateFinished = &now
		}
	case StatusToRead:
		// No timestamps to stamp; dateStarted is kept as history.
	}

	if old != StatusRead && new == StatusRead {
		change.GoalDelta = 1
	} else if old == StatusRead && new != StatusRead {
		change.ClearDateFinished = true
		change.GoalDelta = -1
	}

	return change
}
