package models

import "strings"

// Status is the workflow state of a task. The same three values key the
// board columns, the SQL check constraint and the request validators.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// ParseStatus returns the status named by raw and false when raw is not one
// of the known values.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", false
	}
	return s, true
}
