package model

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "to-do", "to_do":
		return StatusTodo, nil
	case "inprogress", "in-progress", "in_progress", "doing":
		return StatusInProgress, nil
	case "done":
		return StatusDone, nil
	case "":
		return "", fmt.Errorf("invalid status: empty")
	default:
		return "", fmt.Errorf("invalid status: %q (want todo|inprogress|done)", strings.TrimSpace(s))
	}
}

func IsKnownStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// StatusLabel is the column heading for a status.
func StatusLabel(s Status) string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// ParsePriority maps an empty string to the default priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	case "medium", "med":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("invalid priority: %q (want low|medium|high)", strings.TrimSpace(s))
	}
}

// NextPriority cycles low -> medium -> high -> low.
func NextPriority(p Priority) Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium, "":
		return PriorityHigh
	default:
		return PriorityLow
	}
}

// ParseDueDate accepts YYYY-MM-DD. Empty input means no due date.
func ParseDueDate(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return nil, fmt.Errorf("invalid due date %q (want YYYY-MM-DD)", s)
	}
	return &s, nil
}
