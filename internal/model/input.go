package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationError is a client-side rejection; no request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Required returns a ValidationError when s is blank.
func Required(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return ValidationError{Field: field, Reason: "required"}
	}
	return nil
}

// TaskInput is the body of task create and update requests.
type TaskInput struct {
	Content    string   `json:"content"`
	Priority   Priority `json:"priority"`
	DueDate    *string  `json:"due_date"`
	AssigneeID *int64   `json:"assignee_id"`
}

// InputFromTask seeds an edit form from a cached task.
func InputFromTask(t Task) TaskInput {
	in := TaskInput{
		Content:  t.Content,
		Priority: t.EffectivePriority(),
	}
	if t.DueDate != nil && strings.TrimSpace(*t.DueDate) != "" {
		d := *t.DueDate
		in.DueDate = &d
	}
	if t.AssigneeID != nil {
		a := *t.AssigneeID
		in.AssigneeID = &a
	}
	return in
}

// Normalize trims the content, applies the default priority and drops blank due dates.
func (in TaskInput) Normalize() TaskInput {
	in.Content = strings.TrimSpace(in.Content)
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if in.DueDate != nil {
		d := strings.TrimSpace(*in.DueDate)
		if d == "" {
			in.DueDate = nil
		} else {
			in.DueDate = &d
		}
	}
	return in
}

func (in TaskInput) Validate() error {
	in = in.Normalize()
	if err := Required("content", in.Content); err != nil {
		return err
	}
	switch in.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown value %q", in.Priority)}
	}
	if in.DueDate != nil {
		if _, err := time.Parse(DateLayout, *in.DueDate); err != nil {
			return ValidationError{Field: "due_date", Reason: "want YYYY-MM-DD"}
		}
	}
	return nil
}
