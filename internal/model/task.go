package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type Task struct {
	ID          string       `json:"id"`
	ProjectID   string       `json:"project_id"`
	Title       string       `json:"title"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     Date         `json:"due_date"`
	StartDate   *Date        `json:"start_date,omitempty"`
	Assignee    string       `json:"assignee,omitempty"`
	Description string       `json:"description,omitempty"`
	// Weight is the task's share (0-100) of its project's work. Zero when unset.
	Weight    float64   `json:"weight"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveStart returns the task start, or fallback when the task has none.
func (t *Task) EffectiveStart(fallback Date) Date {
	if t.StartDate != nil && !t.StartDate.IsZero() {
		return *t.StartDate
	}
	return fallback
}

func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title", ErrMissingField)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: task status %q", ErrInvalidEnum, t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: task priority %q", ErrInvalidEnum, t.Priority)
	}
	if t.DueDate.IsZero() {
		return fmt.Errorf("%w: due_date", ErrMissingField)
	}
	if math.IsNaN(t.Weight) || t.Weight < 0 || t.Weight > 100 {
		return ErrInvalidWeight
	}
	if t.StartDate != nil && !t.StartDate.IsZero() && t.DueDate.Before(t.StartDate.Time) {
		return ErrInvalidRange
	}
	return nil
}

// TaskHistory is one audit entry for a task.
type TaskHistory struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task_id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}
