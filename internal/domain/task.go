package domain

import "time"

// TaskStatus is the task lifecycle state.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Task is the domain entity for a task. UserID is set at creation and never
// changes afterwards; Title is stored trimmed.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Status      TaskStatus
	DueDate     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overdue reports whether the task is pending with a due date before now.
func (t Task) Overdue(now time.Time) bool {
	return t.Status == StatusPending && t.DueDate != nil && t.DueDate.Before(now)
}
