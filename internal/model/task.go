package model

import "time"

// TaskStatus represents the current column of a task.
type TaskStatus string

const (
	TaskTodo   TaskStatus = "todo"
	TaskDoing  TaskStatus = "doing"
	TaskReview TaskStatus = "review"
	TaskDone   TaskStatus = "done"
)

// String returns the string representation of the status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskTodo, TaskDoing, TaskReview, TaskDone:
		return true
	}
	return false
}

// Task is a unit of work on a board, optionally assigned to an agent.
type Task struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"board_id"`
	AgentID     *string    `json:"agent_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskFilter narrows task listings. Zero values mean "any".
type TaskFilter struct {
	BoardID string
	AgentID string
	Status  TaskStatus
}
