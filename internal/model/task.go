package model

import (
	"time"
)

// Task represents a planner task with an optional local reminder.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes,omitempty"`
	DueAt     time.Time  `json:"due_at"`
	Completed bool       `json:"completed"`
	Reminder  bool       `json:"reminder"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// CreateTaskRequest is the request to create a planner task.
type CreateTaskRequest struct {
	Title    string    `json:"title"`
	Notes    string    `json:"notes,omitempty"`
	DueAt    time.Time `json:"due_at"`
	Reminder bool      `json:"reminder"`
}

// UpdateTaskRequest is the request to update a planner task.
type UpdateTaskRequest struct {
	Title     *string    `json:"title,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	Completed *bool      `json:"completed,omitempty"`
	Reminder  *bool      `json:"reminder,omitempty"`
}

// TaskResponse is the response carrying a single task.
type TaskResponse struct {
	APIResponse
	Task *Task `json:"task,omitempty"`
}

// ListTasksResponse is the response for listing planner tasks.
type ListTasksResponse struct {
	APIResponse
	Tasks []Task `json:"tasks"`
}
