package model

import (
	"time"
)

// ProjectStatus represents the state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
)

// Project represents a client project with milestone tracking.
type Project struct {
	ID          string        `json:"id"`
	AccountID   string        `json:"account_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	DueAt       *time.Time    `json:"due_at,omitempty"`
	Milestones  []Milestone   `json:"milestones,omitempty"`
}

// Milestone represents a tracked step within a project.
type Milestone struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Progress returns the fraction of completed milestones, 0 when none exist.
func (p *Project) Progress() float64 {
	if len(p.Milestones) == 0 {
		return 0
	}
	done := 0
	for _, m := range p.Milestones {
		if m.Completed {
			done++
		}
	}
	return float64(done) / float64(len(p.Milestones))
}

// ListProjectsResponse is the response for listing projects.
type ListProjectsResponse struct {
	APIResponse
	Projects []Project `json:"projects"`
	Total    int       `json:"total"`
}
