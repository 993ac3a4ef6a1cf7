package model

import (
	"time"
)

// AccountStatus represents the lifecycle state of a client account.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountPaused   AccountStatus = "paused"
	AccountArchived AccountStatus = "archived"
)

// Account represents a design-agency client account.
type Account struct {
	ID          string        `json:"id"`
	CompanyName string        `json:"company_name"`
	ContactName string        `json:"contact_name"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone,omitempty"`
	Status      AccountStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ListAccountsResponse is the response for listing client accounts.
type ListAccountsResponse struct {
	APIResponse
	Accounts []Account `json:"accounts"`
	Total    int       `json:"total"`
}

// Dashboard is the admin overview payload shown on the home screen.
type Dashboard struct {
	ActiveProjects     int           `json:"active_projects"`
	PendingProposals   int           `json:"pending_proposals"`
	UnreadMessages     int           `json:"unread_messages"`
	OutstandingCents   int64         `json:"outstanding_cents"`
	RecentTransactions []Transaction `json:"recent_transactions"`
	UpcomingMilestones []Milestone   `json:"upcoming_milestones"`
}

// DashboardResponse is the response for the dashboard endpoint.
type DashboardResponse struct {
	APIResponse
	Dashboard *Dashboard `json:"dashboard,omitempty"`
}
