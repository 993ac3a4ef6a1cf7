package model

import (
	"time"
)

// ProposalStatus represents the state of a proposal.
type ProposalStatus string

const (
	ProposalDraft    ProposalStatus = "draft"
	ProposalSent     ProposalStatus = "sent"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalDeclined ProposalStatus = "declined"
)

// Proposal represents a project proposal for a client account.
type Proposal struct {
	ID          string         `json:"id"`
	AccountID   string         `json:"account_id"`
	Title       string         `json:"title"`
	Summary     string         `json:"summary,omitempty"`
	AmountCents int64          `json:"amount_cents"`
	Currency    string         `json:"currency"`
	Status      ProposalStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	SentAt      *time.Time     `json:"sent_at,omitempty"`
}

// CreateProposalRequest is the request to create a proposal draft.
type CreateProposalRequest struct {
	AccountID   string `json:"account_id"`
	Title       string `json:"title"`
	Summary     string `json:"summary,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency,omitempty"`
}

// ProposalResponse is the response carrying a single proposal.
type ProposalResponse struct {
	APIResponse
	Proposal *Proposal `json:"proposal,omitempty"`
}

// ListProposalsResponse is the response for listing proposals.
type ListProposalsResponse struct {
	APIResponse
	Proposals []Proposal `json:"proposals"`
	Total     int        `json:"total"`
}
