package model

import (
	"time"
)

// TransactionStatus represents the payment state of a transaction.
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "pending"
	TransactionPaid    TransactionStatus = "paid"
	TransactionOverdue TransactionStatus = "overdue"
)

// Transaction represents a billing transaction for a client account.
// Amounts are integer cents to avoid floating point drift.
type Transaction struct {
	ID          string            `json:"id"`
	AccountID   string            `json:"account_id"`
	Description string            `json:"description"`
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Status      TransactionStatus `json:"status"`
	IssuedAt    time.Time         `json:"issued_at"`
	PaidAt      *time.Time        `json:"paid_at,omitempty"`
}

// ListTransactionsResponse is the response for listing transactions.
type ListTransactionsResponse struct {
	APIResponse
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
}
