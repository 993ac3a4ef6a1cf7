package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Message represents a message in a client conversation.
type Message struct {
	// Identity
	ID        string `json:"id"`
	AccountID string `json:"account_id"`

	// Sender
	SenderID   string `json:"sender_id"`
	SenderRole Role   `json:"sender_role"`
	SenderName string `json:"sender_name"`

	// Content
	Content string `json:"content"`

	// CorrelationID ties an optimistic local entry to the confirmed
	// server record. Assigned by the sender, echoed back by the server.
	CorrelationID string `json:"correlation_id,omitempty"`

	// Timestamps
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`

	// Optimistic marks a locally synthesized entry that has not been
	// confirmed by the server. Never serialized or persisted.
	Optimistic bool `json:"-"`
}

// ReceiptStatus is the displayed delivery state of a sent message.
type ReceiptStatus string

const (
	ReceiptPending ReceiptStatus = "pending"
	ReceiptSent    ReceiptStatus = "sent"
	ReceiptRead    ReceiptStatus = "read"
)

// Receipt returns the delivery state to display for a message.
// It is pure presentation over server-supplied fields.
func (m *Message) Receipt() ReceiptStatus {
	switch {
	case m.Optimistic:
		return ReceiptPending
	case m.ReadAt != nil:
		return ReceiptRead
	default:
		return ReceiptSent
	}
}

// SendMessageRequest is the request to send a new message.
type SendMessageRequest struct {
	AccountID     string `json:"account_id"`
	Content       string `json:"content"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// SendMessageResponse is the response after sending a message.
type SendMessageResponse struct {
	APIResponse
	Message *Message `json:"message,omitempty"`
}

// ListMessagesResponse is the response for listing messages.
type ListMessagesResponse struct {
	APIResponse
	Messages []Message `json:"messages"`
}

// TypingState is the ephemeral typing indicator for a conversation.
type TypingState struct {
	Typing    bool      `json:"typing"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// TypingResponse is the response for reading typing status.
type TypingResponse struct {
	APIResponse
	Typing bool `json:"typing"`
}
