// Package model defines data structures for the client platform.
package model

// APIResponse is the uniform envelope shared by all API responses.
// Any non-2xx status or success=false is a recoverable failure,
// never an exception.
type APIResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether the server accepted the request.
func (r *APIResponse) OK() bool { return r.Success }

// ErrorMessage returns the server-supplied failure message, if any.
func (r *APIResponse) ErrorMessage() string { return r.Error }
