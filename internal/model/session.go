package model

// Session holds the bearer tokens for an authenticated user.
// Owned exclusively by the token store: created on login or
// two-factor verify, refreshed on 401, destroyed on logout or
// irrecoverable refresh failure.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LoginRequest is the request to authenticate.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the response to a login or two-factor verify.
type LoginResponse struct {
	APIResponse
	RequiresTwoFactor bool     `json:"requires_2fa,omitempty"`
	AccessToken       string   `json:"access_token,omitempty"`
	RefreshToken      string   `json:"refresh_token,omitempty"`
	ExpiresIn         int64    `json:"expires_in,omitempty"`
	AdminID           string   `json:"admin_id,omitempty"`
	Account           *Account `json:"account,omitempty"`
}

// VerifyTwoFactorRequest is the request to complete a 2FA login.
type VerifyTwoFactorRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// RefreshResponse is the response to a token refresh.
type RefreshResponse struct {
	APIResponse
	AccessToken string `json:"access_token"`
}
