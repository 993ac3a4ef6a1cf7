package store

import (
	"fmt"

	"github.com/atelierhq/client-platform/internal/model"
)

const (
	accessTokenKey  = "auth_access_token"
	refreshTokenKey = "auth_refresh_token"
)

// TokenStore persists the bearer session on top of the key/value store.
type TokenStore struct {
	store *Store
}

// NewTokenStore creates a token store.
func NewTokenStore(s *Store) *TokenStore {
	return &TokenStore{store: s}
}

// Save persists both tokens of a session.
func (t *TokenStore) Save(session *model.Session) error {
	if err := t.store.Put(accessTokenKey, []byte(session.AccessToken)); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	if err := t.store.Put(refreshTokenKey, []byte(session.RefreshToken)); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// SetAccessToken replaces only the access token, after a refresh.
func (t *TokenStore) SetAccessToken(token string) error {
	return t.store.Put(accessTokenKey, []byte(token))
}

// AccessToken returns the stored access token, empty when logged out.
func (t *TokenStore) AccessToken() string {
	v, err := t.store.Get(accessTokenKey)
	if err != nil {
		return ""
	}
	return string(v)
}

// RefreshToken returns the stored refresh token, empty when logged out.
func (t *TokenStore) RefreshToken() string {
	v, err := t.store.Get(refreshTokenKey)
	if err != nil {
		return ""
	}
	return string(v)
}

// Clear destroys the stored session.
func (t *TokenStore) Clear() error {
	if err := t.store.Delete(accessTokenKey); err != nil {
		return err
	}
	return t.store.Delete(refreshTokenKey)
}
