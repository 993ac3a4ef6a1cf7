package devserver

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/atelierhq/client-platform/internal/model"
)

// Claims are the JWT claims minted by the dev server.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"` // "access" or "refresh"
}

func (s *Server) mintToken(subject, tokenType string, ttl time.Duration) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		TokenType: tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *Server) parseToken(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("wrong token type")
	}
	return claims, nil
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func (s *Server) issueSession(w http.ResponseWriter, account *model.Account) {
	access, err := s.mintToken(s.adminID, "access", s.accessTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mint token")
		return
	}
	refresh, err := s.mintToken(s.adminID, "refresh", s.refreshTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mint token")
		return
	}
	writeJSON(w, http.StatusOK, &model.LoginResponse{
		APIResponse:  model.APIResponse{Success: true},
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		AdminID:      s.adminID,
		Account:      account,
	})
}

// handleLogin handles POST /auth.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email != s.adminEmail || req.Password != s.adminPassword {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if s.twoFactorEnabled {
		code := s.generateTwoFactorCode(req.Email)
		s.logger.Info("two-factor code issued", zap.String("code", code))
		writeJSON(w, http.StatusOK, &model.LoginResponse{
			APIResponse:       model.APIResponse{Success: true},
			RequiresTwoFactor: true,
		})
		return
	}

	s.issueSession(w, nil)
}

// handleVerifyTwoFactor handles POST /auth/verify.
func (s *Server) handleVerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyTwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.state.mu.Lock()
	want, ok := s.state.twoFactor[req.Email]
	if ok && want == req.Code {
		delete(s.state.twoFactor, req.Email)
	}
	s.state.mu.Unlock()

	if !ok || want != req.Code {
		writeError(w, http.StatusUnauthorized, "invalid verification code")
		return
	}
	s.issueSession(w, nil)
}

// handleRefresh handles PUT /auth. The bearer is the refresh token.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}
	claims, err := s.parseToken(token, "refresh")
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	access, err := s.mintToken(claims.Subject, "access", s.accessTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mint token")
		return
	}
	writeJSON(w, http.StatusOK, &model.RefreshResponse{
		APIResponse: model.APIResponse{Success: true},
		AccessToken: access,
	})
}

// handleLogout handles DELETE /auth.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Tokens are short-lived; logout is client-side token destruction.
	writeJSON(w, http.StatusOK, &model.APIResponse{Success: true})
}

func (s *Server) generateTwoFactorCode(email string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(1000000))
	code := fmt.Sprintf("%06d", n.Int64())
	s.state.mu.Lock()
	s.state.twoFactor[email] = code
	s.state.mu.Unlock()
	return code
}

// requireAuth is middleware guarding the protected API routes.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}
		if _, err := s.parseToken(token, "access"); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
