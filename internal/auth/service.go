// Package auth issues and validates the signed tokens that bind a browser or API
// client to its builder session.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie that carries the session token in the browser.
const CookieName = "autobridge_session"

// Common errors returned by the auth service.
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrMissingClaims    = errors.New("missing required claims")
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Claims represents the token claims.
type Claims struct {
	SessionID string    `json:"session_id"`
	IssuedAt  time.Time `json:"iat"`
	Exp       time.Time `json:"exp"`
}

// Config holds token configuration.
type Config struct {
	Secret      []byte
	TokenExpiry time.Duration
	// SecureCookie marks the cookie Secure; set it when served over TLS.
	SecureCookie bool
}

// Service issues and validates session tokens.
type Service struct {
	secret       []byte
	tokenExpiry  time.Duration
	secureCookie bool
	logger       *slog.Logger
}

// NewService creates a new token service.
func NewService(cfg *Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		secret:       cfg.Secret,
		tokenExpiry:  cfg.TokenExpiry,
		secureCookie: cfg.SecureCookie,
		logger:       logger,
	}
}

// GenerateToken creates a signed token for the given session.
func (s *Service) GenerateToken(sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrMissingClaims
	}

	now := time.Now()
	exp := now.Add(s.tokenExpiry)

	claims := jwt.MapClaims{
		"sub": sessionID,
		"iat": now.Unix(),
		"exp": exp.Unix(),
		"nbf": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("failed to sign token", "error", err)
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sessionID, ok := mapClaims["sub"].(string)
	if !ok || sessionID == "" {
		return nil, ErrMissingClaims
	}

	expFloat, ok := mapClaims["exp"].(float64)
	if !ok {
		return nil, ErrMissingClaims
	}
	iatFloat, _ := mapClaims["iat"].(float64)

	return &Claims{
		SessionID: sessionID,
		IssuedAt:  time.Unix(int64(iatFloat), 0),
		Exp:       time.Unix(int64(expFloat), 0),
	}, nil
}

// Cookie wraps a token in the session cookie.
func (s *Service) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokenExpiry.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionFromRequest returns the session ID carried by the request's bearer
// token, or failing that its cookie.
func (s *Service) SessionFromRequest(r *http.Request) (string, error) {
	token := ExtractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		if c, err := r.Cookie(CookieName); err == nil {
			token = c.Value
		}
	}
	claims, err := s.ValidateToken(token)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

// ExtractBearerToken extracts the token from an Authorization header value.
func ExtractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
