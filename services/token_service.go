package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sareehouse/storefront-api/config"
)

// Principal kinds carried in the token subject
const (
	KindCustomer = "customer"
	KindAdmin    = "admin"
)

// SessionClaims is the payload of a storefront or back-office session token
type SessionClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues signed session tokens. Validation happens in middleware.EnsureValidToken.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenService creates a token service from the application config
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      cfg.SessionTTL,
		now:      time.Now,
	}
}

// Subject builds the token subject for a principal, e.g. "customer|42"
func Subject(kind string, id uint) string {
	return fmt.Sprintf("%s|%d", kind, id)
}

// ParseSubject splits a token subject back into its kind and numeric id
func ParseSubject(subject string) (kind string, id uint, err error) {
	kind, rawID, ok := strings.Cut(subject, "|")
	if !ok || kind == "" {
		return "", 0, fmt.Errorf("malformed subject %q", subject)
	}
	n, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || n == 0 {
		return "", 0, fmt.Errorf("malformed subject id %q", subject)
	}
	return kind, uint(n), nil
}

// Issue signs a token for the given subject and role, returning it with its expiry
func (s *TokenService) Issue(subject, role string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := SessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}
