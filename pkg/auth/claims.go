package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

// Claims is the bearer-token claims structure for API clients. It embeds
// RegisteredClaims for standard JWT fields (sub, iat, exp) and adds the
// identity fields the pipeline needs. Tokens are HS256-signed with the
// same key that signs session cookies.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"` // User email address
	Name  string `json:"name,omitempty"`  // Display name
	Role  string `json:"role,omitempty"`  // PAM or PDM
}

// NewClaims builds token claims for the given user and validity window.
// Exported for token-minting test helpers; the server itself never
// issues bearer tokens.
func NewClaims(user models.AuthUser, issuedAt time.Time, ttl time.Duration) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	}
}

// session converts validated claims into a Session, rejecting tokens that
// lack the identity fields the pipeline authorizes on.
func (c *Claims) session() (*Session, error) {
	if c.Subject == "" || c.Email == "" {
		return nil, ErrMissingClaims
	}

	role := models.Role(c.Role)
	if !models.IsValidRole(role) {
		return nil, ErrMissingClaims
	}

	session := &Session{
		User: models.AuthUser{
			ID:    c.Subject,
			Email: c.Email,
			Name:  c.Name,
			Role:  role,
		},
	}
	if c.IssuedAt != nil {
		session.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		session.ExpiresAt = c.ExpiresAt.Time
	}
	return session, nil
}
