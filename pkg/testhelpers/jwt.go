package testhelpers

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/launchgate-inc/launchgate-engine/pkg/auth"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

// GenerateTestToken mints a signed HS256 bearer token for the given user,
// valid for one hour against the given secret. The server never issues
// bearer tokens itself; tests use this to exercise the API-client path.
func GenerateTestToken(secret string, user models.AuthUser) (string, error) {
	claims := auth.NewClaims(user, time.Now(), time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(auth.SigningKey(secret))
}

// GenerateTestBearer returns the token with the "Bearer " prefix for the
// Authorization header.
func GenerateTestBearer(secret string, user models.AuthUser) (string, error) {
	token, err := GenerateTestToken(secret, user)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}
