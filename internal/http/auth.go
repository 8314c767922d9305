package http

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

const adminRole = "admin"

var errUnauthorized = eris.New("admin token is missing or invalid")

type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// verifyAdminToken accepts an "Authorization: Bearer <jwt>" header whose HS256
// token carries role=admin and an unexpired exp claim.
func verifyAdminToken(header string, secret []byte, now func() time.Time) error {
	raw, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return eris.Wrap(errUnauthorized, "bearer token required")
	}

	claims := &adminClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return eris.Wrapf(errUnauthorized, "parsing token: %v", err)
	}

	if claims.Role != adminRole {
		return eris.Wrapf(errUnauthorized, "role %q is not permitted", claims.Role)
	}

	return nil
}
