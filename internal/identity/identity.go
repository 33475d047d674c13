// Package identity resolves bearer tokens to participant identities.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/park285/tap-racer/internal/domain"
)

// ErrUnauthenticated is returned for missing, malformed, expired or rejected tokens.
var ErrUnauthenticated = errors.New("unauthenticated")

// Provider is the identity service boundary. Implementations do not retry.
type Provider interface {
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

func trimBearer(token string) string {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
