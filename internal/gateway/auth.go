package gateway

import (
	"net/http"
	"strings"

	"github.com/park285/tap-racer/internal/domain"
	"github.com/park285/tap-racer/internal/identity"
)

// bearer takes the token from the Authorization header, falling back to the
// token query parameter for WebSocket handshakes.
func bearer(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		return h
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func (s *Server) identify(r *http.Request) (domain.Identity, error) {
	tok := bearer(r)
	if tok == "" {
		return domain.Identity{}, identity.ErrUnauthenticated
	}
	return s.d.Auth.Resolve(r.Context(), tok)
}
