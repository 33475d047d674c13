package gateway

import (
	"errors"
	"net/http"

	"github.com/park285/tap-racer/internal/domain"
	"github.com/park285/tap-racer/internal/identity"
	"github.com/park285/tap-racer/pkg/racedto"
)

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

type errorKind struct {
	code      string
	status    int
	retryable bool
}

func classify(err error) errorKind {
	switch {
	case errors.Is(err, domain.ErrNotEnoughPlayers):
		return errorKind{"not_enough_players", http.StatusConflict, false}
	case errors.Is(err, domain.ErrNotAllReady):
		return errorKind{"not_all_ready", http.StatusConflict, false}
	case errors.Is(err, domain.ErrNotCreator):
		return errorKind{"not_creator", http.StatusForbidden, false}
	case errors.Is(err, domain.ErrNotWaiting):
		return errorKind{"not_waiting", http.StatusConflict, false}
	case errors.Is(err, domain.ErrNotRacing):
		return errorKind{"not_racing", http.StatusConflict, false}
	case errors.Is(err, domain.ErrNotInRoom):
		return errorKind{"not_in_room", http.StatusForbidden, false}
	case errors.Is(err, domain.ErrInvalidCar):
		return errorKind{"invalid_car", http.StatusBadRequest, false}
	case errors.Is(err, domain.ErrInvalidInvite):
		return errorKind{"invalid_invite", http.StatusBadRequest, false}
	case errors.Is(err, domain.ErrRoomNotFound):
		return errorKind{"room_not_found", http.StatusNotFound, false}
	case errors.Is(err, identity.ErrUnauthenticated):
		return errorKind{"unauthenticated", http.StatusUnauthorized, false}
	case errors.Is(err, errBadRequest):
		return errorKind{"bad_request", http.StatusBadRequest, false}
	case errors.Is(err, errNotFound):
		return errorKind{"not_found", http.StatusNotFound, false}
	default:
		return errorKind{"unavailable", http.StatusServiceUnavailable, true}
	}
}

// rejection renders err for the client. roomID fills the room_not_found text.
func (s *Server) rejection(err error, roomID string) (racedto.DomainError, int) {
	k := classify(err)
	msg := s.d.Catalog.Message("errors."+k.code, map[string]any{"RoomID": roomID})
	return racedto.DomainError{Code: k.code, Message: msg, Retryable: k.retryable}, k.status
}
