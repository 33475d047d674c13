package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/park285/tap-racer/internal/archive"
	"github.com/park285/tap-racer/internal/domain"
	"github.com/park285/tap-racer/internal/lobby"
	"github.com/park285/tap-racer/internal/obslog"
	"github.com/park285/tap-racer/internal/stats"
	"github.com/park285/tap-racer/pkg/racedto"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, roomID string) {
	body, status := s.rejection(err, roomID)
	if status >= http.StatusInternalServerError {
		obslog.L().Warn("http_error", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, struct {
		Error racedto.DomainError `json:"error"`
	}{body})
}

func queryLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	me, err := s.identify(r)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	id, err := s.d.Registry.CreateRoom(r.Context(), me)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, racedto.CreateRoomResponse{
		RoomID: id,
		Invite: lobby.InviteLink(s.d.Origin, id),
	})
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.d.Registry.ListOpenRooms(r.Context())
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, racedto.NewRoomViews(rooms))
}

func (s *Server) join(w http.ResponseWriter, r *http.Request) {
	var req racedto.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errBadRequest, "")
		return
	}
	id, err := s.d.Registry.Join(r.Context(), req.Invite)
	if err != nil {
		code, _ := lobby.ParseInvite(req.Invite)
		s.writeError(w, r, err, code)
		return
	}
	writeJSON(w, http.StatusOK, racedto.JoinResponse{RoomID: id})
}

func (s *Server) leaderboardView(top []domain.UserStats) racedto.LeaderboardView {
	return racedto.LeaderboardView{
		Entries:  racedto.Ranked(top),
		MinGames: stats.MinGamesAdvisory,
		Advisory: s.d.Catalog.Message("leaderboard.advisory", map[string]any{"MinGames": stats.MinGamesAdvisory}),
	}
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := s.d.Stats.Top(r.Context(), queryLimit(r, s.d.LeaderboardLimit))
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, s.leaderboardView(top))
}

func (s *Server) userStats(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	st, ok, err := s.d.Stats.Get(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if !ok {
		s.writeError(w, r, errNotFound, "")
		return
	}
	writeJSON(w, http.StatusOK, racedto.NewStatsView(st))
}

func (s *Server) recentRaces(w http.ResponseWriter, r *http.Request) {
	if s.d.Races == nil {
		s.writeError(w, r, errNotFound, "")
		return
	}
	res, err := s.d.Races.Recent(r.Context(), queryLimit(r, 20))
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if res == nil {
		res = []archive.Result{}
	}
	writeJSON(w, http.StatusOK, res)
}
