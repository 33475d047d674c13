// Package gateway exposes rooms, sessions and stats over HTTP and WebSocket.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/park285/tap-racer/internal/archive"
	"github.com/park285/tap-racer/internal/identity"
	"github.com/park285/tap-racer/internal/lobby"
	"github.com/park285/tap-racer/internal/msgcat"
	"github.com/park285/tap-racer/internal/obslog"
	"github.com/park285/tap-racer/internal/racing"
	"github.com/park285/tap-racer/internal/stats"
	"github.com/park285/tap-racer/internal/store"
	"go.uber.org/zap"
)

// RaceHistory serves finished races. Leave it nil to disable /v1/races.
type RaceHistory interface {
	Recent(ctx context.Context, limit int) ([]archive.Result, error)
}

type Deps struct {
	Store    store.Store
	Registry *lobby.Registry
	Recorder *stats.Recorder
	Stats    *stats.Aggregator
	Auth     identity.Provider
	Catalog  *msgcat.Catalog
	Archive  racing.Archiver
	Races    RaceHistory

	// Origin is the public web origin used for invite links and the
	// WebSocket origin check.
	Origin           string
	LeaderboardLimit int
	Clock            func() time.Time
	PingInterval     time.Duration
}

type Server struct {
	d              Deps
	originPatterns []string
}

func New(d Deps) (*Server, error) {
	if d.Store == nil || d.Registry == nil || d.Stats == nil || d.Auth == nil || d.Catalog == nil {
		return nil, errors.New("gateway: store, registry, stats, auth and catalog are required")
	}
	if d.Recorder == nil {
		d.Recorder = stats.NewRecorder(d.Store)
	}
	if d.LeaderboardLimit <= 0 {
		d.LeaderboardLimit = stats.DefaultLimit
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.PingInterval <= 0 {
		d.PingInterval = 30 * time.Second
	}
	s := &Server{d: d}
	if u, err := url.Parse(d.Origin); err == nil && u.Host != "" {
		s.originPatterns = []string{u.Host}
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)

	r.Get("/healthz", s.healthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/rooms", s.createRoom)
		r.Get("/rooms", s.listRooms)
		r.Get("/rooms/watch", s.watchRooms)
		r.Get("/rooms/{roomID}/session", s.roomSession)
		r.Post("/join", s.join)
		r.Get("/leaderboard", s.leaderboard)
		r.Get("/leaderboard/watch", s.watchLeaderboard)
		r.Get("/stats/{uid}", s.userStats)
		r.Get("/races", s.recentRaces)
	})
	return r
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		obslog.L().Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
