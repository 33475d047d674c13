package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/park285/tap-racer/internal/domain"
	"github.com/park285/tap-racer/internal/lobby"
	"github.com/park285/tap-racer/internal/obslog"
	"github.com/park285/tap-racer/internal/racing"
	"github.com/park285/tap-racer/pkg/racedto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// intentTimeout bounds one intent's store writes. Intents are detached from
// the connection so a client leaving mid-completion does not cut the
// completion sequence short.
const intentTimeout = 5 * time.Second

func (s *Server) roomSession(w http.ResponseWriter, r *http.Request) {
	roomID := strings.ToUpper(chi.URLParam(r, "roomID"))
	if !lobby.ValidCode(roomID) {
		s.writeError(w, r, domain.ErrInvalidInvite, roomID)
		return
	}
	me, err := s.identify(r)
	if err != nil {
		s.writeError(w, r, err, roomID)
		return
	}

	c, err := s.accept(w, r, "session")
	if err != nil {
		return
	}
	defer c.close(websocket.StatusNormalClosure, "bye")

	sess, err := racing.Open(c.ctx, s.d.Store, roomID, me, racing.Options{
		Recorder: s.d.Recorder,
		Archive:  s.d.Archive,
		Clock:    s.d.Clock,
		OnUpdate: func(room domain.Room) {
			m := racedto.RoomMessage(room)
			if room.Status == domain.StatusFinished && room.WinnerName != "" {
				m.Notice = s.notice("race.winner", map[string]any{"Name": room.WinnerName})
			}
			c.send(m)
		},
		OnGone: func() { c.send(racedto.GoneMessage(s.notice("room.gone", nil))) },
	})
	if err != nil {
		body, _ := s.rejection(err, roomID)
		c.send(racedto.ErrorMessage(body))
		c.drain()
		return
	}
	defer sess.Close()
	obslog.L().Info("ws_session_open", zap.String("conn_id", c.id), zap.String("room_id", roomID), zap.String("uid", me.UID))

	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if c.ctx.Err() == nil && !errors.Is(err, context.Canceled) {
					obslog.L().Debug("ws_read_error", zap.String("conn_id", c.id), zap.Error(err))
				}
			}
			return
		}
		var in racedto.ClientIntent
		if err := json.Unmarshal(data, &in); err != nil {
			body, _ := s.rejection(errBadRequest, roomID)
			c.send(racedto.ErrorMessage(body))
			continue
		}
		s.dispatch(c, sess, in)
	}
}

// dispatch applies one intent and answers the sender only: an ack on
// success, an error frame on rejection. Room state reaches every client
// through its own subscription.
func (s *Server) dispatch(c *wsConn, sess *racing.Session, in racedto.ClientIntent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.ctx), intentTimeout)
	defer cancel()

	ack := racedto.Ack{Intent: in.Type}
	var err error
	switch in.Type {
	case racedto.IntentSelectCar:
		err = sess.SelectCar(ctx, in.Car)
	case racedto.IntentToggleReady:
		var ready bool
		if ready, err = sess.ToggleReady(ctx); err == nil {
			ack.Ready = &ready
		}
	case racedto.IntentStartRace:
		err = sess.StartRace(ctx)
	case racedto.IntentTap:
		var progress int
		if progress, err = sess.Tap(ctx); err == nil {
			ack.Progress = &progress
		}
	default:
		err = errBadRequest
	}
	if err != nil {
		body, _ := s.rejection(err, sess.RoomID())
		if body.Retryable {
			obslog.L().Warn("ws_intent_error", zap.String("conn_id", c.id), zap.String("intent", string(in.Type)), zap.Error(err))
		} else {
			obslog.L().Debug("ws_intent_rejected", zap.String("conn_id", c.id), zap.String("intent", string(in.Type)), zap.String("code", body.Code))
		}
		c.send(racedto.ErrorMessage(body))
		return
	}
	c.send(racedto.ServerMessage{Type: racedto.MessageAck, Ack: &ack})
}

// notice renders a catalog line for a push frame; no catalog means no notice.
func (s *Server) notice(key string, data any) string {
	if s.d.Catalog == nil {
		return ""
	}
	return s.d.Catalog.Message(key, data)
}
