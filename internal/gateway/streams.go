package gateway

import (
	"net/http"

	"github.com/park285/tap-racer/pkg/racedto"
	"nhooyr.io/websocket"
)

// watchRooms streams the open-room list until the client goes away.
func (s *Server) watchRooms(w http.ResponseWriter, r *http.Request) {
	c, err := s.accept(w, r, "rooms")
	if err != nil {
		return
	}
	defer c.close(websocket.StatusNormalClosure, "bye")

	ctx := c.conn.CloseRead(c.ctx)
	ch, err := s.d.Registry.WatchOpenRooms(ctx)
	if err != nil {
		body, _ := s.rejection(err, "")
		c.send(racedto.ErrorMessage(body))
		c.drain()
		return
	}
	for rooms := range ch {
		if !c.send(racedto.RoomsMessage(rooms)) {
			return
		}
	}
}

func (s *Server) watchLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, s.d.LeaderboardLimit)
	c, err := s.accept(w, r, "leaderboard")
	if err != nil {
		return
	}
	defer c.close(websocket.StatusNormalClosure, "bye")

	ctx := c.conn.CloseRead(c.ctx)
	ch, err := s.d.Stats.Watch(ctx, limit)
	if err != nil {
		body, _ := s.rejection(err, "")
		c.send(racedto.ErrorMessage(body))
		c.drain()
		return
	}
	for top := range ch {
		if !c.send(racedto.LeaderboardMessage(s.leaderboardView(top))) {
			return
		}
	}
}
