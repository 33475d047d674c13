// Package racing runs one client's view of a room: it follows the room's
// snapshots, joins implicitly, and turns user intents into store writes.
package racing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/park285/tap-racer/internal/domain"
	"github.com/park285/tap-racer/internal/obslog"
	"github.com/park285/tap-racer/internal/stats"
	"github.com/park285/tap-racer/internal/store"
	"go.uber.org/zap"
)

// Archiver persists finished races outside the shared store.
type Archiver interface {
	Archive(ctx context.Context, room domain.Room, winnerUID string, endedAt time.Time) error
}

type Options struct {
	// Recorder rolls finished races into user stats. Nil skips the roll-up.
	Recorder *stats.Recorder
	Archive  Archiver
	Clock    func() time.Time
	// OnUpdate and OnGone run on the subscription goroutine, one at a time.
	OnUpdate func(domain.Room)
	OnGone   func()
}

// Session is safe for concurrent use; intents are checked against the last
// snapshot it has seen, not against the store.
type Session struct {
	store  store.Store
	roomID string
	me     domain.Identity
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc
	unsub  func()

	mu        sync.Mutex
	room      *domain.Room
	highWater int

	ready     chan struct{}
	readyOnce sync.Once
	closeOnce sync.Once
}

// Open subscribes to the room and returns immediately; the first snapshot
// arrives asynchronously (see Ready).
func Open(ctx context.Context, s store.Store, roomID string, me domain.Identity, opts Options) (*Session, error) {
	if !domain.ValidKey(roomID) || !domain.ValidKey(me.UID) {
		return nil, fmt.Errorf("%w: room %q uid %q", store.ErrInvalidPath, roomID, me.UID)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	sess := &Session{
		store:  s,
		roomID: roomID,
		me:     me,
		opts:   opts,
		ready:  make(chan struct{}),
	}
	sess.ctx, sess.cancel = context.WithCancel(ctx)
	unsub, err := s.Subscribe(sess.ctx, domain.RoomPath(roomID), sess.onSnapshot)
	if err != nil {
		sess.cancel()
		return nil, fmt.Errorf("subscribe room: %w", err)
	}
	sess.unsub = unsub
	return sess, nil
}

func (s *Session) RoomID() string { return s.roomID }

func (s *Session) Me() domain.Identity { return s.me }

// Ready is closed after the first snapshot (or absence) has been applied.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Snapshot returns the last room state seen. ok is false before the first
// delivery and while the room does not exist.
func (s *Session) Snapshot() (domain.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return domain.Room{}, false
	}
	return *s.room, true
}

// Close ends the subscription. Pending writes are not cancelled.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.unsub != nil {
			s.unsub()
		}
	})
}

func (s *Session) onSnapshot(raw json.RawMessage, exists bool) {
	defer s.readyOnce.Do(func() { close(s.ready) })
	if !exists {
		s.mu.Lock()
		s.room = nil
		s.mu.Unlock()
		if s.opts.OnGone != nil {
			s.opts.OnGone()
		}
		return
	}
	var room domain.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		obslog.L().Warn("room_decode_error", zap.String("room_id", s.roomID), zap.Error(err))
		return
	}
	room.ID = s.roomID
	s.mu.Lock()
	s.room = &room
	s.mu.Unlock()

	if s.opts.OnUpdate != nil {
		s.opts.OnUpdate(room)
	}
	s.maybeJoin(room)
}

// maybeJoin adds the local identity to a waiting room with a free slot. The
// check and the write are not atomic: two clients racing for the last slot
// can both land.
func (s *Session) maybeJoin(room domain.Room) {
	if _, ok := room.Player(s.me.UID); ok || !room.Joinable() {
		return
	}
	err := s.store.Merge(s.ctx, domain.PlayersPath(s.roomID), map[string]any{
		s.me.UID: domain.NewPlayer(s.me),
	})
	if err != nil {
		if s.ctx.Err() == nil {
			obslog.L().Warn("room_join_error", zap.String("room_id", s.roomID), zap.String("uid", s.me.UID), zap.Error(err))
		}
		return
	}
	obslog.L().Info("room_join", zap.String("room_id", s.roomID), zap.String("uid", s.me.UID), zap.Int("players", len(room.Players)+1))
}

func (s *Session) current() (domain.Room, error) {
	room, ok := s.Snapshot()
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return room, nil
}

func (s *Session) self() (domain.Room, domain.Player, error) {
	room, err := s.current()
	if err != nil {
		return room, domain.Player{}, err
	}
	p, ok := room.Player(s.me.UID)
	if !ok {
		return room, domain.Player{}, domain.ErrNotInRoom
	}
	return room, p, nil
}

// applyLocal echoes a successful write into the cached snapshot so the next
// intent sees it before the store delivers. The cached room is replaced, never
// mutated, because Snapshot hands out shallow copies.
func (s *Session) applyLocal(fn func(*domain.Room)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return
	}
	next := *s.room
	next.Players = make(map[string]domain.Player, len(s.room.Players))
	for k, v := range s.room.Players {
		next.Players[k] = v
	}
	fn(&next)
	s.room = &next
}

func (s *Session) applySelf(fn func(*domain.Player)) {
	s.applyLocal(func(r *domain.Room) {
		if p, ok := r.Players[s.me.UID]; ok {
			fn(&p)
			r.Players[s.me.UID] = p
		}
	})
}
