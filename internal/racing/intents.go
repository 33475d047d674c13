package racing

import (
	"context"
	"fmt"

	"github.com/park285/tap-racer/internal/domain"
	"github.com/park285/tap-racer/internal/obslog"
	"go.uber.org/zap"
)

// SelectCar changes the local player's car. Allowed in any status.
func (s *Session) SelectCar(ctx context.Context, car domain.CarType) error {
	if !car.Valid() {
		return domain.ErrInvalidCar
	}
	if _, _, err := s.self(); err != nil {
		return err
	}
	if err := s.store.Merge(ctx, domain.PlayerPath(s.roomID, s.me.UID), map[string]any{"car": car}); err != nil {
		return fmt.Errorf("select car: %w", err)
	}
	s.applySelf(func(p *domain.Player) { p.Car = car })
	return nil
}

// ToggleReady flips the local player's ready flag and returns the new value.
func (s *Session) ToggleReady(ctx context.Context) (bool, error) {
	_, p, err := s.self()
	if err != nil {
		return false, err
	}
	next := !p.IsReady
	if err := s.store.Merge(ctx, domain.PlayerPath(s.roomID, s.me.UID), map[string]any{"isReady": next}); err != nil {
		return p.IsReady, fmt.Errorf("toggle ready: %w", err)
	}
	s.applySelf(func(p *domain.Player) { p.IsReady = next })
	return next, nil
}

// StartRace moves a waiting room to racing. Only the creator may start, with
// at least two players who are all ready. status and startTime are written in
// one merge.
func (s *Session) StartRace(ctx context.Context) error {
	room, err := s.current()
	if err != nil {
		return err
	}
	switch {
	case room.CreatorID != s.me.UID:
		return domain.ErrNotCreator
	case room.Status != domain.StatusWaiting:
		return domain.ErrNotWaiting
	case len(room.Players) < domain.MinPlayersToStart:
		return domain.ErrNotEnoughPlayers
	case !room.AllReady():
		return domain.ErrNotAllReady
	}
	start := s.opts.Clock().UnixMilli()
	err = s.store.Merge(ctx, domain.RoomPath(s.roomID), map[string]any{
		"status":    domain.StatusRacing,
		"startTime": start,
	})
	if err != nil {
		return fmt.Errorf("start race: %w", err)
	}
	s.applyLocal(func(r *domain.Room) {
		r.Status = domain.StatusRacing
		r.StartTime = start
	})
	obslog.L().Info("race_start", zap.String("room_id", s.roomID), zap.Int("players", len(room.Players)))
	return nil
}

// Tap advances the local player by TapIncrement, clamped at FinishLine, and
// returns the new progress. Reaching the finish line completes the race from
// this client: room status and winner first, then the progress write, then
// the stats roll-up and archive.
func (s *Session) Tap(ctx context.Context) (int, error) {
	room, err := s.current()
	if err != nil {
		return 0, err
	}
	if room.Status != domain.StatusRacing {
		return 0, domain.ErrNotRacing
	}
	p, ok := room.Player(s.me.UID)
	if !ok {
		return 0, domain.ErrNotInRoom
	}

	s.mu.Lock()
	cur := max(p.Progress, s.highWater)
	s.mu.Unlock()
	next := min(cur+domain.TapIncrement, domain.FinishLine)
	finishing := next >= domain.FinishLine

	if finishing {
		err := s.store.Merge(ctx, domain.RoomPath(s.roomID), map[string]any{
			"status":     domain.StatusFinished,
			"winnerName": p.Name,
		})
		if err != nil {
			return cur, fmt.Errorf("finish race: %w", err)
		}
		s.applyLocal(func(r *domain.Room) {
			r.Status = domain.StatusFinished
			r.WinnerName = p.Name
		})
		obslog.L().Info("race_finish", zap.String("room_id", s.roomID), zap.String("winner_id", s.me.UID))
	}

	if err := s.store.Merge(ctx, domain.PlayerPath(s.roomID, s.me.UID), map[string]any{"progress": next}); err != nil {
		return cur, fmt.Errorf("tap: %w", err)
	}
	s.mu.Lock()
	if next > s.highWater {
		s.highWater = next
	}
	s.mu.Unlock()
	s.applySelf(func(p *domain.Player) { p.Progress = next })

	if finishing {
		final := room
		final.Players = make(map[string]domain.Player, len(room.Players))
		for uid, rp := range room.Players {
			final.Players[uid] = rp
		}
		p.Progress = next
		final.Players[s.me.UID] = p
		final.Status = domain.StatusFinished
		final.WinnerName = p.Name
		if err := s.settle(ctx, final); err != nil {
			return next, err
		}
	}
	return next, nil
}

// settle runs the post-completion steps for the players present when the
// race was completed.
func (s *Session) settle(ctx context.Context, room domain.Room) error {
	if s.opts.Recorder != nil {
		if err := s.opts.Recorder.RecordRace(ctx, domain.RaceKey(s.roomID, room.StartTime), room.Players, s.me.UID); err != nil {
			return fmt.Errorf("record stats: %w", err)
		}
	}
	if s.opts.Archive != nil {
		ended := s.opts.Clock()
		if err := s.opts.Archive.Archive(ctx, room, s.me.UID, ended); err != nil {
			obslog.L().Warn("race_archive_error", zap.String("room_id", s.roomID), zap.Error(err))
		}
	}
	return nil
}
