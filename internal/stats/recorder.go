// Package stats maintains per-user win/loss records and the leaderboard
// derived from them.
package stats

import (
	"context"
	"fmt"
	"sort"

	"github.com/park285/tap-racer/internal/domain"
	"github.com/park285/tap-racer/internal/obslog"
	"github.com/park285/tap-racer/internal/store"
	"go.uber.org/zap"
)

// MinGamesAdvisory is shown next to the leaderboard; it does not filter.
const MinGamesAdvisory = 5

// WinRate is round-half-up of 100*wins/total, or 0 with no games.
func WinRate(wins, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*wins + total) / (2 * total)
}

type Recorder struct {
	store store.Store
}

func NewRecorder(s store.Store) *Recorder { return &Recorder{store: s} }

// RecordRace rolls a finished race into every participant's record. Each
// record is read, updated and written on its own; a failure stops the loop and
// leaves earlier records updated. A record already stamped with raceKey is left
// alone, so recording the same race twice counts it once. raceKey should come
// from domain.RaceKey; a bare room code is reused by later races.
func (r *Recorder) RecordRace(ctx context.Context, raceKey string, players map[string]domain.Player, winnerUID string) error {
	uids := make([]string, 0, len(players))
	for uid := range players {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	for i, uid := range uids {
		p := players[uid]
		if p.UID == "" {
			p.UID = uid
		}
		if err := r.recordOne(ctx, raceKey, p, uid == winnerUID); err != nil {
			obslog.L().Error("stats_update_error",
				zap.String("race_key", raceKey),
				zap.String("uid", uid),
				zap.Int("recorded", i),
				zap.Int("players", len(uids)),
				zap.Error(err),
			)
			return fmt.Errorf("record stats for %s: %w", uid, err)
		}
	}
	return nil
}

func (r *Recorder) recordOne(ctx context.Context, raceKey string, p domain.Player, won bool) error {
	var cur domain.UserStats
	ok, err := store.ReadInto(ctx, r.store, domain.StatsPath(p.UID), &cur)
	if err != nil {
		return err
	}
	if !ok {
		cur = domain.UserStats{Name: p.Name}
	}
	if raceKey != "" && cur.LastRaceID == raceKey {
		obslog.L().Info("stats_update_skipped", zap.String("race_key", raceKey), zap.String("uid", p.UID))
		return nil
	}
	if cur.Name == "" {
		cur.Name = p.Name
	}
	cur.UID = p.UID
	cur.TotalGames++
	if won {
		cur.Wins++
	}
	cur.WinRate = WinRate(cur.Wins, cur.TotalGames)
	cur.LastRaceID = raceKey
	if err := r.store.Write(ctx, domain.StatsPath(p.UID), cur); err != nil {
		return err
	}
	obslog.L().Info("stats_update",
		zap.String("uid", p.UID),
		zap.Int("wins", cur.Wins),
		zap.Int("total_games", cur.TotalGames),
		zap.Int("win_rate", cur.WinRate),
	)
	return nil
}
