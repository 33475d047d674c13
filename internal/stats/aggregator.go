package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/park285/tap-racer/internal/domain"
	"github.com/park285/tap-racer/internal/store"
)

const DefaultLimit = 10

// Aggregator serves the leaderboard read path.
type Aggregator struct {
	store store.Store
}

func NewAggregator(s store.Store) *Aggregator { return &Aggregator{store: s} }

// Top returns up to limit records by win rate, highest first.
func (a *Aggregator) Top(ctx context.Context, limit int) ([]domain.UserStats, error) {
	raw, ok, err := a.store.Read(ctx, domain.StatsRoot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.UserStats{}, nil
	}
	return decodeTop(raw, limit)
}

// Watch re-derives the leaderboard on every stats change.
func (a *Aggregator) Watch(ctx context.Context, limit int) (<-chan []domain.UserStats, error) {
	return store.Watch(ctx, a.store, domain.StatsRoot, func(raw json.RawMessage, exists bool) ([]domain.UserStats, error) {
		if !exists {
			return []domain.UserStats{}, nil
		}
		return decodeTop(raw, limit)
	})
}

func (a *Aggregator) Get(ctx context.Context, uid string) (domain.UserStats, bool, error) {
	var st domain.UserStats
	ok, err := store.ReadInto(ctx, a.store, domain.StatsPath(uid), &st)
	if err != nil || !ok {
		return domain.UserStats{}, false, err
	}
	st.UID = uid
	return st, true, nil
}

func decodeTop(raw json.RawMessage, limit int) ([]domain.UserStats, error) {
	var all map[string]domain.UserStats
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return Rank(all, limit), nil
}

// Rank orders records by win rate desc, then games played desc, then uid.
func Rank(all map[string]domain.UserStats, limit int) []domain.UserStats {
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := make([]domain.UserStats, 0, len(all))
	for uid, st := range all {
		st.UID = uid
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate > out[j].WinRate
		}
		if out[i].TotalGames != out[j].TotalGames {
			return out[i].TotalGames > out[j].TotalGames
		}
		return out[i].UID < out[j].UID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
