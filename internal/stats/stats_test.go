package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/park285/tap-racer/internal/domain"
	"github.com/park285/tap-racer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func players(uids ...string) map[string]domain.Player {
	out := make(map[string]domain.Player, len(uids))
	for _, uid := range uids {
		out[uid] = domain.Player{UID: uid, Name: strings.ToUpper(uid), Car: domain.DefaultCar}
	}
	return out
}

func TestWinRate(t *testing.T) {
	cases := []struct{ wins, total, want int }{
		{0, 0, 0},
		{1, 1, 100},
		{0, 1, 0},
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
		{3, 8, 38}, // 37.5 rounds up
	}
	for _, c := range cases {
		assert.Equal(t, c.want, WinRate(c.wins, c.total), "WinRate(%d,%d)", c.wins, c.total)
	}
}

func TestRecordRaceFirstGame(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorder(s)
	ctx := context.Background()

	require.NoError(t, rec.RecordRace(ctx, "R1", players("a", "b"), "a"))

	agg := NewAggregator(s)
	a, ok, err := agg.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.UserStats{UID: "a", Name: "A", Wins: 1, TotalGames: 1, WinRate: 100, LastRaceID: "R1"}, a)

	b, ok, err := agg.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, b.Wins)
	assert.Equal(t, 1, b.TotalGames)
	assert.Equal(t, 0, b.WinRate)
}

func TestRecordRaceAccumulates(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorder(s)
	ctx := context.Background()
	require.NoError(t, s.Write(ctx, domain.StatsPath("a"), domain.UserStats{Name: "Old", Wins: 3, TotalGames: 5, WinRate: 60}))

	require.NoError(t, rec.RecordRace(ctx, "R2", players("a", "b"), "b"))

	st, _, err := NewAggregator(s).Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, st.Wins)
	assert.Equal(t, 6, st.TotalGames)
	assert.Equal(t, 50, st.WinRate)
	assert.Equal(t, "Old", st.Name, "existing name is kept")
}

func TestRecordRaceIdempotentPerRace(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorder(s)
	ctx := context.Background()

	require.NoError(t, rec.RecordRace(ctx, "R1", players("a", "b"), "a"))
	require.NoError(t, rec.RecordRace(ctx, "R1", players("a", "b"), "a"))

	st, _, err := NewAggregator(s).Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalGames)
	assert.Equal(t, 1, st.Wins)

	require.NoError(t, rec.RecordRace(ctx, "R2", players("a", "b"), "b"))
	st, _, _ = NewAggregator(s).Get(ctx, "a")
	assert.Equal(t, 2, st.TotalGames)
	assert.Equal(t, 50, st.WinRate)
}

func TestRecordRaceSameCodeLaterStart(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorder(s)
	ctx := context.Background()

	require.NoError(t, rec.RecordRace(ctx, domain.RaceKey("ABCD", 1000), players("a", "b"), "a"))
	require.NoError(t, rec.RecordRace(ctx, domain.RaceKey("ABCD", 1000), players("a", "b"), "a"))
	require.NoError(t, rec.RecordRace(ctx, domain.RaceKey("ABCD", 2000), players("a", "b"), "b"))

	st, _, err := NewAggregator(s).Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalGames)
	assert.Equal(t, 1, st.Wins)
	assert.Equal(t, "ABCD@2000", st.LastRaceID)
}

// flakyStore fails every Write after the first n.
type flakyStore struct {
	*store.MemoryStore
	n int
}

func (f *flakyStore) Write(ctx context.Context, path string, value any) error {
	if f.n <= 0 {
		return errors.New("store unavailable")
	}
	f.n--
	return f.MemoryStore.Write(ctx, path, value)
}

func TestRecordRacePartialFailure(t *testing.T) {
	mem := newTestStore(t)
	rec := NewRecorder(&flakyStore{MemoryStore: mem, n: 1})
	ctx := context.Background()

	err := rec.RecordRace(ctx, "R1", players("a", "b", "c"), "a")
	require.Error(t, err)

	agg := NewAggregator(mem)
	_, ok, _ := agg.Get(ctx, "a")
	assert.True(t, ok, "write before the failure stands")
	_, ok, _ = agg.Get(ctx, "b")
	assert.False(t, ok)
	_, ok, _ = agg.Get(ctx, "c")
	assert.False(t, ok, "loop stops at the first failure")
}

func TestTopOrdersByWinRate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seed := map[string]domain.UserStats{
		"A": {Name: "A", Wins: 5, TotalGames: 10, WinRate: 50},
		"B": {Name: "B", Wins: 1, TotalGames: 1, WinRate: 100},
		"C": {Name: "C", Wins: 2, TotalGames: 8, WinRate: 25},
	}
	for uid, st := range seed {
		require.NoError(t, s.Write(ctx, domain.StatsPath(uid), st))
	}

	top, err := NewAggregator(s).Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"B", "A", "C"}, []string{top[0].UID, top[1].UID, top[2].UID})
}

func TestTopLimit(t *testing.T) {
	all := make(map[string]domain.UserStats)
	for i := 0; i < 15; i++ {
		all[fmt.Sprintf("u%02d", i)] = domain.UserStats{WinRate: i}
	}
	top := Rank(all, 10)
	require.Len(t, top, 10)
	assert.Equal(t, 14, top[0].WinRate)
	assert.Equal(t, 5, top[9].WinRate)
	assert.Len(t, Rank(all, 0), DefaultLimit)
}

func TestTopEmpty(t *testing.T) {
	top, err := NewAggregator(newTestStore(t)).Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestWatchRederives(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := NewAggregator(s).Watch(ctx, 10)
	require.NoError(t, err)

	next := func(match func([]domain.UserStats) bool) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case top := <-ch:
				if match(top) {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for leaderboard")
			}
		}
	}
	next(func(top []domain.UserStats) bool { return len(top) == 0 })

	require.NoError(t, NewRecorder(s).RecordRace(ctx, "R1", players("a", "b"), "b"))
	next(func(top []domain.UserStats) bool { return len(top) == 2 && top[0].UID == "b" })
}
