package racing

import (
	"context"
	"testing"
	"time"

	"github.com/park285/tap-racer/internal/domain"
	"github.com/park285/tap-racer/internal/lobby"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two clients can both see themselves cross the line before either sees the
// other's completion. Nothing serializes the completion writes: the room keeps
// whichever winnerName landed last, while the stats roll-up counts the race
// once, crediting the first completer.
func TestConcurrentCompletionLastWriterWins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed("R1", racingRoom("u1", map[string]int{"u1": 98, "u2": 98}))
	a := h.open("R1", domain.Identity{UID: "u1", Name: "name-u1"})
	b := h.open("R1", domain.Identity{UID: "u2", Name: "name-u2"})
	waitSnapshot(t, b, func(r domain.Room) bool { return r.Status == domain.StatusRacing })

	// freeze b's view at 98% while racing
	b.unsub()

	got, err := a.Tap(ctx)
	require.NoError(t, err)
	require.Equal(t, 100, got)
	assert.Equal(t, "name-u1", h.room("R1").WinnerName)

	got, err = b.Tap(ctx)
	require.NoError(t, err, "stale snapshot still shows racing")
	require.Equal(t, 100, got)

	room := h.room("R1")
	assert.Equal(t, domain.StatusFinished, room.Status)
	assert.Equal(t, "name-u2", room.WinnerName, "last completion write wins")
	assert.Equal(t, 100, room.Players["u1"].Progress)
	assert.Equal(t, 100, room.Players["u2"].Progress)

	s1, s2 := h.stats("u1"), h.stats("u2")
	assert.Equal(t, 1, s1.TotalGames, "race counted once")
	assert.Equal(t, 1, s2.TotalGames, "race counted once")
	assert.Equal(t, 1, s1.Wins, "first completer keeps the win")
	assert.Equal(t, 0, s2.Wins, "second completion is ignored by the roll-up")
}

// Room codes come from a small alphabet and are reused once a room is
// replaced. A second race under the same code is a new race for the stats.
func TestReusedRoomCodeCountsAsNewRace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed("AAAA", racingRoom("u1", map[string]int{"u1": 0, "u2": 98}))
	a := h.open("AAAA", ann)
	b := h.open("AAAA", bob)
	waitSnapshot(t, b, func(r domain.Room) bool { return r.Status == domain.StatusRacing })
	got, err := b.Tap(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.FinishLine, got)
	a.Close()
	b.Close()

	reg := lobby.NewRegistry(h.store, lobby.WithCodeGenerator(func() (string, error) { return "AAAA", nil }))
	id, err := reg.CreateRoom(ctx, ann)
	require.NoError(t, err)
	require.Equal(t, "AAAA", id)

	later := fixedNow.Add(time.Minute)
	laterClock := func(o *Options) { o.Clock = func() time.Time { return later } }
	a = h.open(id, ann, laterClock)
	b = h.open(id, bob, laterClock)
	waitSnapshot(t, a, hasPlayers(2))
	waitSnapshot(t, b, hasPlayers(2))
	_, err = a.ToggleReady(ctx)
	require.NoError(t, err)
	_, err = b.ToggleReady(ctx)
	require.NoError(t, err)
	waitSnapshot(t, a, func(r domain.Room) bool { return r.AllReady() })
	require.NoError(t, a.StartRace(ctx))
	waitSnapshot(t, a, func(r domain.Room) bool { return r.Status == domain.StatusRacing })
	assert.Equal(t, later.UnixMilli(), h.room(id).StartTime)

	for i := 0; i < 50; i++ {
		_, err = a.Tap(ctx)
		require.NoError(t, err, "tap %d", i)
	}
	assert.Equal(t, "Ann", h.room(id).WinnerName)

	s1, s2 := h.stats("u1"), h.stats("u2")
	assert.Equal(t, 2, s1.TotalGames, "second race under the same code is counted")
	assert.Equal(t, 2, s2.TotalGames, "second race under the same code is counted")
	assert.Equal(t, 1, s1.Wins)
	assert.Equal(t, 1, s2.Wins)
	assert.Equal(t, domain.RaceKey("AAAA", later.UnixMilli()), s1.LastRaceID)
}
