package racedto

import (
	"encoding/json"
	"testing"

	"github.com/park285/tap-racer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeCoversEveryCar(t *testing.T) {
	seen := map[string]domain.CarType{}
	for _, c := range domain.Cars() {
		d := Describe(c)
		assert.Equal(t, c, d.Type)
		assert.NotEmpty(t, d.Emoji, string(c))
		assert.NotEmpty(t, d.Label, string(c))
		if prev, dup := seen[d.Label]; dup {
			t.Errorf("label %q used by %s and %s", d.Label, prev, c)
		}
		seen[d.Label] = c
	}
	assert.Len(t, Garage(), len(domain.Cars()))
}

func TestDescribeUnknownFallsBack(t *testing.T) {
	d := Describe("hovercraft")
	assert.Equal(t, domain.CarType("hovercraft"), d.Type)
	assert.Equal(t, Describe(domain.DefaultCar).Emoji, d.Emoji)
}

func TestNewRoomView(t *testing.T) {
	room := domain.Room{
		ID:        "AB3X",
		CreatorID: "u1",
		Status:    domain.StatusWaiting,
		Players: map[string]domain.Player{
			"u1": {UID: "u1", Name: "Ann", Car: domain.CarBus, IsReady: true},
			"u2": {Name: "Bob", Car: domain.CarKart, IsReady: true, Progress: 4},
		},
	}
	v := NewRoomView(room)
	require.Len(t, v.Players, 2)
	assert.Equal(t, "u2", v.Players[0].UID, "uid filled from key, ordered by progress")
	assert.Equal(t, "🚌", v.Players[1].Car.Emoji)
	assert.True(t, v.CanStart)
	assert.Equal(t, domain.MaxPlayers, v.MaxPlayers)

	room.Status = domain.StatusRacing
	assert.False(t, NewRoomView(room).CanStart)
}

func TestServerMessageShape(t *testing.T) {
	raw, err := json.Marshal(ErrorMessage(DomainError{Code: "not_creator", Message: "방장만 시작할 수 있어요"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","error":{"code":"not_creator","message":"방장만 시작할 수 있어요"}}`, string(raw))

	raw, err = json.Marshal(GoneMessage(""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"gone"}`, string(raw))

	raw, err = json.Marshal(GoneMessage("방이 사라졌어요."))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"gone","notice":"방이 사라졌어요."}`, string(raw))

	var in ClientIntent
	require.NoError(t, json.Unmarshal([]byte(`{"type":"selectCar","car":"pink_ufo"}`), &in))
	assert.Equal(t, IntentSelectCar, in.Type)
	assert.Equal(t, domain.CarPinkUFO, in.Car)
}

func TestRanked(t *testing.T) {
	got := Ranked([]domain.UserStats{{UID: "a", Wins: 3}, {UID: "b"}})
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, 2, got[1].Rank)
	assert.Equal(t, "Error text", DomainError{Message: "Error text"}.Error())
}
