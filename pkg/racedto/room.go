package racedto

import (
	"sort"

	"github.com/park285/tap-racer/internal/domain"
)

type PlayerView struct {
	UID      string        `json:"uid"`
	Name     string        `json:"name"`
	Car      CarDescriptor `json:"car"`
	Progress int           `json:"progress"`
	IsReady  bool          `json:"isReady"`
}

// RoomView is a room as rendered by clients. Players are ordered by progress,
// highest first, then by uid.
type RoomView struct {
	ID         string       `json:"id"`
	CreatorID  string       `json:"creatorId"`
	Status     string       `json:"status"`
	Players    []PlayerView `json:"players"`
	MaxPlayers int          `json:"maxPlayers"`
	StartTime  int64        `json:"startTime,omitempty"`
	WinnerName string       `json:"winnerName,omitempty"`
	// CanStart mirrors the start preconditions other than who is asking.
	CanStart bool `json:"canStart"`
}

func NewRoomView(room domain.Room) RoomView {
	v := RoomView{
		ID:         room.ID,
		CreatorID:  room.CreatorID,
		Status:     string(room.Status),
		Players:    make([]PlayerView, 0, len(room.Players)),
		MaxPlayers: domain.MaxPlayers,
		StartTime:  room.StartTime,
		WinnerName: room.WinnerName,
		CanStart: room.Status == domain.StatusWaiting &&
			len(room.Players) >= domain.MinPlayersToStart &&
			room.AllReady(),
	}
	for uid, p := range room.Players {
		if p.UID == "" {
			p.UID = uid
		}
		v.Players = append(v.Players, PlayerView{
			UID:      p.UID,
			Name:     p.Name,
			Car:      Describe(p.Car),
			Progress: p.Progress,
			IsReady:  p.IsReady,
		})
	}
	sort.Slice(v.Players, func(i, j int) bool {
		if v.Players[i].Progress != v.Players[j].Progress {
			return v.Players[i].Progress > v.Players[j].Progress
		}
		return v.Players[i].UID < v.Players[j].UID
	})
	return v
}

func NewRoomViews(rooms []domain.Room) []RoomView {
	out := make([]RoomView, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, NewRoomView(r))
	}
	return out
}
