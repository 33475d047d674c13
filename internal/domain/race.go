package domain

import "strconv"

// RoomStatus is the lifecycle phase of a room. It only moves forward:
// waiting -> racing -> finished.
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusRacing   RoomStatus = "racing"
	StatusFinished RoomStatus = "finished"
)

const (
	// MaxPlayers caps implicit joins.
	MaxPlayers = 5
	// MinPlayersToStart is the smallest field a race can start with.
	MinPlayersToStart = 2
	// TapIncrement is the progress gained per tap.
	TapIncrement = 2
	// FinishLine is the progress value that completes a race.
	FinishLine = 100
	// DefaultPlayerName is used when the identity has no display name.
	DefaultPlayerName = "이름없음"
)

// Identity is an authenticated participant as resolved by an identity provider.
type Identity struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// DisplayName returns the name to show, falling back to DefaultPlayerName.
func (i Identity) DisplayName() string {
	if i.Name == "" {
		return DefaultPlayerName
	}
	return i.Name
}

// Player is one participant inside a room, keyed by UID.
type Player struct {
	UID      string  `json:"uid"`
	Name     string  `json:"name"`
	Car      CarType `json:"car"`
	Progress int     `json:"progress"`
	IsReady  bool    `json:"isReady"`
}

// NewPlayer builds the initial record written when an identity enters a room.
func NewPlayer(id Identity) Player {
	return Player{
		UID:  id.UID,
		Name: id.DisplayName(),
		Car:  DefaultCar,
	}
}

// Room is the persisted document at rooms/{id}.
type Room struct {
	ID         string            `json:"id,omitempty"`
	CreatorID  string            `json:"creatorId"`
	Status     RoomStatus        `json:"status"`
	Players    map[string]Player `json:"players,omitempty"`
	StartTime  int64             `json:"startTime,omitempty"`
	WinnerName string            `json:"winnerName,omitempty"`
}

// Player returns the member with the given uid.
func (r *Room) Player(uid string) (Player, bool) {
	if r == nil || r.Players == nil {
		return Player{}, false
	}
	p, ok := r.Players[uid]
	return p, ok
}

// AllReady reports whether every member has flagged ready. Empty rooms are not ready.
func (r *Room) AllReady() bool {
	if r == nil || len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// Open reports whether the room is listed in the lobby.
func (r *Room) Open() bool { return r != nil && r.Status != StatusFinished }

// Joinable reports whether a newcomer may implicitly join.
func (r *Room) Joinable() bool {
	return r != nil && r.Status == StatusWaiting && len(r.Players) < MaxPlayers
}

// RaceKey identifies one race. Room codes are reused over time, so the
// start time is part of the key.
func RaceKey(roomID string, startTime int64) string {
	return roomID + "@" + strconv.FormatInt(startTime, 10)
}
