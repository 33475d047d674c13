package racedto

import "github.com/park285/tap-racer/internal/domain"

type IntentType string

const (
	IntentSelectCar   IntentType = "selectCar"
	IntentToggleReady IntentType = "toggleReady"
	IntentStartRace   IntentType = "startRace"
	IntentTap         IntentType = "tap"
)

// ClientIntent is one message from a client on a room session stream.
type ClientIntent struct {
	Type IntentType     `json:"type"`
	Car  domain.CarType `json:"car,omitempty"`
}

type MessageType string

const (
	MessageRoom        MessageType = "room"
	MessageGone        MessageType = "gone"
	MessageRooms       MessageType = "rooms"
	MessageLeaderboard MessageType = "leaderboard"
	MessageAck         MessageType = "ack"
	MessageError       MessageType = "error"
)

// ServerMessage is one frame pushed to a client. Exactly one payload field is
// set, matching Type. Notice is an optional display line shown as-is.
type ServerMessage struct {
	Type        MessageType      `json:"type"`
	Notice      string           `json:"notice,omitempty"`
	Room        *RoomView        `json:"room,omitempty"`
	Rooms       []RoomView       `json:"rooms,omitempty"`
	Leaderboard *LeaderboardView `json:"leaderboard,omitempty"`
	Ack         *Ack             `json:"ack,omitempty"`
	Error       *DomainError     `json:"error,omitempty"`
}

// Ack confirms an accepted intent.
type Ack struct {
	Intent   IntentType `json:"intent"`
	Ready    *bool      `json:"ready,omitempty"`
	Progress *int       `json:"progress,omitempty"`
}

func RoomMessage(room domain.Room) ServerMessage {
	v := NewRoomView(room)
	return ServerMessage{Type: MessageRoom, Room: &v}
}

func GoneMessage(notice string) ServerMessage {
	return ServerMessage{Type: MessageGone, Notice: notice}
}

func RoomsMessage(rooms []domain.Room) ServerMessage {
	return ServerMessage{Type: MessageRooms, Rooms: NewRoomViews(rooms)}
}

func LeaderboardMessage(v LeaderboardView) ServerMessage {
	return ServerMessage{Type: MessageLeaderboard, Leaderboard: &v}
}

func ErrorMessage(e DomainError) ServerMessage {
	return ServerMessage{Type: MessageError, Error: &e}
}
