package domain

// Validation rejections. None of them mutate shared state.
var (
	ErrRoomNotFound     = errf("room not found")
	ErrNotInRoom        = errf("player is not a member of this room")
	ErrNotCreator       = errf("only the room creator can start the race")
	ErrNotWaiting       = errf("room is not waiting for players")
	ErrNotEnoughPlayers = errf("at least two players are required")
	ErrNotAllReady      = errf("every player must be ready")
	ErrNotRacing        = errf("race is not in progress")
	ErrInvalidCar       = errf("unknown car type")
	ErrInvalidInvite    = errf("invalid invite")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
