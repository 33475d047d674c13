package domain

import "strings"

const (
	RoomsRoot = "rooms"
	StatsRoot = "stats"
)

func RoomPath(roomID string) string { return RoomsRoot + "/" + roomID }

func PlayersPath(roomID string) string { return RoomPath(roomID) + "/players" }

func PlayerPath(roomID, uid string) string { return PlayersPath(roomID) + "/" + uid }

func StatsPath(uid string) string { return StatsRoot + "/" + uid }

// ValidKey reports whether s can stand as a single path segment, as a room
// code or uid must.
func ValidKey(s string) bool {
	if strings.TrimSpace(s) == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/#$[]")
}
