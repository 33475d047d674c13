package lobby

import (
    "strings"

    "github.com/park285/tap-racer/internal/domain"
)

const invitePathMarker = "/room/"

// InviteLink builds the shareable link for a room.
func InviteLink(origin, roomID string) string {
    return strings.TrimRight(strings.TrimSpace(origin), "/") + "/#/room/" + roomID
}

// ParseInvite extracts a room id from a full invite link ("https://host/#/room/AB3X"),
// a fragment ("#/room/AB3X"), a path ("/room/AB3X") or a bare code ("ab3x").
func ParseInvite(raw string) (string, error) {
    s := strings.TrimSpace(raw)
    if i := strings.LastIndex(s, invitePathMarker); i >= 0 {
        s = s[i+len(invitePathMarker):]
    }
    if i := strings.IndexAny(s, "?#"); i >= 0 { s = s[:i] }
    s = strings.ToUpper(strings.Trim(s, "/ "))
    if !ValidCode(s) { return "", domain.ErrInvalidInvite }
    return s, nil
}
