package domain

// UserStats is the per-user record at stats/{uid}.
type UserStats struct {
	UID        string `json:"uid,omitempty"`
	Name       string `json:"name"`
	Wins       int    `json:"wins"`
	TotalGames int    `json:"totalGames"`
	WinRate    int    `json:"winRate"`
	// LastRaceID is the RaceKey of the last race rolled into this record; a
	// repeated completion of the same race is ignored.
	LastRaceID string `json:"lastRaceId,omitempty"`
}
