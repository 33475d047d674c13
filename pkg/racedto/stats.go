package racedto

import "github.com/park285/tap-racer/internal/domain"

type StatsView struct {
	Rank       int    `json:"rank,omitempty"`
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Wins       int    `json:"wins"`
	TotalGames int    `json:"totalGames"`
	WinRate    int    `json:"winRate"`
}

// LeaderboardView carries the ranked entries plus the small-sample advisory
// shown under the table.
type LeaderboardView struct {
	Entries  []StatsView `json:"entries"`
	MinGames int         `json:"minGames"`
	Advisory string      `json:"advisory,omitempty"`
}

func NewStatsView(st domain.UserStats) StatsView {
	return StatsView{
		UID:        st.UID,
		Name:       st.Name,
		Wins:       st.Wins,
		TotalGames: st.TotalGames,
		WinRate:    st.WinRate,
	}
}

// Ranked converts an already ordered slice, numbering from 1.
func Ranked(all []domain.UserStats) []StatsView {
	out := make([]StatsView, 0, len(all))
	for i, st := range all {
		v := NewStatsView(st)
		v.Rank = i + 1
		out = append(out, v)
	}
	return out
}
