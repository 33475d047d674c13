package archive

import (
    "sort"
    "time"

    "github.com/google/uuid"
    "github.com/park285/tap-racer/internal/domain"
)

type Placement struct {
    Rank     int            `json:"rank"`
    UID      string         `json:"uid"`
    Name     string         `json:"name"`
    Car      domain.CarType `json:"car"`
    Progress int            `json:"progress"`
}

// Result is one finished race as stored in race_results.
type Result struct {
    ID         uuid.UUID   `json:"id"`
    RaceKey    string      `json:"raceKey"`
    RoomID     string      `json:"roomId"`
    WinnerUID  string      `json:"winnerUid"`
    WinnerName string      `json:"winnerName"`
    Placements []Placement `json:"placements"`
    StartedAt  time.Time   `json:"startedAt,omitempty"`
    EndedAt    time.Time   `json:"endedAt"`
    DurationMS int64       `json:"durationMs"`
}

// NewResult snapshots a finished room. Placements follow progress, highest
// first, with the winner always ranked first.
func NewResult(room domain.Room, winnerUID string, endedAt time.Time) Result {
    res := Result{
        ID:        uuid.New(),
        RaceKey:   domain.RaceKey(room.ID, room.StartTime),
        RoomID:    room.ID,
        WinnerUID: winnerUID,
        EndedAt:   endedAt.UTC(),
    }
    if w, ok := room.Players[winnerUID]; ok { res.WinnerName = w.Name } else { res.WinnerName = room.WinnerName }
    if room.StartTime > 0 {
        res.StartedAt = time.UnixMilli(room.StartTime).UTC()
        if d := res.EndedAt.Sub(res.StartedAt).Milliseconds(); d > 0 { res.DurationMS = d }
    }

    for uid, p := range room.Players {
        if p.UID == "" { p.UID = uid }
        res.Placements = append(res.Placements, Placement{UID: p.UID, Name: p.Name, Car: p.Car, Progress: p.Progress})
    }
    sort.Slice(res.Placements, func(i, j int) bool {
        a, b := res.Placements[i], res.Placements[j]
        if (a.UID == winnerUID) != (b.UID == winnerUID) { return a.UID == winnerUID }
        if a.Progress != b.Progress { return a.Progress > b.Progress }
        return a.UID < b.UID
    })
    for i := range res.Placements { res.Placements[i].Rank = i + 1 }
    return res
}

func startMillis(t time.Time) int64 {
    if t.IsZero() { return 0 }
    return t.UnixMilli()
}
