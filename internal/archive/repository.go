// Package archive keeps a PostgreSQL history of finished races.
package archive

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
    _ "github.com/lib/pq"
    "github.com/park285/tap-racer/internal/domain"
    "github.com/park285/tap-racer/internal/obslog"
    "go.uber.org/zap"
)

const schema = `CREATE TABLE IF NOT EXISTS race_results (
    id           UUID PRIMARY KEY,
    race_key     TEXT NOT NULL UNIQUE,
    room_id      TEXT NOT NULL,
    winner_uid   TEXT NOT NULL,
    winner_name  TEXT NOT NULL,
    player_count INT NOT NULL,
    placements   JSONB NOT NULL,
    started_at   TIMESTAMPTZ NULL,
    ended_at     TIMESTAMPTZ NOT NULL,
    duration_ms  BIGINT NOT NULL DEFAULT 0
)`

// Repository is nil-safe: a nil *Repository accepts and drops every write.
type Repository struct {
    db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
    if strings.TrimSpace(databaseURL) == "" {
        return nil, fmt.Errorf("DATABASE_URL is required")
    }
    db, err := sql.Open("postgres", databaseURL)
    if err != nil {
        return nil, err
    }
    db.SetMaxOpenConns(16)
    db.SetMaxIdleConns(8)
    db.SetConnMaxLifetime(30 * time.Minute)
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        _ = db.Close()
        return nil, err
    }
    return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
    if r == nil || r.db == nil { return nil }
    return r.db.Close()
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
    if r == nil || r.db == nil { return nil }
    _, err := r.db.ExecContext(ctx, schema)
    return err
}

// Archive records a finished room. It satisfies the racing session's archiver.
func (r *Repository) Archive(ctx context.Context, room domain.Room, winnerUID string, endedAt time.Time) error {
    if r == nil || r.db == nil { return nil }
    res := NewResult(room, winnerUID, endedAt)
    if err := r.SaveResult(ctx, res); err != nil { return err }
    obslog.L().Info("race_archived", zap.String("race_key", res.RaceKey), zap.String("winner_id", res.WinnerUID), zap.Int64("duration_ms", res.DurationMS))
    return nil
}

// SaveResult upserts by race key, so a race completed twice keeps one row
// reflecting the last completion. A later race under the same room code gets
// its own row.
func (r *Repository) SaveResult(ctx context.Context, res Result) error {
    if r == nil || r.db == nil { return nil }
    if res.RaceKey == "" { res.RaceKey = domain.RaceKey(res.RoomID, startMillis(res.StartedAt)) }
    placements, err := json.Marshal(res.Placements)
    if err != nil { return fmt.Errorf("marshal placements: %w", err) }
    var started sql.NullTime
    if !res.StartedAt.IsZero() { started = sql.NullTime{Time: res.StartedAt, Valid: true} }

    q := `INSERT INTO race_results (
        id, race_key, room_id, winner_uid, winner_name, player_count,
        placements, started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
      ) ON CONFLICT (race_key) DO UPDATE SET
        winner_uid=EXCLUDED.winner_uid,
        winner_name=EXCLUDED.winner_name,
        player_count=EXCLUDED.player_count,
        placements=EXCLUDED.placements,
        started_at=EXCLUDED.started_at,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

    _, err = r.db.ExecContext(ctx, q,
        res.ID.String(), res.RaceKey, res.RoomID, res.WinnerUID, res.WinnerName, len(res.Placements),
        string(placements), started, res.EndedAt, res.DurationMS,
    )
    return err
}

// Recent lists the latest finished races, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Result, error) {
    if r == nil || r.db == nil { return nil, nil }
    if limit <= 0 || limit > 100 { limit = 20 }
    rows, err := r.db.QueryContext(ctx, `SELECT id, race_key, room_id, winner_uid, winner_name, placements, started_at, ended_at, duration_ms
        FROM race_results ORDER BY ended_at DESC LIMIT $1`, limit)
    if err != nil { return nil, err }
    defer rows.Close()

    var out []Result
    for rows.Next() {
        var (
            res        Result
            id         string
            placements []byte
            started    sql.NullTime
        )
        if err := rows.Scan(&id, &res.RaceKey, &res.RoomID, &res.WinnerUID, &res.WinnerName, &placements, &started, &res.EndedAt, &res.DurationMS); err != nil {
            return nil, err
        }
        if res.ID, err = uuid.Parse(id); err != nil { return nil, fmt.Errorf("parse result id: %w", err) }
        if err := json.Unmarshal(placements, &res.Placements); err != nil { return nil, fmt.Errorf("decode placements: %w", err) }
        if started.Valid { res.StartedAt = started.Time }
        out = append(out, res)
    }
    return out, rows.Err()
}
