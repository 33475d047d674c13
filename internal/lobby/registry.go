package lobby

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sort"
    "strings"

    "github.com/park285/tap-racer/internal/domain"
    "github.com/park285/tap-racer/internal/obslog"
    "github.com/park285/tap-racer/internal/store"
    "go.uber.org/zap"
)

var errAnonymous = errors.New("creator identity required")

// Registry creates rooms and serves the lobby listing.
type Registry struct {
    store store.Store
    gen   CodeFunc
}

type Option func(*Registry)

// WithCodeGenerator replaces the crypto/rand code source.
func WithCodeGenerator(f CodeFunc) Option {
    return func(r *Registry) { if f != nil { r.gen = f } }
}

func NewRegistry(s store.Store, opts ...Option) *Registry {
    r := &Registry{store: s, gen: GenerateCode}
    for _, opt := range opts { opt(r) }
    return r
}

// CreateRoom writes a new waiting room with the creator as its only player.
// A code already in use is replaced once; the replacement is not re-checked.
func (r *Registry) CreateRoom(ctx context.Context, creator domain.Identity) (string, error) {
    if strings.TrimSpace(creator.UID) == "" { return "", errAnonymous }
    if !domain.ValidKey(creator.UID) { return "", fmt.Errorf("%w: uid %q", store.ErrInvalidPath, creator.UID) }
    code, err := r.gen()
    if err != nil { return "", fmt.Errorf("generate room code: %w", err) }
    _, taken, err := r.store.Read(ctx, domain.RoomPath(code))
    if err != nil { return "", fmt.Errorf("check room code: %w", err) }
    if taken {
        obslog.L().Info("room_code_collision", zap.String("room_id", code))
        if code, err = r.gen(); err != nil { return "", fmt.Errorf("generate room code: %w", err) }
    }

    room := domain.Room{
        ID:        code,
        CreatorID: creator.UID,
        Status:    domain.StatusWaiting,
        Players:   map[string]domain.Player{creator.UID: domain.NewPlayer(creator)},
    }
    if err := r.store.Write(ctx, domain.RoomPath(code), room); err != nil {
        return "", fmt.Errorf("write room: %w", err)
    }
    obslog.L().Info("room_create", zap.String("room_id", code), zap.String("creator_id", creator.UID))
    return code, nil
}

// ListOpenRooms returns every room that has not finished, ordered by id.
func (r *Registry) ListOpenRooms(ctx context.Context) ([]domain.Room, error) {
    raw, ok, err := r.store.Read(ctx, domain.RoomsRoot)
    if err != nil { return nil, err }
    if !ok { return []domain.Room{}, nil }
    return decodeOpenRooms(raw)
}

// WatchOpenRooms streams the open-room list, re-delivering the full list on
// every change. A slow reader only ever sees the latest list. The channel is
// closed when ctx ends.
func (r *Registry) WatchOpenRooms(ctx context.Context) (<-chan []domain.Room, error) {
    return store.Watch(ctx, r.store, domain.RoomsRoot, func(raw json.RawMessage, exists bool) ([]domain.Room, error) {
        if !exists { return []domain.Room{}, nil }
        return decodeOpenRooms(raw)
    })
}

// Join resolves an invite link or bare code to an existing room id. It does
// not touch the room; membership is established by the room session.
func (r *Registry) Join(ctx context.Context, invite string) (string, error) {
    id, err := ParseInvite(invite)
    if err != nil { return "", err }
    _, ok, err := r.store.Read(ctx, domain.RoomPath(id)+"/status")
    if err != nil { return "", err }
    if !ok { return "", domain.ErrRoomNotFound }
    return id, nil
}

func decodeOpenRooms(raw json.RawMessage) ([]domain.Room, error) {
    var all map[string]domain.Room
    if err := json.Unmarshal(raw, &all); err != nil { return nil, fmt.Errorf("decode rooms: %w", err) }
    out := make([]domain.Room, 0, len(all))
    for id, room := range all {
        room.ID = id
        if !room.Open() { continue }
        out = append(out, room)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}
