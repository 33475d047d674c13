package lobby

import (
    "context"
    "errors"
    "fmt"
    "testing"
    "time"

    miniredis "github.com/alicebob/miniredis/v2"
    "github.com/park285/tap-racer/internal/domain"
    "github.com/park285/tap-racer/internal/store"
)

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, store.Store) {
    t.Helper()
    mr, err := miniredis.Run()
    if err != nil { t.Fatalf("miniredis: %v", err) }
    t.Cleanup(mr.Close)
    s, err := store.NewRedisStore(fmt.Sprintf("redis://%s/0", mr.Addr()), "")
    if err != nil { t.Fatalf("NewRedisStore: %v", err) }
    t.Cleanup(func() { _ = s.Close() })
    return NewRegistry(s, opts...), s
}

// fixedCodes hands out the given codes in order.
func fixedCodes(codes ...string) CodeFunc {
    i := 0
    return func() (string, error) {
        if i >= len(codes) { return "", errors.New("out of codes") }
        c := codes[i]
        i++
        return c, nil
    }
}

func loadRoom(t *testing.T, s store.Store, id string) domain.Room {
    t.Helper()
    var room domain.Room
    ok, err := store.ReadInto(context.Background(), s, domain.RoomPath(id), &room)
    if err != nil || !ok { t.Fatalf("room %s: ok=%v err=%v", id, ok, err) }
    return room
}

func TestCreateRoomWritesCreator(t *testing.T) {
    reg, s := newTestRegistry(t)
    ctx := context.Background()

    id, err := reg.CreateRoom(ctx, domain.Identity{UID: "u1", Name: "민지"})
    if err != nil { t.Fatalf("CreateRoom: %v", err) }
    if !ValidCode(id) { t.Fatalf("invalid code %q", id) }

    room := loadRoom(t, s, id)
    if room.Status != domain.StatusWaiting || room.CreatorID != "u1" { t.Fatalf("unexpected room: %+v", room) }
    p, ok := room.Players["u1"]
    if !ok || len(room.Players) != 1 { t.Fatalf("creator missing: %+v", room.Players) }
    if p.Name != "민지" || p.Car != domain.DefaultCar || p.Progress != 0 || p.IsReady {
        t.Fatalf("unexpected creator record: %+v", p)
    }
}

func TestCreateRoomDefaultName(t *testing.T) {
    reg, s := newTestRegistry(t)
    id, err := reg.CreateRoom(context.Background(), domain.Identity{UID: "u1"})
    if err != nil { t.Fatalf("CreateRoom: %v", err) }
    if got := loadRoom(t, s, id).Players["u1"].Name; got != domain.DefaultPlayerName { t.Fatalf("name = %q", got) }
}

func TestCreateRoomCollisionRetriesOnce(t *testing.T) {
    reg, s := newTestRegistry(t, WithCodeGenerator(fixedCodes("AAAA", "BBBB")))
    ctx := context.Background()
    if err := s.Write(ctx, domain.RoomPath("AAAA"), domain.Room{CreatorID: "x", Status: domain.StatusRacing}); err != nil {
        t.Fatalf("seed: %v", err)
    }
    id, err := reg.CreateRoom(ctx, domain.Identity{UID: "u1"})
    if err != nil { t.Fatalf("CreateRoom: %v", err) }
    if id != "BBBB" { t.Fatalf("expected replacement code, got %q", id) }
    if loadRoom(t, s, "AAAA").CreatorID != "x" { t.Fatalf("existing room was overwritten") }
}

func TestCreateRoomReplacementNotRechecked(t *testing.T) {
    reg, s := newTestRegistry(t, WithCodeGenerator(fixedCodes("AAAA", "AAAA")))
    ctx := context.Background()
    _ = s.Write(ctx, domain.RoomPath("AAAA"), domain.Room{CreatorID: "x", Status: domain.StatusRacing})

    id, err := reg.CreateRoom(ctx, domain.Identity{UID: "u1"})
    if err != nil { t.Fatalf("CreateRoom: %v", err) }
    // a second collision overwrites the existing room
    room := loadRoom(t, s, id)
    if room.CreatorID != "u1" || room.Status != domain.StatusWaiting { t.Fatalf("expected overwrite, got %+v", room) }
}

func TestCreateRoomRequiresIdentity(t *testing.T) {
    reg, _ := newTestRegistry(t)
    if _, err := reg.CreateRoom(context.Background(), domain.Identity{}); err == nil { t.Fatalf("expected error") }
}

func TestCreateRoomRejectsNestedUID(t *testing.T) {
    reg, s := newTestRegistry(t, WithCodeGenerator(fixedCodes("ABCD")))
    for _, uid := range []string{"a/b", "a$b", ".."} {
        _, err := reg.CreateRoom(context.Background(), domain.Identity{UID: uid})
        if !errors.Is(err, store.ErrInvalidPath) { t.Fatalf("uid %q: err = %v", uid, err) }
    }
    if _, ok, err := s.Read(context.Background(), domain.RoomPath("ABCD")); err != nil || ok { t.Fatalf("no room may be written: ok=%v err=%v", ok, err) }
}

func TestListOpenRoomsExcludesFinished(t *testing.T) {
    reg, s := newTestRegistry(t)
    ctx := context.Background()
    _ = s.Write(ctx, domain.RoomPath("CCCC"), domain.Room{CreatorID: "a", Status: domain.StatusWaiting})
    _ = s.Write(ctx, domain.RoomPath("AAAA"), domain.Room{CreatorID: "b", Status: domain.StatusRacing})
    _ = s.Write(ctx, domain.RoomPath("BBBB"), domain.Room{CreatorID: "c", Status: domain.StatusFinished})

    rooms, err := reg.ListOpenRooms(ctx)
    if err != nil { t.Fatalf("ListOpenRooms: %v", err) }
    if len(rooms) != 2 || rooms[0].ID != "AAAA" || rooms[1].ID != "CCCC" { t.Fatalf("unexpected rooms: %+v", rooms) }
}

func TestListOpenRoomsEmpty(t *testing.T) {
    reg, _ := newTestRegistry(t)
    rooms, err := reg.ListOpenRooms(context.Background())
    if err != nil || len(rooms) != 0 { t.Fatalf("rooms=%v err=%v", rooms, err) }
}

func recvRooms(t *testing.T, ch <-chan []domain.Room, match func([]domain.Room) bool) []domain.Room {
    t.Helper()
    deadline := time.After(2 * time.Second)
    for {
        select {
        case rooms, ok := <-ch:
            if !ok { t.Fatalf("stream closed") }
            if match(rooms) { return rooms }
        case <-deadline:
            t.Fatalf("timed out waiting for room list")
            return nil
        }
    }
}

func TestWatchOpenRoomsRedelivers(t *testing.T) {
    reg, s := newTestRegistry(t)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    ch, err := reg.WatchOpenRooms(ctx)
    if err != nil { t.Fatalf("WatchOpenRooms: %v", err) }
    recvRooms(t, ch, func(r []domain.Room) bool { return len(r) == 0 })

    id, err := reg.CreateRoom(ctx, domain.Identity{UID: "u1"})
    if err != nil { t.Fatalf("CreateRoom: %v", err) }
    recvRooms(t, ch, func(r []domain.Room) bool { return len(r) == 1 && r[0].ID == id })

    if err := s.Merge(ctx, domain.RoomPath(id), map[string]any{"status": domain.StatusFinished}); err != nil {
        t.Fatalf("Merge: %v", err)
    }
    recvRooms(t, ch, func(r []domain.Room) bool { return len(r) == 0 })

    cancel()
    deadline := time.After(2 * time.Second)
    for {
        select {
        case _, ok := <-ch:
            if !ok { return }
        case <-deadline:
            t.Fatalf("stream not closed after cancel")
        }
    }
}

func TestJoinResolvesInviteForms(t *testing.T) {
    reg, _ := newTestRegistry(t, WithCodeGenerator(fixedCodes("AB3X")))
    ctx := context.Background()
    id, err := reg.CreateRoom(ctx, domain.Identity{UID: "u1"})
    if err != nil { t.Fatalf("CreateRoom: %v", err) }

    for _, in := range []string{
        InviteLink("https://race.example/", id),
        "#/room/" + id,
        "ab3x",
        " AB3X ",
    } {
        got, err := reg.Join(ctx, in)
        if err != nil || got != id { t.Fatalf("Join(%q) = %q, %v", in, got, err) }
    }
    if _, err := reg.Join(ctx, "ZZZZ"); !errors.Is(err, domain.ErrRoomNotFound) { t.Fatalf("expected not found, got %v", err) }
    if _, err := reg.Join(ctx, "https://race.example/#/room/"); !errors.Is(err, domain.ErrInvalidInvite) { t.Fatalf("expected invalid invite, got %v", err) }
}
