package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/park285/tap-racer/internal/obslog"
	"go.uber.org/zap"
)

// Watch subscribes to path and streams decoded values on a channel that holds
// only the latest value, so a slow reader skips stale ones. The channel is
// closed once ctx ends. Values that fail to decode are logged and dropped.
func Watch[T any](ctx context.Context, s Store, path string, decode func(raw json.RawMessage, exists bool) (T, error)) (<-chan T, error) {
	ch := make(chan T, 1)
	var (
		mu     sync.Mutex
		closed bool
	)
	unsub, err := s.Subscribe(ctx, path, func(raw json.RawMessage, exists bool) {
		v, err := decode(raw, exists)
		if err != nil {
			obslog.L().Warn("store_watch_decode_error", zap.String("path", path), zap.Error(err))
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case <-ch:
		default:
		}
		ch <- v
	})
	if err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		unsub()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch, nil
}
