package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/park285/tap-racer/internal/obslog"
	"go.uber.org/zap"
)

type readFunc func(ctx context.Context, segs []string) (json.RawMessage, bool, error)

// hub fans change notifications out to subscriptions. Each subscription has
// a one-slot signal channel, so a burst of changes collapses into a single
// re-read of the latest value.
type hub struct {
	mu       sync.Mutex
	nextID   uint64
	watchers map[uint64]*watcher
	closed   bool
}

type watcher struct {
	id     uint64
	segs   []string
	read   readFunc
	fn     Listener
	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newHub() *hub { return &hub{watchers: make(map[uint64]*watcher)} }

func (h *hub) add(ctx context.Context, segs []string, read readFunc, fn Listener) (func(), error) {
	w := &watcher{
		segs:   segs,
		read:   read,
		fn:     fn,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	w.id = h.nextID
	h.nextID++
	h.watchers[w.id] = w
	h.mu.Unlock()

	w.signal <- struct{}{}
	go h.run(ctx, w)
	return func() { h.remove(w.id) }, nil
}

func (h *hub) run(ctx context.Context, w *watcher) {
	defer h.remove(w.id)
	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		case <-w.signal:
		}
		raw, ok, err := w.read(ctx, w.segs)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			obslog.L().Warn("store_subscribe_read_error", zap.String("path", joinSegs(w.segs)), zap.Error(err))
			continue
		}
		select {
		case <-w.done:
			return
		default:
		}
		w.fn(raw, ok)
	}
}

func (h *hub) notify(changed []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, w := range h.watchers {
		if !overlaps(w.segs, changed) {
			continue
		}
		select {
		case w.signal <- struct{}{}:
		default:
		}
	}
}

func (h *hub) remove(id uint64) {
	h.mu.Lock()
	w, ok := h.watchers[id]
	delete(h.watchers, id)
	h.mu.Unlock()
	if ok {
		w.once.Do(func() { close(w.done) })
	}
}

func (h *hub) close() {
	h.mu.Lock()
	h.closed = true
	ws := h.watchers
	h.watchers = make(map[uint64]*watcher)
	h.mu.Unlock()
	for _, w := range ws {
		w.once.Do(func() { close(w.done) })
	}
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers)
}
