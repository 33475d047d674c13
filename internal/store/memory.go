package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps the whole tree in process. It backs tests and the
// single-node "memory" backend.
type MemoryStore struct {
	mu   sync.RWMutex
	root any
	hub  *hub
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{hub: newHub()} }

func (s *MemoryStore) Write(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segs) == 0 {
		return fmt.Errorf("%w: root write", ErrInvalidPath)
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.root = setAt(s.root, segs, v)
	s.mu.Unlock()
	s.hub.notify(segs)
	return nil
}

// Merge applies every field under one lock, so a multi-field merge is atomic
// with respect to readers.
func (s *MemoryStore) Merge(ctx context.Context, path string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	writes, err := expandFields(segs, fields)
	if err != nil {
		return err
	}
	if len(writes) == 0 {
		return nil
	}
	s.mu.Lock()
	for _, w := range writes {
		s.root = setAt(s.root, w.segs, w.value)
	}
	s.mu.Unlock()
	s.hub.notify(segs)
	return nil
}

func (s *MemoryStore) Read(ctx context.Context, path string) (json.RawMessage, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	segs, err := splitPath(path)
	if err != nil {
		return nil, false, err
	}
	return s.readSegs(ctx, segs)
}

func (s *MemoryStore) readSegs(_ context.Context, segs []string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := getAt(s.root, segs)
	if !ok {
		return nil, false, nil
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, path string, fn Listener) (func(), error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	return s.hub.add(ctx, segs, s.readSegs, fn)
}

func (s *MemoryStore) Close() error {
	s.hub.close()
	return nil
}
