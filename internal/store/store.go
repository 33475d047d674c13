// Package store is the shared, push-based key-value tree every client reads
// and writes. Paths are slash separated ("rooms/AB3X/players/u1").
package store

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrInvalidPath = errors.New("invalid store path")
	ErrConflict    = errors.New("store write conflict")
	ErrClosed      = errors.New("store closed")
)

// Listener receives the full value at a subscribed path. exists is false when
// nothing is stored there.
type Listener func(raw json.RawMessage, exists bool)

// Store is the contract shared by the in-memory and Redis backends.
type Store interface {
	// Write replaces the node at path. A nil value deletes it.
	Write(ctx context.Context, path string, value any) error
	// Merge replaces each path/key node in fields and leaves siblings untouched.
	// Keys may themselves be relative slash paths.
	Merge(ctx context.Context, path string, fields map[string]any) error
	Read(ctx context.Context, path string) (json.RawMessage, bool, error)
	// Subscribe delivers the value at path once, then again after every change
	// touching path or anything below it. Deliveries for one subscription run
	// on a single goroutine and may coalesce. The subscription ends when the
	// returned func is called or ctx is cancelled.
	Subscribe(ctx context.Context, path string, fn Listener) (func(), error)
	Close() error
}

// ReadInto decodes the value at path into out.
func ReadInto(ctx context.Context, s Store, path string, out any) (bool, error) {
	raw, ok, err := s.Read(ctx, path)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}
