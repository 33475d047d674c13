package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/park285/tap-racer/internal/obslog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const maxTxAttempts = 16

// RedisStore maps the tree onto Redis. Each depth-2 subtree (rooms/{id},
// stats/{uid}) is one JSON document; each collection keeps an index set of
// its document ids. Committed changes are published on a single channel and
// subscribers re-read the paths they watch.
//
// Keys:
//
//	{prefix}doc:{collection}/{id}  document JSON
//	{prefix}idx:{collection}       SET of ids
//	{prefix}changes                change feed (PUBLISH payload = changed path)
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	owned  bool
	hub    *hub

	feedMu sync.Mutex
	feed   *redis.PubSub
}

func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis store")
	}
	opts, err := redisOptions(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	s := NewRedisStoreWithClient(rdb, prefix)
	s.owned = true
	return s, nil
}

// NewRedisStoreWithClient wraps an existing client. Close leaves the client open.
func NewRedisStoreWithClient(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, hub: newHub()}
}

func (s *RedisStore) docKey(coll, id string) string { return s.prefix + "doc:" + coll + "/" + id }
func (s *RedisStore) idxKey(coll string) string     { return s.prefix + "idx:" + coll }
func (s *RedisStore) changesKey() string            { return s.prefix + "changes" }

func (s *RedisStore) Write(ctx context.Context, path string, value any) error {
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
	if len(segs) == 1 {
		err = s.replaceCollection(ctx, segs[0], v)
	} else {
		inner := segs[2:]
		err = s.mutateDoc(ctx, segs[0], segs[1], func(doc any) any { return setAt(doc, inner, v) })
	}
	if err != nil {
		return err
	}
	s.publish(ctx, segs)
	return nil
}

// Merge groups fields by document and commits each document in its own
// transaction. Fields within one document land atomically; fields spanning
// documents do not.
func (s *RedisStore) Merge(ctx context.Context, path string, fields map[string]any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	writes, err := expandFields(segs, fields)
	if err != nil {
		return err
	}
	type docRef struct{ coll, id string }
	groups := make(map[docRef][]fieldWrite)
	var collections []fieldWrite
	for _, w := range writes {
		if len(w.segs) == 1 {
			collections = append(collections, w)
			continue
		}
		ref := docRef{w.segs[0], w.segs[1]}
		groups[ref] = append(groups[ref], w)
	}

	changed := false
	defer func() {
		if changed {
			s.publish(ctx, segs)
		}
	}()
	for _, w := range collections {
		if err := s.replaceCollection(ctx, w.segs[0], w.value); err != nil {
			return err
		}
		changed = true
	}
	for ref, ws := range groups {
		err := s.mutateDoc(ctx, ref.coll, ref.id, func(doc any) any {
			for _, w := range ws {
				doc = setAt(doc, w.segs[2:], w.value)
			}
			return doc
		})
		if err != nil {
			return err
		}
		changed = true
	}
	return nil
}

func (s *RedisStore) mutateDoc(ctx context.Context, coll, id string, apply func(doc any) any) error {
	key := s.docKey(coll, id)
	idx := s.idxKey(coll)
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			var cur any
			raw, err := tx.Get(ctx, key).Bytes()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if err == nil {
				if err := json.Unmarshal(raw, &cur); err != nil {
					return fmt.Errorf("decode %s: %w", key, err)
				}
			}
			next := prune(apply(cur))
			var payload []byte
			if next != nil {
				if payload, err = json.Marshal(next); err != nil {
					return err
				}
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if next == nil {
					pipe.Del(ctx, key)
					pipe.SRem(ctx, idx, id)
					return nil
				}
				pipe.Set(ctx, key, payload, 0)
				pipe.SAdd(ctx, idx, id)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	obslog.L().Warn("store_tx_conflict", zap.String("key", key), zap.Int("attempts", maxTxAttempts))
	return ErrConflict
}

func (s *RedisStore) replaceCollection(ctx context.Context, coll string, v any) error {
	children, ok := v.(map[string]any)
	if v != nil && !ok {
		return fmt.Errorf("%w: collection %q must hold an object", ErrInvalidPath, coll)
	}
	for id := range children {
		if strings.Contains(id, "/") {
			return fmt.Errorf("%w: id %q", ErrInvalidPath, id)
		}
	}
	idx := s.idxKey(coll)
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			ids, err := tx.SMembers(ctx, idx).Result()
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, id := range ids {
					if _, keep := children[id]; !keep {
						pipe.Del(ctx, s.docKey(coll, id))
					}
				}
				pipe.Del(ctx, idx)
				for id, child := range children {
					payload, err := json.Marshal(child)
					if err != nil {
						return err
					}
					pipe.Set(ctx, s.docKey(coll, id), payload, 0)
					pipe.SAdd(ctx, idx, id)
				}
				return nil
			})
			return err
		}, idx)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

func (s *RedisStore) publish(ctx context.Context, segs []string) {
	if err := s.rdb.Publish(ctx, s.changesKey(), joinSegs(segs)).Err(); err != nil {
		obslog.L().Warn("store_publish_error", zap.String("path", joinSegs(segs)), zap.Error(err))
	}
}

func (s *RedisStore) Read(ctx context.Context, path string) (json.RawMessage, bool, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, false, err
	}
	return s.readSegs(ctx, segs)
}

func (s *RedisStore) readSegs(ctx context.Context, segs []string) (json.RawMessage, bool, error) {
	switch len(segs) {
	case 0:
		return nil, false, fmt.Errorf("%w: root read", ErrInvalidPath)
	case 1:
		return s.readCollection(ctx, segs[0])
	}
	raw, err := s.rdb.Get(ctx, s.docKey(segs[0], segs[1])).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(segs) == 2 {
		return raw, true, nil
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, err
	}
	node, ok := getAt(doc, segs[2:])
	if !ok {
		return nil, false, nil
	}
	out, err := json.Marshal(node)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *RedisStore) readCollection(ctx context.Context, coll string) (json.RawMessage, bool, error) {
	ids, err := s.rdb.SMembers(ctx, s.idxKey(coll)).Result()
	if err != nil {
		return nil, false, err
	}
	if len(ids) == 0 {
		return nil, false, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(coll, id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, false, err
	}
	docs := make(map[string]json.RawMessage, len(ids))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		docs[ids[i]] = json.RawMessage(str)
	}
	if len(docs) == 0 {
		return nil, false, nil
	}
	out, err := json.Marshal(docs)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *RedisStore) Subscribe(ctx context.Context, path string, fn Listener) (func(), error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: root subscribe", ErrInvalidPath)
	}
	if err := s.ensureFeed(ctx); err != nil {
		return nil, err
	}
	return s.hub.add(ctx, segs, s.readSegs, fn)
}

// ensureFeed starts the shared change-feed consumer. It returns only after
// Redis confirmed the subscription, so no change published afterwards is missed.
func (s *RedisStore) ensureFeed(ctx context.Context) error {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	if s.feed != nil {
		return nil
	}
	ps := s.rdb.Subscribe(context.Background(), s.changesKey())
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("subscribe changes: %w", err)
	}
	s.feed = ps
	go s.consume(ps.Channel())
	return nil
}

func (s *RedisStore) consume(ch <-chan *redis.Message) {
	for msg := range ch {
		segs, err := splitPath(msg.Payload)
		if err != nil || len(segs) == 0 {
			continue
		}
		s.hub.notify(segs)
	}
}

func (s *RedisStore) Close() error {
	s.hub.close()
	s.feedMu.Lock()
	feed := s.feed
	s.feed = nil
	s.feedMu.Unlock()
	var errs []error
	if feed != nil {
		errs = append(errs, feed.Close())
	}
	if s.owned {
		errs = append(errs, s.rdb.Close())
	}
	return errors.Join(errs...)
}

// redisOptions accepts redis:// and rediss:// URLs, including ACL usernames
// and a /db path.
func redisOptions(raw string) (*redis.Options, error) {
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return opts, nil
}
