package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

func splitPath(p string) ([]string, error) {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return nil, nil
	}
	segs := strings.Split(p, "/")
	for _, s := range segs {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, "#$[]") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	return segs, nil
}

func joinSegs(segs []string) string { return strings.Join(segs, "/") }

// normalize turns any JSON-encodable value into the generic tree form
// (maps, slices, float64, string, bool) with empty branches removed.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return prune(out), nil
}

func prune(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, child := range m {
		if c := prune(child); c == nil {
			delete(m, k)
		} else {
			m[k] = c
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func getAt(node any, segs []string) (any, bool) {
	for _, s := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[s]
		if !ok {
			return nil, false
		}
	}
	return node, node != nil
}

// setAt stores v under segs and returns the new node. Maps left empty
// collapse to nil.
func setAt(node any, segs []string, v any) any {
	if len(segs) == 0 {
		return v
	}
	m, ok := node.(map[string]any)
	if !ok {
		if v == nil {
			return node
		}
		m = make(map[string]any)
	}
	child := setAt(m[segs[0]], segs[1:], v)
	if child == nil {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// overlaps reports whether a change at one path is visible from the other.
func overlaps(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type fieldWrite struct {
	segs  []string
	value any
}

// expandFields resolves a Merge call into absolute writes.
func expandFields(base []string, fields map[string]any) ([]fieldWrite, error) {
	out := make([]fieldWrite, 0, len(fields))
	for k, v := range fields {
		rel, err := splitPath(k)
		if err != nil {
			return nil, err
		}
		if len(rel) == 0 {
			return nil, fmt.Errorf("%w: empty merge key", ErrInvalidPath)
		}
		full := make([]string, 0, len(base)+len(rel))
		full = append(append(full, base...), rel...)
		nv, err := normalize(v)
		if err != nil {
			return nil, err
		}
		out = append(out, fieldWrite{segs: full, value: nv})
	}
	return out, nil
}
