package store

import "testing"

func TestSetAtPrunesEmptyParents(t *testing.T) {
	var root any
	root = setAt(root, []string{"rooms", "R1", "players", "u1"}, map[string]any{"uid": "u1"})
	if _, ok := getAt(root, []string{"rooms", "R1", "players", "u1", "uid"}); !ok {
		t.Fatalf("expected nested value")
	}
	root = setAt(root, []string{"rooms", "R1", "players", "u1"}, nil)
	if root != nil {
		t.Fatalf("expected fully pruned tree, got %v", root)
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		a, b []string
		want bool
	}{
		{[]string{"rooms"}, []string{"rooms", "R1"}, true},
		{[]string{"rooms", "R1", "players"}, []string{"rooms", "R1"}, true},
		{[]string{"rooms", "R1"}, []string{"rooms", "R2"}, false},
		{[]string{"stats"}, []string{"rooms", "R1"}, false},
	}
	for _, c := range cases {
		if got := overlaps(c.a, c.b); got != c.want {
			t.Fatalf("overlaps(%v, %v) = %v", c.a, c.b, got)
		}
	}
}

func TestNormalizeDropsNulls(t *testing.T) {
	v, err := normalize(map[string]any{"a": nil, "b": map[string]any{}, "c": 1})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	m := v.(map[string]any)
	if len(m) != 1 || m["c"] != float64(1) {
		t.Fatalf("unexpected: %v", m)
	}
}
