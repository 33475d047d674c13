package msgcat

import (
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestEmbeddedRejectionTexts(t *testing.T) {
    c, err := New("")
    if err != nil { t.Fatalf("New: %v", err) }
    got, err := c.Render("errors.not_enough_players", nil)
    if err != nil { t.Fatalf("Render: %v", err) }
    if got != "최소 2명이 있어야 시작할 수 있어요!" { t.Fatalf("unexpected: %q", got) }
    if !c.Has("errors.not_all_ready") { t.Fatalf("missing not_all_ready") }
}

func TestRenderTemplateData(t *testing.T) {
    c, err := New("")
    if err != nil { t.Fatalf("New: %v", err) }
    got, err := c.Render("race.winner", map[string]any{"Name": "민지"})
    if err != nil { t.Fatalf("Render: %v", err) }
    if !strings.Contains(got, "민지") { t.Fatalf("winner text missing name: %q", got) }
    // missing template field is an error, Message falls back to the key
    if _, err := c.Render("race.winner", map[string]any{}); err == nil { t.Fatalf("expected missingkey error") }
    if msg := c.Message("race.winner", map[string]any{}); msg != "race.winner" { t.Fatalf("fallback = %q", msg) }
}

func TestOverrideDir(t *testing.T) {
    dir := t.TempDir()
    if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("errors:\n  not_creator: \"override\"\n"), 0o644); err != nil {
        t.Fatalf("write: %v", err)
    }
    c, err := New(dir)
    if err != nil { t.Fatalf("New: %v", err) }
    if got := c.Message("errors.not_creator", nil); got != "override" { t.Fatalf("override not applied: %q", got) }

    if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte("errors:\n  not_creator: \"again\"\n"), 0o644); err != nil {
        t.Fatalf("write: %v", err)
    }
    if _, err := New(dir); err == nil { t.Fatalf("expected duplicate key error") }
}
