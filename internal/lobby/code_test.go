package lobby

import (
    "errors"
    "strings"
    "testing"

    "github.com/park285/tap-racer/internal/domain"
)

func TestGenerateCodeAlphabet(t *testing.T) {
    seen := make(map[string]bool)
    for i := 0; i < 500; i++ {
        c, err := GenerateCode()
        if err != nil { t.Fatalf("GenerateCode: %v", err) }
        if !ValidCode(c) { t.Fatalf("invalid code %q", c) }
        if strings.ContainsAny(c, "IO01") { t.Fatalf("ambiguous character in %q", c) }
        seen[c] = true
    }
    if len(seen) < 450 { t.Fatalf("suspiciously few distinct codes: %d", len(seen)) }
}

func TestParseInvite(t *testing.T) {
    cases := map[string]string{
        "https://race.example/#/room/AB3X":       "AB3X",
        "https://race.example/app/#/room/ab3x/":  "AB3X",
        "#/room/AB3X":                            "AB3X",
        "/room/AB3X?ref=share":                   "AB3X",
        "AB3X":                                   "AB3X",
    }
    for in, want := range cases {
        got, err := ParseInvite(in)
        if err != nil || got != want { t.Fatalf("ParseInvite(%q) = %q, %v", in, got, err) }
    }
    for _, bad := range []string{"", "AB3", "AB3XY", "AB1X", "https://race.example/"} {
        if _, err := ParseInvite(bad); !errors.Is(err, domain.ErrInvalidInvite) { t.Fatalf("ParseInvite(%q) err = %v", bad, err) }
    }
}

func TestInviteLink(t *testing.T) {
    if got := InviteLink("https://race.example/", "AB3X"); got != "https://race.example/#/room/AB3X" { t.Fatalf("got %q", got) }
}
