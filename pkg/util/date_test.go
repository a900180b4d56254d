package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTime(t *testing.T) {
    want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

    cases := map[string]string{
        "rfc3339": "2024-03-01T12:30:00Z",
        "unix":    strconv.FormatInt(want.Unix(), 10),
    }
    for name, in := range cases {
        got, ok := ParseTime(in)
        if !ok {
            t.Fatalf("%s: expected ok for %q", name, in)
        }
        if got.Unix() != want.Unix() {
            t.Fatalf("%s: got %v, want %v", name, got, want)
        }
    }

    for _, in := range []string{"", "not-a-time", "-5"} {
        if _, ok := ParseTime(in); ok {
            t.Fatalf("expected failure for %q", in)
        }
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
    if got := ParseTimeDefault("garbage", def); !got.Equal(def) {
        t.Fatalf("expected default, got %v", got)
    }
    if got := ParseTimeDefault("2025-01-01T00:00:00Z", def); got.Equal(def) {
        t.Fatalf("expected parsed value, got default")
    }
}
