package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("yesterday", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestUnixFloat(t *testing.T) {
	got := UnixFloat(1728555010.5)
	if got.Unix() != 1728555010 || got.Nanosecond() != 500000000 {
		t.Fatalf("unexpected time %v", got)
	}
	if !UnixFloat(0).IsZero() || !UnixFloat(-3).IsZero() {
		t.Fatalf("expected zero time for non-positive input")
	}
}

func TestParseCount(t *testing.T) {
	cases := map[string]int{"1,234": 1234, " 56 ": 56, "": 0, "n/a": 0, "12.5": 0}
	for in, want := range cases {
		if got := ParseCount(in); got != want {
			t.Fatalf("ParseCount(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo", 2); got != "hé" {
		t.Fatalf("unexpected %q", got)
	}
	if got := CollapseSpace("  a \n\t b  "); got != "a b" {
		t.Fatalf("unexpected %q", got)
	}
}
