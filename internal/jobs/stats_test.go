package jobs

import (
	"math"
	"testing"
	"time"
)

func TestComputeStats(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := ComputeStats(start, start.Add(2*time.Second), 1000, 5000)

	if stats.KeysPerSecond != 500 {
		t.Fatalf("keys/s = %v, want 500", stats.KeysPerSecond)
	}
	if stats.ETA != 10*time.Second {
		t.Fatalf("eta = %v, want 10s", stats.ETA)
	}
	if stats.Elapsed != 2*time.Second {
		t.Fatalf("elapsed = %v, want 2s", stats.Elapsed)
	}
}

func TestComputeStatsUnknownEstimate(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	stats := ComputeStats(start, start.Add(time.Second), 100, math.Inf(1))
	if stats.ExpectedAttempts != 0 || stats.ETA != 0 {
		t.Fatalf("unreachable target should report unknown estimate: %+v", stats)
	}

	stats = ComputeStats(start, start, 0, 100)
	if stats.KeysPerSecond != 0 || stats.ETA != 0 {
		t.Fatalf("zero elapsed should report no rate: %+v", stats)
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{26 * time.Hour, "26:00:00"},
	}
	for _, tc := range cases {
		if got := FormatElapsed(tc.in); got != tc.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatETA(t *testing.T) {
	if got := FormatETA(0); got != "∞" {
		t.Fatalf("FormatETA(0) = %q", got)
	}
	d := 49*time.Hour + 5*time.Minute + 7*time.Second
	if got := FormatETA(d); got != "2d 01h 05m 07s" {
		t.Fatalf("FormatETA(%v) = %q", d, got)
	}
}
