package jobs

import (
	"fmt"
	"math"
	"time"

	"ssh-vanity/internal/domain"
)

// DefaultStatsInterval is the display sampling cadence.
const DefaultStatsInterval = 300 * time.Millisecond

// ComputeStats derives rate and ETA for a run. Zero ExpectedAttempts or ETA
// means the value is unknown.
func ComputeStats(startedAt, now time.Time, total uint64, expected float64) domain.Stats {
	elapsed := now.Sub(startedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	stats := domain.Stats{
		Elapsed:       elapsed,
		KeysGenerated: total,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		stats.KeysPerSecond = math.Round(float64(total) / secs)
	}
	if math.IsInf(expected, 0) || math.IsNaN(expected) || expected <= 0 {
		return stats
	}
	stats.ExpectedAttempts = expected
	if stats.KeysPerSecond > 0 {
		eta := expected / stats.KeysPerSecond
		if eta < float64(math.MaxInt64/int64(time.Second)) {
			stats.ETA = time.Duration(eta * float64(time.Second))
		}
	}
	return stats
}

// FormatElapsed renders d as HH:MM:SS.
func FormatElapsed(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// FormatETA renders an estimate as days, hours, minutes and seconds.
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "∞"
	}

	sec := int64(d / time.Second)
	days := sec / 86400
	sec -= days * 86400
	hours := sec / 3600
	sec -= hours * 3600
	mins := sec / 60
	sec -= mins * 60
	return fmt.Sprintf("%dd %02dh %02dm %02ds", days, hours, mins, sec)
}
