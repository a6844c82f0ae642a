package monitor

import (
	"time"

	"streamwatch/internal/domain"
)

// checkInterval returns how long to wait before the next probe. Night
// mode, when enabled and the hour falls inside its window, overrides the
// live/offline cadence.
func checkInterval(isLive bool, hour int, night domain.NightMode, intervals domain.CheckIntervals) time.Duration {
	if night.Enabled && isNightHour(hour, night) {
		return intervals.Night
	}
	if isLive {
		return intervals.Live
	}
	return intervals.Offline
}

// isNightHour reports whether the hour falls inside the night window.
// Windows that cross midnight (e.g. 20..8) wrap around.
func isNightHour(hour int, night domain.NightMode) bool {
	if night.StartHour <= night.EndHour {
		return hour >= night.StartHour && hour < night.EndHour
	}
	return hour >= night.StartHour || hour < night.EndHour
}
