package repository

import (
	"time"

	"MomentumPulse/internal/domain/models"
)

// StreamedTimeframes are the intervals subscribed per symbol on the
// exchange stream. Higher intervals are aggregated locally.
var StreamedTimeframes = []models.Timeframe{models.TF1m, models.TF5m, models.TF15m}

// HistoryTimeframes are the long horizons backfilled over REST. The 15m
// buffer spans about two days, far short of what 12h and 1d analysis
// needs, so these are seeded and refreshed outside the stream.
var HistoryTimeframes = []models.Timeframe{models.TF1h, models.TF4h, models.TF12h, models.TF1d}

// IsStreamedTimeframe reports whether tf arrives directly from the stream.
func IsStreamedTimeframe(tf models.Timeframe) bool {
	for _, s := range StreamedTimeframes {
		if s == tf {
			return true
		}
	}
	return false
}

// NormalizeTimeframe converts a raw string to a supported timeframe,
// falling back to 1m.
func NormalizeTimeframe(s string) models.Timeframe {
	switch models.Timeframe(s) {
	case models.TF1m, models.TF5m, models.TF15m, models.TF1h, models.TF4h,
		models.TF12h, models.TF1d:
		return models.Timeframe(s)
	default:
		return models.TF1m
	}
}

// TimeframeDuration returns the bar length of tf.
func TimeframeDuration(tf models.Timeframe) time.Duration {
	switch tf {
	case models.TF1m:
		return time.Minute
	case models.TF5m:
		return 5 * time.Minute
	case models.TF15m:
		return 15 * time.Minute
	case models.TF1h:
		return time.Hour
	case models.TF4h:
		return 4 * time.Hour
	case models.TF12h:
		return 12 * time.Hour
	case models.TF1d:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}
