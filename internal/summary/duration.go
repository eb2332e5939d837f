package summary

import (
	"log/slog"
	"math"
	"strings"
	"time"
)

var (
	zonedLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999Z07:00"}
	naiveLayouts = []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999", "2006-01-02T15:04", "2006-01-02"}
)

// DurationMinutes returns the minutes between two ISO-8601 timestamps,
// rounded to two decimals. A trailing "Z" is read as UTC. Unparsable input,
// or mixing zoned and zone-less timestamps, yields zero.
func DurationMinutes(start, end string) float64 {
	s, sZoned, err := parseISO(start)
	if err != nil {
		return zeroDuration(start, end, err)
	}
	e, eZoned, err := parseISO(end)
	if err != nil {
		return zeroDuration(start, end, err)
	}
	if sZoned != eZoned {
		return zeroDuration(start, end, errMixedZones)
	}
	minutes := e.Sub(s).Minutes()
	return math.Round(minutes*100) / 100
}

type durationError string

func (e durationError) Error() string { return string(e) }

const errMixedZones = durationError("cannot compare timestamps with and without a UTC offset")

// zeroDuration is the fallback when the call length cannot be computed.
func zeroDuration(start, end string, err error) float64 {
	slog.Warn("Call duration unavailable", "start_time", start, "current_time", end, "error", err)
	return 0
}

func parseISO(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range zonedLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, true, nil
		}
		lastErr = err
	}
	for _, layout := range naiveLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, false, nil
		}
		lastErr = err
	}
	return time.Time{}, false, lastErr
}
