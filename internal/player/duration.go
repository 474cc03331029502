package player

import (
	"fmt"
	"strconv"
	"strings"
)

// Speakers report track positions and durations as "HH:MM:SS" strings.
// Durations the speaker cannot determine come through as a sentinel.

const (
	notImplemented = "NOT_IMPLEMENTED"
	secondsPerDay  = 86400
)

// ParseTimeString converts a time string like "1:02:01" to 3721 seconds.
// "MM:SS" and bare "SS" forms are accepted. Returns nil for the
// NOT_IMPLEMENTED sentinel. Non-numeric segments are a hard error; callers
// must not feed malformed strings.
func ParseTimeString(s string) (*int, error) {
	if s == notImplemented {
		return nil, nil
	}
	parts := strings.Split(s, ":")
	multipliers := [3]int{1, 60, 3600}
	total := 0
	for i := 0; i < len(parts) && i < len(multipliers); i++ {
		segment := parts[len(parts)-1-i]
		value, err := strconv.Atoi(segment)
		if err != nil {
			return nil, fmt.Errorf("malformed time string %q: %w", s, err)
		}
		total += value * multipliers[i]
	}
	return &total, nil
}

// FormatTimeString converts seconds to a zero-padded "HH:MM:SS" string,
// flooring to whole seconds. Values of one day or more are not
// representable and yield nil; they must not be sent to the speaker.
func FormatTimeString(seconds float64) *string {
	if seconds >= secondsPerDay {
		return nil
	}
	total := int(seconds)
	formatted := fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
	return &formatted
}
