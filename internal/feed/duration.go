package feed

import (
	"strconv"
	"strings"
)

// ParseDuration converts an iTunes duration string into seconds. The
// accepted shapes are H:MM:SS, MM:SS, and a raw seconds count. Any
// malformed part short-circuits to 0 rather than a partial sum.
func ParseDuration(raw string) int64 {
	if raw == "" {
		return 0
	}

	parts := strings.Split(raw, ":")
	switch len(parts) {
	case 1:
		seconds, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return 0
		}
		return seconds
	case 2:
		minutes, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return 0
		}
		seconds, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0
		}
		return minutes*60 + seconds
	case 3:
		hours, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return 0
		}
		minutes, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0
		}
		seconds, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return 0
		}
		return hours*3600 + minutes*60 + seconds
	default:
		return 0
	}
}
