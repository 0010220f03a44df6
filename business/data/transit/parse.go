package transit

import (
	"strconv"
	"time"
)

// Upstream payloads carry numbers and timestamps as loosely formatted strings.
// Parsing is lenient on purpose: a field that fails to parse becomes its zero
// value and the record stays usable, mirroring how the agencies' own clients
// silently degrade when the format drifts.

func lenientFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func lenientInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func lenientInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// stmTimeFormats lists the timestamp layouts the STM feed has been observed
// producing.
var stmTimeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"20060102 15:04",
}

func lenientTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range stmTimeFormats {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
