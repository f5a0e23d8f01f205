// Package timefmt parses and formats time-typed scores.
//
// Time scores are stored as raw milliseconds; display strings follow one
// of six fixed patterns. Parsing is strict: malformed or out-of-range
// input is rejected rather than coerced.
package timefmt

import (
	"fmt"
	"regexp"
	"strconv"
)

// Supported format patterns.
const (
	HoursMinutes        = "hh:mm"
	HoursMinutesSeconds = "hh:mm:ss"
	MinutesSeconds      = "mm:ss"
	MinutesSecondsDs    = "mm:ss.s"
	MinutesSecondsCs    = "mm:ss.ss"
	MinutesSecondsMs    = "mm:ss.sss"
)

// Formats lists every supported pattern.
var Formats = []string{
	HoursMinutes,
	HoursMinutesSeconds,
	MinutesSeconds,
	MinutesSecondsDs,
	MinutesSecondsCs,
	MinutesSecondsMs,
}

const (
	msPerSecond = int64(1000)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
)

// Strict patterns: the leading component is unpadded, every following
// component is fixed-width, and minute/second components must be < 60.
var patterns = map[string]*regexp.Regexp{
	HoursMinutes:        regexp.MustCompile(`^(\d+):([0-5]\d)$`),
	HoursMinutesSeconds: regexp.MustCompile(`^(\d+):([0-5]\d):([0-5]\d)$`),
	MinutesSeconds:      regexp.MustCompile(`^(\d+):([0-5]\d)$`),
	MinutesSecondsDs:    regexp.MustCompile(`^(\d+):([0-5]\d)\.(\d)$`),
	MinutesSecondsCs:    regexp.MustCompile(`^(\d+):([0-5]\d)\.(\d{2})$`),
	MinutesSecondsMs:    regexp.MustCompile(`^(\d+):([0-5]\d)\.(\d{3})$`),
}

// Valid reports whether format is one of the supported patterns.
func Valid(format string) bool {
	_, ok := patterns[format]
	return ok
}

// Format renders ms according to format, truncating below the format's
// precision. The leading component is unpadded.
func Format(format string, ms int64) (string, error) {
	if !Valid(format) {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if ms < 0 {
		return "", fmt.Errorf("%w: negative milliseconds", ErrRange)
	}

	switch format {
	case HoursMinutes:
		return fmt.Sprintf("%d:%02d", ms/msPerHour, (ms%msPerHour)/msPerMinute), nil
	case HoursMinutesSeconds:
		return fmt.Sprintf("%d:%02d:%02d",
			ms/msPerHour, (ms%msPerHour)/msPerMinute, (ms%msPerMinute)/msPerSecond), nil
	case MinutesSeconds:
		return fmt.Sprintf("%d:%02d", ms/msPerMinute, (ms%msPerMinute)/msPerSecond), nil
	case MinutesSecondsDs:
		return fmt.Sprintf("%d:%02d.%d",
			ms/msPerMinute, (ms%msPerMinute)/msPerSecond, (ms%msPerSecond)/100), nil
	case MinutesSecondsCs:
		return fmt.Sprintf("%d:%02d.%02d",
			ms/msPerMinute, (ms%msPerMinute)/msPerSecond, (ms%msPerSecond)/10), nil
	default: // MinutesSecondsMs
		return fmt.Sprintf("%d:%02d.%03d",
			ms/msPerMinute, (ms%msPerMinute)/msPerSecond, ms%msPerSecond), nil
	}
}

// Parse converts a display string back to milliseconds. Input that does
// not match the format exactly returns ErrMalformed, never a guess.
func Parse(format, s string) (int64, error) {
	re, ok := patterns[format]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q does not match %s", ErrMalformed, s, format)
	}

	// Components are digit-only by construction; Atoi cannot fail here.
	lead, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])

	switch format {
	case HoursMinutes:
		return int64(lead)*msPerHour + int64(second)*msPerMinute, nil
	case HoursMinutesSeconds:
		third, _ := strconv.Atoi(m[3])
		return int64(lead)*msPerHour + int64(second)*msPerMinute + int64(third)*msPerSecond, nil
	case MinutesSeconds:
		return int64(lead)*msPerMinute + int64(second)*msPerSecond, nil
	case MinutesSecondsDs:
		frac, _ := strconv.Atoi(m[3])
		return int64(lead)*msPerMinute + int64(second)*msPerSecond + int64(frac)*100, nil
	case MinutesSecondsCs:
		frac, _ := strconv.Atoi(m[3])
		return int64(lead)*msPerMinute + int64(second)*msPerSecond + int64(frac)*10, nil
	default: // MinutesSecondsMs
		frac, _ := strconv.Atoi(m[3])
		return int64(lead)*msPerMinute + int64(second)*msPerSecond + int64(frac), nil
	}
}
