package export

import "strings"

const (
	maxFilenameLen   = 80
	fallbackFilename = "scoreboard"
)

// SanitizeFilename converts a title to a lowercase kebab-case filename
// stem: runs of non-alphanumeric characters collapse to single hyphens,
// the result is truncated to 80 characters and stripped of leading and
// trailing hyphens. Input with no usable characters degrades to the
// fixed fallback token.
func SanitizeFilename(title string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	name := b.String()
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	name = strings.Trim(name, "-")
	if name == "" {
		return fallbackFilename
	}
	return name
}
