package tracker

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// durationPattern accepts HH:MM:SS with at least two hour digits and
// minutes/seconds in 00-59.
var durationPattern = regexp.MustCompile(`^\d{2,}:[0-5]\d:[0-5]\d$`)

// ParseDuration converts an HH:MM:SS string to decimal hours.
// It returns a *ValidationError when the string is malformed.
func ParseDuration(s string) (float64, error) {
	if !durationPattern.MatchString(s) {
		return 0, &ValidationError{Field: "duration", Message: fmt.Sprintf("%q must match HH:MM:SS", s)}
	}

	parts := strings.SplitN(s, ":", 3)
	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	seconds, _ := strconv.Atoi(parts[2])

	return float64(hours) + float64(minutes)/60 + float64(seconds)/3600, nil
}

// FormatHours renders decimal hours as a zero-padded HH:MM:SS string.
// For any valid input s, FormatHours(ParseDuration(s)) == s.
func FormatHours(hours float64) string {
	total := int(math.Round(hours * 3600))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// round2 rounds to two decimal places, the precision entries store hours at.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
