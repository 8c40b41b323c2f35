// Package duration converts decimal-minute timeout specifications into
// whole seconds. The format mirrors the sudoers timestamp_timeout value:
// an optionally signed integer with an optional decimal fraction.
package duration

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrFormat indicates the input does not match [+-]digits[.digits].
var ErrFormat = errors.New("duration: malformed decimal minutes")

// minutesPattern matches a signed decimal-minute value. Digits are required
// before the decimal point; a bare fraction like ".5" is rejected.
var minutesPattern = regexp.MustCompile(`^([+-]?)(\d+)(?:\.(\d+))?$`)

// ParseMinutes converts a decimal-minute string into whole seconds.
// The fractional component is truncated, never rounded up, at whatever
// precision the caller supplied: "2.5" is exactly 150, "0.016" is 0.
// The sign applies to the whole value.
func ParseMinutes(s string) (int64, error) {
	m := minutesPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrFormat, s)
	}

	whole, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrFormat, s, err)
	}

	seconds := whole * 60
	if m[3] != "" {
		frac, err := fracSeconds(m[3])
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrFormat, s, err)
		}
		seconds += frac
	}

	if m[1] == "-" {
		seconds = -seconds
	}
	return seconds, nil
}

// fracSeconds truncates a fractional-minute digit string to whole seconds:
// floor(0.<digits> * 60).
func fracSeconds(digits string) (int64, error) {
	// Ten digits are more than enough to resolve 1/60 of a minute.
	if len(digits) > 10 {
		digits = digits[:10]
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, err
	}
	scale := int64(1)
	for i := 0; i < len(digits); i++ {
		scale *= 10
	}
	return n * 60 / scale, nil
}
