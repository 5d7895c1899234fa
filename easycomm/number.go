package easycomm

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/w1xm/azel_rotator/rotator"
)

// maxNumberLen is the longest number string accepted or produced,
// e.g. "-9999.9" or "99999.9".
const maxNumberLen = 7

var (
	ErrNumberTooLong  = errors.New("number string too long")
	ErrNoDecimalPoint = errors.New("no decimal point before the last digit")
	ErrNotANumber     = errors.New("not a number")
)

// ParseNumber parses a fixed-point number with exactly one fractional
// digit, such as "-238.0", into tenths of a degree.
func ParseNumber(b []byte) (rotator.Tenths, error) {
	if len(b) > maxNumberLen {
		return 0, ErrNumberTooLong
	}
	if len(b) < 2 || b[len(b)-2] != '.' {
		return 0, ErrNoDecimalPoint
	}
	// Drop the decimal point; what remains is the value in tenths.
	whole, frac := b[:len(b)-2], b[len(b)-1]
	neg := false
	if len(whole) > 0 && (whole[0] == '-' || whole[0] == '+') {
		neg = whole[0] == '-'
		whole = whole[1:]
	}
	if len(whole) == 0 || !isDigit(frac) {
		return 0, ErrNotANumber
	}
	var v int32
	for _, c := range whole {
		if !isDigit(c) {
			return 0, ErrNotANumber
		}
		v = v*10 + int32(c-'0')
	}
	v = v*10 + int32(frac-'0')
	if neg {
		v = -v
	}
	return rotator.Tenths(v), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// AppendNumber appends t formatted with one fractional digit to dst.
func AppendNumber(dst []byte, t rotator.Tenths) ([]byte, error) {
	var buf [16]byte
	digits := buf[:0]
	v := int64(t)
	if v < 0 {
		v = -v
	}
	if v < 10 {
		digits = append(digits, '0')
	}
	digits = strconv.AppendInt(digits, v, 10)

	n := len(digits) + 1
	if t < 0 {
		n++
	}
	if n > maxNumberLen {
		return dst, ErrNumberTooLong
	}
	if t < 0 {
		dst = append(dst, '-')
	}
	// Insert the decimal point before the last digit.
	dst = append(dst, digits[:len(digits)-1]...)
	dst = append(dst, '.', digits[len(digits)-1])
	return dst, nil
}

// FormatNumber is AppendNumber into a new string.
func FormatNumber(t rotator.Tenths) (string, error) {
	b, err := AppendNumber(nil, t)
	return string(b), err
}
