package timespec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidInterval is returned when an interval token cannot be parsed.
var ErrInvalidInterval = errors.New("invalid interval")

// unitMinutes maps a unit character to its length in minutes.
var unitMinutes = map[byte]float64{
	's': 1.0 / 60.0,
	'm': 1.0,
	'h': 60.0,
	'd': 1440.0,
}

// ParseInterval converts a token such as "30s", "1.5h" or "1d" to minutes.
// The magnitude must be a positive real number followed directly by one of
// s, m, h or d.
func ParseInterval(token string) (float64, error) {
	token = strings.TrimSpace(token)
	if len(token) < 2 {
		return 0, fmt.Errorf("%w: %q (want <positive number><s|m|h|d>)", ErrInvalidInterval, token)
	}

	scale, ok := unitMinutes[token[len(token)-1]]
	if !ok {
		return 0, fmt.Errorf("%w: %q has unknown unit %q", ErrInvalidInterval, token, token[len(token)-1])
	}

	num := token[:len(token)-1]
	if num[0] == '+' || num[0] == '-' {
		return 0, fmt.Errorf("%w: %q (magnitude must be unsigned)", ErrInvalidInterval, token)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q (bad magnitude)", ErrInvalidInterval, token)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %q (magnitude must be positive)", ErrInvalidInterval, token)
	}

	return v * scale, nil
}
