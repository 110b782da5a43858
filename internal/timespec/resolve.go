// Package timespec resolves trace time descriptions into minutes from the
// element set epoch (MFE), the single time representation used by the trace
// engine.
//
// Recognised descriptions, tried in order:
//
//	now[OFFSET]                          relative to the captured wall clock
//	epoch[OFFSET]                        relative to the element set epoch
//	YYYY-MM-DD HH:MM:SS[.ffffff] UTC     absolute UTC timestamp
//	SECONDS[OFFSET]                      Unix time
//
// OFFSET is an explicitly signed real number immediately followed by one of
// the unit characters s, m, h or d, for example "+90m" or "-1.5d".
package timespec

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeSpec is returned when a description matches none of the
// recognised forms.
var ErrInvalidTimeSpec = errors.New("invalid time specification")

// Layout is the textual layout of absolute timestamps, accepted by Resolve
// and produced by Format.
const Layout = "2006-01-02 15:04:05.000000 UTC"

const (
	number = `(?:\d+(?:\.\d*)?|\.\d+)`
	offset = `[+-]` + number + `[smhd]`
)

var (
	offsetRE   = regexp.MustCompile(`^` + offset + `$`)
	absoluteRE = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})\s+(\d{1,2}):(\d{1,2}):(\d{1,2}(?:\.\d*)?)\s+UTC$`)
	unixRE     = regexp.MustCompile(`^([+-]?` + number + `)\s*(` + offset + `)?$`)
)

// Resolve converts desc to minutes elapsed since epoch. now is the wall clock
// time captured once per invocation.
func Resolve(desc string, now, epoch time.Time) (float64, error) {
	desc = strings.TrimSpace(desc)

	switch {
	case strings.HasPrefix(desc, "now"):
		off, err := parseOffset(desc[len("now"):])
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeSpec, desc, err)
		}
		return Minutes(now, epoch) + off, nil

	case strings.HasPrefix(desc, "epoch"):
		off, err := parseOffset(desc[len("epoch"):])
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeSpec, desc, err)
		}
		return off, nil
	}

	if m := absoluteRE.FindStringSubmatch(desc); m != nil {
		t, err := parseAbsolute(m[1:])
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeSpec, desc, err)
		}
		return Minutes(t, epoch), nil
	}

	if m := unixRE.FindStringSubmatch(desc); m != nil {
		secs, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeSpec, desc, err)
		}
		off, err := parseOffset(m[2])
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeSpec, desc, err)
		}
		return Minutes(unixTime(secs), epoch) + off, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidTimeSpec, desc)
}

// Minutes returns the signed number of minutes from epoch to t. Unlike
// time.Time.Sub it does not saturate for spans beyond about 292 years.
func Minutes(t, epoch time.Time) float64 {
	secs := float64(t.Unix() - epoch.Unix())
	nanos := float64(t.Nanosecond() - epoch.Nanosecond())
	return secs/60 + nanos/6e10
}

// Time returns the instant mfe minutes after epoch, rounded to the nearest
// nanosecond.
func Time(mfe float64, epoch time.Time) time.Time {
	secs := mfe * 60
	whole := math.Floor(secs)
	nsec := int64(math.Round((secs - whole) * 1e9))
	return time.Unix(epoch.Unix()+int64(whole), int64(epoch.Nanosecond())+nsec).UTC()
}

// Format renders t in Layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// parseOffset returns the offset in minutes. An empty string is a zero offset.
func parseOffset(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if !offsetRE.MatchString(s) {
		return 0, fmt.Errorf("bad offset %q (want [+-]<number><s|m|h|d>)", s)
	}
	v, err := strconv.ParseFloat(s[:len(s)-1], 64)
	if err != nil {
		return 0, fmt.Errorf("bad offset %q: %w", s, err)
	}
	return v * unitMinutes[s[len(s)-1]], nil
}

func parseAbsolute(fields []string) (time.Time, error) {
	var n [5]int
	for i := range n {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return time.Time{}, err
		}
		n[i] = v
	}
	sec, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return time.Time{}, err
	}

	year, month, day, hour, minute := n[0], n[1], n[2], n[3], n[4]
	switch {
	case month < 1 || month > 12:
		return time.Time{}, fmt.Errorf("month %d out of range", month)
	case day < 1 || day > 31:
		return time.Time{}, fmt.Errorf("day %d out of range", day)
	case hour > 23:
		return time.Time{}, fmt.Errorf("hour %d out of range", hour)
	case minute > 59:
		return time.Time{}, fmt.Errorf("minute %d out of range", minute)
	case sec >= 61:
		return time.Time{}, fmt.Errorf("second %g out of range", sec)
	}

	if d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC); d.Day() != day {
		return time.Time{}, fmt.Errorf("day %d out of range for %s %d", day, time.Month(month), year)
	}

	whole := math.Floor(sec)
	nsec := int(math.Round((sec - whole) * 1e9))
	return time.Date(year, time.Month(month), day, hour, minute, int(whole), nsec, time.UTC), nil
}

func unixTime(secs float64) time.Time {
	whole := math.Floor(secs)
	return time.Unix(int64(whole), int64(math.Round((secs-whole)*1e9))).UTC()
}
