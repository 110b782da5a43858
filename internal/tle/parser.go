package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// LineLength is the fixed width of a TLE data line.
const LineLength = 69

// Parse reads element sets from r. Each set is two data lines, optionally
// preceded by a title line (a leading "0 " is stripped, as in 3LE files).
// Blank lines and lines starting with '#' are ignored and forget any pending
// title. Malformed sets are skipped with a warning.
func Parse(r io.Reader, logger *slog.Logger) ([]Element, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n\t ")
		switch {
		case strings.TrimSpace(line) == "":
			lines = append(lines, "")
		case strings.HasPrefix(strings.TrimSpace(line), "#"):
			lines = append(lines, "")
		default:
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var (
		entries []Element
		name    string
	)
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			name = ""
			continue
		}
		if !strings.HasPrefix(line, "1 ") {
			name = strings.TrimSpace(strings.TrimPrefix(line, "0 "))
			continue
		}

		if i+1 >= len(lines) || !strings.HasPrefix(lines[i+1], "2 ") {
			logger.Warn("skipping element set without line 2", "line_index", i, "name", name)
			name = ""
			continue
		}

		e, err := newElement(name, line, lines[i+1])
		if err != nil {
			logger.Warn("skipping malformed element set", "line_index", i, "name", name, "error", err)
		} else {
			entries = append(entries, e)
		}
		name = ""
		i++
	}

	return entries, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(s string, logger *slog.Logger) ([]Element, error) {
	return Parse(strings.NewReader(s), logger)
}

func newElement(name, line1, line2 string) (Element, error) {
	// Anything past column 69 is free-form trailing text.
	if len(line1) < LineLength || len(line2) < LineLength {
		return Element{}, fmt.Errorf("data lines must be %d columns (got %d and %d)", LineLength, len(line1), len(line2))
	}
	line1, line2 = line1[:LineLength], line2[:LineLength]

	id1, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return Element{}, fmt.Errorf("invalid catalog number %q: %w", line1[2:7], err)
	}
	id2, err := strconv.Atoi(strings.TrimSpace(line2[2:7]))
	if err != nil {
		return Element{}, fmt.Errorf("invalid catalog number %q: %w", line2[2:7], err)
	}
	if id1 != id2 {
		return Element{}, fmt.Errorf("catalog numbers differ between lines (%d, %d)", id1, id2)
	}

	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Element{}, err
	}

	return Element{
		NORADID: id1,
		Name:    name,
		Epoch:   epoch,
		Line1:   line1,
		Line2:   line2,
	}, nil
}

// parseEpoch converts a TLE epoch in YYDDD.DDDDDDDD form to UTC.
// Years 57-99 are 1900s, 00-56 are 2000s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	day, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}
	if day < 1 || day >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %v out of range", day)
	}

	// Day 1.0 is midnight starting January 1.
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((day - 1) * float64(24*time.Hour))), nil
}
