package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/anoved/Ground-Track-Generator/internal/attr"
)

// CSVSink writes one row per record. Points are written as longitude and
// latitude columns, lines as a WKT geometry column.
type CSVSink struct {
	f      *os.File
	w      *csv.Writer
	kind   Kind
	fields []attr.Descriptor
}

// NewCSVSink creates path and writes the header row.
func NewCSVSink(path string, kind Kind, fields []attr.Descriptor) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}

	s := &CSVSink{f: f, w: csv.NewWriter(f), kind: kind, fields: fields}

	header := []string{"index"}
	if kind == Point {
		header = append(header, "longitude", "latitude")
	} else {
		header = append(header, "wkt")
	}
	for _, d := range fields {
		header = append(header, d.Name)
	}
	if err := s.w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return s, nil
}

// Write appends one row.
func (s *CSVSink) Write(r Record) error {
	if len(r.Values) != len(s.fields) {
		return fmt.Errorf("record %d has %d values, want %d", r.Index, len(r.Values), len(s.fields))
	}

	row := []string{strconv.Itoa(r.Index)}
	if s.kind == Point {
		if len(r.Parts) != 1 || len(r.Parts[0]) != 1 {
			return fmt.Errorf("record %d is not a point", r.Index)
		}
		c := r.Parts[0][0]
		row = append(row, formatCoord(c.Lon), formatCoord(c.Lat))
	} else {
		row = append(row, wkt(r.Parts))
	}
	for i, d := range s.fields {
		row = append(row, d.Format(r.Values[i]))
	}

	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("writing record %d: %w", r.Index, err)
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (s *CSVSink) Close() error {
	s.w.Flush()
	return errors.Join(s.w.Error(), s.f.Close())
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// wkt renders parts as a LINESTRING, or a MULTILINESTRING when there is more
// than one part.
func wkt(parts [][]Coord) string {
	ring := func(part []Coord) string {
		pts := make([]string, len(part))
		for i, c := range part {
			pts[i] = formatCoord(c.Lon) + " " + formatCoord(c.Lat)
		}
		return "(" + strings.Join(pts, ", ") + ")"
	}

	if len(parts) == 1 {
		return "LINESTRING " + ring(parts[0])
	}
	rings := make([]string, len(parts))
	for i, p := range parts {
		rings[i] = ring(p)
	}
	return "MULTILINESTRING (" + strings.Join(rings, ", ") + ")"
}
