// Package output writes ground-track records to geometry files.
package output

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/anoved/Ground-Track-Generator/internal/attr"
)

// ErrUnknownFormat is returned by Open for an unsupported file format.
var ErrUnknownFormat = errors.New("unknown output format")

// Kind is the geometry type of every record in one file.
type Kind int

const (
	Point Kind = iota
	Line
)

func (k Kind) String() string {
	switch k {
	case Point:
		return "point"
	case Line:
		return "line"
	default:
		return "unknown"
	}
}

// ParseKind accepts "point" or "line".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "point", "points":
		return Point, nil
	case "line", "lines":
		return Line, nil
	}
	return 0, fmt.Errorf("unknown feature type %q", s)
}

// Coord is a longitude/latitude pair in degrees.
type Coord struct {
	Lon, Lat float64
}

// Record is one output feature. A point has a single part with one
// coordinate. A line has one part with two coordinates, or two parts when it
// was split at the antimeridian. Values follow the sink's field order.
type Record struct {
	Index  int
	Parts  [][]Coord
	Values []attr.Value
}

// Sink receives records for one trace. Close must be called even after a
// failed Write.
type Sink interface {
	Write(Record) error
	Close() error
}

// Format names an on-disk file format.
type Format string

const (
	FormatShapefile Format = "shp"
	FormatCSV       Format = "csv"
)

// Options controls where and how files are written.
type Options struct {
	Dir    string
	Prefix string
	Suffix string
	Format Format
	PRJ    bool // also write a WGS84 .prj beside a shapefile
}

// BasePath returns the extensionless output path for a trace named label.
func (o Options) BasePath(label string) string {
	return filepath.Join(o.Dir, o.Prefix+sanitize(label)+o.Suffix)
}

// Open creates a sink for a trace named label.
func Open(o Options, label string, kind Kind, fields []attr.Descriptor) (Sink, error) {
	base := o.BasePath(label)
	switch o.Format {
	case FormatShapefile, "":
		return NewShapefileSink(base, kind, fields, o.PRJ)
	case FormatCSV:
		return NewCSVSink(base+".csv", kind, fields)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, o.Format)
}

// sanitize makes label safe to use as a file name.
func sanitize(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			return r
		default:
			return '_'
		}
	}, label)
}
