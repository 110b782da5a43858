package output

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"

	"github.com/anoved/Ground-Track-Generator/internal/attr"
)

func selected(t *testing.T, names ...string) []attr.Descriptor {
	t.Helper()
	s, err := attr.NewSelection(names...)
	if err != nil {
		t.Fatal(err)
	}
	return s.Descriptors()
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestBasePath(t *testing.T) {
	o := Options{Dir: "out", Prefix: "gt_", Suffix: "_v1"}
	tests := []struct {
		label string
		want  string
	}{
		{"ISS (ZARYA)", filepath.Join("out", "gt_ISS__ZARYA__v1")},
		{"25544", filepath.Join("out", "gt_25544_v1")},
		{"../etc/passwd", filepath.Join("out", "gt_.._etc_passwd_v1")},
		{"  ", filepath.Join("out", "gt_unnamed_v1")},
	}
	for _, tt := range tests {
		if got := o.BasePath(tt.label); got != tt.want {
			t.Errorf("BasePath(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"point": Point, "LINE": Line, "points": Point} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseKind("polygon"); err == nil {
		t.Error("ParseKind(polygon) should fail")
	}
}

func TestCSVSinkPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.csv")
	fields := selected(t, "altitude", "time", "unixtime")

	s, err := NewCSVSink(path, Point, fields)
	if err != nil {
		t.Fatal(err)
	}
	err = s.Write(Record{
		Index: 0,
		Parts: [][]Coord{{{Lon: -20.5, Lat: 10.25}}},
		Values: []attr.Value{
			{Kind: attr.KindReal, Real: 412.5},
			{Kind: attr.KindString, Str: "2012-03-19 21:30:00.000000 UTC"},
			{Kind: attr.KindInteger, Int: 1332192600},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	rows := readCSV(t, path)
	want := [][]string{
		{"index", "longitude", "latitude", "altitude", "time", "unixtime"},
		{"0", "-20.500000", "10.250000", "412.500000", "2012-03-19 21:30:00.000000 UTC", "1332192600"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestCSVSinkNoAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.csv")
	s, err := NewCSVSink(path, Point, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write(Record{Index: 4, Parts: [][]Coord{{{Lon: 1, Lat: 2}}}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	rows := readCSV(t, path)
	if len(rows) != 2 || len(rows[1]) != 3 || rows[1][0] != "4" {
		t.Errorf("rows = %v, want index plus coordinates only", rows)
	}
}

func TestCSVSinkLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.csv")
	s, err := NewCSVSink(path, Line, nil)
	if err != nil {
		t.Fatal(err)
	}
	records := []Record{
		{Index: 0, Parts: [][]Coord{{{Lon: 170, Lat: 5}, {Lon: 179, Lat: 10}}}},
		{Index: 1, Parts: [][]Coord{{{Lon: 179, Lat: 10}, {Lon: 180, Lat: 11}}, {{Lon: -180, Lat: 11}, {Lon: -179, Lat: 12}}}},
	}
	for _, r := range records {
		if err := s.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if !strings.HasPrefix(rows[1][1], "LINESTRING (170.000000 5.000000, ") {
		t.Errorf("row 1 wkt = %q", rows[1][1])
	}
	want := "MULTILINESTRING ((179.000000 10.000000, 180.000000 11.000000), (-180.000000 11.000000, -179.000000 12.000000))"
	if rows[2][1] != want {
		t.Errorf("row 2 wkt = %q, want %q", rows[2][1], want)
	}
}

func TestCSVSinkRejectsMismatch(t *testing.T) {
	s, err := NewCSVSink(filepath.Join(t.TempDir(), "x.csv"), Point, selected(t, "altitude"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Write(Record{Parts: [][]Coord{{{}}}}); err == nil {
		t.Error("expected error for missing values")
	}
	bad := Record{Parts: [][]Coord{{{}, {}}}, Values: []attr.Value{{}}}
	if err := s.Write(bad); err == nil {
		t.Error("expected error for a two-coordinate point")
	}
}

func TestShapefileSinkPoints(t *testing.T) {
	base := filepath.Join(t.TempDir(), "track")
	fields := selected(t, "altitude", "unixtime", "illum")

	s, err := NewShapefileSink(base, Point, fields, true)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		err := s.Write(Record{
			Index: i,
			Parts: [][]Coord{{{Lon: float64(10 * i), Lat: float64(i)}}},
			Values: []attr.Value{
				{Kind: attr.KindReal, Real: 400 + float64(i)},
				{Kind: attr.KindInteger, Int: int64(1332192600 + 60*i)},
				{Kind: attr.KindString, Str: "sunlit"},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	prj, err := os.ReadFile(base + ".prj")
	if err != nil {
		t.Fatalf("reading .prj: %v", err)
	}
	if !strings.Contains(string(prj), "WGS_1984") {
		t.Errorf("unexpected .prj content %q", prj)
	}

	r, err := shp.Open(base + ".shp")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if r.GeometryType != shp.POINT {
		t.Errorf("geometry type = %v, want POINT", r.GeometryType)
	}
	var names []string
	for _, f := range r.Fields() {
		names = append(names, f.String())
	}
	if want := []string{"index", "altitude", "unixtime", "illum"}; !reflect.DeepEqual(names, want) {
		t.Errorf("fields = %v, want %v", names, want)
	}

	n := 0
	for r.Next() {
		row, shape := r.Shape()
		p, ok := shape.(*shp.Point)
		if !ok {
			t.Fatalf("shape %d is %T", row, shape)
		}
		if p.X != float64(10*row) || p.Y != float64(row) {
			t.Errorf("shape %d = %+v", row, p)
		}
		if got := strings.TrimSpace(r.ReadAttribute(row, 0)); got != []string{"0", "1", "2"}[row] {
			t.Errorf("index of row %d = %q", row, got)
		}
		if got := strings.TrimSpace(r.ReadAttribute(row, 3)); got != "sunlit" {
			t.Errorf("illum of row %d = %q", row, got)
		}
		n++
	}
	if n != 3 {
		t.Errorf("read %d shapes, want 3", n)
	}
}

func TestShapefileSinkSplitLine(t *testing.T) {
	base := filepath.Join(t.TempDir(), "lines")
	s, err := NewShapefileSink(base, Line, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	err = s.Write(Record{Index: 0, Parts: [][]Coord{
		{{Lon: 179, Lat: 10}, {Lon: 180, Lat: 11}},
		{{Lon: -180, Lat: 11}, {Lon: -179, Lat: 12}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(base + ".prj"); !os.IsNotExist(err) {
		t.Errorf(".prj written without being requested")
	}

	r, err := shp.Open(base + ".shp")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if r.GeometryType != shp.POLYLINE {
		t.Errorf("geometry type = %v, want POLYLINE", r.GeometryType)
	}
	if !r.Next() {
		t.Fatal("no shapes")
	}
	_, shape := r.Shape()
	line, ok := shape.(*shp.PolyLine)
	if !ok {
		t.Fatalf("shape is %T, want *shp.PolyLine", shape)
	}
	if line.NumParts != 2 || line.NumPoints != 4 {
		t.Errorf("parts=%d points=%d, want 2 and 4", line.NumParts, line.NumPoints)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Options{Dir: dir, Format: FormatCSV}, "ISS", Point, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ISS.csv")); err != nil {
		t.Errorf("csv not created: %v", err)
	}

	s, err = Open(Options{Dir: dir}, "ISS", Line, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		if _, err := os.Stat(filepath.Join(dir, "ISS"+ext)); err != nil {
			t.Errorf("%s not created: %v", ext, err)
		}
	}

	if _, err := Open(Options{Dir: dir, Format: "kml"}, "ISS", Point, nil); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}
