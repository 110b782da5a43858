package output

import (
	"fmt"
	"os"

	"github.com/jonas-p/go-shp"

	"github.com/anoved/Ground-Track-Generator/internal/attr"
)

// wgs84PRJ is the ESRI WKT for geographic WGS84 coordinates.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`

// indexWidth is the dBASE width of the index column.
const indexWidth = 10

// ShapefileSink writes records as an ESRI shapefile with a dBASE attribute
// table. The first attribute column is always the record index.
type ShapefileSink struct {
	w      *shp.Writer
	kind   Kind
	fields []attr.Descriptor
}

// NewShapefileSink creates base.shp, base.shx and base.dbf, and base.prj when
// prj is set.
func NewShapefileSink(base string, kind Kind, fields []attr.Descriptor, prj bool) (*ShapefileSink, error) {
	var shapeType shp.ShapeType = shp.POINT
	if kind == Line {
		shapeType = shp.POLYLINE
	}

	w, err := shp.Create(base+".shp", shapeType)
	if err != nil {
		return nil, fmt.Errorf("creating shapefile %s: %w", base, err)
	}

	dbf := []shp.Field{shp.NumberField("index", indexWidth)}
	for _, d := range fields {
		switch d.Kind {
		case attr.KindReal:
			dbf = append(dbf, shp.FloatField(d.Name, d.Width, d.Decimals))
		case attr.KindInteger:
			dbf = append(dbf, shp.NumberField(d.Name, d.Width))
		default:
			dbf = append(dbf, shp.StringField(d.Name, d.Width))
		}
	}
	if err := w.SetFields(dbf); err != nil {
		w.Close()
		return nil, fmt.Errorf("creating attribute table: %w", err)
	}

	if prj {
		if err := os.WriteFile(base+".prj", []byte(wgs84PRJ), 0644); err != nil {
			w.Close()
			return nil, fmt.Errorf("writing projection file: %w", err)
		}
	}

	return &ShapefileSink{w: w, kind: kind, fields: fields}, nil
}

// Write appends one shape and its attribute row.
func (s *ShapefileSink) Write(r Record) error {
	if len(r.Values) != len(s.fields) {
		return fmt.Errorf("record %d has %d values, want %d", r.Index, len(r.Values), len(s.fields))
	}

	var shape shp.Shape
	if s.kind == Point {
		if len(r.Parts) != 1 || len(r.Parts[0]) != 1 {
			return fmt.Errorf("record %d is not a point", r.Index)
		}
		c := r.Parts[0][0]
		shape = &shp.Point{X: c.Lon, Y: c.Lat}
	} else {
		parts := make([][]shp.Point, len(r.Parts))
		for i, part := range r.Parts {
			for _, c := range part {
				parts[i] = append(parts[i], shp.Point{X: c.Lon, Y: c.Lat})
			}
		}
		shape = shp.NewPolyLine(parts)
	}

	row := int(s.w.Write(shape))
	if err := s.w.WriteAttribute(row, 0, r.Index); err != nil {
		return fmt.Errorf("writing index of record %d: %w", r.Index, err)
	}
	for i, v := range r.Values {
		var val interface{}
		switch v.Kind {
		case attr.KindReal:
			val = v.Real
		case attr.KindInteger:
			val = int(v.Int)
		default:
			val = v.Str
		}
		if err := s.w.WriteAttribute(row, i+1, val); err != nil {
			return fmt.Errorf("writing %s of record %d: %w", s.fields[i].Name, r.Index, err)
		}
	}
	return nil
}

// Close finalises the shapefile headers.
func (s *ShapefileSink) Close() error {
	s.w.Close()
	return nil
}
