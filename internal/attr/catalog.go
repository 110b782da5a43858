// Package attr describes the per-feature attributes a trace can write and
// computes their values from a propagated state.
package attr

import (
	"math"
	"strconv"
	"time"

	"github.com/anoved/Ground-Track-Generator/internal/propagation"
	"github.com/anoved/Ground-Track-Generator/internal/timespec"
	"github.com/anoved/Ground-Track-Generator/internal/transform"
)

// Kind is the value type of an attribute.
type Kind int

const (
	KindReal Kind = iota
	KindInteger
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindReal:
		return "real"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is one computed attribute. Only the field matching Kind is set.
type Value struct {
	Kind Kind
	Real float64
	Int  int64
	Str  string
}

// Input is everything an attribute may be computed from for one feature.
type Input struct {
	Index    int
	MFE      float64
	State    propagation.State
	Epoch    time.Time
	Observer *transform.ObserverPosition
}

// Time returns the nominal instant of the feature.
func (in Input) Time() time.Time {
	return timespec.Time(in.MFE, in.Epoch)
}

// Descriptor defines one attribute. Width and Decimals size the attribute
// table column of formats that need fixed widths.
type Descriptor struct {
	Name     string
	Kind     Kind
	Width    uint8
	Decimals uint8
	Observer bool
	compute  func(Input) Value
}

// Format renders v as text using the descriptor's precision.
func (d Descriptor) Format(v Value) string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindString:
		return v.Str
	default:
		return strconv.FormatFloat(v.Real, 'f', int(d.Decimals), 64)
	}
}

func realValue(f float64) Value { return Value{Kind: KindReal, Real: f} }
func intValue(i int64) Value    { return Value{Kind: KindInteger, Int: i} }
func strValue(s string) Value   { return Value{Kind: KindString, Str: s} }

// catalog is the fixed, ordered attribute list.
var catalog = []Descriptor{
	{Name: "altitude", Kind: KindReal, Width: 20, Decimals: 6, compute: func(in Input) Value {
		return realValue(in.State.Geodetic.AltM / 1000.0)
	}},
	{Name: "velocity", Kind: KindReal, Width: 20, Decimals: 6, compute: func(in Input) Value {
		return realValue(in.State.TEME.Speed())
	}},
	{Name: "time", Kind: KindString, Width: 31, compute: func(in Input) Value {
		return strValue(timespec.Format(in.Time()))
	}},
	{Name: "unixtime", Kind: KindInteger, Width: 20, compute: func(in Input) Value {
		return intValue(in.Time().Unix())
	}},
	{Name: "mfe", Kind: KindReal, Width: 20, Decimals: 6, compute: func(in Input) Value {
		return realValue(in.MFE)
	}},
	{Name: "latitude", Kind: KindReal, Width: 20, Decimals: 6, compute: func(in Input) Value {
		return realValue(in.State.Geodetic.LatDeg)
	}},
	{Name: "longitude", Kind: KindReal, Width: 20, Decimals: 6, compute: func(in Input) Value {
		return realValue(in.State.Geodetic.LonDeg)
	}},
	{Name: "illum", Kind: KindString, Width: 8, compute: func(in Input) Value {
		sun := transform.SunTEME(in.State.Time)
		return strValue(transform.Illuminate(in.State.TEME, sun).String())
	}},
	{Name: "range", Kind: KindReal, Width: 30, Decimals: 6, Observer: true, compute: func(in Input) Value {
		return observed(in, func(la transform.LookAngles) float64 { return la.RangeKm })
	}},
	{Name: "rate", Kind: KindReal, Width: 20, Decimals: 6, Observer: true, compute: func(in Input) Value {
		return observed(in, func(la transform.LookAngles) float64 { return la.RangeRateKmS })
	}},
	{Name: "elevation", Kind: KindReal, Width: 20, Decimals: 6, Observer: true, compute: func(in Input) Value {
		return observed(in, func(la transform.LookAngles) float64 { return la.ElevationDeg })
	}},
	{Name: "azimuth", Kind: KindReal, Width: 20, Decimals: 6, Observer: true, compute: func(in Input) Value {
		return observed(in, func(la transform.LookAngles) float64 { return la.AzimuthDeg })
	}},
	{Name: "solarelev", Kind: KindReal, Width: 20, Decimals: 6, Observer: true, compute: func(in Input) Value {
		return solar(in, func(la transform.LookAngles) float64 { return la.ElevationDeg })
	}},
	{Name: "solaraz", Kind: KindReal, Width: 20, Decimals: 6, Observer: true, compute: func(in Input) Value {
		return solar(in, func(la transform.LookAngles) float64 { return la.AzimuthDeg })
	}},
}

// Catalog returns a copy of every attribute descriptor in output order.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// observed projects the satellite's look angles from the observer.
func observed(in Input, pick func(transform.LookAngles) float64) Value {
	if in.Observer == nil {
		return realValue(math.NaN())
	}
	return realValue(pick(transform.ECEFToLookAngles(*in.Observer, in.State.ECEF)))
}

// solar projects the Sun's look angles from the observer.
func solar(in Input, pick func(transform.LookAngles) float64) Value {
	if in.Observer == nil {
		return realValue(math.NaN())
	}
	sun := transform.TEMEToECEF(transform.SunTEME(in.State.Time), in.State.Time)
	return realValue(pick(transform.ECEFToLookAngles(*in.Observer, sun)))
}
