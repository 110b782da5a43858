// Package dateline splits ground-track line segments that cross the ±180°
// meridian so they do not wrap across a flat map.
//
// The crossing point is found on a sphere, not the ellipsoid. It is a
// drawing aid: segments spanning a large part of a hemisphere, or passing
// close to a pole, can be split at the wrong latitude or not at all.
package dateline

import (
	"math"

	"github.com/anoved/Ground-Track-Generator/internal/propagation"
	"github.com/anoved/Ground-Track-Generator/internal/transform"
)

// Point is a geodetic position in degrees.
type Point struct {
	Lat, Lon float64
}

// Segment is a line from the first point to the second.
type Segment [2]Point

// Crosses reports whether a segment from a to b has endpoints on opposite
// sides of the 0°/180° meridian plane.
func Crosses(a, b Point) bool {
	return (a.Lon < 0 && b.Lon > 0) || (a.Lon > 0 && b.Lon < 0)
}

// Split checks whether the segment a→b crosses the 180° meridian and, if it
// does, returns the two halves either side of it. state is the satellite's
// ECEF state at a; it decides which of the two meridians the path is
// heading for. A prime-meridian crossing is never split.
func Split(a, b Point, state transform.PositionECEF) ([2]Segment, bool) {
	if !Crosses(a, b) {
		return [2]Segment{}, false
	}

	p0 := cartesian(a)
	p1 := cartesian(b)
	n := cross(p0, p1)

	// The great circle meets the y=0 plane along n × ŷ.
	d := [3]float64{-n[2], 0, n[0]}
	norm := math.Sqrt(d[0]*d[0] + d[2]*d[2])
	if norm == 0 {
		return [2]Segment{}, false
	}

	var (
		best     Point
		bestRate = math.Inf(1)
	)
	for _, sign := range []float64{1, -1} {
		c := Point{
			Lat: radToDeg(math.Asin(sign * d[2] / norm)),
			Lon: radToDeg(math.Atan2(0, sign*d[0])),
		}
		obs := transform.NewObserverPosition(c.Lat, c.Lon, 0)
		if rate := transform.RangeRate(obs, state); rate < bestRate {
			best, bestRate = c, rate
		}
	}

	if bestRate >= 0 || math.Abs(best.Lon) < 90 {
		return [2]Segment{}, false
	}

	edge := math.Copysign(180, a.Lon)
	return [2]Segment{
		{a, {Lat: best.Lat, Lon: edge}},
		{{Lat: best.Lat, Lon: -edge}, b},
	}, true
}

// cartesian places p on a sphere of the model's equatorial radius.
func cartesian(p Point) [3]float64 {
	lat, lon := degToRad(p.Lat), degToRad(p.Lon)
	r := propagation.EarthRadiusKm
	return [3]float64{
		r * math.Cos(lat) * math.Cos(lon),
		r * math.Cos(lat) * math.Sin(lon),
		r * math.Sin(lat),
	}
}

func cross(u, v [3]float64) [3]float64 {
	return [3]float64{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
}

func degToRad(d float64) float64 { return d * math.Pi / 180.0 }
func radToDeg(r float64) float64 { return r * 180.0 / math.Pi }
