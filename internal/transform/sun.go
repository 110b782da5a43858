package transform

import (
	"math"
	"time"
)

const (
	earthRadiusKm = 6378.135
	sunRadiusKm   = 696000.0
	auKm          = 1.49597870691e8
)

// SunTEME returns the Sun's geocentric position in km, in the same inertial
// frame as SGP4 output. Velocity is left zero.
//
// Low-precision solar ephemeris (Astronomical Almanac style, epoch 1900),
// good to roughly 0.01° which is ample for illumination and solar look angles.
func SunTEME(t time.Time) PositionTEME {
	t = t.UTC()
	d1900 := JulianDate(t) - 2415020.0
	year := 1900.0 + d1900/365.25
	T := (d1900 + deltaET(year)/86400.0) / 36525.0

	M := degToRad(wrap360(358.47583 + wrap360(35999.04975*T) - (0.000150+0.0000033*T)*T*T))
	L := degToRad(wrap360(279.69668 + wrap360(36000.76892*T) + 0.0003025*T*T))
	e := 0.01675104 - (0.0000418+0.000000126*T)*T
	C := degToRad((1.919460-(0.004789+0.000014*T)*T)*math.Sin(M) +
		(0.020094-0.000100*T)*math.Sin(2*M) +
		0.000293*math.Sin(3*M))
	O := degToRad(wrap360(259.18 - 1934.142*T))
	lsa := wrapTwoPi(L + C - degToRad(0.00569-0.00479*math.Sin(O)))
	nu := wrapTwoPi(M + C)
	R := 1.0000002 * (1 - e*e) / (1 + e*math.Cos(nu)) * auKm
	eps := degToRad(23.452294 - (0.0130125+(0.00000164-0.000000503*T)*T)*T + 0.00256*math.Cos(O))

	return PositionTEME{
		X: R * math.Cos(lsa),
		Y: R * math.Sin(lsa) * math.Cos(eps),
		Z: R * math.Sin(lsa) * math.Sin(eps),
	}
}

// deltaET approximates ET - UT in seconds for a fractional year.
func deltaET(year float64) float64 {
	return 26.465 + 0.747622*(year-1950) + 1.886913*math.Sin(2*math.Pi*(year-1975)/33)
}

// Illumination classifies how much sunlight reaches a satellite.
type Illumination int

const (
	Sunlit Illumination = iota
	Penumbra
	Umbra
)

func (i Illumination) String() string {
	switch i {
	case Sunlit:
		return "sunlit"
	case Penumbra:
		return "penumbra"
	case Umbra:
		return "umbra"
	default:
		return "unknown"
	}
}

// Illuminate compares the apparent radii of the Earth and the Sun seen from
// the satellite with the angle between them. Both positions are geocentric
// inertial km.
func Illuminate(sat, sun PositionTEME) Illumination {
	sx, sy, sz := sun.X-sat.X, sun.Y-sat.Y, sun.Z-sat.Z
	toSun := math.Sqrt(sx*sx + sy*sy + sz*sz)
	toEarth := sat.Radius()

	earthAngle := math.Asin(math.Min(1, earthRadiusKm/toEarth))
	sunAngle := math.Asin(sunRadiusKm / toSun)

	cosSep := -(sx*sat.X + sy*sat.Y + sz*sat.Z) / (toSun * toEarth)
	sep := math.Acos(math.Max(-1, math.Min(1, cosSep)))

	switch {
	case earthAngle > sunAngle && sep < earthAngle-sunAngle:
		return Umbra
	case sep < earthAngle+sunAngle:
		return Penumbra
	default:
		return Sunlit
	}
}

func wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func wrapTwoPi(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad
}
