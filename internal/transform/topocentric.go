package transform

import "math"

// LookAngles holds the direction and distance from a ground observer to a
// target, plus how fast that distance is changing.
type LookAngles struct {
	AzimuthDeg   float64 // 0 = North, clockwise
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeKm      float64
	RangeRateKmS float64 // negative while the target approaches
}

// ECEFToLookAngles computes look angles from obs to a target state in ECEF
// meters and m/s. The observer is fixed in ECEF, so the range rate is the
// projection of the target's ECEF velocity on the line of sight.
//
// Uses the SEZ (South-East-Zenith) rotation from Vallado Section 4.4.
func ECEFToLookAngles(obs ObserverPosition, target PositionECEF) LookAngles {
	rx := target.X - obs.ECEFx
	ry := target.Y - obs.ECEFy
	rz := target.Z - obs.ECEFz

	sinLat, cosLat := math.Sin(obs.LatRad), math.Cos(obs.LatRad)
	sinLon, cosLon := math.Sin(obs.LonRad), math.Cos(obs.LonRad)

	south := sinLat*cosLon*rx + sinLat*sinLon*ry - cosLat*rz
	east := -sinLon*rx + cosLon*ry
	zenith := cosLat*cosLon*rx + cosLat*sinLon*ry + sinLat*rz

	rng := math.Sqrt(south*south + east*east + zenith*zenith)

	el := math.Asin(zenith / rng)

	// North is -South in SEZ.
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	rate := (rx*target.VX + ry*target.VY + rz*target.VZ) / rng

	return LookAngles{
		AzimuthDeg:   radToDeg(az),
		ElevationDeg: radToDeg(el),
		RangeKm:      rng / 1000.0,
		RangeRateKmS: rate / 1000.0,
	}
}

// RangeRate returns only the range rate, in km/s, from obs to target.
func RangeRate(obs ObserverPosition, target PositionECEF) float64 {
	rx := target.X - obs.ECEFx
	ry := target.Y - obs.ECEFy
	rz := target.Z - obs.ECEFz
	rng := math.Sqrt(rx*rx + ry*ry + rz*rz)
	return (rx*target.VX + ry*target.VY + rz*target.VZ) / rng / 1000.0
}
