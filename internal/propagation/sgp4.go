// Package propagation wraps the SGP4 model for a single element set and
// reports each call as a tagged Result instead of failing the caller.
package propagation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/anoved/Ground-Track-Generator/internal/timespec"
	"github.com/anoved/Ground-Track-Generator/internal/tle"
	"github.com/anoved/Ground-Track-Generator/internal/transform"
)

// ErrInvalidElements is returned when an element set cannot initialise SGP4.
var ErrInvalidElements = errors.New("invalid element set")

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Propagate() takes Satellite by value so SGP4 error codes are not visible
// to the caller. Failures are detected from the output instead: NaN/Inf or a
// zero vector is an invalid state, a radius below the Earth's surface is a
// decayed orbit.

// SGP4Propagator wraps the go-satellite library for a single element set.
type SGP4Propagator struct {
	sat     satellite.Satellite
	epoch   time.Time
	noradID int
}

// NewSGP4Propagator creates an SGP4 propagator for el.
//
// Pre-validates TLE format before passing to the library, because go-satellite
// calls log.Fatal on malformed input (which would kill the process).
func NewSGP4Propagator(el tle.Element) (*SGP4Propagator, error) {
	if err := validateTLELines(el.Line1, el.Line2); err != nil {
		return nil, fmt.Errorf("%w: NORAD %d: %v", ErrInvalidElements, el.NORADID, err)
	}

	sat := satellite.TLEToSat(el.Line1, el.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: sgp4 init failed for NORAD %d: code=%d %s", ErrInvalidElements, el.NORADID, sat.Error, sat.ErrorStr)
	}
	return &SGP4Propagator{sat: sat, epoch: el.Epoch, noradID: el.NORADID}, nil
}

// validateTLELines performs basic format validation on TLE lines.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != tle.LineLength {
		return fmt.Errorf("line1 length %d, expected %d", len(line1), tle.LineLength)
	}
	if len(line2) != tle.LineLength {
		return fmt.Errorf("line2 length %d, expected %d", len(line2), tle.LineLength)
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// Epoch returns the reference epoch of the element set.
func (p *SGP4Propagator) Epoch() time.Time {
	return p.epoch
}

// Propagate computes the satellite state mfe minutes from the element epoch.
func (p *SGP4Propagator) Propagate(mfe float64) Result {
	if math.IsNaN(mfe) || math.IsInf(mfe, 0) {
		return Result{Status: StatusInvalid, Err: fmt.Errorf("non-finite time offset %v", mfe)}
	}
	return p.PropagateAt(timespec.Time(mfe, p.epoch))
}

// PropagateAt computes the satellite state at t. The model takes whole
// seconds, so t is rounded to the nearest second.
func (p *SGP4Propagator) PropagateAt(t time.Time) Result {
	t = t.UTC().Round(time.Second)
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	teme := transform.PositionTEME{
		X:  pos.X,
		Y:  pos.Y,
		Z:  pos.Z,
		VX: vel.X,
		VY: vel.Y,
		VZ: vel.Z,
	}
	if status, err := p.classify(teme); status != StatusOK {
		return Result{Status: status, Err: err}
	}

	ecef := transform.TEMEToECEF(teme, t)
	return Result{
		Status: StatusOK,
		State: State{
			Time:     t,
			TEME:     teme,
			ECEF:     ecef,
			Geodetic: transform.ECEFToGeodetic(ecef.X, ecef.Y, ecef.Z),
		},
	}
}

func (p *SGP4Propagator) classify(teme transform.PositionTEME) (Status, error) {
	for _, v := range []float64{teme.X, teme.Y, teme.Z, teme.VX, teme.VY, teme.VZ} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return StatusInvalid, fmt.Errorf("sgp4 propagation failed for NORAD %d: output is NaN/Inf", p.noradID)
		}
	}

	r := teme.Radius()
	switch {
	case r == 0:
		return StatusInvalid, fmt.Errorf("sgp4 propagation failed for NORAD %d: zero position vector", p.noradID)
	case r < EarthRadiusKm:
		return StatusDecayed, fmt.Errorf("NORAD %d decayed: radius %.1f km", p.noradID, r)
	}
	return StatusOK, nil
}
