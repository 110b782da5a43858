package propagation

import (
	"time"

	"github.com/anoved/Ground-Track-Generator/internal/transform"
)

// EarthRadiusKm is the WGS84 equatorial radius the SGP4 model is run with.
const EarthRadiusKm = 6378.137

// Status tags the outcome of one propagation call.
type Status int

const (
	StatusOK Status = iota
	// StatusDecayed means the modelled orbit has fallen below the surface.
	StatusDecayed
	// StatusInvalid means the model produced no usable state.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDecayed:
		return "decayed"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// State is a satellite's position at one instant in every frame the trace
// uses. It is recomputed for each step.
type State struct {
	Time     time.Time
	TEME     transform.PositionTEME
	ECEF     transform.PositionECEF
	Geodetic transform.GeodeticPoint
}

// Result is the tagged outcome of a propagation call. State is only
// meaningful when Status is StatusOK; Err describes the other cases.
type Result struct {
	Status Status
	State  State
	Err    error
}
