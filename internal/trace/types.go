package trace

import (
	"errors"
	"time"

	"github.com/anoved/Ground-Track-Generator/internal/attr"
	"github.com/anoved/Ground-Track-Generator/internal/output"
	"github.com/anoved/Ground-Track-Generator/internal/propagation"
	"github.com/anoved/Ground-Track-Generator/internal/tle"
	"github.com/anoved/Ground-Track-Generator/internal/transform"
)

var (
	// ErrInvalidConfig is returned by New for settings that can never run.
	ErrInvalidConfig = errors.New("invalid trace configuration")
	// ErrEndNotAfterStart is returned when the end time is not after the start.
	ErrEndNotAfterStart = errors.New("end time not after start time")
	// ErrIntervalExceedsSpan is returned when one interval does not fit
	// between start and end.
	ErrIntervalExceedsSpan = errors.New("interval exceeds period between start and end")
	// ErrObserverRequired is returned when an observer attribute is selected
	// without an observer.
	ErrObserverRequired = errors.New("attribute requires an observer")
	// ErrGeometry is returned when a propagated vertex is not a finite
	// position.
	ErrGeometry = errors.New("invalid feature geometry")
)

// State is the trace loop's state. Every state but StateRunning is terminal.
type State int

const (
	StateRunning State = iota
	StateDecayed
	StateStepLimit
	StateEndReached
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDecayed:
		return "decayed"
	case StateStepLimit:
		return "step_limit"
	case StateEndReached:
		return "end_reached"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Config is the immutable description of a trace, shared by every element
// set traced with the same Engine.
type Config struct {
	Start    string // time description; empty means "epoch"
	End      string // time description; empty selects step-count mode
	Interval string // e.g. "1m", "30s"
	Steps    int    // features to emit in step-count mode
	Feature  output.Kind
	Split    bool // split line features at the antimeridian
	ForceEnd bool // finish with a sample exactly at End

	Attributes attr.Selection
	Observer   *transform.ObserverPosition
	// Now is the wall-clock instant "now" refers to. Zero means the time
	// New is called.
	Now time.Time
}

// Propagator computes satellite states at minutes from the element epoch.
type Propagator interface {
	Propagate(mfe float64) propagation.Result
}

// SinkOpener creates the output for one element set. fields lists the
// attribute columns in the order record values are given.
type SinkOpener func(el tle.Element, kind output.Kind, fields []attr.Descriptor) (output.Sink, error)

// Summary describes how a trace ended.
type Summary struct {
	State        State
	Records      int
	Propagations int
	Splits       int
	FirstMFE     float64
	LastMFE      float64 // last successfully propagated time
	// Diagnostic explains a decayed or invalid ending.
	Diagnostic error
}
