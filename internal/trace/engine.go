// Package trace drives propagation over a time range and turns each step
// into a point or line feature.
package trace

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/anoved/Ground-Track-Generator/internal/attr"
	"github.com/anoved/Ground-Track-Generator/internal/dateline"
	"github.com/anoved/Ground-Track-Generator/internal/metrics"
	"github.com/anoved/Ground-Track-Generator/internal/output"
	"github.com/anoved/Ground-Track-Generator/internal/propagation"
	"github.com/anoved/Ground-Track-Generator/internal/timespec"
	"github.com/anoved/Ground-Track-Generator/internal/tle"
)

// Engine runs traces with one Config.
type Engine struct {
	cfg      Config
	interval float64 // minutes
	fields   []attr.Descriptor
	logger   *slog.Logger
}

// New checks every setting that does not depend on an element set.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if cfg.Start == "" {
		cfg.Start = "epoch"
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now().UTC()
	}

	interval, err := timespec.ParseInterval(cfg.Interval)
	if err != nil {
		return nil, fmt.Errorf("interval: %w", err)
	}

	// Syntax only; the values depend on each element's epoch.
	if _, err := timespec.Resolve(cfg.Start, cfg.Now, cfg.Now); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if cfg.End != "" {
		if _, err := timespec.Resolve(cfg.End, cfg.Now, cfg.Now); err != nil {
			return nil, fmt.Errorf("end: %w", err)
		}
	}

	if cfg.Feature != output.Point && cfg.Feature != output.Line {
		return nil, fmt.Errorf("%w: feature type %v", ErrInvalidConfig, cfg.Feature)
	}
	if cfg.Steps < 0 {
		return nil, fmt.Errorf("%w: negative step count %d", ErrInvalidConfig, cfg.Steps)
	}
	if cfg.End == "" && cfg.Steps == 0 {
		return nil, fmt.Errorf("%w: need a step count or an end time", ErrInvalidConfig)
	}

	if names := cfg.Attributes.ObserverRequired(); len(names) > 0 && cfg.Observer == nil {
		return nil, fmt.Errorf("%w: %v", ErrObserverRequired, names)
	}

	return &Engine{
		cfg:      cfg,
		interval: interval,
		fields:   cfg.Attributes.Descriptors(),
		logger:   logger,
	}, nil
}

// Run traces el. Invalid orbits and decay end the trace early but are
// reported in the Summary, not as errors. Configuration problems are
// reported before the sink is opened or the propagator called.
func (e *Engine) Run(el tle.Element, prop Propagator, open SinkOpener) (sum Summary, err error) {
	began := time.Now()
	logger := e.logger.With("norad_id", el.NORADID, "name", el.Name)

	defer func() {
		if err != nil {
			metrics.IncTraceFailures()
			return
		}
		metrics.RecordTrace(sum.State.String(), time.Since(began))
		metrics.AddRecords(e.cfg.Feature.String(), sum.Records)
	}()

	start, err := timespec.Resolve(e.cfg.Start, e.cfg.Now, el.Epoch)
	if err != nil {
		return sum, fmt.Errorf("start: %w", err)
	}

	endMode := e.cfg.End != ""
	var end float64
	if endMode {
		end, err = timespec.Resolve(e.cfg.End, e.cfg.Now, el.Epoch)
		if err != nil {
			return sum, fmt.Errorf("end: %w", err)
		}
		if end <= start {
			return sum, fmt.Errorf("%w: end %.6f min, start %.6f min", ErrEndNotAfterStart, end, start)
		}
		if e.interval >= end-start {
			return sum, fmt.Errorf("%w: interval %.6f min, period %.6f min", ErrIntervalExceedsSpan, e.interval, end-start)
		}
	}

	logger.Debug("trace starting",
		"start", timespec.Format(timespec.Time(start, el.Epoch)),
		"end_mode", endMode,
		"end_mfe", end,
		"interval_min", e.interval,
		"feature", e.cfg.Feature.String(),
	)

	sink, err := open(el, e.cfg.Feature, e.fields)
	if err != nil {
		return sum, fmt.Errorf("opening output: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing output: %w", cerr))
		}
	}()

	var (
		mfe     = start
		prev    propagation.State
		prevMFE float64
		primed  bool
		final   bool
	)
	sum.State = StateRunning

	for step := 1; ; step++ {
		res := prop.Propagate(mfe)
		sum.Propagations++
		metrics.IncPropagations(res.Status.String())

		switch res.Status {
		case propagation.StatusDecayed:
			sum.State = StateDecayed
			sum.Diagnostic = res.Err
			logger.Info("satellite decayed", "mfe", mfe, "records", sum.Records, "error", res.Err)
			return sum, nil
		case propagation.StatusInvalid:
			sum.State = StateInvalid
			sum.Diagnostic = res.Err
			logger.Warn("propagation failed, stopping trace", "mfe", mfe, "records", sum.Records, "error", res.Err)
			return sum, nil
		}

		st := res.State
		if !finiteState(st) {
			return sum, fmt.Errorf("%w: non-finite position at %.6f min", ErrGeometry, mfe)
		}
		if sum.Propagations == 1 {
			sum.FirstMFE = mfe
		}
		sum.LastMFE = mfe

		if e.cfg.Feature == output.Point {
			rec := output.Record{
				Index:  sum.Records,
				Parts:  [][]output.Coord{{coord(st)}},
				Values: e.cfg.Attributes.Values(e.input(sum.Records, mfe, st, el)),
			}
			if err := sink.Write(rec); err != nil {
				return sum, err
			}
			sum.Records++
		} else {
			// The first vertex only primes the line: N segments take N+1
			// propagations.
			if primed {
				rec := output.Record{
					Index:  sum.Records,
					Parts:  e.segment(prev, st, &sum),
					Values: e.cfg.Attributes.Values(e.input(sum.Records, prevMFE, prev, el)),
				}
				if err := sink.Write(rec); err != nil {
					return sum, err
				}
				sum.Records++
			}
			prev, prevMFE, primed = st, mfe, true
		}

		if final {
			sum.State = StateEndReached
			break
		}

		// Multiply rather than accumulate so late samples do not drift.
		next := start + float64(step)*e.interval

		if !endMode && sum.Records >= e.cfg.Steps {
			sum.State = StateStepLimit
			break
		}
		if endMode && next >= end {
			if e.cfg.ForceEnd && mfe < end {
				mfe, final = end, true
				continue
			}
			sum.State = StateEndReached
			break
		}
		mfe = next
	}

	logger.Debug("trace finished",
		"state", sum.State.String(),
		"records", sum.Records,
		"propagations", sum.Propagations,
		"splits", sum.Splits,
	)
	return sum, nil
}

func (e *Engine) input(index int, mfe float64, st propagation.State, el tle.Element) attr.Input {
	return attr.Input{
		Index:    index,
		MFE:      mfe,
		State:    st,
		Epoch:    el.Epoch,
		Observer: e.cfg.Observer,
	}
}

// segment builds the line from a to b, split in two at the antimeridian
// when enabled and crossed.
func (e *Engine) segment(a, b propagation.State, sum *Summary) [][]output.Coord {
	from, to := coord(a), coord(b)
	if e.cfg.Split {
		p0 := dateline.Point{Lat: from.Lat, Lon: from.Lon}
		p1 := dateline.Point{Lat: to.Lat, Lon: to.Lon}
		if halves, ok := dateline.Split(p0, p1, a.ECEF); ok {
			sum.Splits++
			metrics.IncDatelineSplits()
			return [][]output.Coord{
				{from, {Lon: halves[0][1].Lon, Lat: halves[0][1].Lat}},
				{{Lon: halves[1][0].Lon, Lat: halves[1][0].Lat}, to},
			}
		}
	}
	return [][]output.Coord{{from, to}}
}

func coord(st propagation.State) output.Coord {
	return output.Coord{Lon: st.Geodetic.LonDeg, Lat: st.Geodetic.LatDeg}
}

func finiteState(st propagation.State) bool {
	if !st.ECEF.Finite() {
		return false
	}
	for _, v := range []float64{st.Geodetic.LatDeg, st.Geodetic.LonDeg, st.Geodetic.AltM} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
