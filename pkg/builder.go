package eventbuilder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// HitSource yields hits in non-decreasing time order. Next and Peek return
// io.EOF at the end of the stream; Peek does not consume the hit.
type HitSource interface {
	Next() (Hit, error)
	Peek() (Hit, error)
}

// Builder turns a time-ordered hit stream into physics events. A Builder is
// used from one goroutine; only the calibration binding may be changed
// concurrently and it takes effect at the next BuildEvents call.
type Builder struct {
	config  Configuration
	wiring  *Wiring
	finders FinderConfig
	nextID  uint64

	mu         sync.Mutex
	calibrator Calibrator
}

func NewBuilder(config Configuration, wiring *Wiring) (*Builder, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := wiring.Validate(); err != nil {
		return nil, err
	}
	return &Builder{
		config:  config,
		wiring:  wiring,
		finders: NewFinderConfig(config, wiring),
	}, nil
}

func (b *Builder) SetCalibration(c Calibrator) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calibrator = c
}

func (b *Builder) ClearCalibration() {
	b.SetCalibration(nil)
}

func (b *Builder) calibration() Calibrator {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calibrator == nil {
		return IdentityCalibrator{AsicThreshold: b.config.AsicThreshold, CaenThreshold: b.config.CaenThreshold}
	}
	return b.calibrator
}

type buildState struct {
	counters  Counters
	clocks    *Clocks
	acc       *Accumulator
	asm       *Assembler
	sink      EventSink
	verbosity int
}

func (s *buildState) closeWindow() error {
	w := s.acc.Window()
	if !w.Open() {
		return nil
	}
	event := s.asm.Assemble(w, s.clocks.References())
	if s.verbosity > 1 {
		message := fmt.Sprintf("Closed window [%d, %d] with %d hits", w.TimeMin, w.TimeMax, w.Hits)
		logger.Info(message, "builder")
	}
	w.reset()
	if event == nil {
		return nil
	}
	if err := s.sink.Emit(event); err != nil {
		return &ErrEmit{EventID: event.ID, Err: err}
	}
	return nil
}

// BuildEvents consumes source until the end of the stream, emitting events
// to sink. Cancellation is honoured between windows. On a fatal error the
// open window is flushed before returning.
func (b *Builder) BuildEvents(ctx context.Context, source HitSource, sink EventSink) (Diagnostics, error) {
	state := &buildState{
		clocks:    NewClocks(b.wiring.ArrayModules, b.config.PulseTolerance, b.config.PeriodWeight),
		sink:      sink,
		verbosity: b.config.Verbosity,
	}
	state.acc = NewAccumulator(b.config.BuildWindow, b.wiring, b.calibration(), state.clocks, &state.counters)
	state.acc.verbosity = b.config.Verbosity
	state.asm = NewAssembler(b.finders, &state.counters)
	state.asm.nextID = b.nextID

	buildID := uuid.New()
	var first, last uint64
	seen := false
	diagnostics := func() Diagnostics {
		b.nextID = state.asm.nextID
		return newDiagnostics(buildID, b.config.RunNumber, state.counters, state.clocks, first, last)
	}
	fatal := func(err error) (Diagnostics, error) {
		if flushErr := state.closeWindow(); flushErr != nil {
			err = errors.Join(err, flushErr)
		}
		state.clocks.Finish(last)
		logger.Error(err.Error())
		return diagnostics(), err
	}

	if b.config.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Starting build %s", buildID), "builder")
	}

	for {
		if !state.acc.Open() {
			if err := ctx.Err(); err != nil {
				state.clocks.Finish(last)
				return diagnostics(), err
			}
		}

		hit, err := source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fatal(fmt.Errorf("error reading hit source: %w", err))
		}

		t := hit.Timestamp()
		if seen && t < last {
			return fatal(&ErrTimeOrder{Previous: last, Current: t, Index: state.counters.Hits.Total})
		}
		if !seen {
			first = t
			seen = true
		}
		last = t

		state.counters.Hits.Total++
		switch hit.Kind() {
		case KindAsic:
			state.counters.Hits.Asic++
		case KindCaen:
			state.counters.Hits.Caen++
		case KindInfo:
			state.counters.Hits.Info++
		}
		if b.config.Verbosity > 2 {
			logger.Info(fmt.Sprintf("%v", hit), "builder")
		}

		for {
			decision := state.acc.Absorb(hit)
			if decision == Continue {
				break
			}
			if err := state.closeWindow(); err != nil {
				return fatal(err)
			}
			if decision == Close {
				break
			}
		}

		if state.acc.Open() {
			next, err := source.Peek()
			if err == nil && state.acc.Exceeds(next.Timestamp()) {
				if err := state.closeWindow(); err != nil {
					return fatal(err)
				}
			}
		}
	}

	if err := state.closeWindow(); err != nil {
		return fatal(err)
	}
	state.clocks.Finish(last)

	d := diagnostics()
	if b.config.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Build %s finished: %d hits, %d events", buildID, d.Counters.Hits.Total, d.Counters.Events), "builder")
	}
	if !d.Counters.Hits.Accounted() {
		logger.Error(fmt.Sprintf("build %s: hit counters do not add up to %d", buildID, d.Counters.Hits.Total))
	}
	return d, nil
}
