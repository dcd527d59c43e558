package eventbuilder

import (
	"errors"
	"fmt"
)

// Decision tells the builder what to do with the window after a hit.
type Decision int

const (
	// Continue: the hit was absorbed or dropped, the window stays as is.
	Continue Decision = iota
	// Close: the window must be closed now, the hit has been handled.
	Close
	// CloseBefore: the hit lies outside the open window. Close the window
	// and submit the same hit again.
	CloseBefore
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "Continue"
	case Close:
		return "Close"
	case CloseBefore:
		return "CloseBefore"
	default:
		return "Unknown"
	}
}

// Accumulator groups time-ordered hits into the current window.
type Accumulator struct {
	width      uint64
	wiring     *Wiring
	calibrator Calibrator
	clocks     *Clocks
	counters   *Counters
	verbosity  int
	window     Window
}

func NewAccumulator(width uint64, wiring *Wiring, calibrator Calibrator, clocks *Clocks, counters *Counters) *Accumulator {
	return &Accumulator{
		width:      width,
		wiring:     wiring,
		calibrator: calibrator,
		clocks:     clocks,
		counters:   counters,
	}
}

func (a *Accumulator) Window() *Window {
	return &a.window
}

func (a *Accumulator) Open() bool {
	return a.window.open
}

// Exceeds reports whether a hit at t would fall outside the open window.
func (a *Accumulator) Exceeds(t uint64) bool {
	return a.window.open && !a.window.contains(t, a.width)
}

func (a *Accumulator) Absorb(hit Hit) Decision {
	switch h := hit.(type) {
	case AsicHit:
		return a.absorbAsic(h)
	case *AsicHit:
		return a.absorbAsic(*h)
	case CaenHit:
		return a.absorbCaen(h)
	case *CaenHit:
		return a.absorbCaen(*h)
	case InfoHit:
		return a.absorbInfo(h)
	case *InfoHit:
		return a.absorbInfo(*h)
	}
	a.counters.Hits.Unidentified++
	return Continue
}

func (a *Accumulator) absorbAsic(h AsicHit) Decision {
	strip, err := a.wiring.LookupStrip(h.Module, h.Asic, h.Channel)
	if err != nil {
		a.unidentified(h, err)
		return Continue
	}
	if a.clocks.IsPaused(h.Module) {
		a.counters.Hits.Paused++
		return Continue
	}
	cal, err := a.calibrator.CalibrateAsic(h.Module, h.Asic, h.Channel, h.Adc)
	if err != nil {
		a.unidentified(h, err)
		return Continue
	}
	if cal.Pulser {
		if err := a.clocks.ObserveAsicPulser(h.Module, h.Time); err != nil {
			a.unidentified(h, err)
			return Continue
		}
		a.counters.Hits.Pulser++
		return Continue
	}
	if a.window.open && !a.window.contains(h.Time, a.width) {
		return CloseBefore
	}
	if !a.window.open {
		if !cal.AboveThreshold {
			a.counters.Hits.BelowThreshold++
			return Continue
		}
		a.window.start(h.Time)
	}
	a.window.addStrip(StripCandidate{
		Strip:          strip,
		Energy:         cal.Energy,
		Time:           h.Time,
		AboveThreshold: cal.AboveThreshold,
	})
	a.counters.Hits.Absorbed++
	return Continue
}

func (a *Accumulator) absorbCaen(h CaenHit) Decision {
	channel, err := a.wiring.LookupCaen(h.Module, h.Channel)
	if err != nil {
		a.unidentified(h, err)
		return Continue
	}
	cal, err := a.calibrator.CalibrateCaen(h.Module, h.Channel, h.Adc)
	if err != nil {
		a.unidentified(h, err)
		return Continue
	}
	if cal.Pulser {
		a.clocks.ObserveCaenPulser(h.Time)
		a.counters.Hits.Pulser++
		return Continue
	}
	if a.window.open && !a.window.contains(h.Time, a.width) {
		return CloseBefore
	}
	if !a.window.open {
		if !cal.AboveThreshold {
			a.counters.Hits.BelowThreshold++
			return Continue
		}
		a.window.start(h.Time)
	}
	a.window.addCaen(CaenCandidate{
		Channel:        channel,
		Adc:            h.Adc,
		Energy:         cal.Energy,
		Time:           h.Time,
		AboveThreshold: cal.AboveThreshold,
	})
	a.counters.Hits.Absorbed++
	return Continue
}

func (a *Accumulator) absorbInfo(h InfoHit) Decision {
	if err := a.clocks.ObserveInfo(h); err != nil {
		a.unidentified(h, err)
		return Continue
	}
	a.counters.Hits.Consumed++
	if h.Code == InfoAsicPause && a.window.open {
		a.counters.PauseCloses++
		return Close
	}
	return Continue
}

func (a *Accumulator) unidentified(h Hit, err error) {
	a.counters.Hits.Unidentified++
	if a.verbosity > 2 && errors.Is(err, ErrUnknownChannel) {
		logger.Info(fmt.Sprintf("Unidentified %v: %v", h, err), "accumulator")
	}
}
