package eventbuilder

import (
	"fmt"
	"math"
)

// PulseTracker follows a periodic pulse in one clock domain. The period is
// an exponential moving average of the in-band intervals; intervals longer
// than the tolerance band are counted as missed pulses.
type PulseTracker struct {
	Last   uint64
	Count  uint64
	Period float64
	Missed uint64
	Early  uint64
	set    bool
}

// Observe records a pulse at t and returns the number of pulses estimated to
// be missing before it.
func (p *PulseTracker) Observe(t uint64, tolerance, weight float64) uint64 {
	p.Count++
	if !p.set {
		p.set = true
		p.Last = t
		return 0
	}
	interval := float64(t - p.Last)
	p.Last = t
	if p.Period == 0 {
		p.Period = interval
		return 0
	}
	ratio := interval / p.Period
	switch {
	case ratio > 1+tolerance:
		missed := uint64(math.Round(ratio)) - 1
		if missed == 0 {
			missed = 1
		}
		p.Missed += missed
		return missed
	case ratio < 1-tolerance:
		p.Early++
		return 0
	}
	p.Period += weight * (interval - p.Period)
	return 0
}

func (p *PulseTracker) Seen() bool {
	return p.set
}

// ModuleClock is the clock state of one array module.
type ModuleClock struct {
	Fpga             PulseTracker
	Asic             PulseTracker
	Paused           bool
	PauseTime        uint64
	DeadTime         uint64
	Pauses           uint64
	Resumes          uint64
	UnmatchedResumes uint64
	RepeatedPauses   uint64
	SyncOffset       int64
	SyncSet          bool
}

func (m *ModuleClock) pause(t uint64) {
	m.Pauses++
	if m.Paused {
		m.RepeatedPauses++
		return
	}
	m.Paused = true
	m.PauseTime = t
}

func (m *ModuleClock) resume(t uint64) {
	m.Resumes++
	if !m.Paused {
		m.UnmatchedResumes++
		return
	}
	m.DeadTime += t - m.PauseTime
	m.Paused = false
}

// Clocks reconciles the FPGA, ASIC and CAEN clock domains and keeps the
// latest beam timing references.
type Clocks struct {
	Modules    []ModuleClock
	Caen       PulseTracker
	Ebis       PulseTracker
	T1         PulseTracker
	SuperCycle PulseTracker
	Laser      PulseTracker

	tolerance float64
	weight    float64
}

func NewClocks(modules int, tolerance, weight float64) *Clocks {
	return &Clocks{
		Modules:   make([]ModuleClock, modules),
		tolerance: tolerance,
		weight:    weight,
	}
}

func (c *Clocks) Module(id uint8) (*ModuleClock, error) {
	if int(id) >= len(c.Modules) {
		return nil, fmt.Errorf("clock for module %d: %w", id, ErrUnknownChannel)
	}
	return &c.Modules[id], nil
}

func (c *Clocks) IsPaused(id uint8) bool {
	m, err := c.Module(id)
	if err != nil {
		return false
	}
	return m.Paused
}

// ObserveInfo applies one INFO record. It returns ErrUnknownChannel for
// per-module codes addressed to a module that does not exist.
func (c *Clocks) ObserveInfo(h InfoHit) error {
	switch h.Code {
	case InfoEbis:
		c.Ebis.Observe(h.Time, c.tolerance, c.weight)
	case InfoT1:
		c.T1.Observe(h.Time, c.tolerance, c.weight)
	case InfoSuperCycle:
		c.SuperCycle.Observe(h.Time, c.tolerance, c.weight)
	case InfoLaser:
		c.Laser.Observe(h.Time, c.tolerance, c.weight)
	case InfoCaenPulser:
		c.Caen.Observe(h.Time, c.tolerance, c.weight)
	case InfoFpgaPulser:
		m, err := c.Module(h.Module)
		if err != nil {
			return err
		}
		m.Fpga.Observe(h.Time, c.tolerance, c.weight)
		if c.Caen.Seen() {
			m.SyncOffset = int64(h.Time) - int64(c.Caen.Last)
			m.SyncSet = true
		}
	case InfoAsicPause:
		m, err := c.Module(h.Module)
		if err != nil {
			return err
		}
		m.pause(h.Time)
	case InfoAsicResume:
		m, err := c.Module(h.Module)
		if err != nil {
			return err
		}
		m.resume(h.Time)
	default:
		return fmt.Errorf("info code %d: %w", h.Code, ErrUnknownChannel)
	}
	return nil
}

func (c *Clocks) ObserveAsicPulser(module uint8, t uint64) error {
	m, err := c.Module(module)
	if err != nil {
		return err
	}
	m.Asic.Observe(t, c.tolerance, c.weight)
	return nil
}

func (c *Clocks) ObserveCaenPulser(t uint64) {
	c.Caen.Observe(t, c.tolerance, c.weight)
}

// Finish closes pause intervals still open at the end of the stream.
func (c *Clocks) Finish(t uint64) {
	for i := range c.Modules {
		m := &c.Modules[i]
		if m.Paused {
			if t > m.PauseTime {
				m.DeadTime += t - m.PauseTime
			}
			m.Paused = false
		}
	}
}

// TimingReferences are the beam timing signals stamped on an event.
type TimingReferences struct {
	Ebis       uint64
	T1         uint64
	SuperCycle uint64
	Laser      uint64
}

func (c *Clocks) References() TimingReferences {
	return TimingReferences{
		Ebis:       c.Ebis.Last,
		T1:         c.T1.Last,
		SuperCycle: c.SuperCycle.Last,
		Laser:      c.Laser.Last,
	}
}
