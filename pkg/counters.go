package eventbuilder

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// HitCounters account for every hit read from the source. Every hit ends in
// exactly one of Absorbed, Consumed, Pulser, BelowThreshold, Unidentified or
// Paused.
type HitCounters struct {
	Total uint64
	Asic  uint64
	Caen  uint64
	Info  uint64

	Absorbed       uint64
	Consumed       uint64
	Pulser         uint64
	BelowThreshold uint64
	Unidentified   uint64
	Paused         uint64
}

func (h HitCounters) Accounted() bool {
	return h.Total == h.Absorbed+h.Consumed+h.Pulser+h.BelowThreshold+h.Unidentified+h.Paused
}

type FinderCounters struct {
	Array      uint64
	ArrayP     uint64
	Recoil     uint64
	Mwpc       uint64
	Elum       uint64
	ZeroDegree uint64
	GammaRay   uint64

	// candidates dropped by a finder rule
	ArrayUnpaired    uint64
	RecoilIncomplete uint64
}

type Counters struct {
	Hits         HitCounters
	Finders      FinderCounters
	Windows      uint64
	Events       uint64
	EmptyWindows uint64
	PauseCloses  uint64
}

// ModuleDiagnostics is the clock summary of one array module.
type ModuleDiagnostics struct {
	Module           int
	FpgaPulses       uint64
	FpgaMissed       uint64
	FpgaEarly        uint64
	FpgaPeriod       float64
	AsicPulses       uint64
	AsicMissed       uint64
	AsicEarly        uint64
	AsicPeriod       float64
	PulserLoss       int64
	SyncOffset       int64
	DeadTime         uint64
	Pauses           uint64
	Resumes          uint64
	UnmatchedResumes uint64
}

// Diagnostics is the end-of-file snapshot returned by BuildEvents.
type Diagnostics struct {
	BuildID    uuid.UUID
	RunNumber  int
	FirstTime  uint64
	LastTime   uint64
	Counters   Counters
	Modules    []ModuleDiagnostics
	CaenPulses uint64
	CaenMissed uint64
	CaenEarly  uint64
	Ebis       uint64
	T1         uint64
	SuperCycle uint64
	Laser      uint64
	EbisPeriod float64
}

func newDiagnostics(id uuid.UUID, run int, counters Counters, clocks *Clocks, first, last uint64) Diagnostics {
	d := Diagnostics{
		BuildID:    id,
		RunNumber:  run,
		FirstTime:  first,
		LastTime:   last,
		Counters:   counters,
		Modules:    make([]ModuleDiagnostics, len(clocks.Modules)),
		CaenPulses: clocks.Caen.Count,
		CaenMissed: clocks.Caen.Missed,
		CaenEarly:  clocks.Caen.Early,
		Ebis:       clocks.Ebis.Count,
		T1:         clocks.T1.Count,
		SuperCycle: clocks.SuperCycle.Count,
		Laser:      clocks.Laser.Count,
		EbisPeriod: clocks.Ebis.Period,
	}
	for i, m := range clocks.Modules {
		d.Modules[i] = ModuleDiagnostics{
			Module:           i,
			FpgaPulses:       m.Fpga.Count,
			FpgaMissed:       m.Fpga.Missed,
			FpgaEarly:        m.Fpga.Early,
			FpgaPeriod:       m.Fpga.Period,
			AsicPulses:       m.Asic.Count,
			AsicMissed:       m.Asic.Missed,
			AsicEarly:        m.Asic.Early,
			AsicPeriod:       m.Asic.Period,
			SyncOffset:       m.SyncOffset,
			DeadTime:         m.DeadTime,
			Pauses:           m.Pauses,
			Resumes:          m.Resumes,
			UnmatchedResumes: m.UnmatchedResumes,
		}
		if m.Fpga.Count > 0 && clocks.Caen.Count > 0 {
			d.Modules[i].PulserLoss = int64(clocks.Caen.Count) - int64(m.Fpga.Count)
		}
	}
	return d
}

// Merge accumulates the counters of another file of the same run.
func (d *Diagnostics) Merge(o Diagnostics) {
	c, oc := &d.Counters, o.Counters
	c.Hits.Total += oc.Hits.Total
	c.Hits.Asic += oc.Hits.Asic
	c.Hits.Caen += oc.Hits.Caen
	c.Hits.Info += oc.Hits.Info
	c.Hits.Absorbed += oc.Hits.Absorbed
	c.Hits.Consumed += oc.Hits.Consumed
	c.Hits.Pulser += oc.Hits.Pulser
	c.Hits.BelowThreshold += oc.Hits.BelowThreshold
	c.Hits.Unidentified += oc.Hits.Unidentified
	c.Hits.Paused += oc.Hits.Paused
	c.Finders.Array += oc.Finders.Array
	c.Finders.ArrayP += oc.Finders.ArrayP
	c.Finders.Recoil += oc.Finders.Recoil
	c.Finders.Mwpc += oc.Finders.Mwpc
	c.Finders.Elum += oc.Finders.Elum
	c.Finders.ZeroDegree += oc.Finders.ZeroDegree
	c.Finders.GammaRay += oc.Finders.GammaRay
	c.Finders.ArrayUnpaired += oc.Finders.ArrayUnpaired
	c.Finders.RecoilIncomplete += oc.Finders.RecoilIncomplete
	c.Windows += oc.Windows
	c.Events += oc.Events
	c.EmptyWindows += oc.EmptyWindows
	c.PauseCloses += oc.PauseCloses

	if d.FirstTime == 0 || (o.FirstTime != 0 && o.FirstTime < d.FirstTime) {
		d.FirstTime = o.FirstTime
	}
	if o.LastTime > d.LastTime {
		d.LastTime = o.LastTime
	}
	if len(d.Modules) < len(o.Modules) {
		d.Modules = append(d.Modules, make([]ModuleDiagnostics, len(o.Modules)-len(d.Modules))...)
	}
	for i, m := range o.Modules {
		dm := &d.Modules[i]
		dm.Module = m.Module
		dm.FpgaPulses += m.FpgaPulses
		dm.FpgaMissed += m.FpgaMissed
		dm.FpgaEarly += m.FpgaEarly
		dm.AsicPulses += m.AsicPulses
		dm.AsicMissed += m.AsicMissed
		dm.AsicEarly += m.AsicEarly
		dm.PulserLoss += m.PulserLoss
		dm.DeadTime += m.DeadTime
		dm.Pauses += m.Pauses
		dm.Resumes += m.Resumes
		dm.UnmatchedResumes += m.UnmatchedResumes
		dm.FpgaPeriod = m.FpgaPeriod
		dm.AsicPeriod = m.AsicPeriod
		dm.SyncOffset = m.SyncOffset
	}
	d.CaenPulses += o.CaenPulses
	d.CaenMissed += o.CaenMissed
	d.CaenEarly += o.CaenEarly
	d.Ebis += o.Ebis
	d.T1 += o.T1
	d.SuperCycle += o.SuperCycle
	d.Laser += o.Laser
	if o.EbisPeriod != 0 {
		d.EbisPeriod = o.EbisPeriod
	}
}

// Entries flattens the counters into named values, in a fixed order.
func (d Diagnostics) Entries() []CounterEntry {
	c := d.Counters
	entries := []CounterEntry{
		{"hits", c.Hits.Total},
		{"asic_hits", c.Hits.Asic},
		{"caen_hits", c.Hits.Caen},
		{"info_hits", c.Hits.Info},
		{"absorbed", c.Hits.Absorbed},
		{"info_consumed", c.Hits.Consumed},
		{"pulser", c.Hits.Pulser},
		{"below_threshold", c.Hits.BelowThreshold},
		{"unidentified", c.Hits.Unidentified},
		{"paused", c.Hits.Paused},
		{"windows", c.Windows},
		{"events", c.Events},
		{"empty_windows", c.EmptyWindows},
		{"pause_closes", c.PauseCloses},
		{"array", c.Finders.Array},
		{"array_p", c.Finders.ArrayP},
		{"array_unpaired", c.Finders.ArrayUnpaired},
		{"recoil", c.Finders.Recoil},
		{"recoil_incomplete", c.Finders.RecoilIncomplete},
		{"mwpc", c.Finders.Mwpc},
		{"elum", c.Finders.Elum},
		{"zero_degree", c.Finders.ZeroDegree},
		{"gamma_ray", c.Finders.GammaRay},
		{"caen_pulser", d.CaenPulses},
		{"caen_pulser_missed", d.CaenMissed},
		{"caen_pulser_early", d.CaenEarly},
		{"ebis", d.Ebis},
		{"t1", d.T1},
		{"super_cycle", d.SuperCycle},
		{"laser", d.Laser},
	}
	for _, m := range d.Modules {
		prefix := fmt.Sprintf("mod%d_", m.Module)
		entries = append(entries,
			CounterEntry{prefix + "fpga_pulser", m.FpgaPulses},
			CounterEntry{prefix + "fpga_missed", m.FpgaMissed},
			CounterEntry{prefix + "fpga_early", m.FpgaEarly},
			CounterEntry{prefix + "asic_pulser", m.AsicPulses},
			CounterEntry{prefix + "asic_missed", m.AsicMissed},
			CounterEntry{prefix + "asic_early", m.AsicEarly},
			CounterEntry{prefix + "pauses", m.Pauses},
			CounterEntry{prefix + "resumes", m.Resumes},
			CounterEntry{prefix + "dead_time", m.DeadTime},
		)
	}
	return entries
}

type CounterEntry struct {
	Name  string
	Value uint64
}

// Summary renders the diagnostics as the end-of-run report.
func (d Diagnostics) Summary() string {
	p := message.NewPrinter(language.English)
	c := d.Counters
	var b strings.Builder
	p.Fprintf(&b, "Build %s, run %d\n", d.BuildID, d.RunNumber)
	p.Fprintf(&b, "  hits:            %d (ASIC %d, CAEN %d, INFO %d)\n", c.Hits.Total, c.Hits.Asic, c.Hits.Caen, c.Hits.Info)
	p.Fprintf(&b, "  absorbed:        %d\n", c.Hits.Absorbed)
	p.Fprintf(&b, "  info consumed:   %d\n", c.Hits.Consumed)
	p.Fprintf(&b, "  pulser:          %d\n", c.Hits.Pulser)
	p.Fprintf(&b, "  below threshold: %d\n", c.Hits.BelowThreshold)
	p.Fprintf(&b, "  unidentified:    %d\n", c.Hits.Unidentified)
	p.Fprintf(&b, "  paused:          %d\n", c.Hits.Paused)
	p.Fprintf(&b, "  windows:         %d (%d empty, %d closed by pause)\n", c.Windows, c.EmptyWindows, c.PauseCloses)
	p.Fprintf(&b, "  events:          %d\n", c.Events)
	p.Fprintf(&b, "  array %d, array p-only %d, recoil %d, mwpc %d, elum %d, zero degree %d, gamma %d\n",
		c.Finders.Array, c.Finders.ArrayP, c.Finders.Recoil, c.Finders.Mwpc, c.Finders.Elum, c.Finders.ZeroDegree, c.Finders.GammaRay)
	p.Fprintf(&b, "  EBIS %d, T1 %d, SuperCycle %d, Laser %d, CAEN pulser %d (missed %d, early %d)\n",
		d.Ebis, d.T1, d.SuperCycle, d.Laser, d.CaenPulses, d.CaenMissed, d.CaenEarly)
	for _, m := range d.Modules {
		p.Fprintf(&b, "  module %d: FPGA pulser %d (missed %d, early %d, loss %d), ASIC pulser %d (missed %d, early %d), dead time %d ns, sync %d ns\n",
			m.Module, m.FpgaPulses, m.FpgaMissed, m.FpgaEarly, m.PulserLoss, m.AsicPulses, m.AsicMissed, m.AsicEarly, m.DeadTime, m.SyncOffset)
	}
	return b.String()
}
