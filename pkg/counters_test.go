package eventbuilder

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHitCounters_Accounted(t *testing.T) {
	h := HitCounters{Total: 6, Absorbed: 1, Consumed: 1, Pulser: 1, BelowThreshold: 1, Unidentified: 1, Paused: 1}
	assert.True(t, h.Accounted())

	h.Total++
	assert.False(t, h.Accounted())
}

func TestDiagnostics_Merge(t *testing.T) {
	a := Diagnostics{
		FirstTime: 100,
		LastTime:  200,
		Counters:  Counters{Events: 3, Windows: 4},
		Modules:   []ModuleDiagnostics{{Module: 0, DeadTime: 10, FpgaPulses: 2}},
		Ebis:      1,
	}
	a.Counters.Hits.Total = 10
	b := Diagnostics{
		FirstTime:  50,
		LastTime:   500,
		Counters:   Counters{Events: 2, Windows: 2, EmptyWindows: 1},
		Modules:    []ModuleDiagnostics{{Module: 0, DeadTime: 5, FpgaPulses: 3}, {Module: 1, Pauses: 1}},
		Ebis:       2,
		EbisPeriod: 1000,
	}
	b.Counters.Hits.Total = 7

	a.Merge(b)

	assert.Equal(t, uint64(50), a.FirstTime)
	assert.Equal(t, uint64(500), a.LastTime)
	assert.Equal(t, uint64(17), a.Counters.Hits.Total)
	assert.Equal(t, uint64(5), a.Counters.Events)
	assert.Equal(t, uint64(6), a.Counters.Windows)
	assert.Equal(t, uint64(1), a.Counters.EmptyWindows)
	require.Len(t, a.Modules, 2)
	assert.Equal(t, uint64(15), a.Modules[0].DeadTime)
	assert.Equal(t, uint64(5), a.Modules[0].FpgaPulses)
	assert.Equal(t, 1, a.Modules[1].Module)
	assert.Equal(t, uint64(3), a.Ebis)
	assert.Equal(t, 1000.0, a.EbisPeriod)
}

func TestDiagnostics_Entries(t *testing.T) {
	d := Diagnostics{Modules: []ModuleDiagnostics{{Module: 0}, {Module: 1, Pauses: 4, FpgaEarly: 2}}, CaenEarly: 3}
	d.Counters.Hits.Total = 12

	entries := d.Entries()

	assert.Equal(t, CounterEntry{"hits", 12}, entries[0])
	names := make(map[string]uint64)
	for _, e := range entries {
		assert.LessOrEqual(t, len(e.Name), 32)
		names[e.Name] = e.Value
	}
	assert.Len(t, names, len(entries))
	assert.Equal(t, uint64(4), names["mod1_pauses"])
	assert.Contains(t, names, "mod0_fpga_pulser")
	assert.Equal(t, uint64(2), names["mod1_fpga_early"])
	assert.Contains(t, names, "mod0_asic_early")
	assert.Equal(t, uint64(3), names["caen_pulser_early"])
}

func TestDiagnostics_Summary(t *testing.T) {
	d := Diagnostics{
		BuildID:   uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		RunNumber: 7,
		Modules:   []ModuleDiagnostics{{Module: 2, DeadTime: 1500000, AsicEarly: 4}},
	}
	d.Counters.Hits.Total = 1234567

	summary := d.Summary()

	assert.Contains(t, summary, "Build 00000000-0000-0000-0000-000000000001, run 7")
	assert.Contains(t, summary, "1,234,567")
	assert.Contains(t, summary, "module 2:")
	assert.Contains(t, summary, "dead time 1,500,000 ns")
	assert.Contains(t, summary, "ASIC pulser 0 (missed 0, early 4)")
}

func TestBuilder_Diagnostics(t *testing.T) {
	b := newTestBuilder(t, func(c *Configuration) { c.RunNumber = 12 })

	_, d := build(t, b, []Hit{
		InfoHit{Code: InfoCaenPulser, Time: 1000},
		InfoHit{Code: InfoFpgaPulser, Module: 1, Time: 1010},
		InfoHit{Code: InfoCaenPulser, Time: 2000},
		InfoHit{Code: InfoCaenPulser, Time: 3000},
		InfoHit{Code: InfoFpgaPulser, Module: 1, Time: 3010},
		InfoHit{Code: InfoEbis, Time: 3100},
	})

	assert.Equal(t, 12, d.RunNumber)
	assert.NotEqual(t, uuid.Nil, d.BuildID)
	assert.Equal(t, uint64(3), d.CaenPulses)
	assert.Equal(t, uint64(1), d.Ebis)
	require.Len(t, d.Modules, 3)
	assert.Equal(t, uint64(2), d.Modules[1].FpgaPulses)
	assert.Equal(t, int64(1), d.Modules[1].PulserLoss)
	assert.Equal(t, int64(10), d.Modules[1].SyncOffset)
	assert.Equal(t, int64(0), d.Modules[0].PulserLoss)
}

func TestBuilder_DiagnosticsCountEarlyPulses(t *testing.T) {
	b := newTestBuilder(t, nil)

	_, d := build(t, b, []Hit{
		InfoHit{Code: InfoCaenPulser, Time: 1000},
		InfoHit{Code: InfoFpgaPulser, Module: 0, Time: 1000},
		InfoHit{Code: InfoCaenPulser, Time: 2000},
		InfoHit{Code: InfoFpgaPulser, Module: 0, Time: 2000},
		InfoHit{Code: InfoCaenPulser, Time: 2300},
		InfoHit{Code: InfoFpgaPulser, Module: 0, Time: 2300},
	})

	assert.Equal(t, uint64(1), d.CaenEarly)
	require.Len(t, d.Modules, 3)
	assert.Equal(t, uint64(1), d.Modules[0].FpgaEarly)
	assert.Equal(t, uint64(0), d.Modules[0].FpgaMissed)
	assert.Equal(t, uint64(0), d.Modules[1].FpgaEarly)
}
