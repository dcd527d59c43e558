package eventbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccumulator(width uint64, threshold uint16) (*Accumulator, *Clocks, *Counters) {
	wiring := DefaultWiring()
	clocks := NewClocks(wiring.ArrayModules, 0.2, 0.1)
	counters := &Counters{}
	cal := IdentityCalibrator{AsicThreshold: threshold, CaenThreshold: threshold}
	return NewAccumulator(width, wiring, cal, clocks, counters), clocks, counters
}

func TestAccumulator_ThresholdOpensWindow(t *testing.T) {
	acc, _, counters := newTestAccumulator(3000, 100)

	assert.Equal(t, Continue, acc.Absorb(AsicHit{Module: 0, Asic: 0, Channel: 1, Adc: 50, Time: 10}))
	assert.False(t, acc.Open())
	assert.Equal(t, uint64(1), counters.Hits.BelowThreshold)

	assert.Equal(t, Continue, acc.Absorb(AsicHit{Module: 0, Asic: 0, Channel: 1, Adc: 500, Time: 20}))
	require.True(t, acc.Open())
	assert.Equal(t, uint64(20), acc.Window().TimeMin)

	t.Run("below threshold joins an open window", func(t *testing.T) {
		assert.Equal(t, Continue, acc.Absorb(AsicHit{Module: 0, Asic: 1, Channel: 1, Adc: 50, Time: 30}))
		assert.Len(t, acc.Window().ArrayN, 1)
		assert.False(t, acc.Window().ArrayN[0].AboveThreshold)
		assert.Equal(t, uint64(2), counters.Hits.Absorbed)
	})
}

func TestAccumulator_WindowBoundary(t *testing.T) {
	acc, _, _ := newTestAccumulator(3000, 0)

	require.Equal(t, Continue, acc.Absorb(AsicHit{Module: 0, Asic: 0, Channel: 1, Adc: 500, Time: 1000}))

	t.Run("hit at exactly the width is inside", func(t *testing.T) {
		assert.False(t, acc.Exceeds(4000))
		assert.Equal(t, Continue, acc.Absorb(CaenHit{Module: 2, Channel: 0, Adc: 200, Time: 4000}))
		assert.Equal(t, uint64(4000), acc.Window().TimeMax)
		assert.Len(t, acc.Window().GammaRay, 1)
	})

	t.Run("hit past the width closes first", func(t *testing.T) {
		assert.True(t, acc.Exceeds(4001))
		assert.Equal(t, CloseBefore, acc.Absorb(AsicHit{Module: 0, Asic: 0, Channel: 2, Adc: 500, Time: 4001}))
		assert.Equal(t, 2, acc.Window().Hits)
	})
}

func TestAccumulator_PauseClosesWindow(t *testing.T) {
	acc, clocks, counters := newTestAccumulator(3000, 0)

	assert.Equal(t, Continue, acc.Absorb(InfoHit{Code: InfoAsicPause, Module: 1, Time: 5}))
	assert.Equal(t, uint64(0), counters.PauseCloses)

	require.Equal(t, Continue, acc.Absorb(AsicHit{Module: 0, Asic: 0, Channel: 1, Adc: 500, Time: 10}))
	assert.Equal(t, Close, acc.Absorb(InfoHit{Code: InfoAsicPause, Module: 0, Time: 20}))
	assert.Equal(t, uint64(1), counters.PauseCloses)
	assert.True(t, clocks.IsPaused(0))
	assert.Equal(t, uint64(2), counters.Hits.Consumed)
}

func TestAccumulator_PausedModuleDropsHits(t *testing.T) {
	acc, _, counters := newTestAccumulator(3000, 0)

	acc.Absorb(InfoHit{Code: InfoAsicPause, Module: 2, Time: 1000})
	assert.Equal(t, Continue, acc.Absorb(AsicHit{Module: 2, Asic: 0, Channel: 1, Adc: 500, Time: 1500}))
	assert.False(t, acc.Open())
	assert.Equal(t, uint64(1), counters.Hits.Paused)

	t.Run("other modules are live", func(t *testing.T) {
		acc.Absorb(AsicHit{Module: 1, Asic: 0, Channel: 1, Adc: 500, Time: 1600})
		assert.True(t, acc.Open())
	})
}

func TestAccumulator_Unidentified(t *testing.T) {
	acc, _, counters := newTestAccumulator(3000, 0)

	acc.Absorb(AsicHit{Module: 9, Asic: 0, Channel: 1, Adc: 500, Time: 1})
	acc.Absorb(AsicHit{Module: 0, Asic: 17, Channel: 1, Adc: 500, Time: 2})
	acc.Absorb(CaenHit{Module: 7, Channel: 30, Adc: 500, Time: 3})
	acc.Absorb(InfoHit{Code: InfoFpgaPulser, Module: 5, Time: 4})

	assert.Equal(t, uint64(4), counters.Hits.Unidentified)
	assert.False(t, acc.Open())
}

func TestAccumulator_PulserChannel(t *testing.T) {
	wiring := DefaultWiring()
	clocks := NewClocks(wiring.ArrayModules, 0.2, 0.1)
	counters := &Counters{}
	table := NewCoefficientTable()
	table.SetAsic(0, 0, 127, Coefficients{Gain: 1, Pulser: true})
	table.SetCaen(1, 15, Coefficients{Gain: 1, Pulser: true})
	wiring.SetCaen(1, 15, CaenChannel{Family: FamilyElum, Sector: 4})
	acc := NewAccumulator(3000, wiring, table, clocks, counters)

	acc.Absorb(AsicHit{Module: 0, Asic: 0, Channel: 127, Adc: 900, Time: 100})
	acc.Absorb(CaenHit{Module: 1, Channel: 15, Adc: 900, Time: 110})

	assert.Equal(t, uint64(2), counters.Hits.Pulser)
	assert.True(t, clocks.Modules[0].Asic.Seen())
	assert.True(t, clocks.Caen.Seen())
	assert.False(t, acc.Open())
}

func TestAccumulator_PulserWithoutModuleClock(t *testing.T) {
	wiring := DefaultWiring()
	clocks := NewClocks(1, 0.2, 0.1)
	counters := &Counters{}
	table := NewCoefficientTable()
	table.SetAsic(2, 0, 127, Coefficients{Gain: 1, Pulser: true})
	acc := NewAccumulator(3000, wiring, table, clocks, counters)

	assert.Equal(t, Continue, acc.Absorb(AsicHit{Module: 2, Asic: 0, Channel: 127, Adc: 900, Time: 100}))

	assert.Equal(t, uint64(0), counters.Hits.Pulser)
	assert.Equal(t, uint64(1), counters.Hits.Unidentified)
	assert.False(t, acc.Open())
}
