package eventbuilder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPulseTracker_MissedPulse(t *testing.T) {
	var p PulseTracker

	assert.Equal(t, uint64(0), p.Observe(0, 0.2, 0.1))
	assert.True(t, p.Seen())
	assert.Equal(t, uint64(0), p.Observe(1000, 0.2, 0.1))
	assert.Equal(t, uint64(0), p.Observe(2000, 0.2, 0.1))
	assert.Equal(t, uint64(1), p.Observe(4000, 0.2, 0.1))

	assert.Equal(t, uint64(4), p.Count)
	assert.Equal(t, uint64(1), p.Missed)
	assert.InDelta(t, 1000.0, p.Period, 1e-9)
	assert.Equal(t, uint64(4000), p.Last)
}

func TestPulseTracker_SeveralMissed(t *testing.T) {
	var p PulseTracker
	p.Observe(100, 0.2, 0.1)
	p.Observe(1100, 0.2, 0.1)

	// four periods elapsed, three pulses lost
	assert.Equal(t, uint64(3), p.Observe(5100, 0.2, 0.1))
	assert.Equal(t, uint64(3), p.Missed)
}

func TestPulseTracker_EarlyAndAverage(t *testing.T) {
	var p PulseTracker
	p.Observe(0, 0.2, 0.5)
	p.Observe(1000, 0.2, 0.5)

	t.Run("early pulse leaves the period", func(t *testing.T) {
		p.Observe(1500, 0.2, 0.5)
		assert.Equal(t, uint64(1), p.Early)
		assert.InDelta(t, 1000.0, p.Period, 1e-9)
	})

	t.Run("in band interval is averaged", func(t *testing.T) {
		p.Observe(2600, 0.2, 0.5)
		assert.InDelta(t, 1050.0, p.Period, 1e-9)
		assert.Equal(t, uint64(0), p.Missed)
	})
}

func TestClocks_PauseResume(t *testing.T) {
	c := NewClocks(3, 0.2, 0.1)

	require.NoError(t, c.ObserveInfo(InfoHit{Code: InfoAsicPause, Module: 2, Time: 1000}))
	assert.True(t, c.IsPaused(2))
	assert.False(t, c.IsPaused(1))

	require.NoError(t, c.ObserveInfo(InfoHit{Code: InfoAsicPause, Module: 2, Time: 1200}))
	require.NoError(t, c.ObserveInfo(InfoHit{Code: InfoAsicResume, Module: 2, Time: 2000}))
	assert.False(t, c.IsPaused(2))

	m, err := c.Module(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), m.DeadTime)
	assert.Equal(t, uint64(2), m.Pauses)
	assert.Equal(t, uint64(1), m.RepeatedPauses)
	assert.Equal(t, uint64(1), m.Resumes)

	t.Run("resume without pause", func(t *testing.T) {
		require.NoError(t, c.ObserveInfo(InfoHit{Code: InfoAsicResume, Module: 0, Time: 2500}))
		m, err := c.Module(0)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), m.UnmatchedResumes)
		assert.Equal(t, uint64(0), m.DeadTime)
	})
}

func TestClocks_FinishClosesPause(t *testing.T) {
	c := NewClocks(2, 0.2, 0.1)
	require.NoError(t, c.ObserveInfo(InfoHit{Code: InfoAsicPause, Module: 1, Time: 500}))

	c.Finish(1500)

	assert.False(t, c.IsPaused(1))
	assert.Equal(t, uint64(1000), c.Modules[1].DeadTime)
}

func TestClocks_UnknownModule(t *testing.T) {
	c := NewClocks(3, 0.2, 0.1)

	err := c.ObserveInfo(InfoHit{Code: InfoFpgaPulser, Module: 7, Time: 10})
	assert.True(t, errors.Is(err, ErrUnknownChannel))

	err = c.ObserveAsicPulser(3, 10)
	assert.True(t, errors.Is(err, ErrUnknownChannel))

	err = c.ObserveInfo(InfoHit{Code: InfoCode(99), Time: 10})
	assert.True(t, errors.Is(err, ErrUnknownChannel))

	assert.False(t, c.IsPaused(9))
}

func TestClocks_SyncOffsetAndReferences(t *testing.T) {
	c := NewClocks(1, 0.2, 0.1)

	require.NoError(t, c.ObserveInfo(InfoHit{Code: InfoFpgaPulser, Module: 0, Time: 900}))
	assert.False(t, c.Modules[0].SyncSet)

	c.ObserveCaenPulser(1000)
	require.NoError(t, c.ObserveInfo(InfoHit{Code: InfoFpgaPulser, Module: 0, Time: 1040}))
	assert.True(t, c.Modules[0].SyncSet)
	assert.Equal(t, int64(40), c.Modules[0].SyncOffset)

	require.NoError(t, c.ObserveInfo(InfoHit{Code: InfoEbis, Time: 5000}))
	require.NoError(t, c.ObserveInfo(InfoHit{Code: InfoT1, Time: 6000}))
	refs := c.References()
	assert.Equal(t, uint64(5000), refs.Ebis)
	assert.Equal(t, uint64(6000), refs.T1)
	assert.Equal(t, uint64(0), refs.Laser)
}
