package eventbuilder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const wiringYAML = `
array_modules: 1
channels: 8
asic_side: [p, N]
asic_row: [0, 0]
caen:
  - module: 0
    channel: 0
    family: Mwpc
    axis: 1
  - module: 2
    channel: 4
    channels: 3
    family: GammaRay
    layer: 10
`

func TestLoadWiringFile(t *testing.T) {
	wiring, err := LoadWiringFile(writeFile(t, "wiring.yaml", wiringYAML))
	require.NoError(t, err)

	assert.Equal(t, 1, wiring.ArrayModules)
	assert.Equal(t, 2, wiring.ArrayRows)

	s, err := wiring.LookupStrip(0, 1, 6)
	require.NoError(t, err)
	assert.Equal(t, StripID{Module: 0, Row: 1, Side: SideN, Strip: 2}, s)

	c, err := wiring.LookupCaen(0, 0)
	require.NoError(t, err)
	assert.Equal(t, CaenChannel{Family: FamilyMwpc, Axis: 1}, c)

	for ch, layer := range map[uint8]uint8{4: 10, 5: 11, 6: 12} {
		c, err := wiring.LookupCaen(2, ch)
		require.NoError(t, err)
		assert.Equal(t, layer, c.Layer)
	}
	_, err = wiring.LookupCaen(2, 7)
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestLoadWiringFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadWiringFile(filepath.Join(t.TempDir(), "none.yaml"))
		var openErr *ErrOpenFile
		assert.True(t, errors.As(err, &openErr))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadWiringFile(writeFile(t, "w.yaml", "array_modules: 1\nmodules: 3\n"))
		assert.Error(t, err)
	})

	t.Run("bad side", func(t *testing.T) {
		_, err := LoadWiringFile(writeFile(t, "w.yaml", "array_modules: 1\nchannels: 8\nasic_side: [x]\nasic_row: [0]\n"))
		var wiringErr *ErrWiring
		require.True(t, errors.As(err, &wiringErr))
		assert.Equal(t, "asic_side", wiringErr.Table)
	})

	t.Run("sides and rows differ", func(t *testing.T) {
		_, err := LoadWiringFile(writeFile(t, "w.yaml", "array_modules: 1\nchannels: 8\nasic_side: [p, n]\nasic_row: [0]\n"))
		var wiringErr *ErrWiring
		assert.True(t, errors.As(err, &wiringErr))
	})
}

const calibrationYAML = `
asic:
  - module: 0
    asic: 0
    channel: 0
    channels: 4
    offset: 1.0
    gain: 2.0
    threshold: 50
  - module: 0
    asic: 0
    channel: 127
    gain: 1.0
    pulser: true
caen:
  - module: 1
    channel: 8
    gain: 0.5
    gain_quadr: 0.01
`

func TestLoadCalibrationFile(t *testing.T) {
	table, err := LoadCalibrationFile(writeFile(t, "cal.yaml", calibrationYAML))
	require.NoError(t, err)
	assert.Equal(t, 6, table.Len())

	cal, err := table.CalibrateAsic(0, 0, 3, 40)
	require.NoError(t, err)
	assert.InDelta(t, 81.0, cal.Energy, 1e-9)
	assert.False(t, cal.AboveThreshold)

	_, err = table.CalibrateAsic(0, 0, 4, 40)
	assert.ErrorIs(t, err, ErrUnknownChannel)

	cal, err = table.CalibrateAsic(0, 0, 127, 40)
	require.NoError(t, err)
	assert.True(t, cal.Pulser)

	cal, err = table.CalibrateCaen(1, 8, 100)
	require.NoError(t, err)
	assert.InDelta(t, 150.0, cal.Energy, 1e-9)
}

func TestLoadRunTables_Files(t *testing.T) {
	config := DefaultConfiguration()
	config.NoDB = true
	config.SettingsFile = writeFile(t, "wiring.yaml", wiringYAML)
	config.CalibrationFile = writeFile(t, "cal.yaml", calibrationYAML)

	wiring, cal, err := LoadRunTables(nil, config)
	require.NoError(t, err)
	assert.Equal(t, 1, wiring.ArrayModules)
	require.NotNil(t, cal)

	config.CalibrationFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err = LoadRunTables(nil, config)
	assert.Error(t, err)
}
