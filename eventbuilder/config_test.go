package main

import (
	"os"
	"path/filepath"
	"testing"

	eventbuilder "github.com/iss-daq/eventbuilder_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"files_in": ["run_0042_000.hits", "run_0042_001.hits"],
		"file_out": "run_0042.h5",
		"run_number": 42,
		"build_window": 5000,
		"addback_p": true,
		"array_recoil_prompt": [-200, 200],
		"no_db": true
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfiguration(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"run_0042_000.hits", "run_0042_001.hits"}, config.FilesIn)
	assert.Equal(t, 42, config.RunNumber)
	assert.Equal(t, uint64(5000), config.BuildWindow)
	assert.True(t, config.AddbackP)
	assert.Equal(t, [2]int64{-200, 200}, config.ArrayRecoilPrompt)
	assert.True(t, config.NoDB)

	// untouched values keep their defaults
	defaults := eventbuilder.DefaultConfiguration()
	assert.Equal(t, defaults.PulseTolerance, config.PulseTolerance)
	assert.Equal(t, defaults.ArrayRecoilRandom, config.ArrayRecoilRandom)
	assert.Equal(t, defaults.Host, config.Host)
	assert.NoError(t, config.Validate())
}

func TestLoadConfiguration_Errors(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = LoadConfiguration(path)
	assert.Error(t, err)
}

func TestCountHits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.hits")
	file, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, eventbuilder.WriteHitRecord(file, eventbuilder.AsicHit{Time: uint64(i)}))
	}
	require.NoError(t, file.Close())

	file, reader, err := openHitFile(path, 0)
	require.NoError(t, err)
	defer file.Close()

	count, err := countHits(file)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	hit, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), hit.Timestamp())
}
