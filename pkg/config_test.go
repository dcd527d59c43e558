package eventbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfiguration_Validate(t *testing.T) {
	require.NoError(t, DefaultConfiguration().Validate())

	tests := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"zero window", func(c *Configuration) { c.BuildWindow = 0 }},
		{"pulse tolerance", func(c *Configuration) { c.PulseTolerance = 1 }},
		{"period weight", func(c *Configuration) { c.PeriodWeight = 0 }},
		{"pn prompt", func(c *Configuration) { c.PNPromptMin, c.PNPromptMax = 10, -10 }},
		{"inverted recoil range", func(c *Configuration) { c.RecoilERestStart, c.RecoilERestStop = 2, 1 }},
		{"negative recoil range", func(c *Configuration) { c.RecoilELossStart = -1 }},
		{"recoil rest beyond layers", func(c *Configuration) { c.RecoilERestStart, c.RecoilERestStop = 256, 257 }},
		{"recoil loss beyond layers", func(c *Configuration) { c.RecoilELossStop = 300 }},
		{"ebis gate", func(c *Configuration) { c.EbisOn, c.EbisOff = 10, 5 }},
		{"workers", func(c *Configuration) { c.NumWorkers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfiguration()
			tt.mutate(&config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestConfiguration_ValidateAcceptsLastLayer(t *testing.T) {
	config := DefaultConfiguration()
	config.RecoilERestStart = 255
	config.RecoilERestStop = 255
	assert.NoError(t, config.Validate())
}

func TestNewBuilder_RejectsRecoilLayerOverflow(t *testing.T) {
	config := DefaultConfiguration()
	config.RecoilERestStart = 256
	config.RecoilERestStop = 257

	_, err := NewBuilder(config, DefaultWiring())
	assert.ErrorContains(t, err, "recoil layer ranges")
}
