package main

import (
	"context"
	"testing"

	eventbuilder "github.com/iss-daq/eventbuilder_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	mean, std, median := summarize(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
	assert.Zero(t, median)

	mean, std, median = summarize([]float64{5})
	assert.Equal(t, 5.0, mean)
	assert.Zero(t, std)
	assert.Equal(t, 5.0, median)

	mean, _, median = summarize([]float64{9, 1, 5})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.Equal(t, 5.0, median)
}

func TestScanWidth(t *testing.T) {
	configuration = eventbuilder.DefaultConfiguration()
	hits := []eventbuilder.Hit{
		eventbuilder.AsicHit{Module: 0, Asic: 0, Channel: 10, Adc: 500, Time: 100},
		eventbuilder.AsicHit{Module: 0, Asic: 1, Channel: 5, Adc: 480, Time: 105},
		eventbuilder.AsicHit{Module: 0, Asic: 0, Channel: 12, Adc: 500, Time: 1500},
	}

	narrow := scanWidth(context.Background(), 1000, hits, eventbuilder.DefaultWiring(), nil)
	require.NoError(t, narrow.Err)
	assert.Equal(t, uint64(2), narrow.Diagnostics.Counters.Events)
	assert.InDelta(t, 2.5, narrow.SpanMean, 1e-9)

	wide := scanWidth(context.Background(), 3000, hits, eventbuilder.DefaultWiring(), nil)
	require.NoError(t, wide.Err)
	assert.Equal(t, uint64(1), wide.Diagnostics.Counters.Events)
	assert.Equal(t, 1400.0, wide.SpanMedian)
}

func TestWorkerPool(t *testing.T) {
	configuration = eventbuilder.DefaultConfiguration()
	hits := []eventbuilder.Hit{
		eventbuilder.AsicHit{Module: 0, Asic: 0, Channel: 10, Adc: 500, Time: 100},
	}
	widths := []uint64{500, 1000, 2000}
	jobs := make(chan ScanJob, len(widths))
	results := make(chan ScanResult, len(widths))

	for w := 1; w <= 2; w++ {
		go worker(context.Background(), w, hits, eventbuilder.DefaultWiring(), nil, jobs, results)
	}
	for _, width := range widths {
		jobs <- ScanJob{Width: width}
	}
	close(jobs)

	seen := make(map[uint64]bool)
	for range widths {
		r := <-results
		require.NoError(t, r.Err)
		assert.Equal(t, uint64(1), r.Diagnostics.Counters.Events)
		seen[r.Width] = true
	}
	assert.Len(t, seen, len(widths))
}
