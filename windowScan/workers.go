package main

import (
	"context"
	"fmt"
	"time"

	eventbuilder "github.com/iss-daq/eventbuilder_go/pkg"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
)

type ScanJob struct {
	Width uint64
}

type ScanResult struct {
	Width       uint64
	Diagnostics eventbuilder.Diagnostics
	Coincidence eventbuilder.CoincidenceCounts
	SpanMean    float64
	SpanStdDev  float64
	SpanMedian  float64
	MultMean    float64
	Duration    time.Duration
	Err         error
}

// scanSink keeps per-event statistics instead of the events.
type scanSink struct {
	gates  eventbuilder.Gates
	spans  []float64
	mults  []float64
	counts eventbuilder.CoincidenceCounts
}

func (s *scanSink) Emit(event *eventbuilder.PhysicsEvent) error {
	s.spans = append(s.spans, float64(event.TimeMax-event.TimeMin))
	mult := len(event.Array) + len(event.Recoil) + len(event.Mwpc) + len(event.Elum) + len(event.ZeroDegree) + len(event.GammaRay)
	s.mults = append(s.mults, float64(mult))
	s.gates.Count(&s.counts, event)
	return nil
}

func worker(ctx context.Context, id int, hits []eventbuilder.Hit, wiring *eventbuilder.Wiring, calibration eventbuilder.Calibrator,
	jobs <-chan ScanJob, results chan<- ScanResult) {
	for job := range jobs {
		if configuration.Verbosity > 0 {
			logger.Info(fmt.Sprintf("Worker %d scanning width %d ns", id, job.Width), "worker")
		}
		results <- scanWidth(ctx, job.Width, hits, wiring, calibration)
	}
}

func scanWidth(ctx context.Context, width uint64, hits []eventbuilder.Hit, wiring *eventbuilder.Wiring, calibration eventbuilder.Calibrator) ScanResult {
	start := time.Now()
	result := ScanResult{Width: width}

	config := configuration
	config.BuildWindow = width
	builder, err := eventbuilder.NewBuilder(config, wiring)
	if err != nil {
		result.Err = err
		return result
	}
	if calibration != nil {
		builder.SetCalibration(calibration)
	}

	sink := &scanSink{gates: eventbuilder.NewGates(config)}
	result.Diagnostics, result.Err = builder.BuildEvents(ctx, eventbuilder.NewSliceSource(hits), sink)
	result.Coincidence = sink.counts
	result.SpanMean, result.SpanStdDev, result.SpanMedian = summarize(sink.spans)
	result.MultMean, _, _ = summarize(sink.mults)
	result.Duration = time.Since(start)
	return result
}

// summarize returns mean, standard deviation and median; it sorts values.
func summarize(values []float64) (float64, float64, float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	slices.Sort(values)
	median := stat.Quantile(0.5, stat.Empirical, values, nil)
	return mean, std, median
}
