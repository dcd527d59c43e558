package main

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	eventbuilder "github.com/iss-daq/eventbuilder_go/pkg"
	"github.com/iss-daq/eventbuilder_go/pkg/logging"
	sqlx "github.com/jmoiron/sqlx"
	"golang.org/x/exp/slices"
)

var dbConn *sqlx.DB
var configuration eventbuilder.Configuration

var logger logging.Logger

func init() {
	logger = logging.New(os.Stdout, os.Stderr)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	workers := flag.Int("workers", 0, "Number of workers, overrides the configuration")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	if *workers > 0 {
		configuration.NumWorkers = *workers
	}
	if err := configuration.Validate(); err != nil {
		message := fmt.Errorf("Invalid configuration: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	if len(configuration.FilesIn) == 0 || len(configuration.ScanWidths) == 0 {
		logger.Error("windowScan needs at least one input file and one scan width")
		os.Exit(1)
	}
	eventbuilder.SetConfiguration(configuration)
	eventbuilder.SetLogger(logger)

	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if !configuration.NoDB {
		var err error
		dbConn, err = eventbuilder.OpenDatabase(configuration)
		if err != nil {
			return fmt.Errorf("Error connection to database: %w", err)
		}
		defer dbConn.Close()
	}

	wiring, calibration, err := eventbuilder.LoadRunTables(dbConn, configuration)
	if err != nil {
		return err
	}

	hits, err := readHits(configuration.FilesIn[0])
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Total hits loaded: %d", len(hits)), "main")

	start := time.Now()
	jobs := make(chan ScanJob, len(configuration.ScanWidths))
	results := make(chan ScanResult, len(configuration.ScanWidths))

	for w := 1; w <= configuration.NumWorkers; w++ {
		go worker(ctx, w, hits, wiring, calibration, jobs, results)
	}
	for _, width := range configuration.ScanWidths {
		jobs <- ScanJob{Width: width}
	}
	close(jobs)

	scanned := make([]ScanResult, 0, len(configuration.ScanWidths))
	for range configuration.ScanWidths {
		scanned = append(scanned, <-results)
	}
	slices.SortFunc(scanned, func(a, b ScanResult) int {
		return cmp.Compare(a.Width, b.Width)
	})

	var errs error
	for _, result := range scanned {
		if result.Err != nil {
			errs = errors.Join(errs, fmt.Errorf("width %d ns: %w", result.Width, result.Err))
			continue
		}
		printResult(result)
	}

	duration := time.Since(start)
	logger.Info(fmt.Sprintf("Total time: %d ms", duration.Milliseconds()), "main")
	return errs
}

// readHits loads a whole hit file so every width is built from the same input.
func readHits(filename string) ([]eventbuilder.Hit, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &eventbuilder.ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	reader := eventbuilder.NewFileReader(file, configuration.MaxHits)
	hits := make([]eventbuilder.Hit, 0)
	for {
		hit, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return hits, nil
		}
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
}

func printResult(r ScanResult) {
	counters := r.Diagnostics.Counters
	fmt.Printf("(width %d ns) Events: %d, empty windows: %d, pause closes: %d\n",
		r.Width, counters.Events, counters.EmptyWindows, counters.PauseCloses)
	fmt.Printf("\tspan mean %.1f ns, std %.1f ns, median %.1f ns, mean multiplicity %.2f\n",
		r.SpanMean, r.SpanStdDev, r.SpanMedian, r.MultMean)
	fmt.Printf("\tarray %d, p-only %d, unpaired %d, recoil %d, incomplete recoil %d\n",
		counters.Finders.Array, counters.Finders.ArrayP, counters.Finders.ArrayUnpaired,
		counters.Finders.Recoil, counters.Finders.RecoilIncomplete)
	fmt.Printf("\ton beam %d, off beam %d, T1 %d, prompt %d, random %d\n",
		r.Coincidence.OnBeam, r.Coincidence.OffBeam, r.Coincidence.T1, r.Coincidence.Prompt, r.Coincidence.Random)
	fmt.Printf("\tTime: %d ms\n", r.Duration.Milliseconds())
}
