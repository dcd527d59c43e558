package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	eventbuilder "github.com/iss-daq/eventbuilder_go/pkg"
	"github.com/iss-daq/eventbuilder_go/pkg/logging"
	"github.com/iss-daq/eventbuilder_go/pkg/writer"
	sqlx "github.com/jmoiron/sqlx"
)

var dbConn *sqlx.DB
var configuration eventbuilder.Configuration

var logger logging.Logger

func init() {
	logger = logging.New(os.Stdout, os.Stderr)
}

// discardSink drops events when no output is written.
type discardSink struct{}

func (discardSink) Emit(*eventbuilder.PhysicsEvent) error { return nil }

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	if err := configuration.Validate(); err != nil {
		message := fmt.Errorf("Invalid configuration: %w", err)
		logger.Error(message.Error())
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

func run(ctx context.Context) (err error) {
	start := time.Now()

	if !configuration.NoDB {
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
	builder, err := eventbuilder.NewBuilder(configuration, wiring)
	if err != nil {
		return fmt.Errorf("error creating event builder: %w", err)
	}
	if calibration != nil {
		builder.SetCalibration(calibration)
	} else if configuration.Verbosity > 0 {
		logger.Info("No calibration bound, using raw values", "main")
	}

	var sink eventbuilder.EventSink = discardSink{}
	var out *writer.Writer
	if configuration.WriteData {
		out, err = writer.NewWriter(configuration.FileOut, configuration.CompressionLevel)
		if err != nil {
			return fmt.Errorf("error creating output file: %w", err)
		}
		defer func() {
			if closeErr := out.Close(); closeErr != nil {
				err = errors.Join(err, closeErr)
			}
		}()
		sink = out
	}

	var total eventbuilder.Diagnostics
	for i, filename := range configuration.FilesIn {
		diagnostics, buildErr := buildFile(ctx, builder, filename, sink)
		if i == 0 {
			total = diagnostics
		} else {
			total.Merge(diagnostics)
		}
		if buildErr != nil {
			err = fmt.Errorf("error building %s: %w", filename, buildErr)
			break
		}
	}

	if out != nil {
		if writeErr := out.WriteRunInfo(configuration.RunNumber, total.BuildID); writeErr != nil {
			err = errors.Join(err, writeErr)
		}
		if writeErr := out.WriteDiagnostics(total); writeErr != nil {
			err = errors.Join(err, writeErr)
		}
	}

	for _, line := range strings.Split(strings.TrimRight(total.Summary(), "\n"), "\n") {
		logger.Info(line, "summary")
	}

	if configuration.SaveSummary && dbConn != nil {
		if saveErr := eventbuilder.SaveSummary(dbConn, total); saveErr != nil {
			err = errors.Join(err, fmt.Errorf("error saving summary: %w", saveErr))
		}
	}

	duration := time.Since(start)
	logger.Info(fmt.Sprintf("Total time: %d ms", duration.Milliseconds()), "main")
	return err
}

func buildFile(ctx context.Context, builder *eventbuilder.Builder, filename string, sink eventbuilder.EventSink) (eventbuilder.Diagnostics, error) {
	file, reader, err := openHitFile(filename, configuration.MaxHits)
	if err != nil {
		return eventbuilder.Diagnostics{}, err
	}
	defer file.Close()

	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Building events from %s", filename), "main")
	}
	return builder.BuildEvents(ctx, reader, sink)
}
