package main

import (
	"encoding/json"
	"fmt"
	"os"

	eventbuilder "github.com/iss-daq/eventbuilder_go/pkg"
)

func LoadConfiguration(filename string) (eventbuilder.Configuration, error) {
	config := eventbuilder.DefaultConfiguration()
	// The scan never writes events
	config.WriteData = false

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func printConfiguration(config eventbuilder.Configuration, logger eventbuilder.Logger) {
	logger.Info(fmt.Sprintf("Files in: %v", config.FilesIn), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Max hits: %d", config.MaxHits), "config")
	logger.Info(fmt.Sprintf("Scan widths: %v ns", config.ScanWidths), "config")
	logger.Info(fmt.Sprintf("Workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Local DB: %s", config.LocalDB), "config")
}
