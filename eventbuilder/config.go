package main

import (
	"encoding/json"
	"fmt"
	"os"

	eventbuilder "github.com/iss-daq/eventbuilder_go/pkg"
)

func LoadConfiguration(filename string) (eventbuilder.Configuration, error) {
	// Set default values
	config := eventbuilder.DefaultConfiguration()

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
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Max hits: %d", config.MaxHits), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Build window: %d ns", config.BuildWindow), "config")
	logger.Info(fmt.Sprintf("ASIC threshold: %d", config.AsicThreshold), "config")
	logger.Info(fmt.Sprintf("CAEN threshold: %d", config.CaenThreshold), "config")
	logger.Info(fmt.Sprintf("Pulse tolerance: %v", config.PulseTolerance), "config")
	logger.Info(fmt.Sprintf("Period weight: %v", config.PeriodWeight), "config")
	logger.Info(fmt.Sprintf("Addback p/n: %t/%t (window %d ns)", config.AddbackP, config.AddbackN, config.AddbackWindow), "config")
	logger.Info(fmt.Sprintf("p-n prompt window: [%d, %d] ns", config.PNPromptMin, config.PNPromptMax), "config")
	logger.Info(fmt.Sprintf("Array geometry: %t (distance %v mm)", config.ArrayGeometry, config.ArrayDistance), "config")
	logger.Info(fmt.Sprintf("Recoil energy loss layers: %d-%d", config.RecoilELossStart, config.RecoilELossStop), "config")
	logger.Info(fmt.Sprintf("Recoil rest energy layers: %d-%d", config.RecoilERestStart, config.RecoilERestStop), "config")
	logger.Info(fmt.Sprintf("EBIS on/off: %d/%d ns", config.EbisOn, config.EbisOff), "config")
	logger.Info(fmt.Sprintf("T1 window: [%d, %d] ns", config.T1Min, config.T1Max), "config")
	logger.Info(fmt.Sprintf("Array-recoil prompt: %v, random: %v", config.ArrayRecoilPrompt, config.ArrayRecoilRandom), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Local DB: %s", config.LocalDB), "config")
	logger.Info(fmt.Sprintf("Settings file: %s", config.SettingsFile), "config")
	logger.Info(fmt.Sprintf("Calibration file: %s", config.CalibrationFile), "config")
	logger.Info(fmt.Sprintf("No calibration: %t", config.NoCalibration), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Save summary: %t", config.SaveSummary), "config")
}
