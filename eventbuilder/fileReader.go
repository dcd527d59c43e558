package main

import (
	"fmt"
	"os"

	eventbuilder "github.com/iss-daq/eventbuilder_go/pkg"
)

// openHitFile opens a hit file and checks that it holds whole records.
func openHitFile(filename string, maxHits int) (*os.File, *eventbuilder.FileReader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, &eventbuilder.ErrOpenFile{Filename: filename, Err: err}
	}
	count, err := countHits(file)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Number of hits in %s: %d", filename, count)
		logger.Info(message, "fileReader")
	}
	return file, eventbuilder.NewFileReader(file, maxHits), nil
}

func countHits(file *os.File) (int64, error) {
	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("error reading file size: %w", err)
	}
	size := info.Size()
	recordSize := int64(eventbuilder.HitRecordSize)
	if size%recordSize != 0 {
		message := fmt.Sprintf("file %s has %d trailing bytes", file.Name(), size%recordSize)
		logger.Error(message)
	}
	return size / recordSize, nil
}
