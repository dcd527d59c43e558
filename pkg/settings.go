package eventbuilder

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WiringFile is the YAML form of the wiring tables, used when running
// without a database.
type WiringFile struct {
	ArrayModules int               `yaml:"array_modules"`
	Channels     int               `yaml:"channels"`
	AsicSide     []string          `yaml:"asic_side"`
	AsicRow      []uint8           `yaml:"asic_row"`
	Caen         []CaenWiringEntry `yaml:"caen"`
}

type CaenWiringEntry struct {
	Module   uint8  `yaml:"module"`
	Channel  uint8  `yaml:"channel"`
	Channels uint8  `yaml:"channels"` // consecutive channels sharing the entry
	Family   string `yaml:"family"`
	Sector   uint8  `yaml:"sector"`
	Layer    uint8  `yaml:"layer"`
	Axis     uint8  `yaml:"axis"`
}

// CalibrationFile is the YAML form of the calibration coefficients.
type CalibrationFile struct {
	Asic []AsicCalibrationEntry `yaml:"asic"`
	Caen []CaenCalibrationEntry `yaml:"caen"`
}

type AsicCalibrationEntry struct {
	Module    uint8   `yaml:"module"`
	Asic      uint8   `yaml:"asic"`
	Channel   uint8   `yaml:"channel"`
	Channels  int     `yaml:"channels"`
	Offset    float64 `yaml:"offset"`
	Gain      float64 `yaml:"gain"`
	GainQuadr float64 `yaml:"gain_quadr"`
	Threshold uint16  `yaml:"threshold"`
	Pulser    bool    `yaml:"pulser"`
}

type CaenCalibrationEntry struct {
	Module    uint8   `yaml:"module"`
	Channel   uint8   `yaml:"channel"`
	Offset    float64 `yaml:"offset"`
	Gain      float64 `yaml:"gain"`
	GainQuadr float64 `yaml:"gain_quadr"`
	Threshold uint16  `yaml:"threshold"`
	Pulser    bool    `yaml:"pulser"`
}

func decodeYAML(filename string, out any) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return &ErrOpenFile{Filename: filename, Err: err}
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return nil
}

func parseSide(s string) (Side, error) {
	switch s {
	case "p", "P":
		return SideP, nil
	case "n", "N":
		return SideN, nil
	}
	return 0, fmt.Errorf("invalid side %q", s)
}

func (f WiringFile) Wiring() (*Wiring, error) {
	sides := make([]Side, len(f.AsicSide))
	for i, s := range f.AsicSide {
		side, err := parseSide(s)
		if err != nil {
			return nil, &ErrWiring{Table: "asic_side", Reason: err.Error()}
		}
		sides[i] = side
	}
	wiring, err := NewArrayWiring(f.ArrayModules, f.Channels, sides, f.AsicRow)
	if err != nil {
		return nil, err
	}
	for _, entry := range f.Caen {
		family, err := ParseDetectorFamily(entry.Family)
		if err != nil {
			return nil, &ErrWiring{Table: "caen", Reason: err.Error()}
		}
		n := int(entry.Channels)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			wiring.SetCaen(entry.Module, entry.Channel+uint8(i), CaenChannel{
				Family: family,
				Sector: entry.Sector,
				Layer:  entry.Layer + uint8(i),
				Axis:   entry.Axis,
			})
		}
	}
	return wiring, wiring.Validate()
}

func LoadWiringFile(filename string) (*Wiring, error) {
	var f WiringFile
	if err := decodeYAML(filename, &f); err != nil {
		return nil, err
	}
	return f.Wiring()
}

func (f CalibrationFile) Table() *CoefficientTable {
	table := NewCoefficientTable()
	for _, e := range f.Asic {
		n := e.Channels
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			table.SetAsic(e.Module, e.Asic, e.Channel+uint8(i), Coefficients{
				Offset:    e.Offset,
				Gain:      e.Gain,
				GainQuadr: e.GainQuadr,
				Threshold: e.Threshold,
				Pulser:    e.Pulser,
			})
		}
	}
	for _, e := range f.Caen {
		table.SetCaen(e.Module, e.Channel, Coefficients{
			Offset:    e.Offset,
			Gain:      e.Gain,
			GainQuadr: e.GainQuadr,
			Threshold: e.Threshold,
			Pulser:    e.Pulser,
		})
	}
	return table
}

func LoadCalibrationFile(filename string) (*CoefficientTable, error) {
	var f CalibrationFile
	if err := decodeYAML(filename, &f); err != nil {
		return nil, err
	}
	return f.Table(), nil
}
