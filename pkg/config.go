package eventbuilder

import (
	"fmt"
	"math"
)

type Configuration struct {
	Verbosity int      `json:"verbosity"`
	FilesIn   []string `json:"files_in"`
	FileOut   string   `json:"file_out"`
	RunNumber int      `json:"run_number"`
	MaxHits   int      `json:"max_hits"`

	// Event building
	BuildWindow    uint64  `json:"build_window"` // ns
	AsicThreshold  uint16  `json:"asic_threshold"`
	CaenThreshold  uint16  `json:"caen_threshold"`
	PulseTolerance float64 `json:"pulse_tolerance"`
	PeriodWeight   float64 `json:"period_weight"`

	// Array finder
	AddbackP        bool    `json:"addback_p"`
	AddbackN        bool    `json:"addback_n"`
	AddbackWindow   uint64  `json:"addback_window"` // ns, 0 disables the time gate
	PNPromptMin     int64   `json:"pn_prompt_min"`
	PNPromptMax     int64   `json:"pn_prompt_max"`
	ArrayGeometry   bool    `json:"array_geometry"`
	ArrayDistance   float64 `json:"array_distance"` // mm
	ArrayStripPitch float64 `json:"array_strip_pitch"`
	ArrayStripEdge  float64 `json:"array_strip_edge"`
	ArrayRowPitch   float64 `json:"array_row_pitch"`

	// Recoil finder layer ranges, inclusive
	RecoilELossStart int `json:"recoil_eloss_start"`
	RecoilELossStop  int `json:"recoil_eloss_stop"`
	RecoilERestStart int `json:"recoil_erest_start"`
	RecoilERestStop  int `json:"recoil_erest_stop"`

	// Coincidence gates, ns
	EbisOn            uint64   `json:"ebis_on"`
	EbisOff           uint64   `json:"ebis_off"`
	T1Min             uint64   `json:"t1_min"`
	T1Max             uint64   `json:"t1_max"`
	ArrayRecoilPrompt [2]int64 `json:"array_recoil_prompt"`
	ArrayRecoilRandom [2]int64 `json:"array_recoil_random"`

	// Wiring and calibration sources
	NoDB            bool   `json:"no_db"`
	Host            string `json:"host"`
	User            string `json:"user"`
	Passwd          string `json:"pass"`
	DBName          string `json:"dbname"`
	LocalDB         string `json:"local_db"`
	SettingsFile    string `json:"settings_file"`
	CalibrationFile string `json:"calibration_file"`
	NoCalibration   bool   `json:"no_calibration"`

	// Output
	WriteData        bool `json:"write_data"`
	CompressionLevel int  `json:"compression_level"`
	SaveSummary      bool `json:"save_summary"`

	// windowScan
	ScanWidths []uint64 `json:"scan_widths"`
	NumWorkers int      `json:"num_workers"`
}

// DefaultConfiguration returns the values used for ISS runs when the
// configuration file does not override them.
func DefaultConfiguration() Configuration {
	return Configuration{
		Verbosity:         0,
		RunNumber:         0,
		MaxHits:           0,
		BuildWindow:       3000,
		AsicThreshold:     0,
		CaenThreshold:     0,
		PulseTolerance:    0.2,
		PeriodWeight:      0.1,
		AddbackP:          false,
		AddbackN:          false,
		AddbackWindow:     0,
		PNPromptMin:       -1000,
		PNPromptMax:       1000,
		ArrayGeometry:     false,
		ArrayDistance:     100.0,
		ArrayStripPitch:   0.953,
		ArrayStripEdge:    1.508,
		ArrayRowPitch:     125.5,
		RecoilELossStart:  0,
		RecoilELossStop:   0,
		RecoilERestStart:  1,
		RecoilERestStop:   1,
		EbisOn:            1200000,
		EbisOff:           25200000,
		T1Min:             0,
		T1Max:             1200000000,
		ArrayRecoilPrompt: [2]int64{-300, 300},
		ArrayRecoilRandom: [2]int64{600, 1200},
		NoDB:              false,
		Host:              "localhost",
		User:              "issreader",
		Passwd:            "readonly",
		DBName:            "ISS",
		NoCalibration:     false,
		WriteData:         true,
		CompressionLevel:  4,
		SaveSummary:       false,
		ScanWidths:        []uint64{500, 1000, 2000, 3000, 5000, 10000},
		NumWorkers:        1,
	}
}

func (c Configuration) Validate() error {
	if c.BuildWindow == 0 {
		return fmt.Errorf("build_window must be positive")
	}
	if c.PulseTolerance <= 0 || c.PulseTolerance >= 1 {
		return fmt.Errorf("pulse_tolerance must be in (0, 1), got %v", c.PulseTolerance)
	}
	if c.PeriodWeight <= 0 || c.PeriodWeight > 1 {
		return fmt.Errorf("period_weight must be in (0, 1], got %v", c.PeriodWeight)
	}
	if c.PNPromptMin > c.PNPromptMax {
		return fmt.Errorf("pn_prompt_min %d greater than pn_prompt_max %d", c.PNPromptMin, c.PNPromptMax)
	}
	if c.RecoilELossStart > c.RecoilELossStop || c.RecoilERestStart > c.RecoilERestStop {
		return fmt.Errorf("recoil layer ranges are inverted")
	}
	if c.RecoilELossStart < 0 || c.RecoilERestStart < 0 {
		return fmt.Errorf("recoil layer ranges must not be negative")
	}
	if c.RecoilELossStop > math.MaxUint8 || c.RecoilERestStop > math.MaxUint8 {
		return fmt.Errorf("recoil layer ranges must not exceed %d", math.MaxUint8)
	}
	if c.EbisOn > c.EbisOff {
		return fmt.Errorf("ebis_on %d greater than ebis_off %d", c.EbisOn, c.EbisOff)
	}
	if c.NumWorkers < 1 {
		return fmt.Errorf("num_workers must be at least 1")
	}
	return nil
}

var configuration = DefaultConfiguration()

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
