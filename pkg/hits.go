package eventbuilder

import "fmt"

type HitKind int

const (
	KindAsic HitKind = iota
	KindCaen
	KindInfo
)

func (k HitKind) String() string {
	switch k {
	case KindAsic:
		return "ASIC"
	case KindCaen:
		return "CAEN"
	case KindInfo:
		return "INFO"
	default:
		return "Unknown"
	}
}

// Hit is a single timestamped record of the merged data stream.
// Timestamps are absolute and expressed in nanoseconds.
type Hit interface {
	Timestamp() uint64
	Kind() HitKind
}

// AsicHit is a silicon array channel read out by an ASIC.
type AsicHit struct {
	Module  uint8
	Asic    uint8
	Channel uint8
	Adc     uint16
	Time    uint64
}

func (h AsicHit) Timestamp() uint64 { return h.Time }
func (h AsicHit) Kind() HitKind     { return KindAsic }

func (h AsicHit) String() string {
	return fmt.Sprintf("ASIC mod=%d asic=%d ch=%d adc=%d t=%d", h.Module, h.Asic, h.Channel, h.Adc, h.Time)
}

// CaenHit is a digitiser channel (recoil, MWPC, ELUM, zero degree, scintillators).
type CaenHit struct {
	Module  uint8
	Channel uint8
	Adc     uint16
	Time    uint64
}

func (h CaenHit) Timestamp() uint64 { return h.Time }
func (h CaenHit) Kind() HitKind     { return KindCaen }

func (h CaenHit) String() string {
	return fmt.Sprintf("CAEN mod=%d ch=%d adc=%d t=%d", h.Module, h.Channel, h.Adc, h.Time)
}

type InfoCode uint16

const (
	InfoEbis InfoCode = iota
	InfoT1
	InfoSuperCycle
	InfoLaser
	InfoFpgaPulser
	InfoAsicPause
	InfoAsicResume
	InfoCaenPulser
)

func (c InfoCode) String() string {
	switch c {
	case InfoEbis:
		return "EBIS"
	case InfoT1:
		return "T1"
	case InfoSuperCycle:
		return "SuperCycle"
	case InfoLaser:
		return "Laser"
	case InfoFpgaPulser:
		return "FpgaPulser"
	case InfoAsicPause:
		return "AsicPause"
	case InfoAsicResume:
		return "AsicResume"
	case InfoCaenPulser:
		return "CaenPulser"
	default:
		return "Unknown"
	}
}

// InfoHit carries timing and control signals. Module is only meaningful for
// the per-module codes (FPGA pulser, pause and resume).
type InfoHit struct {
	Code   InfoCode
	Module uint8
	Time   uint64
}

func (h InfoHit) Timestamp() uint64 { return h.Time }
func (h InfoHit) Kind() HitKind     { return KindInfo }

func (h InfoHit) String() string {
	return fmt.Sprintf("INFO %v mod=%d t=%d", h.Code, h.Module, h.Time)
}
