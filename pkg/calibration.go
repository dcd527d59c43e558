package eventbuilder

import "fmt"

// Calibration is the result of calibrating one raw amplitude.
type Calibration struct {
	Energy         float64
	AboveThreshold bool
	Pulser         bool
}

// Calibrator converts raw amplitudes to energies and answers threshold and
// pulser-channel queries. Unknown channels return ErrUnknownChannel.
type Calibrator interface {
	CalibrateAsic(module, asic, channel uint8, adc uint16) (Calibration, error)
	CalibrateCaen(module, channel uint8, adc uint16) (Calibration, error)
}

// IdentityCalibrator is used when no calibration is bound: energy equals the
// raw value and a single raw threshold applies per hit type.
type IdentityCalibrator struct {
	AsicThreshold uint16
	CaenThreshold uint16
}

func (c IdentityCalibrator) CalibrateAsic(module, asic, channel uint8, adc uint16) (Calibration, error) {
	return Calibration{Energy: float64(adc), AboveThreshold: adc > c.AsicThreshold}, nil
}

func (c IdentityCalibrator) CalibrateCaen(module, channel uint8, adc uint16) (Calibration, error) {
	return Calibration{Energy: float64(adc), AboveThreshold: adc > c.CaenThreshold}, nil
}

// Coefficients for one channel: E = Offset + Gain*adc + GainQuadr*adc^2.
type Coefficients struct {
	Offset    float64
	Gain      float64
	GainQuadr float64
	Threshold uint16
	Pulser    bool
}

func (c Coefficients) calibrate(adc uint16) Calibration {
	raw := float64(adc)
	return Calibration{
		Energy:         c.Offset + c.Gain*raw + c.GainQuadr*raw*raw,
		AboveThreshold: adc > c.Threshold,
		Pulser:         c.Pulser,
	}
}

type asicKey struct {
	module  uint8
	asic    uint8
	channel uint8
}

// CoefficientTable is a Calibrator backed by per-channel coefficients,
// loaded from the database or a calibration file.
type CoefficientTable struct {
	asic map[asicKey]Coefficients
	caen map[caenKey]Coefficients
}

func NewCoefficientTable() *CoefficientTable {
	return &CoefficientTable{
		asic: make(map[asicKey]Coefficients),
		caen: make(map[caenKey]Coefficients),
	}
}

func (t *CoefficientTable) SetAsic(module, asic, channel uint8, c Coefficients) {
	t.asic[asicKey{module: module, asic: asic, channel: channel}] = c
}

func (t *CoefficientTable) SetCaen(module, channel uint8, c Coefficients) {
	t.caen[caenKey{module: module, channel: channel}] = c
}

func (t *CoefficientTable) Len() int {
	return len(t.asic) + len(t.caen)
}

func (t *CoefficientTable) CalibrateAsic(module, asic, channel uint8, adc uint16) (Calibration, error) {
	c, ok := t.asic[asicKey{module: module, asic: asic, channel: channel}]
	if !ok {
		return Calibration{}, fmt.Errorf("calibration for module %d asic %d channel %d: %w", module, asic, channel, ErrUnknownChannel)
	}
	return c.calibrate(adc), nil
}

func (t *CoefficientTable) CalibrateCaen(module, channel uint8, adc uint16) (Calibration, error) {
	c, ok := t.caen[caenKey{module: module, channel: channel}]
	if !ok {
		return Calibration{}, fmt.Errorf("calibration for CAEN module %d channel %d: %w", module, channel, ErrUnknownChannel)
	}
	return c.calibrate(adc), nil
}
