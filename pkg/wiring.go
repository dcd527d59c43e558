package eventbuilder

import "fmt"

type Side uint8

const (
	SideP Side = iota
	SideN
)

func (s Side) String() string {
	switch s {
	case SideP:
		return "p"
	case SideN:
		return "n"
	default:
		return "Unknown"
	}
}

// DetectorFamily selects the finder that owns a candidate.
type DetectorFamily int

const (
	FamilyArray DetectorFamily = iota
	FamilyRecoil
	FamilyMwpc
	FamilyElum
	FamilyZeroDegree
	FamilyGammaRay
)

func (f DetectorFamily) String() string {
	switch f {
	case FamilyArray:
		return "Array"
	case FamilyRecoil:
		return "Recoil"
	case FamilyMwpc:
		return "Mwpc"
	case FamilyElum:
		return "Elum"
	case FamilyZeroDegree:
		return "ZeroDegree"
	case FamilyGammaRay:
		return "GammaRay"
	default:
		return "Unknown"
	}
}

func ParseDetectorFamily(name string) (DetectorFamily, error) {
	for f := FamilyArray; f <= FamilyGammaRay; f++ {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown detector family %q", name)
}

type ModuleID uint8

// StripID locates a silicon strip on the array.
type StripID struct {
	Module ModuleID
	Row    uint8
	Side   Side
	Strip  int
}

// CaenChannel maps a digitiser channel to a detector element. Layer is the
// detector layer for recoil and zero degree, the TAC id for MWPC and the
// detector id for the gamma-ray scintillators.
type CaenChannel struct {
	Family DetectorFamily
	Sector uint8
	Layer  uint8
	Axis   uint8
}

type caenKey struct {
	module  uint8
	channel uint8
}

// AsicWiring holds the side and row served by one ASIC and, per channel,
// the row and strip it reads. Unused channels have strip -1.
type AsicWiring struct {
	Side   Side
	Row    uint8
	Rows   []uint8
	Strips []int
}

type Wiring struct {
	ArrayModules    int
	ArrayRows       int
	ChannelsPerAsic int
	Asics           []AsicWiring
	Caen            map[caenKey]CaenChannel
}

var (
	defaultAsicSide = []Side{SideP, SideN, SideP, SideP, SideN, SideP}
	defaultAsicRow  = []uint8{0, 0, 1, 2, 2, 3}
)

// NewArrayWiring builds the ASIC tables for the given side and row layout.
// p-side ASICs read 128 strips of one row; n-side ASICs serve two rows,
// the lower half of the channels belonging to the first one.
func NewArrayWiring(modules int, channels int, sides []Side, rows []uint8) (*Wiring, error) {
	if len(sides) != len(rows) {
		return nil, &ErrWiring{Table: "asic", Reason: fmt.Sprintf("%d sides for %d rows", len(sides), len(rows))}
	}
	w := &Wiring{
		ArrayModules:    modules,
		ChannelsPerAsic: channels,
		Asics:           make([]AsicWiring, len(sides)),
		Caen:            make(map[caenKey]CaenChannel),
	}
	half := channels / 2
	for i := range sides {
		asic := AsicWiring{
			Side:   sides[i],
			Row:    rows[i],
			Rows:   make([]uint8, channels),
			Strips: make([]int, channels),
		}
		for ch := 0; ch < channels; ch++ {
			if sides[i] == SideP {
				asic.Rows[ch] = rows[i]
				asic.Strips[ch] = ch
				continue
			}
			asic.Rows[ch] = rows[i] + uint8(ch/half)
			asic.Strips[ch] = ch % half
		}
		w.Asics[i] = asic
		for _, r := range asic.Rows {
			if int(r)+1 > w.ArrayRows {
				w.ArrayRows = int(r) + 1
			}
		}
	}
	return w, w.Validate()
}

// DefaultWiring returns the ISS layout: three array modules of six ASICs
// with 128 channels, and the standard CAEN assignment.
func DefaultWiring() *Wiring {
	w, err := NewArrayWiring(3, 128, defaultAsicSide, defaultAsicRow)
	if err != nil {
		panic(err)
	}
	// Module 0: recoil, 4 sectors of dE and E
	for ch := 0; ch < 8; ch++ {
		w.SetCaen(0, uint8(ch), CaenChannel{Family: FamilyRecoil, Sector: uint8(ch / 2), Layer: uint8(ch % 2)})
	}
	// Module 1: MWPC TACs, ELUM, zero degree
	for ch := 0; ch < 4; ch++ {
		w.SetCaen(1, uint8(ch), CaenChannel{Family: FamilyMwpc, Axis: uint8(ch / 2), Layer: uint8(ch % 2)})
	}
	for ch := 4; ch < 8; ch++ {
		w.SetCaen(1, uint8(ch), CaenChannel{Family: FamilyElum, Sector: uint8(ch - 4)})
	}
	for ch := 8; ch < 10; ch++ {
		w.SetCaen(1, uint8(ch), CaenChannel{Family: FamilyZeroDegree, Layer: uint8(ch - 8)})
	}
	// Module 2: scintillator array
	for ch := 0; ch < 16; ch++ {
		w.SetCaen(2, uint8(ch), CaenChannel{Family: FamilyGammaRay, Layer: uint8(ch)})
	}
	return w
}

func (w *Wiring) SetCaen(module, channel uint8, c CaenChannel) {
	if w.Caen == nil {
		w.Caen = make(map[caenKey]CaenChannel)
	}
	w.Caen[caenKey{module: module, channel: channel}] = c
}

func (w *Wiring) Validate() error {
	if w == nil {
		return &ErrWiring{Table: "asic", Reason: "no wiring"}
	}
	if w.ArrayModules <= 0 {
		return &ErrWiring{Table: "asic", Reason: "no array modules"}
	}
	if len(w.Asics) == 0 {
		return &ErrWiring{Table: "asic", Reason: "no ASICs"}
	}
	if w.ChannelsPerAsic <= 0 || w.ChannelsPerAsic > 256 {
		return &ErrWiring{Table: "asic", Reason: fmt.Sprintf("invalid channels per ASIC %d", w.ChannelsPerAsic)}
	}
	for i, a := range w.Asics {
		if len(a.Rows) != w.ChannelsPerAsic || len(a.Strips) != w.ChannelsPerAsic {
			return &ErrWiring{Table: "asic", Reason: fmt.Sprintf("ASIC %d has %d/%d channel entries, expected %d", i, len(a.Rows), len(a.Strips), w.ChannelsPerAsic)}
		}
		if a.Side != SideP && a.Side != SideN {
			return &ErrWiring{Table: "asic", Reason: fmt.Sprintf("ASIC %d has invalid side %d", i, a.Side)}
		}
	}
	for key, c := range w.Caen {
		if c.Family == FamilyArray || c.Family > FamilyGammaRay {
			return &ErrWiring{Table: "caen", Reason: fmt.Sprintf("module %d channel %d mapped to %v", key.module, key.channel, c.Family)}
		}
	}
	return nil
}

func (w *Wiring) ValidModule(module uint8) (ModuleID, error) {
	if int(module) >= w.ArrayModules {
		return 0, fmt.Errorf("array module %d: %w", module, ErrUnknownChannel)
	}
	return ModuleID(module), nil
}

// LookupStrip resolves an ASIC channel to its strip.
func (w *Wiring) LookupStrip(module, asic, channel uint8) (StripID, error) {
	mod, err := w.ValidModule(module)
	if err != nil {
		return StripID{}, err
	}
	if int(asic) >= len(w.Asics) {
		return StripID{}, fmt.Errorf("module %d asic %d: %w", module, asic, ErrUnknownChannel)
	}
	a := w.Asics[asic]
	if int(channel) >= len(a.Strips) || a.Strips[channel] < 0 {
		return StripID{}, fmt.Errorf("module %d asic %d channel %d: %w", module, asic, channel, ErrUnknownChannel)
	}
	return StripID{Module: mod, Row: a.Rows[channel], Side: a.Side, Strip: a.Strips[channel]}, nil
}

func (w *Wiring) LookupCaen(module, channel uint8) (CaenChannel, error) {
	c, ok := w.Caen[caenKey{module: module, channel: channel}]
	if !ok {
		return CaenChannel{}, fmt.Errorf("CAEN module %d channel %d: %w", module, channel, ErrUnknownChannel)
	}
	return c, nil
}
