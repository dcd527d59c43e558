package eventbuilder

// ArrayEvent is a p-side and n-side strip pair of the same wafer.
type ArrayEvent struct {
	Module   ModuleID
	Row      uint8
	PStrip   int
	NStrip   int
	PEnergy  float64
	NEnergy  float64
	PTime    uint64
	NTime    uint64
	TimeDiff int64 // n-side time minus p-side time
	PMult    int   // strips merged by addback
	NMult    int
	Prompt   bool
	Z        float64
}

func (e ArrayEvent) Energy() float64 { return e.PEnergy }
func (e ArrayEvent) Time() uint64    { return e.PTime }

// ArrayPEvent is a p-side cluster regardless of the n side.
type ArrayPEvent struct {
	Module ModuleID
	Row    uint8
	Strip  int
	Energy float64
	Time   uint64
	Mult   int
	Z      float64
}

// ArrayMult is the number of clusters one module saw on each side.
type ArrayMult struct {
	Module ModuleID
	P      int
	N      int
}

type RecoilEvent struct {
	Sector     uint8
	Layers     []uint8
	Energies   []float64
	Times      []uint64
	EnergyLoss float64
	EnergyRest float64
	Time       uint64 // first energy-loss layer
	TimeDiff   int64  // rest layer time minus loss layer time
}

// Energy returns the energy deposited in layer, or 0 without a hit there.
func (e RecoilEvent) Energy(layer uint8) float64 {
	for i, l := range e.Layers {
		if l == layer {
			return e.Energies[i]
		}
	}
	return 0
}

type MwpcEvent struct {
	Axis        uint8
	Mult        int
	Position    int
	HasPosition bool
	Time        uint64
}

type ElumEvent struct {
	Sector uint8
	Energy float64
	Time   uint64
	Mult   int
}

type ZeroDegreeEvent struct {
	Layers     []uint8
	Energies   []float64
	Times      []uint64
	EnergyLoss float64
	EnergyRest float64
	Time       uint64
}

type GammaRayEvent struct {
	ID      uint8
	Energy  float64
	Time    uint64
	RelTime int64 // time relative to the window start
}

// PhysicsEvent is one closed window after all finders ran. It shares no
// memory with the builder once emitted.
type PhysicsEvent struct {
	ID         uint64
	TimeMin    uint64
	TimeMax    uint64
	Array      []ArrayEvent
	ArrayP     []ArrayPEvent
	ArrayMult  []ArrayMult
	Recoil     []RecoilEvent
	Mwpc       []MwpcEvent
	Elum       []ElumEvent
	ZeroDegree []ZeroDegreeEvent
	GammaRay   []GammaRayEvent

	Ebis       uint64
	T1         uint64
	SuperCycle uint64
	Laser      uint64
}

func (e *PhysicsEvent) Empty() bool {
	return len(e.Array) == 0 && len(e.ArrayP) == 0 && len(e.Recoil) == 0 && len(e.Mwpc) == 0 &&
		len(e.Elum) == 0 && len(e.ZeroDegree) == 0 && len(e.GammaRay) == 0
}

// EventSink receives events in the order they are built.
type EventSink interface {
	Emit(event *PhysicsEvent) error
}

// EventCollector keeps emitted events in memory.
type EventCollector struct {
	Events []*PhysicsEvent
}

func (c *EventCollector) Emit(event *PhysicsEvent) error {
	c.Events = append(c.Events, event)
	return nil
}
