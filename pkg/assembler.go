package eventbuilder

// Assembler runs the finders over a closed window and stamps the result
// with the timing references captured at close time.
type Assembler struct {
	config   FinderConfig
	counters *Counters
	nextID   uint64
}

func NewAssembler(config FinderConfig, counters *Counters) *Assembler {
	return &Assembler{config: config, counters: counters}
}

// Assemble returns nil when no finder produced a sub-event.
func (a *Assembler) Assemble(w *Window, refs TimingReferences) *PhysicsEvent {
	a.counters.Windows++
	event := &PhysicsEvent{
		TimeMin:    w.TimeMin,
		TimeMax:    w.TimeMax,
		Ebis:       refs.Ebis,
		T1:         refs.T1,
		SuperCycle: refs.SuperCycle,
		Laser:      refs.Laser,
	}
	for _, family := range finderOrder {
		switch family {
		case FamilyArray:
			result := FindArray(w.ArrayP, w.ArrayN, a.config.Array)
			event.Array = result.Events
			event.ArrayP = result.PEvents
			event.ArrayMult = result.Mult
			a.counters.Finders.Array += uint64(len(result.Events))
			a.counters.Finders.ArrayP += uint64(len(result.PEvents))
			a.counters.Finders.ArrayUnpaired += uint64(result.Unpaired)
		case FamilyRecoil:
			events, incomplete := FindRecoil(w.Recoil, a.config.Recoil)
			event.Recoil = events
			a.counters.Finders.Recoil += uint64(len(events))
			a.counters.Finders.RecoilIncomplete += uint64(incomplete)
		case FamilyMwpc:
			event.Mwpc = FindMwpc(w.Mwpc)
			a.counters.Finders.Mwpc += uint64(len(event.Mwpc))
		case FamilyElum:
			event.Elum = FindElum(w.Elum)
			a.counters.Finders.Elum += uint64(len(event.Elum))
		case FamilyZeroDegree:
			event.ZeroDegree = FindZeroDegree(w.ZeroDegree)
			a.counters.Finders.ZeroDegree += uint64(len(event.ZeroDegree))
		case FamilyGammaRay:
			event.GammaRay = FindGammaRay(w.GammaRay, w.TimeMin)
			a.counters.Finders.GammaRay += uint64(len(event.GammaRay))
		}
	}
	if event.Empty() {
		a.counters.EmptyWindows++
		return nil
	}
	event.ID = a.nextID
	a.nextID++
	a.counters.Events++
	return event
}
