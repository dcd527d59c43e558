package eventbuilder

// StripCandidate is an array hit held by an open window.
type StripCandidate struct {
	Strip          StripID
	Energy         float64
	Time           uint64
	AboveThreshold bool
}

// CaenCandidate is a digitiser hit held by an open window.
type CaenCandidate struct {
	Channel        CaenChannel
	Adc            uint16
	Energy         float64
	Time           uint64
	AboveThreshold bool
}

// Window is the set of hits currently being grouped into one event. It is
// owned by the accumulator and reused: reset truncates the lists in place.
type Window struct {
	TimeMin uint64
	TimeMax uint64
	Hits    int

	ArrayP     []StripCandidate
	ArrayN     []StripCandidate
	Recoil     []CaenCandidate
	Mwpc       []CaenCandidate
	Elum       []CaenCandidate
	ZeroDegree []CaenCandidate
	GammaRay   []CaenCandidate

	open bool
}

func (w *Window) Open() bool {
	return w.open
}

func (w *Window) start(t uint64) {
	w.open = true
	w.TimeMin = t
	w.TimeMax = t
}

// contains reports whether t falls within width of the window start.
func (w *Window) contains(t uint64, width uint64) bool {
	return t >= w.TimeMin && t-w.TimeMin <= width
}

func (w *Window) addStrip(c StripCandidate) {
	if c.Strip.Side == SideP {
		w.ArrayP = append(w.ArrayP, c)
	} else {
		w.ArrayN = append(w.ArrayN, c)
	}
	w.touch(c.Time)
}

func (w *Window) addCaen(c CaenCandidate) {
	switch c.Channel.Family {
	case FamilyRecoil:
		w.Recoil = append(w.Recoil, c)
	case FamilyMwpc:
		w.Mwpc = append(w.Mwpc, c)
	case FamilyElum:
		w.Elum = append(w.Elum, c)
	case FamilyZeroDegree:
		w.ZeroDegree = append(w.ZeroDegree, c)
	case FamilyGammaRay:
		w.GammaRay = append(w.GammaRay, c)
	}
	w.touch(c.Time)
}

func (w *Window) touch(t uint64) {
	w.Hits++
	if t > w.TimeMax {
		w.TimeMax = t
	}
}

func (w *Window) reset() {
	w.open = false
	w.TimeMin = 0
	w.TimeMax = 0
	w.Hits = 0
	w.ArrayP = w.ArrayP[:0]
	w.ArrayN = w.ArrayN[:0]
	w.Recoil = w.Recoil[:0]
	w.Mwpc = w.Mwpc[:0]
	w.Elum = w.Elum[:0]
	w.ZeroDegree = w.ZeroDegree[:0]
	w.GammaRay = w.GammaRay[:0]
}
