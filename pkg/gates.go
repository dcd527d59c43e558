package eventbuilder

// Gates classifies built events against the beam timing and the
// array-recoil coincidence windows.
type Gates struct {
	EbisOn  uint64
	EbisOff uint64
	T1Min   uint64
	T1Max   uint64
	Prompt  [2]int64
	Random  [2]int64
}

func NewGates(c Configuration) Gates {
	return Gates{
		EbisOn:  c.EbisOn,
		EbisOff: c.EbisOff,
		T1Min:   c.T1Min,
		T1Max:   c.T1Max,
		Prompt:  c.ArrayRecoilPrompt,
		Random:  c.ArrayRecoilRandom,
	}
}

func sinceReference(t, reference uint64) (uint64, bool) {
	if reference == 0 || t < reference {
		return 0, false
	}
	return t - reference, true
}

// OnBeam reports whether t falls in the EBIS extraction window.
func (g Gates) OnBeam(t, ebis uint64) bool {
	dt, ok := sinceReference(t, ebis)
	return ok && dt < g.EbisOn
}

// OffBeam reports whether t falls in the background window after extraction.
func (g Gates) OffBeam(t, ebis uint64) bool {
	dt, ok := sinceReference(t, ebis)
	return ok && dt >= g.EbisOn && dt < g.EbisOff
}

// FillRatio scales off-beam counts for background subtraction.
func (g Gates) FillRatio() float64 {
	if g.EbisOff == 0 {
		return 0
	}
	return float64(g.EbisOn) / float64(g.EbisOff)
}

func (g Gates) T1Cut(t, t1 uint64) bool {
	dt, ok := sinceReference(t, t1)
	return ok && dt >= g.T1Min && dt < g.T1Max
}

func (g Gates) PromptCoincidence(recoilTime, arrayTime uint64) bool {
	td := int64(recoilTime) - int64(arrayTime)
	return td >= g.Prompt[0] && td <= g.Prompt[1]
}

func (g Gates) RandomCoincidence(recoilTime, arrayTime uint64) bool {
	td := int64(recoilTime) - int64(arrayTime)
	return td >= g.Random[0] && td <= g.Random[1]
}

// ClosestRecoil returns the index of the recoil closest in time to t, or -1.
func ClosestRecoil(recoils []RecoilEvent, t uint64) int {
	best := -1
	var bestDiff uint64
	for i, r := range recoils {
		diff := absDiff(r.Time, t)
		if best < 0 || diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	return best
}

// CoincidenceCounts tallies array events against the beam and recoil gates.
type CoincidenceCounts struct {
	Array   uint64
	OnBeam  uint64
	OffBeam uint64
	T1      uint64
	Prompt  uint64
	Random  uint64
}

func (g Gates) Count(counts *CoincidenceCounts, event *PhysicsEvent) {
	for _, a := range event.Array {
		counts.Array++
		switch {
		case g.OnBeam(a.Time(), event.Ebis):
			counts.OnBeam++
			if g.T1Cut(a.Time(), event.T1) {
				counts.T1++
			}
		case g.OffBeam(a.Time(), event.Ebis):
			counts.OffBeam++
		}
		idx := ClosestRecoil(event.Recoil, a.Time())
		if idx < 0 {
			continue
		}
		recoil := event.Recoil[idx]
		if g.PromptCoincidence(recoil.Time, a.Time()) {
			counts.Prompt++
		} else if g.RandomCoincidence(recoil.Time, a.Time()) {
			counts.Random++
		}
	}
}
