package eventbuilder

import (
	"cmp"

	"golang.org/x/exp/slices"
)

type ArrayConfig struct {
	AddbackP      bool
	AddbackN      bool
	AddbackWindow uint64
	PromptMin     int64
	PromptMax     int64

	Geometry   bool
	Distance   float64
	StripPitch float64
	StripEdge  float64
	RowPitch   float64
	Strips     int
	Rows       int
}

type ArrayResult struct {
	Events   []ArrayEvent
	PEvents  []ArrayPEvent
	Mult     []ArrayMult
	Unpaired int
}

// stripCluster keeps the strip and time of its most energetic member.
// edgeTime is the time of the last strip merged, which gates the next one.
type stripCluster struct {
	strip    StripID
	edge     int
	edgeTime uint64
	energy   float64
	peak     float64
	time     uint64
	mult     int
}

func compareStrips(a, b StripCandidate) int {
	if c := cmp.Compare(a.Strip.Module, b.Strip.Module); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Strip.Row, b.Strip.Row); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Strip.Strip, b.Strip.Strip); c != 0 {
		return c
	}
	return cmp.Compare(a.Time, b.Time)
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

// clusterStrips turns the candidates of one side into clusters. With
// addback, neighbouring strips of the same wafer are merged when each lies
// within window of the strip before it. The cluster takes the strip and time
// of its most energetic member.
func clusterStrips(candidates []StripCandidate, addback bool, window uint64) []stripCluster {
	selected := make([]StripCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.AboveThreshold {
			selected = append(selected, c)
		}
	}
	slices.SortStableFunc(selected, compareStrips)

	clusters := make([]stripCluster, 0, len(selected))
	for _, c := range selected {
		if addback && len(clusters) > 0 {
			last := &clusters[len(clusters)-1]
			neighbour := last.strip.Module == c.Strip.Module && last.strip.Row == c.Strip.Row && c.Strip.Strip-last.edge == 1
			inTime := window == 0 || absDiff(c.Time, last.edgeTime) <= window
			if neighbour && inTime {
				last.energy += c.Energy
				last.edge = c.Strip.Strip
				last.edgeTime = c.Time
				last.mult++
				if c.Energy > last.peak {
					last.peak = c.Energy
					last.strip = c.Strip
					last.time = c.Time
				}
				continue
			}
		}
		clusters = append(clusters, stripCluster{
			strip:    c.Strip,
			edge:     c.Strip.Strip,
			edgeTime: c.Time,
			energy:   c.Energy,
			peak:     c.Energy,
			time:     c.Time,
			mult:     1,
		})
	}
	return clusters
}

// moduleMults counts clusters per module and side, ordered by module.
func moduleMults(p, n []stripCluster) []ArrayMult {
	var mults []ArrayMult
	find := func(module ModuleID) *ArrayMult {
		i, found := slices.BinarySearchFunc(mults, module, func(m ArrayMult, target ModuleID) int {
			return cmp.Compare(m.Module, target)
		})
		if !found {
			mults = slices.Insert(mults, i, ArrayMult{Module: module})
		}
		return &mults[i]
	}
	for _, c := range p {
		find(c.strip.Module).P++
	}
	for _, c := range n {
		find(c.strip.Module).N++
	}
	return mults
}

// position returns the z coordinate of a p-side strip along the beam axis.
func (cfg ArrayConfig) position(row uint8, strip int) float64 {
	d := float64(cfg.Strips-strip) * cfg.StripPitch
	d += cfg.StripEdge
	d += cfg.RowPitch * float64(cfg.Rows-1-int(row))
	return cfg.Distance - d
}

// FindArray pairs p-side and n-side clusters of the same wafer. Every
// combination is reported; p-side clusters are also reported on their own.
func FindArray(p, n []StripCandidate, cfg ArrayConfig) ArrayResult {
	pClusters := clusterStrips(p, cfg.AddbackP, cfg.AddbackWindow)
	nClusters := clusterStrips(n, cfg.AddbackN, cfg.AddbackWindow)

	result := ArrayResult{Mult: moduleMults(pClusters, nClusters)}
	for _, pc := range pClusters {
		var z float64
		if cfg.Geometry {
			z = cfg.position(pc.strip.Row, pc.strip.Strip)
		}
		result.PEvents = append(result.PEvents, ArrayPEvent{
			Module: pc.strip.Module,
			Row:    pc.strip.Row,
			Strip:  pc.strip.Strip,
			Energy: pc.energy,
			Time:   pc.time,
			Mult:   pc.mult,
			Z:      z,
		})
		paired := false
		for _, nc := range nClusters {
			if nc.strip.Module != pc.strip.Module || nc.strip.Row != pc.strip.Row {
				continue
			}
			paired = true
			td := int64(nc.time) - int64(pc.time)
			result.Events = append(result.Events, ArrayEvent{
				Module:   pc.strip.Module,
				Row:      pc.strip.Row,
				PStrip:   pc.strip.Strip,
				NStrip:   nc.strip.Strip,
				PEnergy:  pc.energy,
				NEnergy:  nc.energy,
				PTime:    pc.time,
				NTime:    nc.time,
				TimeDiff: td,
				PMult:    pc.mult,
				NMult:    nc.mult,
				Prompt:   td >= cfg.PromptMin && td <= cfg.PromptMax,
				Z:        z,
			})
		}
		if !paired {
			result.Unpaired++
		}
	}
	return result
}
