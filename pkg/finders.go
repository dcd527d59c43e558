package eventbuilder

import (
	"cmp"

	"golang.org/x/exp/slices"
)

// finderOrder is the order in which a closed window is processed.
var finderOrder = [...]DetectorFamily{
	FamilyArray,
	FamilyRecoil,
	FamilyMwpc,
	FamilyElum,
	FamilyZeroDegree,
	FamilyGammaRay,
}

// RecoilConfig holds the inclusive layer ranges of the dE-E telescope.
type RecoilConfig struct {
	ELossStart uint8
	ELossStop  uint8
	ERestStart uint8
	ERestStop  uint8
}

type FinderConfig struct {
	Array  ArrayConfig
	Recoil RecoilConfig
}

func NewFinderConfig(c Configuration, w *Wiring) FinderConfig {
	return FinderConfig{
		Array: ArrayConfig{
			AddbackP:      c.AddbackP,
			AddbackN:      c.AddbackN,
			AddbackWindow: c.AddbackWindow,
			PromptMin:     c.PNPromptMin,
			PromptMax:     c.PNPromptMax,
			Geometry:      c.ArrayGeometry,
			Distance:      c.ArrayDistance,
			StripPitch:    c.ArrayStripPitch,
			StripEdge:     c.ArrayStripEdge,
			RowPitch:      c.ArrayRowPitch,
			Strips:        w.ChannelsPerAsic,
			Rows:          w.ArrayRows,
		},
		Recoil: RecoilConfig{
			ELossStart: uint8(c.RecoilELossStart),
			ELossStop:  uint8(c.RecoilELossStop),
			ERestStart: uint8(c.RecoilERestStart),
			ERestStop:  uint8(c.RecoilERestStop),
		},
	}
}

func aboveThreshold(candidates []CaenCandidate) []CaenCandidate {
	selected := make([]CaenCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.AboveThreshold {
			selected = append(selected, c)
		}
	}
	return selected
}

// byGroupThenEnergy orders candidates by group, highest energy first. Ties
// keep time order.
func byGroupThenEnergy(group func(CaenCandidate) int) func(a, b CaenCandidate) int {
	return func(a, b CaenCandidate) int {
		if c := cmp.Compare(group(a), group(b)); c != 0 {
			return c
		}
		return cmp.Compare(b.Energy, a.Energy)
	}
}

// layerBest keeps the most energetic hit per layer, in layer order.
func layerBest(candidates []CaenCandidate) ([]uint8, []float64, []uint64) {
	slices.SortStableFunc(candidates, byGroupThenEnergy(func(c CaenCandidate) int { return int(c.Channel.Layer) }))
	var layers []uint8
	var energies []float64
	var times []uint64
	for i, c := range candidates {
		if i > 0 && candidates[i-1].Channel.Layer == c.Channel.Layer {
			continue
		}
		layers = append(layers, c.Channel.Layer)
		energies = append(energies, c.Energy)
		times = append(times, c.Time)
	}
	return layers, energies, times
}

// FindRecoil builds one event per sector with a hit in both the energy-loss
// and the rest-energy layer ranges. It also returns the number of sectors
// rejected for missing one of them.
func FindRecoil(candidates []CaenCandidate, cfg RecoilConfig) ([]RecoilEvent, int) {
	selected := aboveThreshold(candidates)
	slices.SortStableFunc(selected, func(a, b CaenCandidate) int {
		return cmp.Compare(a.Channel.Sector, b.Channel.Sector)
	})

	var events []RecoilEvent
	incomplete := 0
	for start := 0; start < len(selected); {
		end := start
		for end < len(selected) && selected[end].Channel.Sector == selected[start].Channel.Sector {
			end++
		}
		layers, energies, times := layerBest(selected[start:end])
		event := RecoilEvent{
			Sector:   selected[start].Channel.Sector,
			Layers:   layers,
			Energies: energies,
			Times:    times,
		}
		var lossTime, restTime uint64
		hasLoss, hasRest := false, false
		for i, l := range layers {
			if l >= cfg.ELossStart && l <= cfg.ELossStop {
				event.EnergyLoss += energies[i]
				if !hasLoss {
					lossTime = times[i]
					hasLoss = true
				}
			}
			if l >= cfg.ERestStart && l <= cfg.ERestStop {
				event.EnergyRest += energies[i]
				if !hasRest {
					restTime = times[i]
					hasRest = true
				}
			}
		}
		start = end
		if !hasLoss || !hasRest {
			incomplete++
			continue
		}
		event.Time = lossTime
		event.TimeDiff = int64(restTime) - int64(lossTime)
		events = append(events, event)
	}
	return events, incomplete
}

// FindMwpc reports the multiplicity of each axis and, for exactly two hits
// from different TACs, the position as the difference of the TAC values.
func FindMwpc(candidates []CaenCandidate) []MwpcEvent {
	selected := aboveThreshold(candidates)
	slices.SortStableFunc(selected, func(a, b CaenCandidate) int {
		if c := cmp.Compare(a.Channel.Axis, b.Channel.Axis); c != 0 {
			return c
		}
		return cmp.Compare(a.Channel.Layer, b.Channel.Layer)
	})

	var events []MwpcEvent
	for start := 0; start < len(selected); {
		end := start
		for end < len(selected) && selected[end].Channel.Axis == selected[start].Channel.Axis {
			end++
		}
		hits := selected[start:end]
		event := MwpcEvent{
			Axis: hits[0].Channel.Axis,
			Mult: len(hits),
			Time: hits[0].Time,
		}
		for _, h := range hits {
			if h.Time < event.Time {
				event.Time = h.Time
			}
		}
		if len(hits) == 2 && hits[0].Channel.Layer != hits[1].Channel.Layer {
			event.Position = int(hits[0].Adc) - int(hits[1].Adc)
			event.HasPosition = true
		}
		events = append(events, event)
		start = end
	}
	return events
}

// FindElum keeps the most energetic hit of each sector.
func FindElum(candidates []CaenCandidate) []ElumEvent {
	selected := aboveThreshold(candidates)
	slices.SortStableFunc(selected, byGroupThenEnergy(func(c CaenCandidate) int { return int(c.Channel.Sector) }))

	var events []ElumEvent
	for start := 0; start < len(selected); {
		end := start
		for end < len(selected) && selected[end].Channel.Sector == selected[start].Channel.Sector {
			end++
		}
		best := selected[start]
		events = append(events, ElumEvent{
			Sector: best.Channel.Sector,
			Energy: best.Energy,
			Time:   best.Time,
			Mult:   end - start,
		})
		start = end
	}
	return events
}

// FindZeroDegree builds a single dE-E event from the most energetic hit of
// each layer. Layer 0 is the energy loss, layer 1 the rest energy.
func FindZeroDegree(candidates []CaenCandidate) []ZeroDegreeEvent {
	selected := aboveThreshold(candidates)
	if len(selected) == 0 {
		return nil
	}
	layers, energies, times := layerBest(selected)
	event := ZeroDegreeEvent{
		Layers:   layers,
		Energies: energies,
		Times:    times,
		Time:     times[0],
	}
	for i, l := range layers {
		switch l {
		case 0:
			event.EnergyLoss = energies[i]
			event.Time = times[i]
		case 1:
			event.EnergyRest = energies[i]
		}
	}
	return []ZeroDegreeEvent{event}
}

// FindGammaRay reports every scintillator hit with its time relative to the
// start of the window.
func FindGammaRay(candidates []CaenCandidate, timeMin uint64) []GammaRayEvent {
	var events []GammaRayEvent
	for _, c := range candidates {
		if !c.AboveThreshold {
			continue
		}
		events = append(events, GammaRayEvent{
			ID:      c.Channel.Layer,
			Energy:  c.Energy,
			Time:    c.Time,
			RelTime: int64(c.Time) - int64(timeMin),
		})
	}
	return events
}
