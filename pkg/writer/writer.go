package writer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	eventbuilder "github.com/iss-daq/eventbuilder_go/pkg"
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type EventHDF5 struct {
	evt_number  uint64
	time_min    uint64
	time_max    uint64
	ebis        uint64
	t1          uint64
	super_cycle uint64
	laser       uint64
}

type RunInfoHDF5 struct {
	run_number int32
	build_id   [36]byte
}

type ArrayHDF5 struct {
	evt_number uint64
	module     int32
	row        int32
	pstrip     int32
	nstrip     int32
	pmult      int32
	nmult      int32
	prompt     int32
	penergy    float64
	nenergy    float64
	ptime      uint64
	ntime      uint64
	td         int64
	z          float64
}

type ArrayPHDF5 struct {
	evt_number uint64
	module     int32
	row        int32
	strip      int32
	mult       int32
	energy     float64
	time       uint64
	z          float64
}

type ArrayMultHDF5 struct {
	evt_number uint64
	module     int32
	pmult      int32
	nmult      int32
}

type RecoilHDF5 struct {
	evt_number uint64
	sector     int32
	nlayers    int32
	eloss      float64
	erest      float64
	time       uint64
	td         int64
}

type MwpcHDF5 struct {
	evt_number   uint64
	axis         int32
	mult         int32
	position     int32
	has_position int32
	time         uint64
}

type ElumHDF5 struct {
	evt_number uint64
	sector     int32
	mult       int32
	energy     float64
	time       uint64
}

type ZeroDegreeHDF5 struct {
	evt_number uint64
	eloss      float64
	erest      float64
	time       uint64
}

type GammaRayHDF5 struct {
	evt_number uint64
	id         int32
	energy     float64
	time       uint64
	reltime    int64
}

type CounterHDF5 struct {
	name  [STRLEN]byte
	value uint64
}

// Writer stores built events in an HDF5 file, one table per detector with
// the event number as the join key.
type Writer struct {
	File     *hdf5.File
	Filename string
	groups   []*hdf5.Group
	tables   []*table

	EventTable      *table
	RunInfoTable    *table
	ArrayTable      *table
	ArrayPTable     *table
	ArrayMultTable  *table
	RecoilTable     *table
	MwpcTable       *table
	ElumTable       *table
	ZeroDegreeTable *table
	GammaRayTable   *table
	CountersTable   *table
	EvtCounter      int
}

func NewWriter(filename string, compression int) (*Writer, error) {
	// Set string size for HDF5
	hdf5.SetStringLength(STRLEN)

	file, err := openFile(filename)
	if err != nil {
		return nil, err
	}
	w := &Writer{File: file, Filename: filename}

	layout := []struct {
		group  string
		name   string
		target **table
		row    interface{}
	}{
		{"Run", "events", &w.EventTable, EventHDF5{}},
		{"Run", "runInfo", &w.RunInfoTable, RunInfoHDF5{}},
		{"Array", "pn", &w.ArrayTable, ArrayHDF5{}},
		{"Array", "p", &w.ArrayPTable, ArrayPHDF5{}},
		{"Array", "mult", &w.ArrayMultTable, ArrayMultHDF5{}},
		{"Recoil", "events", &w.RecoilTable, RecoilHDF5{}},
		{"Mwpc", "events", &w.MwpcTable, MwpcHDF5{}},
		{"Elum", "events", &w.ElumTable, ElumHDF5{}},
		{"ZeroDegree", "events", &w.ZeroDegreeTable, ZeroDegreeHDF5{}},
		{"GammaRay", "events", &w.GammaRayTable, GammaRayHDF5{}},
		{"Diagnostics", "counters", &w.CountersTable, CounterHDF5{}},
	}
	groups := make(map[string]*hdf5.Group)
	for _, entry := range layout {
		group, ok := groups[entry.group]
		if !ok {
			group, err = createGroup(w.File, entry.group)
			if err != nil {
				return nil, errors.Join(err, w.Close())
			}
			groups[entry.group] = group
			w.groups = append(w.groups, group)
		}
		t, err := createTable(group, entry.name, entry.row, compression)
		if err != nil {
			return nil, errors.Join(err, w.Close())
		}
		*entry.target = t
		w.tables = append(w.tables, t)
	}
	return w, nil
}

func (w *Writer) WriteRunInfo(runNumber int, buildID uuid.UUID) error {
	info := RunInfoHDF5{run_number: int32(runNumber)}
	copy(info.build_id[:], buildID.String())
	return appendRow(w.RunInfoTable, info)
}

// Emit implements eventbuilder.EventSink.
func (w *Writer) Emit(event *eventbuilder.PhysicsEvent) error {
	evt := event.ID
	err := appendRow(w.EventTable, EventHDF5{
		evt_number:  evt,
		time_min:    event.TimeMin,
		time_max:    event.TimeMax,
		ebis:        event.Ebis,
		t1:          event.T1,
		super_cycle: event.SuperCycle,
		laser:       event.Laser,
	})
	if err != nil {
		return err
	}

	// The arrays MUST be allocated at creation, HDF5 reads them by offset
	array := make([]ArrayHDF5, len(event.Array))
	for i, a := range event.Array {
		array[i] = ArrayHDF5{
			evt_number: evt,
			module:     int32(a.Module),
			row:        int32(a.Row),
			pstrip:     int32(a.PStrip),
			nstrip:     int32(a.NStrip),
			pmult:      int32(a.PMult),
			nmult:      int32(a.NMult),
			prompt:     boolToInt32(a.Prompt),
			penergy:    a.PEnergy,
			nenergy:    a.NEnergy,
			ptime:      a.PTime,
			ntime:      a.NTime,
			td:         a.TimeDiff,
			z:          a.Z,
		}
	}
	arrayP := make([]ArrayPHDF5, len(event.ArrayP))
	for i, a := range event.ArrayP {
		arrayP[i] = ArrayPHDF5{
			evt_number: evt,
			module:     int32(a.Module),
			row:        int32(a.Row),
			strip:      int32(a.Strip),
			mult:       int32(a.Mult),
			energy:     a.Energy,
			time:       a.Time,
			z:          a.Z,
		}
	}
	arrayMult := make([]ArrayMultHDF5, len(event.ArrayMult))
	for i, m := range event.ArrayMult {
		arrayMult[i] = ArrayMultHDF5{
			evt_number: evt,
			module:     int32(m.Module),
			pmult:      int32(m.P),
			nmult:      int32(m.N),
		}
	}
	recoil := make([]RecoilHDF5, len(event.Recoil))
	for i, r := range event.Recoil {
		recoil[i] = RecoilHDF5{
			evt_number: evt,
			sector:     int32(r.Sector),
			nlayers:    int32(len(r.Layers)),
			eloss:      r.EnergyLoss,
			erest:      r.EnergyRest,
			time:       r.Time,
			td:         r.TimeDiff,
		}
	}
	mwpc := make([]MwpcHDF5, len(event.Mwpc))
	for i, m := range event.Mwpc {
		mwpc[i] = MwpcHDF5{
			evt_number:   evt,
			axis:         int32(m.Axis),
			mult:         int32(m.Mult),
			position:     int32(m.Position),
			has_position: boolToInt32(m.HasPosition),
			time:         m.Time,
		}
	}
	elum := make([]ElumHDF5, len(event.Elum))
	for i, e := range event.Elum {
		elum[i] = ElumHDF5{
			evt_number: evt,
			sector:     int32(e.Sector),
			mult:       int32(e.Mult),
			energy:     e.Energy,
			time:       e.Time,
		}
	}
	zd := make([]ZeroDegreeHDF5, len(event.ZeroDegree))
	for i, z := range event.ZeroDegree {
		zd[i] = ZeroDegreeHDF5{
			evt_number: evt,
			eloss:      z.EnergyLoss,
			erest:      z.EnergyRest,
			time:       z.Time,
		}
	}
	gamma := make([]GammaRayHDF5, len(event.GammaRay))
	for i, g := range event.GammaRay {
		gamma[i] = GammaRayHDF5{
			evt_number: evt,
			id:         int32(g.ID),
			energy:     g.Energy,
			time:       g.Time,
			reltime:    g.RelTime,
		}
	}

	var errs []error
	errs = append(errs, appendRows(w.ArrayTable, array))
	errs = append(errs, appendRows(w.ArrayPTable, arrayP))
	errs = append(errs, appendRows(w.ArrayMultTable, arrayMult))
	errs = append(errs, appendRows(w.RecoilTable, recoil))
	errs = append(errs, appendRows(w.MwpcTable, mwpc))
	errs = append(errs, appendRows(w.ElumTable, elum))
	errs = append(errs, appendRows(w.ZeroDegreeTable, zd))
	errs = append(errs, appendRows(w.GammaRayTable, gamma))
	if err := errors.Join(errs...); err != nil {
		return err
	}
	w.EvtCounter++
	return nil
}

func (w *Writer) WriteDiagnostics(d eventbuilder.Diagnostics) error {
	entries := d.Entries()
	counters := make([]CounterHDF5, len(entries))
	for i, entry := range entries {
		counters[i] = CounterHDF5{
			name:  convertToHdf5String(entry.Name),
			value: entry.Value,
		}
	}
	return appendRows(w.CountersTable, counters)
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func (w *Writer) Close() error {
	var errs []error
	for _, t := range w.tables {
		if err := t.dset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing table %s: %w", t.name, err))
		}
	}
	for _, g := range w.groups {
		if err := g.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing group: %w", err))
		}
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
