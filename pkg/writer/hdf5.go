package writer

import (
	"fmt"

	eventbuilder "github.com/iss-daq/eventbuilder_go/pkg"
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error {
	return e.Err
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}

const STRLEN = 32

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &eventbuilder.ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

// table is an extendable one-dimensional dataset of compound rows.
type table struct {
	name string
	dset *hdf5.Dataset
	rows int
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compression int) (*table, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	chunks := []uint{4096}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	if compression > 0 {
		if err := plist.SetDeflate(compression); err != nil {
			return nil, &ErrCreateTable{TableName: name, Err: err}
		}
	}

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return &table{name: name, dset: dset}, nil
}

// appendRows extends t and writes data at its end.
func appendRows[T any](t *table, data []T) error {
	length := uint(len(data))
	if length == 0 {
		return nil
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("error creating dataspace for %s: %w", t.name, err)
	}
	defer dataspace.Close()

	start := uint(t.rows)
	if err := t.dset.Resize([]uint{start + length}); err != nil {
		return fmt.Errorf("error resizing %s: %w", t.name, err)
	}
	filespace := t.dset.Space()
	defer filespace.Close()

	count := []uint{length}
	if err := filespace.SelectHyperslab([]uint{start}, nil, count, nil); err != nil {
		return fmt.Errorf("error selecting rows of %s: %w", t.name, err)
	}
	if err := t.dset.WriteSubset(&data, dataspace, filespace); err != nil {
		return fmt.Errorf("error writing %s: %w", t.name, err)
	}
	t.rows += len(data)
	return nil
}

func appendRow[T any](t *table, data T) error {
	return appendRows(t, []T{data})
}
