package eventbuilder

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unsafe"
)

const (
	RECORD_ASIC uint8 = 0
	RECORD_CAEN uint8 = 1
	RECORD_INFO uint8 = 2
)

// HitRecordStruct is the on-disk layout of one hit, little endian.
// For INFO records Code holds the info code and Asic/Channel are unused.
type HitRecordStruct struct {
	Type    uint8
	Module  uint8
	Asic    uint8
	Channel uint8
	Adc     uint16
	Code    uint16
	Time    uint64
}

var HitRecordSize = int(unsafe.Sizeof(HitRecordStruct{}))

func (r HitRecordStruct) Hit() (Hit, error) {
	switch r.Type {
	case RECORD_ASIC:
		return AsicHit{Module: r.Module, Asic: r.Asic, Channel: r.Channel, Adc: r.Adc, Time: r.Time}, nil
	case RECORD_CAEN:
		return CaenHit{Module: r.Module, Channel: r.Channel, Adc: r.Adc, Time: r.Time}, nil
	case RECORD_INFO:
		if InfoCode(r.Code) > InfoCaenPulser {
			return nil, fmt.Errorf("invalid info code %d", r.Code)
		}
		return InfoHit{Code: InfoCode(r.Code), Module: r.Module, Time: r.Time}, nil
	default:
		return nil, fmt.Errorf("invalid record type %d", r.Type)
	}
}

func NewHitRecord(hit Hit) (HitRecordStruct, error) {
	switch h := hit.(type) {
	case AsicHit:
		return HitRecordStruct{Type: RECORD_ASIC, Module: h.Module, Asic: h.Asic, Channel: h.Channel, Adc: h.Adc, Time: h.Time}, nil
	case CaenHit:
		return HitRecordStruct{Type: RECORD_CAEN, Module: h.Module, Channel: h.Channel, Adc: h.Adc, Time: h.Time}, nil
	case InfoHit:
		return HitRecordStruct{Type: RECORD_INFO, Module: h.Module, Code: uint16(h.Code), Time: h.Time}, nil
	default:
		return HitRecordStruct{}, fmt.Errorf("unsupported hit type %T", hit)
	}
}

// ReadHitFromFile reads one record. It returns io.EOF only on a clean record
// boundary; a partial record is io.ErrUnexpectedEOF.
func ReadHitFromFile(r io.Reader) (Hit, error) {
	var record HitRecordStruct
	if err := binary.Read(r, binary.LittleEndian, &record); err != nil {
		return nil, err
	}
	return record.Hit()
}

func WriteHitRecord(w io.Writer, hit Hit) error {
	record, err := NewHitRecord(hit)
	if err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, record)
}

// FileReader is a HitSource over a hit file with a one-record lookahead.
type FileReader struct {
	reader   *bufio.Reader
	HitCount uint64
	MaxHits  uint64

	next    Hit
	nextErr error
	peeked  bool
}

// NewFileReader reads at most maxHits records; 0 means no limit.
func NewFileReader(r io.Reader, maxHits int) *FileReader {
	f := &FileReader{reader: bufio.NewReaderSize(r, 64*HitRecordSize)}
	if maxHits > 0 {
		f.MaxHits = uint64(maxHits)
	}
	return f
}

func (f *FileReader) read() (Hit, error) {
	if f.MaxHits > 0 && f.HitCount >= f.MaxHits {
		if configuration.Verbosity > 0 {
			logger.Info("Max hits reached", "fileReader")
		}
		return nil, io.EOF
	}
	hit, err := ReadHitFromFile(f.reader)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &ErrReadHit{Index: f.HitCount, Err: err}
	}
	f.HitCount++
	return hit, nil
}

func (f *FileReader) Peek() (Hit, error) {
	if !f.peeked {
		f.next, f.nextErr = f.read()
		f.peeked = true
	}
	return f.next, f.nextErr
}

func (f *FileReader) Next() (Hit, error) {
	if f.peeked {
		f.peeked = false
		return f.next, f.nextErr
	}
	return f.read()
}

// SliceSource is a HitSource over hits held in memory.
type SliceSource struct {
	hits []Hit
	pos  int
}

func NewSliceSource(hits []Hit) *SliceSource {
	return &SliceSource{hits: hits}
}

func (s *SliceSource) Next() (Hit, error) {
	if s.pos >= len(s.hits) {
		return nil, io.EOF
	}
	h := s.hits[s.pos]
	s.pos++
	return h, nil
}

func (s *SliceSource) Peek() (Hit, error) {
	if s.pos >= len(s.hits) {
		return nil, io.EOF
	}
	return s.hits[s.pos], nil
}
