package eventbuilder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeHits(t *testing.T, hits ...Hit) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	for _, h := range hits {
		require.NoError(t, WriteHitRecord(&buf, h))
	}
	return &buf
}

func TestHitRecordSize(t *testing.T) {
	assert.Equal(t, 16, HitRecordSize)

	buf := encodeHits(t, AsicHit{Module: 1, Asic: 2, Channel: 3, Adc: 4, Time: 5})
	assert.Equal(t, HitRecordSize, buf.Len())
}

func TestFileReader_PeekThenNext(t *testing.T) {
	hits := []Hit{
		AsicHit{Module: 1, Asic: 2, Channel: 3, Adc: 400, Time: 100},
		CaenHit{Module: 0, Channel: 7, Adc: 1200, Time: 110},
		InfoHit{Code: InfoAsicPause, Module: 2, Time: 120},
	}
	reader := NewFileReader(encodeHits(t, hits...), 0)

	peeked, err := reader.Peek()
	require.NoError(t, err)
	assert.Equal(t, hits[0], peeked)

	again, err := reader.Peek()
	require.NoError(t, err)
	assert.Equal(t, hits[0], again)

	for _, want := range hits {
		got, err := reader.Next()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = reader.Peek()
	assert.Equal(t, io.EOF, err)
	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, uint64(3), reader.HitCount)
}

func TestFileReader_MaxHits(t *testing.T) {
	buf := encodeHits(t,
		AsicHit{Time: 1},
		AsicHit{Time: 2},
		AsicHit{Time: 3},
	)
	reader := NewFileReader(buf, 2)

	for i := 0; i < 2; i++ {
		_, err := reader.Next()
		require.NoError(t, err)
	}
	_, err := reader.Next()
	assert.Equal(t, io.EOF, err)
}

func TestFileReader_TruncatedRecord(t *testing.T) {
	buf := encodeHits(t, AsicHit{Time: 1}, AsicHit{Time: 2})
	truncated := bytes.NewReader(buf.Bytes()[:HitRecordSize+5])
	reader := NewFileReader(truncated, 0)

	_, err := reader.Next()
	require.NoError(t, err)

	_, err = reader.Next()
	var readErr *ErrReadHit
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, uint64(1), readErr.Index)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFileReader_InvalidRecord(t *testing.T) {
	buf := encodeHits(t, AsicHit{Time: 1})
	buf.Bytes()[0] = 9
	reader := NewFileReader(buf, 0)

	_, err := reader.Next()
	var readErr *ErrReadHit
	assert.True(t, errors.As(err, &readErr))
}

func TestSliceSource(t *testing.T) {
	source := NewSliceSource([]Hit{AsicHit{Time: 1}, CaenHit{Time: 2}})

	h, err := source.Peek()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), h.Timestamp())

	h, err = source.Next()
	require.NoError(t, err)
	assert.Equal(t, KindAsic, h.Kind())

	h, err = source.Next()
	require.NoError(t, err)
	assert.Equal(t, KindCaen, h.Kind())

	_, err = source.Peek()
	assert.Equal(t, io.EOF, err)
}

func TestBuilder_FromFileReader(t *testing.T) {
	buf := encodeHits(t,
		InfoHit{Code: InfoEbis, Time: 10},
		AsicHit{Module: 0, Asic: 0, Channel: 10, Adc: 500, Time: 100},
		AsicHit{Module: 0, Asic: 1, Channel: 5, Adc: 480, Time: 105},
	)
	b := newTestBuilder(t, nil)

	events, d := build(t, b, nil)
	assert.Empty(t, events)
	assert.Equal(t, uint64(0), d.Counters.Hits.Total)

	sink := &EventCollector{}
	d, err := b.BuildEvents(context.Background(), NewFileReader(buf, 0), sink)
	require.NoError(t, err)
	require.Len(t, sink.Events, 1)
	assert.Len(t, sink.Events[0].Array, 1)
	assert.Equal(t, uint64(10), sink.Events[0].Ebis)
	assert.Equal(t, uint64(3), d.Counters.Hits.Total)
}
