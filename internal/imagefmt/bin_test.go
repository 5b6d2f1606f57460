package imagefmt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	spans map[uint64][]byte
	order []uint64
}

func newFakeSink() *fakeSink { return &fakeSink{spans: make(map[uint64][]byte)} }

func (s *fakeSink) AddData(addr uint64, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.spans[addr] = cp
	s.order = append(s.order, addr)
	return nil
}

func TestLoadBinDataWritesSingleSpan(t *testing.T) {
	sink := newFakeSink()
	data := []byte{0x01, 0x02, 0x03, 0x04}

	err := LoadBinData(sink, bytes.NewReader(data), BinOptions{BaseAddress: 0x0800_0000})
	require.NoError(t, err)

	assert.Equal(t, data, sink.spans[0x0800_0000])
}

func TestLoadBinDataHonorsSkip(t *testing.T) {
	sink := newFakeSink()
	data := []byte{0xAA, 0xBB, 0x01, 0x02}

	err := LoadBinData(sink, bytes.NewReader(data), BinOptions{Skip: 2, BaseAddress: 0x1000})
	require.NoError(t, err)

	assert.Equal(t, []byte{0x01, 0x02}, sink.spans[0x1000])
}

func TestLoadBinDataEmptyIsNoOp(t *testing.T) {
	sink := newFakeSink()
	err := LoadBinData(sink, bytes.NewReader(nil), BinOptions{BaseAddress: 0x1000})
	require.NoError(t, err)
	assert.Empty(t, sink.spans)
}
