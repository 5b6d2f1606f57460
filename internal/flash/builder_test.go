package flash

import (
	"testing"

	"github.com/daschewie/dapflash/internal/targetdesc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderAddDataRejectsOverlap(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddData(0x1000, []byte{1, 2, 3, 4}))

	err := b.AddData(0x1002, []byte{5, 6})
	assert.Error(t, err)
}

func TestBuilderAddDataAdjacentOK(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddData(0x1000, []byte{1, 2}))
	require.NoError(t, b.AddData(0x1002, []byte{3, 4}))
	assert.Equal(t, 2, b.Len())
}

func TestBuilderAddDataEmptyIsNoOp(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddData(0x1000, nil))
	assert.Equal(t, 0, b.Len())
}

func TestBuilderIterationAscending(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddData(0x3000, []byte{1}))
	require.NoError(t, b.AddData(0x1000, []byte{2}))
	require.NoError(t, b.AddData(0x2000, []byte{3}))

	var addrs []uint64
	for addr := range b.All() {
		addrs = append(addrs, addr)
	}
	assert.Equal(t, []uint64{0x1000, 0x2000, 0x3000}, addrs)
}

func TestBuilderHasDataInRange(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddData(0x1000, []byte{1, 2, 3, 4}))

	assert.True(t, b.HasDataInRange(targetdesc.Range{Start: 0x1002, End: 0x1010}))
	assert.False(t, b.HasDataInRange(targetdesc.Range{Start: 0x2000, End: 0x3000}))
}

func TestBuilderDataInRangeOrder(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddData(0x2000, []byte{1}))
	require.NoError(t, b.AddData(0x1000, []byte{2}))

	var addrs []uint64
	for addr := range b.DataInRange(targetdesc.Range{Start: 0, End: 0x10000}) {
		addrs = append(addrs, addr)
	}
	assert.Equal(t, []uint64{0x1000, 0x2000}, addrs)
}
