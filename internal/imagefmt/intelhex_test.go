package imagefmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHexDataSimpleRecord(t *testing.T) {
	sink := newFakeSink()
	hex := ":04000000DEADBEEFC4\n:00000001FF\n"

	err := LoadHexData(sink, strings.NewReader(hex))
	require.NoError(t, err)

	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, sink.spans[0x0000])
}

func TestLoadHexDataExtendedLinearAddress(t *testing.T) {
	sink := newFakeSink()
	// :02000004 0001 F9 -> base = 0x0001<<16 = 0x10000
	// :02000000 CAFE 36 -> data at base+0 = 0x10000
	lines := []string{
		":020000040001F9",
		":02000000CAFE36",
		":00000001FF",
	}
	err := LoadHexData(sink, strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)

	assert.Equal(t, []byte{0xCA, 0xFE}, sink.spans[0x10000])
}

func TestLoadHexDataExtendedSegmentAddress(t *testing.T) {
	sink := newFakeSink()
	// :02000002 0010 EC -> base = 0x0010<<4 = 0x100
	// :02000000 1122 CB -> data at base+0 = 0x100
	lines := []string{
		":020000020010EC",
		":020000001122CB",
		":00000001FF",
	}
	err := LoadHexData(sink, strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)

	assert.Equal(t, []byte{0x11, 0x22}, sink.spans[0x100])
}

func TestLoadHexDataStopsAtEndOfFileRecord(t *testing.T) {
	sink := newFakeSink()
	lines := []string{
		":00000001FF",
		":04000000DEADBEEFC4", // after EOF record, must not be processed
	}
	err := LoadHexData(sink, strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Empty(t, sink.spans)
}

func TestLoadHexDataRejectsMalformedRecord(t *testing.T) {
	sink := newFakeSink()
	err := LoadHexData(sink, strings.NewReader("not a hex record"))
	assert.Error(t, err)
}

func TestLoadHexDataByteCountMismatch(t *testing.T) {
	sink := newFakeSink()
	// claims 4 bytes but only supplies 2
	err := LoadHexData(sink, strings.NewReader(":0400000011220A"))
	assert.Error(t, err)
}
