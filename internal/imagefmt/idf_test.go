package imagefmt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIdfDataWritesBootloaderAndPartitionTable(t *testing.T) {
	appData := []byte{0x01, 0x02, 0x03, 0x04}
	img := buildMinimalElf(t, 0x3F40_0020, appData)

	sink := newFakeSink()
	opts := IdfOptions{
		Bootloader:     []byte{0xE9, 0x00},
		PartitionTable: []byte{0xAA, 0x50},
	}

	err := LoadIdfData(sink, "esp32", bytes.NewReader(img), opts)
	require.NoError(t, err)

	assert.Equal(t, opts.Bootloader, sink.spans[0x1000])
	assert.Equal(t, opts.PartitionTable, sink.spans[0x8000])
	assert.Equal(t, appData, sink.spans[0x3F40_0020])
}

func TestLoadIdfDataUnsupportedChip(t *testing.T) {
	sink := newFakeSink()
	err := LoadIdfData(sink, "not-a-real-chip", bytes.NewReader(nil), IdfOptions{})

	var target *IdfUnsupportedError
	assert.ErrorAs(t, err, &target)
}
