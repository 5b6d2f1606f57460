package coreexec

import (
	"testing"

	"github.com/daschewie/dapflash/internal/dap"
	"github.com/daschewie/dapflash/internal/flash"
	"github.com/daschewie/dapflash/internal/targetdesc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAlgo() targetdesc.RawFlashAlgorithm {
	return targetdesc.RawFlashAlgorithm{
		Name:         "test-algo",
		AddressRange: targetdesc.Range{Start: 0x0800_0000, End: 0x0800_1000},
		Code:         []byte{0, 1, 2, 3, 4, 5, 6, 7},
		LoadAddress:  0x2000_0000,
		StackPointer: 0x2000_1000,
		PageSize:     4,
		Functions: targetdesc.FlashFunctions{
			Init:        0x1,
			UnInit:      0x9,
			EraseSector: 0x11,
			EraseAll:    0x19,
			ProgramPage: 0x21,
		},
		SupportsChipErase: true,
	}
}

func TestNewFlasherDownloadsCodeAndCallsInit(t *testing.T) {
	m := newMemAccess()
	algo := testAlgo()

	f, err := NewFlasher(m, testAP(), algo, nil)
	require.NoError(t, err)
	require.NotNil(t, f)

	core := NewCore(m, testAP(), nil)
	got := make([]byte, len(algo.Code))
	require.NoError(t, core.Read(algo.LoadAddress, got))
	assert.Equal(t, algo.Code, got)
}

func TestFlasherIsChipEraseSupported(t *testing.T) {
	m := newMemAccess()
	algo := testAlgo()

	f, err := NewFlasher(m, testAP(), algo, nil)
	require.NoError(t, err)
	assert.True(t, f.IsChipEraseSupported())
	assert.False(t, f.DoubleBufferingSupported())
}

func TestFlasherRunEraseAllRejectedWhenUnsupported(t *testing.T) {
	m := newMemAccess()
	algo := testAlgo()
	algo.SupportsChipErase = false

	f, err := NewFlasher(m, testAP(), algo, nil)
	require.NoError(t, err)

	err = f.RunEraseAll()
	assert.Error(t, err)
}

func TestFlasherProgramWritesDataViaAlgorithm(t *testing.T) {
	m := newMemAccess()
	algo := testAlgo()

	f, err := NewFlasher(m, testAP(), algo, nil)
	require.NoError(t, err)

	b := flash.NewBuilder()
	require.NoError(t, b.AddData(0x0800_0100, []byte{0xDE, 0xAD, 0xBE, 0xEF}))

	region := targetdesc.MemoryRegion{
		Range: targetdesc.Range{Start: 0x0800_0000, End: 0x0800_1000},
		Kind:  targetdesc.KindNvm,
	}

	require.NoError(t, f.Program(region, b, false, false, false))

	// programPages stages each chunk at the algorithm's data-load address
	// (right after its code) before calling ProgramPage; the data-load
	// window should hold the last chunk written.
	dataLoad := algo.LoadAddress + uint64(len(algo.Code))
	core := NewCore(m, testAP(), nil)
	got := make([]byte, 4)
	require.NoError(t, core.Read(dataLoad, got))
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, got)
}
