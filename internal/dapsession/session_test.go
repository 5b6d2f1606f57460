package dapsession

import (
	"testing"

	armsequence "github.com/daschewie/dapflash/internal/arm/sequence"
	"github.com/daschewie/dapflash/internal/dap"
	"github.com/daschewie/dapflash/internal/dap/dapfake"
	"github.com/daschewie/dapflash/internal/targetdesc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCore() CoreConfig {
	return CoreConfig{
		Name:     "core0",
		AP:       dap.MemoryAp{AP: dap.ApAddress{DP: 0, Index: 0}},
		Sequence: armsequence.Default{},
	}
}

func TestSessionAttachDelegatesToFirstCoreSequence(t *testing.T) {
	f := dapfake.New()
	f.SeedDP(0, dap.CtrlStat, dap.CtrlStatCSYSPWRUPACK|dap.CtrlStatCDBGPWRUPACK)

	s := New(f, "test-target", nil, nil, []CoreConfig{testCore()})

	wasDown, err := s.Attach(0, 0x1234)
	require.NoError(t, err)
	assert.False(t, wasDown)
}

func TestSessionAttachWithNoCoresIsNoOp(t *testing.T) {
	f := dapfake.New()
	s := New(f, "test-target", nil, nil, nil)

	wasDown, err := s.Attach(0, 0)
	require.NoError(t, err)
	assert.False(t, wasDown)
}

func TestSessionAccessors(t *testing.T) {
	mm := []targetdesc.MemoryRegion{{Name: "flash", Kind: targetdesc.KindNvm}}
	algos := []targetdesc.RawFlashAlgorithm{{Name: "algo"}}
	s := New(dapfake.New(), "test-target", mm, algos, []CoreConfig{testCore()})

	assert.Equal(t, "test-target", s.TargetName())
	assert.Equal(t, mm, s.MemoryMap())
	assert.Equal(t, algos, s.Algorithms())

	idx, ok := s.CoreIndex("core0")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = s.CoreIndex("nope")
	assert.False(t, ok)
}

func TestSessionCoreBoundsChecking(t *testing.T) {
	s := New(dapfake.New(), "test-target", nil, nil, []CoreConfig{testCore()})

	core, err := s.Core(0)
	require.NoError(t, err)
	assert.NotNil(t, core)

	_, err = s.Core(1)
	assert.Error(t, err)
	_, err = s.Core(-1)
	assert.Error(t, err)
}

func TestSessionFlasherFactoryBoundsChecking(t *testing.T) {
	s := New(dapfake.New(), "test-target", nil, nil, []CoreConfig{testCore()})
	factory := s.FlasherFactory()

	// Functions all zero: NewFlasher's Init call is a no-op (offset 0
	// means "not implemented"), so construction only exercises the
	// algorithm code download and coreIndex resolution.
	algo := targetdesc.RawFlashAlgorithm{
		Name:         "algo",
		AddressRange: targetdesc.Range{Start: 0x0800_0000, End: 0x0800_1000},
		Code:         []byte{0, 1, 2, 3},
		LoadAddress:  0x2000_0000,
	}

	flasher, err := factory(s, 0, algo, nil)
	require.NoError(t, err)
	assert.NotNil(t, flasher)

	_, err = factory(s, 5, algo, nil)
	assert.Error(t, err)
}
