package coreexec

import (
	"testing"
	"time"

	armsequence "github.com/daschewie/dapflash/internal/arm/sequence"
	"github.com/daschewie/dapflash/internal/dap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memAccess is a word-addressed in-memory dap.Access double: WriteAP(TAR)
// sets the active address for that AP, WriteAP(DRW)/ReadAP(DRW) read or
// write the word currently addressed. This models true addressed memory,
// unlike internal/dap/dapfake.Fake, which collapses every DRW access for
// a given AP into one slot and is meant for scripted call-order tests
// instead.
//
// It additionally special-cases the DCRSR/DCRDR register-transfer window:
// a write to DCRSR with the write bit set loads the named core register
// from whatever was last staged into DCRDR; a write with the bit clear
// stages that register's value into DCRDR for a following read. This
// mirrors the real transfer handshake closely enough to make Flasher's
// call() calling convention independently testable. DHCSR always reports
// S_REGRDY|S_HALT set; no real instruction execution is simulated.
type memAccess struct {
	tar  map[dap.ApAddress]uint32
	mem  map[uint32]uint32
	regs [16]uint32
}

func newMemAccess() *memAccess {
	m := &memAccess{tar: make(map[dap.ApAddress]uint32), mem: make(map[uint32]uint32)}
	m.mem[dap.AddrDHCSR] = dap.DhcsrSRegRdy | dap.DhcsrSHalt
	return m
}

func (m *memAccess) ReadDP(dap.DpAddress, dap.DPRegister) (uint32, error) { return 0, nil }
func (m *memAccess) WriteDP(dap.DpAddress, dap.DPRegister, uint32) error  { return nil }

func (m *memAccess) ReadAP(ap dap.ApAddress, reg dap.APRegister) (uint32, error) {
	switch reg {
	case dap.TAR:
		return m.tar[ap], nil
	case dap.DRW:
		return m.mem[m.tar[ap]], nil
	}
	return 0, nil
}

func (m *memAccess) WriteAP(ap dap.ApAddress, reg dap.APRegister, v uint32) error {
	switch reg {
	case dap.TAR:
		m.tar[ap] = v
	case dap.DRW:
		addr := m.tar[ap]
		switch addr {
		case dap.AddrDCRSR:
			regNum := v &^ dap.DcrsrWrite
			if v&dap.DcrsrWrite != 0 {
				m.regs[regNum] = m.mem[dap.AddrDCRDR]
			} else {
				m.mem[dap.AddrDCRDR] = m.regs[regNum]
			}
		case dap.AddrDHCSR:
			// DHCSR's S_REGRDY/S_HALT status bits are read-only and
			// reflect real core state; this double has no core to run,
			// so writes to the control bits are accepted but the status
			// bits it reports never change.
		default:
			m.mem[addr] = v
		}
	}
	return nil
}

func (m *memAccess) ReadRawAP(dap.ApAddress, uint8) (uint32, error)  { return 0, nil }
func (m *memAccess) WriteRawAP(dap.ApAddress, uint8, uint32) error   { return nil }
func (m *memAccess) Flush() error                                   { return nil }
func (m *memAccess) SWJPins(uint32, uint32, uint32) (uint32, error)  { return 0, nil }

var _ dap.Access = (*memAccess)(nil)

func testAP() dap.MemoryAp {
	return dap.MemoryAp{AP: dap.ApAddress{DP: 0, Index: 0}}
}

func TestCoreReadWriteWord32RoundTrip(t *testing.T) {
	m := newMemAccess()
	core := NewCore(m, testAP(), nil)

	require.NoError(t, core.WriteWord32(0x2000_0000, 0xCAFEBABE))
	got, err := core.ReadWord32(0x2000_0000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), got)
}

func TestCoreWrite8WithinOneWord(t *testing.T) {
	m := newMemAccess()
	m.mem[0x2000_0000] = 0xFFFFFFFF
	core := NewCore(m, testAP(), nil)

	require.NoError(t, core.Write8(0x2000_0001, []byte{0xAA, 0xBB}))

	got, err := core.ReadWord32(0x2000_0000)
	require.NoError(t, err)
	// bytes 1,2 replaced; bytes 0,3 preserved as 0xFF
	assert.Equal(t, uint32(0xFFBBAAFF), got)
}

func TestCoreWrite8AcrossWordBoundary(t *testing.T) {
	m := newMemAccess()
	core := NewCore(m, testAP(), nil)

	data := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	require.NoError(t, core.Write8(0x2000_0002, data))

	got := make([]byte, len(data))
	require.NoError(t, core.Read(0x2000_0002, got))
	assert.Equal(t, data, got)
}

func TestCoreResetAndHaltUsesSequence(t *testing.T) {
	m := newMemAccess()
	seq := &recordingSequence{}
	core := NewCore(m, testAP(), seq)

	require.NoError(t, core.ResetAndHalt(10*time.Millisecond))
	assert.True(t, seq.catchSet)
	assert.True(t, seq.resetSystem)
	assert.True(t, seq.catchClear)
}

// recordingSequence is a minimal armsequence.Sequence double recording
// which methods ran; DebugPortStart/ResetHardwareDeassert are unused by
// Core and left as no-ops.
type recordingSequence struct {
	catchSet, catchClear, resetSystem bool
}

func (r *recordingSequence) DebugPortStart(dap.Access, dap.DpAddress, uint32) (bool, error) {
	return false, nil
}
func (r *recordingSequence) ResetCatchSet(dap.Access, armsequence.CoreAccess) error {
	r.catchSet = true
	return nil
}
func (r *recordingSequence) ResetCatchClear(dap.Access, armsequence.CoreAccess) error {
	r.catchClear = true
	return nil
}
func (r *recordingSequence) ResetSystem(dap.Access, armsequence.CoreAccess) error {
	r.resetSystem = true
	return nil
}
func (r *recordingSequence) ResetHardwareDeassert(dap.Access) error { return nil }
