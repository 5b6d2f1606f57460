// Package sequence is the Vendor Debug Sequence capability set: a
// polymorphic interface with default (generic) implementations and four
// per-family overrides whose state machines and MMIO sequences are
// contracts, reproduced from silicon-validated behavior.
//
// Family handles are stateless after construction and are shared
// immutably between a session and any per-core adapters, so a plain value
// implementing Sequence is sufficient — no locking is required.
package sequence

import (
	"time"

	"github.com/daschewie/dapflash/internal/clock"
	"github.com/daschewie/dapflash/internal/dap"
	dapseq "github.com/daschewie/dapflash/internal/dap/sequence"
)

// CoreAccess is the memory-access window a Sequence uses to touch
// core-debug registers (DHCSR, DEMCR, AIRCR, FPB, DWT) and vendor MMIO
// blocks. It is always MemoryAp #0 unless a family override says
// otherwise.
type CoreAccess struct {
	AP dap.MemoryAp
}

func (c CoreAccess) readWord(a dap.Access, addr uint32) (uint32, error) {
	return dap.ReadMemWord(a, c.AP, addr)
}

func (c CoreAccess) writeWord(a dap.Access, addr uint32, v uint32) error {
	return dap.WriteMemWord(a, c.AP, addr, v)
}

// Sequence is the fixed capability set every silicon family realizes.
// Family overrides embed Default and replace only the methods that
// differ; the step order documented on each override is normative.
type Sequence interface {
	DebugPortStart(a dap.Access, dp dap.DpAddress, sel uint32) (bool, error)
	ResetCatchSet(a dap.Access, core CoreAccess) error
	ResetCatchClear(a dap.Access, core CoreAccess) error
	ResetSystem(a dap.Access, core CoreAccess) error
	ResetHardwareDeassert(a dap.Access) error
}

// Default supplies the generic behavior spec.md describes for families
// with no silicon quirks to work around.
type Default struct{}

func (Default) DebugPortStart(a dap.Access, dp dap.DpAddress, sel uint32) (bool, error) {
	return dapseq.DebugPortStart(a, dp, sel)
}

func (Default) ResetCatchSet(a dap.Access, core CoreAccess) error {
	return setDemcrBit(a, core, dap.DemcrVcCoreReset, true)
}

func (Default) ResetCatchClear(a dap.Access, core CoreAccess) error {
	return setDemcrBit(a, core, dap.DemcrVcCoreReset, false)
}

func (Default) ResetSystem(a dap.Access, core CoreAccess) error {
	if err := core.writeWord(a, dap.AddrAIRCR, dap.AIRCRSysResetReq()); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}
	clock.Sleep(10 * time.Millisecond)
	return nil
}

func (Default) ResetHardwareDeassert(a dap.Access) error {
	_, err := a.SWJPins(nResetMask, nResetMask, 0)
	return err
}

// nResetMask is the SWJ pin-select bit for nRESET.
const nResetMask = 1 << 7

func setDemcrBit(a dap.Access, core CoreAccess, bit uint32, set bool) error {
	v, err := core.readWord(a, dap.AddrDEMCR)
	if err != nil {
		return err
	}
	if set {
		v |= bit
	} else {
		v &^= bit
	}
	if err := core.writeWord(a, dap.AddrDEMCR, v); err != nil {
		return err
	}
	return a.Flush()
}

// haltCore writes DHCSR with the write key plus C_HALT|C_DEBUGEN.
func haltCore(a dap.Access, core CoreAccess) error {
	if err := core.writeWord(a, dap.AddrDHCSR, dap.DHCSRHaltRequest()); err != nil {
		return err
	}
	return a.Flush()
}

// readDHCSR reads DHCSR and flushes, used purely as a liveness probe or to
// flush side effects of a preceding write.
func readDHCSR(a dap.Access, core CoreAccess) (uint32, error) {
	v, err := core.readWord(a, dap.AddrDHCSR)
	if err != nil {
		return 0, err
	}
	if err := a.Flush(); err != nil {
		return 0, err
	}
	return v, nil
}
