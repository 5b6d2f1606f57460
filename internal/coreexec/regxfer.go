package coreexec

import (
	"time"

	"github.com/daschewie/dapflash/internal/clock"
	"github.com/daschewie/dapflash/internal/dap"
)

// regTransferTimeout bounds the DHCSR.S_REGRDY poll after a DCRSR
// register transfer request; a debug-enabled core acknowledges these
// within microseconds, so this is generous.
const regTransferTimeout = 100 * time.Millisecond

// writeCoreReg writes value into core register regNum via the DCRDR/DCRSR
// transfer window, waiting for S_REGRDY to confirm the write landed.
func writeCoreReg(a dap.Access, ap dap.MemoryAp, regNum uint32, value uint32) error {
	if err := dap.WriteMemWord(a, ap, dap.AddrDCRDR, value); err != nil {
		return err
	}
	if err := dap.WriteMemWord(a, ap, dap.AddrDCRSR, regNum|dap.DcrsrWrite); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}
	return waitRegReady(a, ap)
}

// readCoreReg reads core register regNum via the same transfer window.
func readCoreReg(a dap.Access, ap dap.MemoryAp, regNum uint32) (uint32, error) {
	if err := dap.WriteMemWord(a, ap, dap.AddrDCRSR, regNum); err != nil {
		return 0, err
	}
	if err := a.Flush(); err != nil {
		return 0, err
	}
	if err := waitRegReady(a, ap); err != nil {
		return 0, err
	}
	return dap.ReadMemWord(a, ap, dap.AddrDCRDR)
}

func waitRegReady(a dap.Access, ap dap.MemoryAp) error {
	err := clock.Poll(regTransferTimeout, time.Millisecond, func() (bool, error) {
		v, err := dap.ReadMemWord(a, ap, dap.AddrDHCSR)
		if err != nil {
			return false, err
		}
		return v&dap.DhcsrSRegRdy != 0, nil
	})
	if err == clock.ErrTimeout {
		return dap.ErrTimeout
	}
	return err
}

// haltCoreForCall halts the core so its registers can be set up ahead of
// an algorithm call.
func haltCoreForCall(a dap.Access, ap dap.MemoryAp) error {
	if err := dap.WriteMemWord(a, ap, dap.AddrDHCSR, dap.DHCSRHaltRequest()); err != nil {
		return err
	}
	return a.Flush()
}

// resumeCore clears C_HALT while keeping debug enabled, letting the core
// run from the PC/SP/LR already staged by writeCoreReg.
func resumeCore(a dap.Access, ap dap.MemoryAp) error {
	if err := dap.WriteMemWord(a, ap, dap.AddrDHCSR, dap.DhcsrCDebugKey|dap.DhcsrCDebugEn); err != nil {
		return err
	}
	return a.Flush()
}

// armReturnBreakpoint programs FPB comparator 0 to addr and enables the
// FPB unit, so the core halts the moment the algorithm returns to addr via
// the LR value writeCoreReg staged.
func armReturnBreakpoint(a dap.Access, ap dap.MemoryAp, addr uint32) error {
	if err := dap.WriteMemWord(a, ap, dap.AddrFPBComp0, (addr&^1)|dap.FPBComp0Enable); err != nil {
		return err
	}
	if err := dap.WriteMemWord(a, ap, dap.AddrFPBCtrl, dap.FPBCtrlKey|dap.FPBCtrlEnable); err != nil {
		return err
	}
	return a.Flush()
}

func disarmReturnBreakpoint(a dap.Access, ap dap.MemoryAp) error {
	if err := dap.WriteMemWord(a, ap, dap.AddrFPBComp0, 0); err != nil {
		return err
	}
	if err := dap.WriteMemWord(a, ap, dap.AddrFPBCtrl, 0); err != nil {
		return err
	}
	return a.Flush()
}
