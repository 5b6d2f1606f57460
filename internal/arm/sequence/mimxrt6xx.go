package sequence

import (
	"time"

	"github.com/daschewie/dapflash/internal/clock"
	"github.com/daschewie/dapflash/internal/dap"
)

// MIMXRT6xx enables its debug mailbox only when the core is not already in
// a debug session, and resets via a dedicated flash-reset MMIO sequence
// plus a DWT trap on the boot ROM's SYSTEM_STICK_CALIB read.
type MIMXRT6xx struct {
	Default
}

func (s MIMXRT6xx) DebugPortStart(a dap.Access, dp dap.DpAddress, sel uint32) (bool, error) {
	// Clear sticky DP errors out of line before the common handshake.
	if err := a.WriteDP(dp, dap.Abort, dap.AbortAllStickyClear); err != nil {
		return false, err
	}

	wasPoweredDown, err := s.Default.DebugPortStart(a, dp, sel)
	if err != nil {
		return wasPoweredDown, err
	}

	ap0 := dap.ApAddress{DP: dp, Index: 0}
	csw, err := a.ReadAP(ap0, dap.CSW)
	if err != nil {
		return wasPoweredDown, err
	}
	if csw&dap.CSWDbgStatus == 0 {
		if err := activateDebugMailbox(a, dp); err != nil {
			return wasPoweredDown, err
		}
	}
	return wasPoweredDown, nil
}

// Flash-reset MMIO addresses used by ResetSystem to bring the on-chip
// flash controller back to a known state before SYSRESETREQ.
const (
	addrFlashReset0 = 0x4000_4130
	addrFlashReset1 = 0x4002_1044
	addrFlashReset2 = 0x4002_0074
	addrFlashReset3 = 0x4010_2008
	addrFlashReset4 = 0x4010_2288
	addrFlashReset5 = 0x4010_2208
)

func (s MIMXRT6xx) ResetSystem(a dap.Access, core CoreAccess) error {
	if err := haltCore(a, core); err != nil {
		return err
	}
	if err := setDemcrBit(a, core, dap.DemcrTrcEna, true); err != nil {
		return err
	}
	if err := setDemcrBit(a, core, dap.DemcrVcCoreReset, false); err != nil {
		return err
	}

	if err := core.writeWord(a, addrFlashReset0, 0x130); err != nil {
		return err
	}
	if err := core.writeWord(a, addrFlashReset1, 0x4); err != nil {
		return err
	}
	if err := core.writeWord(a, addrFlashReset2, 0x4); err != nil {
		return err
	}
	if err := core.writeWord(a, addrFlashReset3, 0x1000); err != nil {
		return err
	}
	if err := core.writeWord(a, addrFlashReset4, 0x1000); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}
	clock.Sleep(100 * time.Millisecond)
	if err := core.writeWord(a, addrFlashReset5, 0x1000); err != nil {
		return err
	}

	// Arm a DWT comparator to trap the boot ROM's SYSTEM_STICK_CALIB read.
	if err := core.writeWord(a, dap.AddrDWTComp0, stickCalibAddr); err != nil {
		return err
	}
	if err := core.writeWord(a, dap.AddrDWTFunc0, dwtFuncReadWatch); err != nil {
		return err
	}

	if err := core.writeWord(a, dap.AddrAIRCR, dap.AIRCRSysResetReq()); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}

	return s.waitForStopAfterReset(a, core)
}

const (
	stickCalibAddr   = 0x5000_2034
	dwtFuncReadWatch = 0x814
)

func (s MIMXRT6xx) waitForStopAfterReset(a dap.Access, core CoreAccess) error {
	ap0 := core.AP.AP
	err := clock.Poll(300*time.Millisecond, 2*time.Millisecond, func() (bool, error) {
		v, err := a.ReadAP(ap0, dap.CSW)
		if err != nil {
			return false, err
		}
		return v&dap.CSWDbgStatus != 0, nil
	})
	if err != nil {
		if err == clock.ErrTimeout {
			return dap.ErrTimeout
		}
		return err
	}

	if err := activateDebugMailbox(a, ap0.DP); err != nil {
		return err
	}
	if err := core.writeWord(a, dap.AddrDHCSR, 0xA05F_0003); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}

	// Clear the DWT comparator armed above.
	if err := core.writeWord(a, dap.AddrDWTComp0, 0); err != nil {
		return err
	}
	if err := core.writeWord(a, dap.AddrDWTFunc0, 0); err != nil {
		return err
	}
	return a.Flush()
}

// swjReadbackUnsupported is the sentinel SWJPins returns when pin readback
// is not available on the transport.
const swjReadbackUnsupported = 0xFFFF_FFFF

func (s MIMXRT6xx) ResetHardwareDeassert(a dap.Access) error {
	v, err := a.SWJPins(0, nResetMask, 0)
	if err != nil {
		return err
	}
	if v == swjReadbackUnsupported {
		_, err := a.SWJPins(nResetMask, nResetMask, 0)
		if err != nil {
			return err
		}
		clock.Sleep(100 * time.Millisecond)
		return nil
	}

	// Bounded ~1s wait for nRESET to read high. The original source's loop
	// condition can in principle run past the deadline if nRESET is never
	// observed asserted; clock.Poll preserves the intended bounded wait
	// while closing that gap (see DESIGN.md).
	err = clock.Poll(1*time.Second, 5*time.Millisecond, func() (bool, error) {
		v, err := a.SWJPins(nResetMask, nResetMask, 0)
		if err != nil {
			return false, err
		}
		return v&nResetMask != 0, nil
	})
	if err == clock.ErrTimeout {
		return dap.ErrTimeout
	}
	return err
}
