package sequence

import (
	"time"

	"github.com/daschewie/dapflash/internal/clock"
	"github.com/daschewie/dapflash/internal/dap"
)

// LPC55Sxx overrides DebugPortStart, ResetCatchSet/Clear, and ResetSystem
// to work around the LPC55Sxx DebugMailbox and flash-controller quirks.
type LPC55Sxx struct {
	Default
}

// Flash controller register block used by reset-catch to pre-read the
// application's reset vector before the core is released.
const (
	addrFlashSTARTA          = 0x4003_4010
	addrFlashSTOPA           = 0x4003_4014
	addrFlashDATAW0          = 0x4003_4080
	addrFlashCMD             = 0x4003_4000
	addrFlashStatus          = 0x4003_4FE0
	addrFlashIntClearStatus  = 0x4003_4FE8
	flashCmdReadSingleWord   = 0x3
	flashStatusDoneBit       = 1 << 2
	flashStatusErrMask       = 0xB
	resetVectorAddr          = 0x0000_0004
	resetVectorUnprogrammed  = 0xFFFF_FFFF
	flashReadWordRegCount    = 8 // DATAW0..DATAW7
)

// resetCatchFlashPollTimeout matches the Duration::from_micros(10_0000)
// value used in the original sequence's polling code (100ms). A separate
// doc comment elsewhere in that source states 1s; the code value is the
// one actually enforced at runtime, so it is preserved here — see
// DESIGN.md's Open Question decision.
const resetCatchFlashPollTimeout = 100 * time.Millisecond
const resetCatchFlashPollInterval = 1 * time.Millisecond

func (s LPC55Sxx) DebugPortStart(a dap.Access, dp dap.DpAddress, sel uint32) (bool, error) {
	wasPoweredDown, err := s.Default.DebugPortStart(a, dp, sel)
	if err != nil {
		return wasPoweredDown, err
	}
	if !wasPoweredDown {
		return wasPoweredDown, nil
	}
	if err := activateDebugMailbox(a, dp); err != nil {
		return wasPoweredDown, err
	}
	return wasPoweredDown, nil
}

func (s LPC55Sxx) ResetCatchSet(a dap.Access, core CoreAccess) error {
	if err := setDemcrBit(a, core, dap.DemcrVcCoreReset, false); err != nil {
		return err
	}

	// Prime the on-chip flash controller to read the application's reset
	// vector at 0x00000004.
	if err := core.writeWord(a, addrFlashSTARTA, 0); err != nil {
		return err
	}
	if err := core.writeWord(a, addrFlashSTOPA, 0); err != nil {
		return err
	}
	for i := 0; i < flashReadWordRegCount; i++ {
		if err := core.writeWord(a, addrFlashDATAW0+uint32(i*4), 0); err != nil {
			return err
		}
	}
	if err := core.writeWord(a, addrFlashIntClearStatus, 0xF); err != nil {
		return err
	}
	if err := core.writeWord(a, addrFlashCMD, flashCmdReadSingleWord); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}

	err := clock.Poll(resetCatchFlashPollTimeout, resetCatchFlashPollInterval, func() (bool, error) {
		v, err := core.readWord(a, addrFlashStatus)
		if err != nil {
			return false, err
		}
		return v&flashStatusDoneBit != 0, nil
	})
	if err != nil {
		if err == clock.ErrTimeout {
			return dap.ErrTimeout
		}
		return err
	}

	status, err := core.readWord(a, addrFlashStatus)
	if err != nil {
		return err
	}

	if status&flashStatusErrMask == 0 {
		vector, err := core.readWord(a, resetVectorAddr)
		if err != nil {
			return err
		}
		if vector != resetVectorUnprogrammed {
			if err := core.writeWord(a, dap.AddrFPBComp0, vector|1); err != nil {
				return err
			}
			if err := core.writeWord(a, dap.AddrFPBCtrl, 3); err != nil {
				return err
			}
			_, err = readDHCSR(a, core)
			return err
		}
	}

	// No usable reset vector: fall back to the generic vector-catch trap.
	if err := setDemcrBit(a, core, dap.DemcrVcCoreReset, true); err != nil {
		return err
	}
	_, err = readDHCSR(a, core)
	return err
}

func (s LPC55Sxx) ResetCatchClear(a dap.Access, core CoreAccess) error {
	if err := core.writeWord(a, dap.AddrFPBComp0, 0); err != nil {
		return err
	}
	if err := core.writeWord(a, dap.AddrFPBCtrl, 2); err != nil {
		return err
	}
	return setDemcrBit(a, core, dap.DemcrVcCoreReset, false)
}

func (s LPC55Sxx) ResetSystem(a dap.Access, core CoreAccess) error {
	if err := core.writeWord(a, dap.AddrAIRCR, dap.AIRCRSysResetReq()); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}
	clock.Sleep(10 * time.Millisecond)
	return s.waitForStopAfterReset(a, core)
}

const resetPollTimeout = 500 * time.Millisecond
const resetPollInterval = 2 * time.Millisecond

func (s LPC55Sxx) waitForStopAfterReset(a dap.Access, core CoreAccess) error {
	clock.Sleep(10 * time.Millisecond)

	// The reset may have cleared DebugMailbox state; re-run activation.
	if err := activateDebugMailbox(a, core.AP.AP.DP); err != nil {
		return err
	}

	err := clock.Poll(resetPollTimeout, resetPollInterval, func() (bool, error) {
		v, err := core.readWord(a, dap.AddrDHCSR)
		if err != nil {
			return false, err
		}
		return v&dap.DhcsrSResetSt == 0, nil
	})
	if err != nil {
		if err == clock.ErrTimeout {
			return dap.ErrTimeout
		}
		return err
	}

	v, err := core.readWord(a, dap.AddrDHCSR)
	if err != nil {
		return err
	}
	if v&dap.DhcsrSHalt == 0 {
		return haltCore(a, core)
	}
	return nil
}
