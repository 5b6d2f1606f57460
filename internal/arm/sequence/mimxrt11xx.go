package sequence

import (
	"time"

	"github.com/daschewie/dapflash/internal/clock"
	"github.com/daschewie/dapflash/internal/dap"
)

// MIMXRT11xx has two cores (CM7 primary, CM4 secondary) that both need a
// trap stub installed in SRAM before the CM4 is released and the reset
// mode is changed to "do not reset either core".
type MIMXRT11xx struct {
	Default
}

const (
	cm7TrapAddr = 0x2001_FF00
	cm4TrapAddr = 0x2025_0000

	addrIomuxLPSRGPR26 = 0x40C0_C068
	addrIomuxLPSRGPR0  = 0x40C0_C000
	addrIomuxLPSRGPR1  = 0x40C0_C004

	addrSRCSCR  = 0x40C0_4000
	addrSRCSBMR = 0x40C0_4004

	srcSBMRDoNotResetMask  = 0b1111 << 10
	srcSBMRDoNotResetValue = 0b1111 << 10
)

// writeTrapCode installs a two-word reset-vector stub at each core's trap
// base: word0 is the initial SP (base+0x20, just past the stub itself),
// word1 is the initial PC the core boots to. The two cores need distinct
// entry points since CM7 and CM4 boot ROMs diverge past this point.
const (
	cm7TrapEntry = 0x0002_3105
	cm4TrapEntry = 0x0023_F041
)

func (s MIMXRT11xx) DebugPortStart(a dap.Access, dp dap.DpAddress, sel uint32) (bool, error) {
	wasPoweredDown, err := s.Default.DebugPortStart(a, dp, sel)
	if err != nil {
		return wasPoweredDown, err
	}
	if err := activateDebugMailbox(a, dp); err != nil {
		return wasPoweredDown, err
	}

	ap0 := dap.MemoryAp{AP: dap.ApAddress{DP: dp, Index: 0}}

	if err := writeTrapCode(a, ap0, cm7TrapAddr, cm7TrapEntry); err != nil {
		return wasPoweredDown, err
	}
	if err := dap.WriteMemWord(a, ap0, addrIomuxLPSRGPR26, cm7TrapAddr>>7); err != nil {
		return wasPoweredDown, err
	}

	if err := writeTrapCode(a, ap0, cm4TrapAddr, cm4TrapEntry); err != nil {
		return wasPoweredDown, err
	}
	if err := dap.WriteMemWord(a, ap0, addrIomuxLPSRGPR0, uint32(uint16(cm4TrapAddr))); err != nil {
		return wasPoweredDown, err
	}
	if err := dap.WriteMemWord(a, ap0, addrIomuxLPSRGPR1, uint32(cm4TrapAddr>>16)); err != nil {
		return wasPoweredDown, err
	}

	if err := dap.WriteMemWord(a, ap0, addrSRCSCR, 1); err != nil {
		return wasPoweredDown, err
	}

	sbmr, err := dap.ReadMemWord(a, ap0, addrSRCSBMR)
	if err != nil {
		return wasPoweredDown, err
	}
	sbmr = (sbmr &^ srcSBMRDoNotResetMask) | srcSBMRDoNotResetValue
	if err := dap.WriteMemWord(a, ap0, addrSRCSBMR, sbmr); err != nil {
		return wasPoweredDown, err
	}

	return wasPoweredDown, a.Flush()
}

func writeTrapCode(a dap.Access, ap dap.MemoryAp, base, entry uint32) error {
	if err := dap.WriteMemWord(a, ap, base, base+0x20); err != nil {
		return err
	}
	return dap.WriteMemWord(a, ap, base+4, entry)
}

func (s MIMXRT11xx) ResetSystem(a dap.Access, core CoreAccess) error {
	if err := haltCore(a, core); err != nil {
		return err
	}
	clock.Sleep(100 * time.Millisecond)

	_ = core.writeWord(a, dap.AddrAIRCR, dap.AIRCRVectReset())
	_ = a.Flush()

	clock.Sleep(100 * time.Millisecond)
	_, err := readDHCSR(a, core)
	return err
}
