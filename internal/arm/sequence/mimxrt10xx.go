package sequence

import (
	"errors"
	"time"

	"github.com/daschewie/dapflash/internal/clock"
	"github.com/daschewie/dapflash/internal/dap"
)

// MIMXRT10xx uses the default DebugPortStart; ResetSystem tolerates
// transient AP register-read errors during its post-reset poll, a known
// hs-probe/ATSAMD21 behavior.
type MIMXRT10xx struct {
	Default
}

func (s MIMXRT10xx) ResetSystem(a dap.Access, core CoreAccess) error {
	// The reset tears the transaction; write and flush errors here are
	// expected and ignored.
	_ = core.writeWord(a, dap.AddrAIRCR, dap.AIRCRSysResetReq())
	_ = a.Flush()

	clock.Sleep(100 * time.Millisecond)

	err := clock.Poll(500*time.Millisecond, 2*time.Millisecond, func() (bool, error) {
		v, rerr := core.readWord(a, dap.AddrDHCSR)
		if rerr != nil {
			var apErr *dap.AccessPortError
			if errors.As(rerr, &apErr) && apErr.Op == dap.APRegisterRead {
				return false, nil
			}
			return false, rerr
		}
		return v&dap.DhcsrSResetSt == 0, nil
	})
	if err == clock.ErrTimeout {
		return dap.ErrTimeout
	}
	return err
}
