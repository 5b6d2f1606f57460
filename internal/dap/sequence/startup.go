// Package sequence implements the SWD-only Debug Port Startup handshake
// shared by every vendor debug sequence.
package sequence

import (
	"time"

	"github.com/daschewie/dapflash/internal/clock"
	"github.com/daschewie/dapflash/internal/dap"
)

// powerUpPollTimeout bounds step 3's ack poll.
const powerUpPollTimeout = 1 * time.Second
const powerUpPollInterval = 1 * time.Millisecond

// DebugPortStart runs the common SWD power-up handshake: power request,
// ack poll, error-clear, lane mask init. It returns true iff the port was
// powered down on entry. JTAG is not supported by this routine or by the
// Access facade it is written against.
func DebugPortStart(a dap.Access, dp dap.DpAddress, sel uint32) (bool, error) {
	if err := a.WriteDP(dp, dap.Select, sel); err != nil {
		return false, err
	}

	raw, err := a.ReadDP(dp, dap.CtrlStat)
	if err != nil {
		return false, err
	}
	cur := dap.CtrlStatValue(raw)
	if cur.SysPwrUpAck() && cur.DbgPwrUpAck() {
		return false, nil
	}

	requested := cur.WithPowerReq()
	if err := a.WriteDP(dp, dap.CtrlStat, uint32(requested)); err != nil {
		return false, err
	}

	err = clock.Poll(powerUpPollTimeout, powerUpPollInterval, func() (bool, error) {
		v, err := a.ReadDP(dp, dap.CtrlStat)
		if err != nil {
			return false, err
		}
		cs := dap.CtrlStatValue(v)
		return cs.SysPwrUpAck() && cs.DbgPwrUpAck(), nil
	})
	if err != nil {
		if err == clock.ErrTimeout {
			return false, dap.ErrTimeout
		}
		return false, err
	}

	// Step 4 is deliberately separate from step 3: the acks are observed
	// first, and only then is the transfer mode (lane mask) committed.
	withMask := requested.WithMaskLaneAll()
	if err := a.WriteDP(dp, dap.CtrlStat, uint32(withMask)); err != nil {
		return false, err
	}

	// Clears any residual stickies from the connection attempt before the
	// caller issues further transactions.
	if err := a.WriteDP(dp, dap.Abort, dap.AbortAllStickyClear); err != nil {
		return false, err
	}

	return true, nil
}
