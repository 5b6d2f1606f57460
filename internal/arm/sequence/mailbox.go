package sequence

import (
	"time"

	"github.com/daschewie/dapflash/internal/clock"
	"github.com/daschewie/dapflash/internal/dap"
)

// mailboxAPIndex is the fixed AP index LPC55xx/RT6xx/RT11xx silicon
// exposes its DebugMailbox protocol on.
const mailboxAPIndex = 2

const (
	mailboxOffReq0  = 0x0
	mailboxOffReq1  = 0x4
	mailboxOffResp2 = 0x8

	mailboxCmdStartDebugSession = 0x0000_0021
	mailboxCmdEnterDebugSession = 0x0000_0007
)

const mailboxSettleDelay = 30 * time.Millisecond

// activateDebugMailbox runs the LPC55xx/RT6xx/RT11xx "activate
// DebugMailbox, then enter debug session" handshake on AP index 2 of dp.
// Every step's ordering and sleep is a silicon contract: reads at steps 1,
// 4, and 7 are required handshakes even though their values are not
// inspected.
func activateDebugMailbox(a dap.Access, dp dap.DpAddress) error {
	mailboxAP := dap.ApAddress{DP: dp, Index: mailboxAPIndex}

	if _, err := a.ReadAP(mailboxAP, dap.IDR); err != nil {
		return err
	}
	if _, err := a.ReadDP(dp, dap.DPIDR); err != nil {
		return err
	}

	if err := a.WriteRawAP(mailboxAP, mailboxOffReq0, mailboxCmdStartDebugSession); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}
	clock.Sleep(mailboxSettleDelay)

	if _, err := a.ReadRawAP(mailboxAP, mailboxOffReq0); err != nil {
		return err
	}

	if err := a.WriteRawAP(mailboxAP, mailboxOffReq1, mailboxCmdEnterDebugSession); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}
	clock.Sleep(mailboxSettleDelay)

	if _, err := a.ReadRawAP(mailboxAP, mailboxOffResp2); err != nil {
		return err
	}

	return nil
}
