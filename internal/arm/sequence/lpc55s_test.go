package sequence

import (
	"strings"
	"testing"

	"github.com/daschewie/dapflash/internal/dap"
	"github.com/daschewie/dapflash/internal/dap/dapfake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCoreAccess() CoreAccess {
	return CoreAccess{AP: dap.MemoryAp{AP: dap.ApAddress{DP: 0, Index: 0}}}
}

// TestLPC55SxxResetCatchSetBadVector covers spec scenario 4: the flash read
// of the reset vector returns 0xFFFFFFFF, so DEMCR.VC_CORERESET is set as
// a fallback and the FPB registers are left untouched.
//
// This fake's DRW register is not addressed per-TAR-value, so the
// sequence of core.readWord calls ResetCatchSet makes is modeled by
// scripting DRW with one value per call, in call order: DEMCR (initial
// clear), flash status (poll, done+no-error), flash status (post-poll
// re-read), reset vector (unprogrammed), DEMCR (fallback set), DHCSR
// (flush probe).
func TestLPC55SxxResetCatchSetBadVector(t *testing.T) {
	f := dapfake.New()
	core := newCoreAccess()

	f.ScriptAP(core.AP.AP, dap.DRW, []uint32{
		0,                    // DEMCR read (clear step)
		flashStatusDoneBit,   // flash status, poll succeeds immediately
		flashStatusDoneBit,   // flash status, post-poll re-read
		resetVectorUnprogrammed,
		0, // DEMCR read (fallback set step)
		0, // DHCSR read (flush probe)
	}, nil)

	var seq LPC55Sxx
	err := seq.ResetCatchSet(f, core)
	require.NoError(t, err)

	joined := strings.Join(f.Log, "\n")
	assert.NotContains(t, joined, "0xE0002008") // FPB comparator address
	assert.NotContains(t, joined, "0xE0002000") // FPB control address
}

// TestLPC55SxxResetCatchSetGoodVector covers the companion path: a valid
// reset vector programs FPB comparator 0 and enables the FPB, and leaves
// DEMCR.VC_CORERESET clear.
func TestLPC55SxxResetCatchSetGoodVector(t *testing.T) {
	f := dapfake.New()
	core := newCoreAccess()

	const vector = 0x0000_1000
	f.ScriptAP(core.AP.AP, dap.DRW, []uint32{
		0,                  // DEMCR read (clear step)
		flashStatusDoneBit, // flash status, poll succeeds immediately
		flashStatusDoneBit, // flash status, post-poll re-read
		vector,             // reset vector
		0,                  // DHCSR read (flush probe)
	}, nil)

	var seq LPC55Sxx
	err := seq.ResetCatchSet(f, core)
	require.NoError(t, err)

	joined := strings.Join(f.Log, "\n")
	assert.Contains(t, joined, "write-ap 0.0 reg=2=0xE0002008") // TAR for FPB comparator
	assert.Contains(t, joined, "write-ap 0.0 reg=3=0x1001")     // DRW = vector|1
}
