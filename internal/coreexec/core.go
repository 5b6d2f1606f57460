package coreexec

import (
	"time"

	armsequence "github.com/daschewie/dapflash/internal/arm/sequence"
	"github.com/daschewie/dapflash/internal/clock"
	"github.com/daschewie/dapflash/internal/dap"
)

// Core is the dap.Access-backed implementation of flash.Core: one memory
// AP plus the vendor Sequence that knows how to reset and halt it.
type Core struct {
	access dap.Access
	ap     dap.MemoryAp
	seq    armsequence.Sequence
}

// NewCore wraps access/ap/seq as a flash.Core.
func NewCore(access dap.Access, ap dap.MemoryAp, seq armsequence.Sequence) *Core {
	return &Core{access: access, ap: ap, seq: seq}
}

func (c *Core) coreAccess() armsequence.CoreAccess {
	return armsequence.CoreAccess{AP: c.ap}
}

func (c *Core) ReadWord32(addr uint64) (uint32, error) {
	return dap.ReadMemWord(c.access, c.ap, uint32(addr))
}

func (c *Core) WriteWord32(addr uint64, v uint32) error {
	if err := dap.WriteMemWord(c.access, c.ap, uint32(addr), v); err != nil {
		return err
	}
	return c.access.Flush()
}

// Read fills out from addr, byte by byte, reading whichever aligned word
// contains each requested byte. This keeps Read correct for any address/
// length combination at the cost of re-reading a shared word up to 4
// times; flash verify read-back is not a hot path.
func (c *Core) Read(addr uint64, out []byte) error {
	for i := range out {
		a := addr + uint64(i)
		wordAddr := a &^ 3
		word, err := c.ReadWord32(wordAddr)
		if err != nil {
			return err
		}
		shift := uint(a-wordAddr) * 8
		out[i] = byte(word >> shift)
	}
	return nil
}

// Write8 writes data to addr as a sequence of aligned read-modify-write
// word accesses, since the DAP Access facade only exposes 32-bit transfers
// through TAR/DRW.
func (c *Core) Write8(addr uint64, data []byte) error {
	for i := 0; i < len(data); {
		a := addr + uint64(i)
		wordAddr := a &^ 3
		shift := uint(a-wordAddr) * 8

		word, err := c.ReadWord32(wordAddr)
		if err != nil {
			return err
		}

		n := 0
		for n < 4-int(shift/8) && i+n < len(data) {
			byteShift := shift + uint(n)*8
			word = (word &^ (0xFF << byteShift)) | uint32(data[i+n])<<byteShift
			n++
		}

		if err := c.WriteWord32(wordAddr, word); err != nil {
			return err
		}
		i += n
	}
	return nil
}

func (c *Core) Reset() error {
	return c.seq.ResetSystem(c.access, c.coreAccess())
}

// ResetAndHalt issues a catch-reset halt: arm the reset-catch, reset, wait
// for the reset-stop condition (or timeout), then release the catch.
func (c *Core) ResetAndHalt(timeout time.Duration) error {
	core := c.coreAccess()
	if err := c.seq.ResetCatchSet(c.access, core); err != nil {
		return err
	}
	if err := c.seq.ResetSystem(c.access, core); err != nil {
		return err
	}

	deadline := timeout
	if deadline <= 0 {
		deadline = 500 * time.Millisecond
	}
	err := clock.Poll(deadline, time.Millisecond, func() (bool, error) {
		v, err := c.ReadWord32(dap.AddrDHCSR)
		if err != nil {
			return false, err
		}
		return v&dap.DhcsrSHalt != 0, nil
	})
	if err != nil && err != clock.ErrTimeout {
		return err
	}

	return c.seq.ResetCatchClear(c.access, core)
}

func (c *Core) Flush() error { return c.access.Flush() }
