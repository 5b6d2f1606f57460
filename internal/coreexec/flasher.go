package coreexec

import (
	"fmt"
	"time"

	"github.com/daschewie/dapflash/internal/clock"
	"github.com/daschewie/dapflash/internal/dap"
	"github.com/daschewie/dapflash/internal/flash"
	"github.com/daschewie/dapflash/internal/targetdesc"
)

// algorithmCallTimeout bounds every Init/UnInit/EraseSector/EraseAll/
// ProgramPage invocation; flash algorithms are expected to complete well
// under this on any supported part.
const algorithmCallTimeout = 10 * time.Second

// Flasher downloads a RawFlashAlgorithm's code/data into target RAM once,
// then drives its Init/EraseSector/EraseAll/ProgramPage/UnInit entry
// points through the core register transfer window, exactly the
// CMSIS-DAP flash-algorithm calling convention: halt, set up R0-R3/SP/LR/
// PC, arm an FPB breakpoint at the algorithm's own load address as the
// return trap, resume, wait for the breakpoint to fire, read R0.
type Flasher struct {
	access   dap.Access
	ap       dap.MemoryAp
	algo     targetdesc.RawFlashAlgorithm
	progress flash.Progress
}

// NewFlasher downloads algo and calls its Init entry point. coreIndex is
// resolved by the caller (internal/dapsession) into the dap.MemoryAp the
// algorithm runs against.
func NewFlasher(access dap.Access, ap dap.MemoryAp, algo targetdesc.RawFlashAlgorithm, progress flash.Progress) (*Flasher, error) {
	if progress == nil {
		progress = flash.NilProgress{}
	}
	f := &Flasher{access: access, ap: ap, algo: algo, progress: progress}
	if err := f.download(); err != nil {
		return nil, err
	}
	if _, err := f.call(f.algo.Functions.Init, f.algo.AddressRange.Start, 0, 0); err != nil {
		return nil, fmt.Errorf("coreexec: algorithm %q init: %w", algo.Name, err)
	}
	return f, nil
}

func (f *Flasher) IsChipEraseSupported() bool {
	return f.algo.SupportsChipErase && f.algo.Functions.EraseAll != 0
}
func (f *Flasher) DoubleBufferingSupported() bool { return f.algo.SupportsDoubleBuffering }

func (f *Flasher) RunEraseAll() error {
	if !f.IsChipEraseSupported() {
		return fmt.Errorf("coreexec: algorithm %q does not support chip erase", f.algo.Name)
	}
	f.progress.Log("erasing whole chip via algorithm %q", f.algo.Name)
	_, err := f.call(f.algo.Functions.EraseAll, 0, 0, 0)
	return err
}

// Program erases (unless skipErase) and writes every builder span within
// region's range, one ProgramPage call per algo.PageSize-sized chunk.
func (f *Flasher) Program(region targetdesc.MemoryRegion, b *flash.Builder, keepUnwrittenBytes, doubleBuffer, skipErase bool) error {
	pageSize := f.algo.PageSize
	if pageSize == 0 {
		pageSize = 256
	}

	for addr, data := range b.DataInRange(region.Range) {
		if !skipErase {
			if err := f.eraseSectorsCovering(addr, uint64(len(data))); err != nil {
				return err
			}
		}
		if err := f.programPages(addr, data, pageSize); err != nil {
			return err
		}
	}
	return nil
}

func (f *Flasher) eraseSectorsCovering(addr uint64, length uint64) error {
	pageSize := uint64(f.algo.PageSize)
	if pageSize == 0 {
		pageSize = 256
	}
	start := addr &^ (pageSize - 1)
	for a := start; a < addr+length; a += pageSize {
		f.progress.Log("erasing sector at 0x%X via algorithm %q", a, f.algo.Name)
		if _, err := f.call(f.algo.Functions.EraseSector, a, 0, 0); err != nil {
			return fmt.Errorf("coreexec: erase sector at 0x%X: %w", a, err)
		}
	}
	return nil
}

func (f *Flasher) programPages(addr uint64, data []byte, pageSize uint32) error {
	dataLoad := f.algo.LoadAddress + uint64(len(f.algo.Code))
	for off := 0; off < len(data); off += int(pageSize) {
		end := off + int(pageSize)
		if end > len(data) {
			end = len(data)
		}
		chunk := data[off:end]
		if err := f.writeBlob(dataLoad, chunk); err != nil {
			return err
		}
		f.progress.Log("programming 0x%X (%d bytes) via algorithm %q", addr+uint64(off), len(chunk), f.algo.Name)
		if _, err := f.call(f.algo.Functions.ProgramPage, addr+uint64(off), uint64(len(chunk)), dataLoad); err != nil {
			return fmt.Errorf("coreexec: program page at 0x%X: %w", addr+uint64(off), err)
		}
	}
	return nil
}

func (f *Flasher) download() error {
	if err := f.writeBlob(f.algo.LoadAddress, f.algo.Code); err != nil {
		return fmt.Errorf("coreexec: download algorithm code: %w", err)
	}
	if len(f.algo.Data) > 0 {
		if err := f.writeBlob(f.algo.LoadAddress+uint64(len(f.algo.Code)), f.algo.Data); err != nil {
			return fmt.Errorf("coreexec: download algorithm data: %w", err)
		}
	}
	return nil
}

func (f *Flasher) writeBlob(addr uint64, data []byte) error {
	return NewCore(f.access, f.ap, nil).Write8(addr, data)
}

// call invokes the algorithm function at the given byte offset (0 means
// "not implemented", and is skipped) with up to three word arguments, and
// returns the value left in R0.
func (f *Flasher) call(fnOffset uint32, arg0, arg1, arg2 uint64) (uint32, error) {
	if fnOffset == 0 {
		return 0, nil
	}

	entry := uint32(f.algo.LoadAddress) + fnOffset
	returnAddr := uint32(f.algo.LoadAddress)

	if err := haltCoreForCall(f.access, f.ap); err != nil {
		return 0, err
	}

	regs := [...]struct {
		num uint32
		val uint32
	}{
		{dap.CoreRegR0, uint32(arg0)},
		{dap.CoreRegR1, uint32(arg1)},
		{dap.CoreRegR2, uint32(arg2)},
		{dap.CoreRegSP, uint32(f.algo.StackPointer)},
		{dap.CoreRegLR, returnAddr | 1},
		{dap.CoreRegPC, entry},
	}
	for _, r := range regs {
		if err := writeCoreReg(f.access, f.ap, r.num, r.val); err != nil {
			return 0, err
		}
	}

	if err := armReturnBreakpoint(f.access, f.ap, returnAddr); err != nil {
		return 0, err
	}
	if err := resumeCore(f.access, f.ap); err != nil {
		return 0, err
	}

	err := clock.Poll(algorithmCallTimeout, time.Millisecond, func() (bool, error) {
		v, err := dap.ReadMemWord(f.access, f.ap, dap.AddrDHCSR)
		if err != nil {
			return false, err
		}
		return v&dap.DhcsrSHalt != 0, nil
	})
	if err == clock.ErrTimeout {
		return 0, fmt.Errorf("coreexec: algorithm call at offset 0x%X timed out", fnOffset)
	}
	if err != nil {
		return 0, err
	}

	if err := disarmReturnBreakpoint(f.access, f.ap); err != nil {
		return 0, err
	}

	return readCoreReg(f.access, f.ap, dap.CoreRegR0)
}
