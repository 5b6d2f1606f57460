package flash

import (
	"time"

	"github.com/daschewie/dapflash/internal/targetdesc"
)

// Flasher runs an on-target flash algorithm against one core. Commit
// constructs exactly one Flasher per (algorithm name, core name) group and
// calls Program once per region in that group. Concrete implementations
// live in internal/coreexec; Flasher is defined here, on the consumer
// side, so that package can depend on flash without flash depending back
// on it.
type Flasher interface {
	IsChipEraseSupported() bool
	DoubleBufferingSupported() bool
	RunEraseAll() error
	Program(region targetdesc.MemoryRegion, b *Builder, keepUnwrittenBytes, doubleBuffer, skipErase bool) error
}

// Core is the minimal on-target memory/reset interface Commit uses for RAM
// writes and verify read-back.
type Core interface {
	ReadWord32(addr uint64) (uint32, error)
	WriteWord32(addr uint64, v uint32) error
	Read(addr uint64, out []byte) error
	Write8(addr uint64, data []byte) error
	Reset() error
	ResetAndHalt(timeout time.Duration) error
	Flush() error
}

// FlasherFactory constructs a Flasher for one (core, algorithm) pairing.
// Commit calls this once per programming group rather than importing a
// concrete Flasher type, keeping the on-target flash-algorithm runner an
// external collaborator.
type FlasherFactory func(session Session, coreIndex int, algo targetdesc.RawFlashAlgorithm, progress Progress) (Flasher, error)

// Session is the subset of session state Commit needs: the live memory
// map (to detect drift from the loader's own snapshot), the known
// algorithms, core resolution by name, and a core handle for RAM
// writes/verify.
type Session interface {
	TargetName() string
	MemoryMap() []targetdesc.MemoryRegion
	Algorithms() []targetdesc.RawFlashAlgorithm
	CoreIndex(name string) (int, bool)
	Core(index int) (Core, error)
}
