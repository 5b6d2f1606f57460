// Package dapsession wires together a dap.Access transport, a vendor
// Sequence, and a target's memory map/algorithm set into the flash.Session
// a Loader commits against. Grounded on protocol.NewDebugPort's
// constructor-holds-config-and-conn shape: Session is constructed once per
// attach and handed everywhere a DebugPort reference used to be passed.
package dapsession

import (
	armsequence "github.com/daschewie/dapflash/internal/arm/sequence"
	"github.com/daschewie/dapflash/internal/coreexec"
	"github.com/daschewie/dapflash/internal/dap"
	"github.com/daschewie/dapflash/internal/flash"
	"github.com/daschewie/dapflash/internal/targetdesc"
)

// CoreConfig names one core reachable through the session: the memory AP
// it is debugged over and the vendor Sequence that knows how to reset and
// catch it.
type CoreConfig struct {
	Name     string
	AP       dap.MemoryAp
	Sequence armsequence.Sequence
}

// Session is the attach-scoped handle: one physical probe connection
// (dap.Access), one target's declared memory map and flash algorithms, and
// the cores reachable over it.
type Session struct {
	access     dap.Access
	targetName string
	memoryMap  []targetdesc.MemoryRegion
	algorithms []targetdesc.RawFlashAlgorithm
	cores      []CoreConfig
}

// New constructs a Session. It does not itself perform DebugPortStart;
// call Attach for that once the probe is open.
func New(access dap.Access, targetName string, memoryMap []targetdesc.MemoryRegion, algorithms []targetdesc.RawFlashAlgorithm, cores []CoreConfig) *Session {
	return &Session{
		access:     access,
		targetName: targetName,
		memoryMap:  memoryMap,
		algorithms: algorithms,
		cores:      cores,
	}
}

// Attach runs the first core's Sequence.DebugPortStart against dp: the
// Debug Port Startup sequence (spec.md §4.B) plus whatever vendor mailbox
// activation that family's DebugPortStart performs, under that family's
// own conditions. It reports whether the port had been powered down
// (wasDown), passing through DebugPortStart's own return value.
func (s *Session) Attach(dp dap.DpAddress, selectValue uint32) (wasDown bool, err error) {
	if len(s.cores) == 0 {
		return false, nil
	}
	return s.cores[0].Sequence.DebugPortStart(s.access, dp, selectValue)
}

func (s *Session) TargetName() string                        { return s.targetName }
func (s *Session) MemoryMap() []targetdesc.MemoryRegion       { return s.memoryMap }
func (s *Session) Algorithms() []targetdesc.RawFlashAlgorithm { return s.algorithms }

func (s *Session) CoreIndex(name string) (int, bool) {
	for i, c := range s.cores {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (s *Session) Core(index int) (flash.Core, error) {
	if index < 0 || index >= len(s.cores) {
		return nil, &flash.CoreError{Op: "attach", Err: dap.ErrDebugPort}
	}
	c := s.cores[index]
	return coreexec.NewCore(s.access, c.AP, c.Sequence), nil
}

// FlasherFactory returns a flash.FlasherFactory bound to this session's
// access, suitable for passing directly to Loader.Commit.
func (s *Session) FlasherFactory() flash.FlasherFactory {
	return func(session flash.Session, coreIndex int, algo targetdesc.RawFlashAlgorithm, progress flash.Progress) (flash.Flasher, error) {
		if coreIndex < 0 || coreIndex >= len(s.cores) {
			return nil, &flash.CoreError{Op: "attach", Err: dap.ErrDebugPort}
		}
		return coreexec.NewFlasher(s.access, s.cores[coreIndex].AP, algo, progress)
	}
}
