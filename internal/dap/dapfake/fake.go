// Package dapfake is an in-memory Access double used by vendor-sequence
// and DAP-facade tests: a register map the test pre-seeds or scripts,
// recording every access so a test can assert on ordering.
package dapfake

import (
	"fmt"

	"github.com/daschewie/dapflash/internal/dap"
)

type regKey struct {
	dp     dap.DpAddress
	ap     dap.ApAddress
	isAP   bool
	isRaw  bool
	reg    uint8
	offset uint8
}

// ReadScript lets a test queue successive return values for a specific
// register, so a poll loop can be driven through several iterations before
// the condition it is waiting on becomes true.
type ReadScript struct {
	Values []uint32
	Errs   []error
	next   int
}

// Fake is a dap.Access double. The zero value is ready to use.
type Fake struct {
	words   map[regKey]uint32
	scripts map[regKey]*ReadScript
	Log     []string

	FlushErr  error
	PinsValue uint32
	PinsErr   error
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		words:   make(map[regKey]uint32),
		scripts: make(map[regKey]*ReadScript),
	}
}

// SeedDP pre-sets the value a subsequent ReadDP will return.
func (f *Fake) SeedDP(dp dap.DpAddress, reg dap.DPRegister, v uint32) {
	f.words[regKey{dp: dp, reg: uint8(reg)}] = v
}

// SeedAP pre-sets the value a subsequent ReadAP will return.
func (f *Fake) SeedAP(ap dap.ApAddress, reg dap.APRegister, v uint32) {
	f.words[regKey{ap: ap, isAP: true, reg: uint8(reg)}] = v
}

// SeedRawAP pre-sets the value a subsequent ReadRawAP will return.
func (f *Fake) SeedRawAP(ap dap.ApAddress, offset uint8, v uint32) {
	f.words[regKey{ap: ap, isRaw: true, offset: offset}] = v
}

// ScriptDP queues a sequence of (value, error) results for successive
// ReadDP calls against reg, the last one repeating once exhausted.
func (f *Fake) ScriptDP(dp dap.DpAddress, reg dap.DPRegister, values []uint32, errs []error) {
	f.scripts[regKey{dp: dp, reg: uint8(reg)}] = &ReadScript{Values: values, Errs: errs}
}

// ScriptAP queues a sequence of (value, error) results for successive
// ReadAP calls against reg on ap, the last one repeating once exhausted.
// Because this fake does not model per-address TAR/DRW memory, a
// MemoryAp's sequence of distinct reads (e.g. DEMCR, then a status
// register, then a data word) is modeled by scripting DRW directly in
// call order.
func (f *Fake) ScriptAP(ap dap.ApAddress, reg dap.APRegister, values []uint32, errs []error) {
	f.scripts[regKey{ap: ap, isAP: true, reg: uint8(reg)}] = &ReadScript{Values: values, Errs: errs}
}

func (f *Fake) ReadDP(dp dap.DpAddress, reg dap.DPRegister) (uint32, error) {
	k := regKey{dp: dp, reg: uint8(reg)}
	f.Log = append(f.Log, fmt.Sprintf("read-dp %d", reg))
	if s, ok := f.scripts[k]; ok {
		return s.next0(f.words[k])
	}
	return f.words[k], nil
}

func (f *Fake) WriteDP(dp dap.DpAddress, reg dap.DPRegister, value uint32) error {
	f.Log = append(f.Log, fmt.Sprintf("write-dp %d=0x%X", reg, value))
	f.words[regKey{dp: dp, reg: uint8(reg)}] = value
	return nil
}

func (f *Fake) ReadAP(ap dap.ApAddress, reg dap.APRegister) (uint32, error) {
	k := regKey{ap: ap, isAP: true, reg: uint8(reg)}
	f.Log = append(f.Log, fmt.Sprintf("read-ap %d.%d reg=%d", ap.DP, ap.Index, reg))
	if s, ok := f.scripts[k]; ok {
		return s.next0(f.words[k])
	}
	return f.words[k], nil
}

func (f *Fake) WriteAP(ap dap.ApAddress, reg dap.APRegister, value uint32) error {
	f.Log = append(f.Log, fmt.Sprintf("write-ap %d.%d reg=%d=0x%X", ap.DP, ap.Index, reg, value))
	f.words[regKey{ap: ap, isAP: true, reg: uint8(reg)}] = value
	return nil
}

func (f *Fake) ReadRawAP(ap dap.ApAddress, offset uint8) (uint32, error) {
	k := regKey{ap: ap, isRaw: true, offset: offset}
	f.Log = append(f.Log, fmt.Sprintf("read-rawap %d.%d off=0x%X", ap.DP, ap.Index, offset))
	if s, ok := f.scripts[k]; ok {
		return s.next0(f.words[k])
	}
	return f.words[k], nil
}

func (f *Fake) WriteRawAP(ap dap.ApAddress, offset uint8, value uint32) error {
	f.Log = append(f.Log, fmt.Sprintf("write-rawap %d.%d off=0x%X=0x%X", ap.DP, ap.Index, offset, value))
	f.words[regKey{ap: ap, isRaw: true, offset: offset}] = value
	return nil
}

func (f *Fake) Flush() error {
	f.Log = append(f.Log, "flush")
	return f.FlushErr
}

func (f *Fake) SWJPins(valueMask, selectMask, waitUS uint32) (uint32, error) {
	f.Log = append(f.Log, fmt.Sprintf("swj-pins value=0x%X select=0x%X", valueMask, selectMask))
	return f.PinsValue, f.PinsErr
}

func (s *ReadScript) next0(fallback uint32) (uint32, error) {
	i := s.next
	if i >= len(s.Values) {
		i = len(s.Values) - 1
	}
	var v uint32
	if i >= 0 {
		v = s.Values[i]
	} else {
		v = fallback
	}
	var err error
	if i >= 0 && i < len(s.Errs) {
		err = s.Errs[i]
	}
	if s.next < len(s.Values) {
		s.next++
	}
	return v, err
}

var _ dap.Access = (*Fake)(nil)
