package dap

// Access is the DAP Access Facade every vendor debug sequence is written
// against. Writes may be posted by an implementation; callers must call
// Flush at every synchronization point: before any timed wait, before
// reading a bit a prior write was meant to set, and before returning an
// outcome to their own caller.
type Access interface {
	ReadDP(dp DpAddress, reg DPRegister) (uint32, error)
	WriteDP(dp DpAddress, reg DPRegister, value uint32) error

	ReadAP(ap ApAddress, reg APRegister) (uint32, error)
	WriteAP(ap ApAddress, reg APRegister, value uint32) error

	// ReadRawAP/WriteRawAP address a vendor-specific register by byte
	// offset within an AP, bypassing the typed IDR/CSW/TAR/DRW registers.
	// This is how the LPC55Sxx/MIMXRT6xx debug-mailbox protocol at AP
	// index 2 is reached.
	ReadRawAP(ap ApAddress, offset uint8) (uint32, error)
	WriteRawAP(ap ApAddress, offset uint8, value uint32) error

	// Flush drains any posted writes and returns the first error observed.
	Flush() error

	// SWJPins drives the SWJ pins selected by selectMask to the bits in
	// valueMask, waits waitUS microseconds, then returns the pin state, or
	// 0xFFFF_FFFF when readback is unsupported by the transport.
	SWJPins(valueMask, selectMask, waitUS uint32) (uint32, error)
}

// ReadMemWord reads a 32-bit word through a MemoryAp's TAR/DRW window.
func ReadMemWord(a Access, ap MemoryAp, addr uint32) (uint32, error) {
	if err := a.WriteAP(ap.AP, TAR, addr); err != nil {
		return 0, err
	}
	v, err := a.ReadAP(ap.AP, DRW)
	if err != nil {
		return 0, err
	}
	if err := a.Flush(); err != nil {
		return 0, err
	}
	return v, nil
}

// WriteMemWord writes a 32-bit word through a MemoryAp's TAR/DRW window.
func WriteMemWord(a Access, ap MemoryAp, addr uint32, value uint32) error {
	if err := a.WriteAP(ap.AP, TAR, addr); err != nil {
		return err
	}
	return a.WriteAP(ap.AP, DRW, value)
}
