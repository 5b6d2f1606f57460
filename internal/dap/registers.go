// Package dap is the DAP Access Facade: typed read/write of Debug Port and
// Access Port registers, raw AP register I/O for vendor mailboxes, SWJ pin
// control, and posted-write flush semantics. It is the single point where
// every vendor debug sequence talks to the physical probe.
package dap

// DpAddress indexes a Debug Port. Most targets have exactly one.
type DpAddress uint8

// ApAddress addresses an Access Port child bus on a given Debug Port.
type ApAddress struct {
	DP    DpAddress
	Index uint8
}

// MemoryAp wraps an ApAddress known to expose a linear memory window via
// its TAR (address) and DRW (data) registers.
type MemoryAp struct {
	AP ApAddress
}

// DPRegister names a typed Debug Port register.
type DPRegister uint8

const (
	DPIDR DPRegister = iota
	CtrlStat
	Select
	Abort
)

// APRegister names a typed Access Port register, valid on any MemoryAp.
type APRegister uint8

const (
	IDR APRegister = iota
	CSW
	TAR
	DRW
)

// CTRL/STAT bit positions (ARM ADI).
const (
	CtrlStatCSYSPWRUPACK = 1 << 31
	CtrlStatCSYSPWRUPREQ = 1 << 30
	CtrlStatCDBGPWRUPACK = 1 << 29
	CtrlStatCDBGPWRUPREQ = 1 << 28
	CtrlStatSTICKYORUN   = 1 << 1
	CtrlStatWDATAERR     = 1 << 7
	CtrlStatSTICKYCMP    = 1 << 4
	CtrlStatSTICKYERR    = 1 << 5

	// CtrlStatMaskLaneShift positions the 4-bit transaction byte-lane mask.
	CtrlStatMaskLaneShift = 8
	CtrlStatMaskLaneAll   = 0b1111 << CtrlStatMaskLaneShift
)

// ABORT register sticky-clear bits.
const (
	AbortORUNERRCLR = 1 << 4
	AbortWDERRCLR   = 1 << 3
	AbortSTKERRCLR  = 1 << 2
	AbortSTKCMPCLR  = 1 << 1

	AbortAllStickyClear = AbortORUNERRCLR | AbortWDERRCLR | AbortSTKERRCLR | AbortSTKCMPCLR
)

// CSW bit positions relevant to vendor sequences.
const (
	CSWDbgStatus = 1 << 6
)

// CtrlStatValue is a typed view over the 32-bit CTRL/STAT word, masking and
// shifting against the layout above instead of hand-rolled bit arithmetic
// at call sites.
type CtrlStatValue uint32

func (v CtrlStatValue) SysPwrUpAck() bool  { return uint32(v)&CtrlStatCSYSPWRUPACK != 0 }
func (v CtrlStatValue) DbgPwrUpAck() bool  { return uint32(v)&CtrlStatCDBGPWRUPACK != 0 }
func (v CtrlStatValue) WithPowerReq() CtrlStatValue {
	return CtrlStatValue(uint32(v) | CtrlStatCSYSPWRUPREQ | CtrlStatCDBGPWRUPREQ)
}
func (v CtrlStatValue) WithMaskLaneAll() CtrlStatValue {
	return CtrlStatValue(uint32(v) | CtrlStatMaskLaneAll)
}

// DHCSR bit positions and key (ARMv7-M Debug Halting Control and Status
// Register).
const (
	DhcsrCDebugKey = 0xA05F_0000
	DhcsrCDebugEn  = 1 << 0
	DhcsrCHalt     = 1 << 1
	DhcsrSRegRdy   = 1 << 16
	DhcsrSHalt     = 1 << 17
	DhcsrSResetSt  = 1 << 25
)

// DHCSRHaltRequest builds the write-key-qualified value that halts the core
// and keeps debug enabled.
func DHCSRHaltRequest() uint32 {
	return DhcsrCDebugKey | DhcsrCHalt | DhcsrCDebugEn
}

// DEMCR bit positions (Debug Exception and Monitor Control Register).
const (
	DemcrVcCoreReset = 1 << 0
	DemcrTrcEna      = 1 << 24
)

// AIRCR bit positions and vector key (Application Interrupt and Reset
// Control Register).
const (
	AircrVectKey      = 0x05FA_0000
	AircrSysResetReq  = 1 << 2
	AircrVectReset    = 1 << 0
	AircrVectKeyShift = 16
)

// AIRCRSysResetReq builds the vector-key-qualified SYSRESETREQ value.
func AIRCRSysResetReq() uint32 { return AircrVectKey | AircrSysResetReq }

// AIRCRVectReset builds the vector-key-qualified VECTRESET value.
func AIRCRVectReset() uint32 { return AircrVectKey | AircrVectReset }

// Well-known register addresses used directly by vendor sequences (not
// modeled as typed AP registers because they are raw MMIO words, not DP/AP
// registers).
const (
	AddrDHCSR = 0xE000_EDF0
	AddrDEMCR = 0xE000_EDFC
	AddrAIRCR = 0xE000_ED0C

	AddrFPBCtrl  = 0xE000_2000
	AddrFPBComp0 = 0xE000_2008

	AddrDWTComp0 = 0xE000_1020
	AddrDWTFunc0 = 0xE000_1028

	// AddrDCRSR/AddrDCRDR are the core register transfer window a flash
	// algorithm runner uses to set up R0-R3/SP/LR/PC before a call and to
	// read R0 as a return code afterward.
	AddrDCRSR = 0xE000_EDF4
	AddrDCRDR = 0xE000_EDF8
)

// DCRSR core register numbers relevant to flash-algorithm invocation.
const (
	CoreRegR0 = 0
	CoreRegR1 = 1
	CoreRegR2 = 2
	CoreRegR3 = 3
	CoreRegSP = 13
	CoreRegLR = 14
	CoreRegPC = 15
)

// DcrsrWrite is the DCRSR bit that selects a register write rather than a
// read.
const DcrsrWrite = 1 << 16

// FPBCtrlEnable/FPBCtrlKey are the FP_CTRL bits that turn comparator
// matching on; a comparator slot is enabled by setting bit 0 of its
// COMPn register (FPBComp0Enable).
const (
	FPBCtrlEnable  = 1 << 0
	FPBCtrlKey     = 1 << 1
	FPBComp0Enable = 1 << 0
)
