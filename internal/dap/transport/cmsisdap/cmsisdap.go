// Package cmsisdap implements dap.Access over a CMSIS-DAP probe's HID
// command set, reached through a go.bug.st/serial port exactly as
// pkg/connection/serial.go reaches a Foenix debug port: open, set a read
// timeout, blocking exact-length Read/Write.
package cmsisdap

import (
	"fmt"
	"time"

	"github.com/daschewie/dapflash/internal/dap"
	"go.bug.st/serial"
)

// CMSIS-DAP command IDs (CMSIS-DAP protocol, DAP_* commands).
const (
	cmdInfo                = 0x00
	cmdConnect              = 0x02
	cmdDisconnect           = 0x03
	cmdTransferConfigure    = 0x04
	cmdTransfer             = 0x05
	cmdWriteABORT           = 0x08
	cmdSWJPins              = 0x10
	cmdSWJClock             = 0x11
	cmdSWJSequence          = 0x12
	connectSWD              = 0x01
)

// Transfer request-byte bits (CMSIS-DAP DAP_Transfer).
const (
	reqAPnDP = 1 << 0
	reqRnW   = 1 << 1
	reqA2    = 1 << 2
	reqA3    = 1 << 3
)

// pendingWrite is one write queued by WriteDP/WriteAP/WriteRawAP, sent as
// part of the next Flush's DAP_Transfer packet rather than immediately.
type pendingWrite struct {
	apDP  bool // true: AP register, false: DP register
	apIdx uint8
	reg   uint8 // register index within its 4-register bank
	value uint32
}

// Probe is a dap.Access implementation talking CMSIS-DAP over a serial HID
// report pipe.
type Probe struct {
	port   serial.Port
	posted []pendingWrite
}

// Open opens portName at the CMSIS-DAP HID report baud (irrelevant over
// USB HID but required by the serial.Mode struct), matching
// SerialConnection.Open's retry-once-on-failure shape, then issues
// DAP_Connect(SWD).
func Open(portName string, timeout time.Duration) (*Probe, error) {
	mode := &serial.Mode{BaudRate: 115200}

	port, err := serial.Open(portName, mode)
	if err != nil {
		if port != nil {
			port.Close()
		}
		port, err = serial.Open(portName, mode)
		if err != nil {
			return nil, fmt.Errorf("cmsisdap: open %s: %w", portName, err)
		}
	}

	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("cmsisdap: set read timeout: %w", err)
	}

	p := &Probe{port: port}
	if err := p.connect(); err != nil {
		port.Close()
		return nil, err
	}
	return p, nil
}

func (p *Probe) connect() error {
	resp, err := p.exchange([]byte{cmdConnect, connectSWD})
	if err != nil {
		return fmt.Errorf("cmsisdap: connect: %w", err)
	}
	if len(resp) < 2 || resp[1] != connectSWD {
		return fmt.Errorf("cmsisdap: probe rejected SWD connect")
	}
	return nil
}

// Close disconnects and releases the underlying port.
func (p *Probe) Close() error {
	_, _ = p.exchange([]byte{cmdDisconnect})
	return p.port.Close()
}

func (p *Probe) ReadDP(dp dap.DpAddress, reg dap.DPRegister) (uint32, error) {
	if err := p.Flush(); err != nil {
		return 0, err
	}
	return p.transferRead(false, uint8(dp), uint8(reg))
}

func (p *Probe) WriteDP(dp dap.DpAddress, reg dap.DPRegister, value uint32) error {
	p.posted = append(p.posted, pendingWrite{apDP: false, apIdx: uint8(dp), reg: uint8(reg), value: value})
	return nil
}

func (p *Probe) ReadAP(ap dap.ApAddress, reg dap.APRegister) (uint32, error) {
	if err := p.Flush(); err != nil {
		return 0, err
	}
	return p.transferRead(true, ap.Index, uint8(reg))
}

func (p *Probe) WriteAP(ap dap.ApAddress, reg dap.APRegister, value uint32) error {
	p.posted = append(p.posted, pendingWrite{apDP: true, apIdx: ap.Index, reg: uint8(reg), value: value})
	return nil
}

func (p *Probe) ReadRawAP(ap dap.ApAddress, offset uint8) (uint32, error) {
	if err := p.Flush(); err != nil {
		return 0, err
	}
	return p.transferRead(true, ap.Index, offset>>2)
}

func (p *Probe) WriteRawAP(ap dap.ApAddress, offset uint8, value uint32) error {
	p.posted = append(p.posted, pendingWrite{apDP: true, apIdx: ap.Index, reg: offset >> 2, value: value})
	return nil
}

// Flush drains every posted write as one DAP_Transfer request packet and
// returns the first error the probe reports.
func (p *Probe) Flush() error {
	if len(p.posted) == 0 {
		return nil
	}
	writes := p.posted
	p.posted = nil

	// AP selection (DP SELECT.APSEL/APBANKSEL) is written through WriteDP
	// like any other DP register before these posted AP writes run, so the
	// transfer request byte only needs to carry bank index, not AP index.
	req := []byte{cmdTransfer, 0x00, byte(len(writes))}
	for _, w := range writes {
		req = append(req, transferRequestByte(w.apDP, false, w.reg))
		req = append(req, byte(w.value), byte(w.value>>8), byte(w.value>>16), byte(w.value>>24))
	}

	resp, err := p.exchange(req)
	if err != nil {
		return fmt.Errorf("cmsisdap: flush: %w", err)
	}
	return transferStatusError(resp, len(writes))
}

func (p *Probe) transferRead(apDP bool, _ uint8, reg uint8) (uint32, error) {
	req := []byte{cmdTransfer, 0x00, 0x01, transferRequestByte(apDP, true, reg)}
	resp, err := p.exchange(req)
	if err != nil {
		return 0, fmt.Errorf("cmsisdap: transfer read: %w", err)
	}
	if err := transferStatusError(resp, 1); err != nil {
		return 0, err
	}
	if len(resp) < 7 {
		return 0, fmt.Errorf("cmsisdap: short transfer response")
	}
	return uint32(resp[3]) | uint32(resp[4])<<8 | uint32(resp[5])<<16 | uint32(resp[6])<<24, nil
}

func transferRequestByte(apDP bool, isRead bool, reg uint8) byte {
	var b byte
	if apDP {
		b |= reqAPnDP
	}
	if isRead {
		b |= reqRnW
	}
	if reg&0x01 != 0 {
		b |= reqA2
	}
	if reg&0x02 != 0 {
		b |= reqA3
	}
	return b
}

// transferStatusError decodes DAP_Transfer's response: byte[1] is the
// count of transfers actually executed, byte[2] the ACK/status of the last
// one attempted. Anything short of wantCount completed is reported as a
// plain error carrying both counts and the status byte; no dap error kind
// is wrapped.
func transferStatusError(resp []byte, wantCount int) error {
	if len(resp) < 3 {
		return fmt.Errorf("cmsisdap: malformed transfer response")
	}
	if int(resp[1]) < wantCount {
		return fmt.Errorf("cmsisdap: transfer failed after %d/%d transfers (status 0x%02X)", resp[1], wantCount, resp[2])
	}
	return nil
}

// SWJPins drives the SWJ pins directly (CMSIS-DAP DAP_SWJ_Pins).
func (p *Probe) SWJPins(valueMask, selectMask, waitUS uint32) (uint32, error) {
	if err := p.Flush(); err != nil {
		return 0, err
	}
	req := []byte{
		cmdSWJPins,
		byte(valueMask), byte(selectMask),
		byte(waitUS), byte(waitUS >> 8), byte(waitUS >> 16), byte(waitUS >> 24),
	}
	resp, err := p.exchange(req)
	if err != nil {
		return 0, fmt.Errorf("cmsisdap: swj pins: %w", err)
	}
	if len(resp) < 2 {
		return 0xFFFF_FFFF, nil
	}
	return uint32(resp[1]), nil
}

// exchange writes one HID report and reads one back, matching
// SerialConnection's blocking exact-length Read/Write.
func (p *Probe) exchange(req []byte) ([]byte, error) {
	if _, err := p.writeExact(req); err != nil {
		return nil, err
	}
	return p.readExact(64)
}

func (p *Probe) writeExact(data []byte) (int, error) {
	total := 0
	for total < len(data) {
		n, err := p.port.Write(data[total:])
		if err != nil {
			return total, fmt.Errorf("cmsisdap write: %w", err)
		}
		total += n
	}
	return total, nil
}

func (p *Probe) readExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	total := 0
	for total < n {
		read, err := p.port.Read(buf[total:])
		if err != nil {
			return nil, fmt.Errorf("cmsisdap read: %w", err)
		}
		if read == 0 {
			return nil, fmt.Errorf("cmsisdap read timeout (expected %d bytes, got %d)", n, total)
		}
		total += read
	}
	return buf, nil
}

var _ dap.Access = (*Probe)(nil)
