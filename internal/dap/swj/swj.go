// Package swj drives the SWJ-DP pins directly over local GPIO, for a
// bit-banged adapter board rather than a CMSIS-DAP firmware in between.
// Grounded on other_examples' gentam-gice Flash.tx: assert/drive, run the
// transaction, release — here driving a pin high/low instead of
// asserting/releasing chip-select, and BusyWait's wait reduced to a plain
// time.Sleep for waitUS's settle delay.
package swj

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Pin bit positions within valueMask/selectMask, matching CMSIS-DAP's
// DAP_SWJ_Pins bit layout for the subset of SWJ signals this driver
// exposes.
const (
	BitSWCLKTCK = 1 << 0
	BitSWDIOTMS = 1 << 1
	BitNRESET   = 1 << 7
)

// Pin is the slice of gpio.PinIO that driving one SWJ signal needs. A real
// periph.io gpio.PinIO satisfies it; tests use a plain fake.
type Pin interface {
	Out(l gpio.Level) error
	Read() gpio.Level
}

// Pins names the physical GPIO lines backing each SWJ signal. Any entry may
// be nil if the adapter board does not wire it out (most boards omit
// nRESET readback, for instance).
type Pins struct {
	SWCLK  Pin
	SWDIO  Pin
	NReset Pin
}

// Driver is a dap.Access.SWJPins-shaped pin driver over local GPIO.
type Driver struct {
	pins Pins
}

// New wraps pins as a Driver.
func New(pins Pins) *Driver {
	return &Driver{pins: pins}
}

// Drive sets each selected pin to the level in valueMask, waits waitUS
// microseconds, then reads every pin back and returns the composed state,
// matching dap.Access.SWJPins's contract.
func (d *Driver) Drive(valueMask, selectMask, waitUS uint32) (uint32, error) {
	if err := d.set(d.pins.SWCLK, BitSWCLKTCK, valueMask, selectMask); err != nil {
		return 0, fmt.Errorf("swj: drive SWCLK: %w", err)
	}
	if err := d.set(d.pins.SWDIO, BitSWDIOTMS, valueMask, selectMask); err != nil {
		return 0, fmt.Errorf("swj: drive SWDIO: %w", err)
	}
	if err := d.set(d.pins.NReset, BitNRESET, valueMask, selectMask); err != nil {
		return 0, fmt.Errorf("swj: drive nRESET: %w", err)
	}

	if waitUS > 0 {
		time.Sleep(time.Duration(waitUS) * time.Microsecond)
	}

	var state uint32
	state |= d.read(d.pins.SWCLK, BitSWCLKTCK)
	state |= d.read(d.pins.SWDIO, BitSWDIOTMS)
	state |= d.read(d.pins.NReset, BitNRESET)
	return state, nil
}

func (d *Driver) set(pin Pin, bit, valueMask, selectMask uint32) error {
	if pin == nil || selectMask&bit == 0 {
		return nil
	}
	level := gpio.Low
	if valueMask&bit != 0 {
		level = gpio.High
	}
	return pin.Out(level)
}

func (d *Driver) read(pin Pin, bit uint32) uint32 {
	if pin == nil {
		return 0
	}
	if pin.Read() == gpio.High {
		return bit
	}
	return 0
}
