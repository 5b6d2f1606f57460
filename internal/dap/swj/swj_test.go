package swj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

type fakePin struct {
	level gpio.Level
}

func (p *fakePin) Out(l gpio.Level) error {
	p.level = l
	return nil
}

func (p *fakePin) Read() gpio.Level { return p.level }

var _ Pin = (*fakePin)(nil)

func TestDriveSetsSelectedPinsOnly(t *testing.T) {
	swclk := &fakePin{level: gpio.High}
	swdio := &fakePin{level: gpio.High}
	d := New(Pins{SWCLK: swclk, SWDIO: swdio})

	_, err := d.Drive(0, BitSWCLKTCK, 0)
	require.NoError(t, err)

	assert.Equal(t, gpio.Low, swclk.level)
	assert.Equal(t, gpio.High, swdio.level, "SWDIO was not selected, must be left untouched")
}

func TestDriveReturnsComposedPinState(t *testing.T) {
	swclk := &fakePin{level: gpio.High}
	swdio := &fakePin{level: gpio.Low}
	nreset := &fakePin{level: gpio.High}
	d := New(Pins{SWCLK: swclk, SWDIO: swdio, NReset: nreset})

	state, err := d.Drive(0, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, uint32(BitSWCLKTCK|BitNRESET), state)
}

func TestDriveToleratesUnwiredPins(t *testing.T) {
	d := New(Pins{})

	state, err := d.Drive(BitSWCLKTCK|BitSWDIOTMS|BitNRESET, BitSWCLKTCK|BitSWDIOTMS|BitNRESET, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), state)
}
