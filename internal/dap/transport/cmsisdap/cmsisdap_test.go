package cmsisdap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferRequestByteEncodesAPnDPAndRnW(t *testing.T) {
	assert.Equal(t, byte(0x00), transferRequestByte(false, false, 0))
	assert.Equal(t, byte(reqAPnDP), transferRequestByte(true, false, 0))
	assert.Equal(t, byte(reqRnW), transferRequestByte(false, true, 0))
	assert.Equal(t, byte(reqAPnDP|reqRnW), transferRequestByte(true, true, 0))
}

func TestTransferRequestByteEncodesRegisterBank(t *testing.T) {
	assert.Equal(t, byte(reqA2), transferRequestByte(false, false, 1))
	assert.Equal(t, byte(reqA3), transferRequestByte(false, false, 2))
	assert.Equal(t, byte(reqA2|reqA3), transferRequestByte(false, false, 3))
}

func TestTransferStatusErrorOnShortCount(t *testing.T) {
	resp := []byte{cmdTransfer, 0, 0x11}
	err := transferStatusError(resp, 1)
	assert.Error(t, err)
}

func TestTransferStatusErrorOnFullCount(t *testing.T) {
	resp := []byte{cmdTransfer, 2, 0x01}
	err := transferStatusError(resp, 2)
	assert.NoError(t, err)
}
