package hidusb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenNonexistentDeviceFails(t *testing.T) {
	_, err := Open("/dev/this-hidraw-node-does-not-exist")
	assert.Error(t, err)
}
