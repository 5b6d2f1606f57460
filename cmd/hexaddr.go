package cmd

import (
	"fmt"
	"strconv"
	"strings"
)

// parseHexAddress accepts a bare hex string or one prefixed with 0x/0X,
// matching util.ParseHexAddress's leniency in the teacher.
func parseHexAddress(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, fmt.Errorf("empty address")
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex address %q: %w", s, err)
	}
	return v, nil
}
