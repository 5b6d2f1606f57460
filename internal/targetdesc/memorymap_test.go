package targetdesc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMap() []MemoryRegion {
	return []MemoryRegion{
		{Kind: KindNvm, Range: Range{0x0800_0000, 0x0800_4000}, Cores: []string{"main"}, Name: "flash0"},
		{Kind: KindRam, Range: Range{0x2000_0000, 0x2000_8000}, Cores: []string{"main"}, Name: "sram0"},
		{Kind: KindGeneric, Range: Range{0xE000_0000, 0xE000_1000}, Cores: []string{"main"}, Name: "scs"},
	}
}

func TestRegionFor(t *testing.T) {
	m := testMap()

	r, ok := RegionFor(m, 0x0800_1000)
	require.True(t, ok)
	assert.Equal(t, "flash0", r.Name)

	_, ok = RegionFor(m, 0x1000_0000)
	assert.False(t, ok)
}

func TestCheckCoverage(t *testing.T) {
	m := testMap()

	tests := []struct {
		name    string
		r       Range
		wantErr bool
	}{
		{"fully inside nvm", Range{0x0800_0000, 0x0800_4000}, false},
		{"one byte past nvm region fails", Range{0x0800_0000, 0x0800_4001}, true},
		{"inside ram", Range{0x2000_0000, 0x2000_0100}, false},
		{"generic region is not coverage", Range{0xE000_0000, 0xE000_0010}, true},
		{"unmapped gap", Range{0x9000_0000, 0x9000_0010}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckCoverage(m, tc.r, "builtin")
			if tc.wantErr {
				assert.Error(t, err)
				var nsErr *NoSuitableNvmError
				assert.ErrorAs(t, err, &nsErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRangeOverlaps(t *testing.T) {
	a := Range{0, 10}
	b := Range{5, 15}
	c := Range{10, 20}

	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c)) // half-open: touching at boundary is not overlap
}
