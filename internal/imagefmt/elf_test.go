package imagefmt

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMinimalElf assembles a minimal little-endian ELF64 executable with
// exactly one PT_LOAD program header covering data, loaded at paddr. No
// section headers are emitted; debug/elf only needs the program header
// table to resolve loadable segments.
func buildMinimalElf(t *testing.T, paddr uint64, data []byte) []byte {
	t.Helper()

	const ehdrSize = 64
	const phdrSize = 56
	dataOffset := uint64(ehdrSize + phdrSize)

	var buf bytes.Buffer

	// e_ident
	buf.Write([]byte{0x7f, 'E', 'L', 'F'})
	buf.WriteByte(2) // EI_CLASS = ELFCLASS64
	buf.WriteByte(1) // EI_DATA  = ELFDATA2LSB
	buf.WriteByte(1) // EI_VERSION = EV_CURRENT
	buf.WriteByte(0) // EI_OSABI
	buf.Write(make([]byte, 8)) // EI_ABIVERSION + padding, total e_ident = 16 bytes

	le := binary.LittleEndian
	write16 := func(v uint16) { var b [2]byte; le.PutUint16(b[:], v); buf.Write(b[:]) }
	write32 := func(v uint32) { var b [4]byte; le.PutUint32(b[:], v); buf.Write(b[:]) }
	write64 := func(v uint64) { var b [8]byte; le.PutUint64(b[:], v); buf.Write(b[:]) }

	write16(2)                 // e_type = ET_EXEC
	write16(40)                // e_machine = EM_ARM
	write32(1)                 // e_version
	write64(paddr)             // e_entry
	write64(ehdrSize)          // e_phoff
	write64(0)                 // e_shoff
	write32(0)                 // e_flags
	write16(ehdrSize)          // e_ehsize
	write16(phdrSize)          // e_phentsize
	write16(1)                 // e_phnum
	write16(0)                 // e_shentsize
	write16(0)                 // e_shnum
	write16(0)                 // e_shstrndx

	require.Equal(t, ehdrSize, buf.Len())

	// program header
	write32(1) // p_type = PT_LOAD
	write32(5) // p_flags = PF_R | PF_X
	write64(dataOffset)
	write64(paddr) // p_vaddr
	write64(paddr) // p_paddr
	write64(uint64(len(data)))
	write64(uint64(len(data)))
	write64(4) // p_align

	require.Equal(t, int(dataOffset), buf.Len())

	buf.Write(data)
	return buf.Bytes()
}

func TestLoadElfDataSingleLoadSegment(t *testing.T) {
	data := []byte{0x00, 0x10, 0x00, 0x20, 0xDE, 0xAD, 0xBE, 0xEF}
	img := buildMinimalElf(t, 0x0800_0000, data)

	sink := newFakeSink()
	err := LoadElfData(sink, bytes.NewReader(img))
	require.NoError(t, err)

	assert.Equal(t, data, sink.spans[0x0800_0000])
}

func TestLoadElfDataNoLoadableSegments(t *testing.T) {
	img := buildMinimalElf(t, 0x0800_0000, nil)

	sink := newFakeSink()
	err := LoadElfData(sink, bytes.NewReader(img))
	assert.ErrorIs(t, err, ErrNoLoadableSegments)
}
