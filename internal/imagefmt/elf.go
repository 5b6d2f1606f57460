package imagefmt

import (
	"debug/elf"
	"io"
)

// LoadElfData extracts every PT_LOAD segment from an ELF image and hands
// each to sink at its physical load address. Uses the standard library's
// debug/elf rather than a third-party ELF library (see DESIGN.md: no pack
// repo imports one).
func LoadElfData(sink Sink, r io.ReaderAt) error {
	f, err := elf.NewFile(r)
	if err != nil {
		return err
	}
	defer f.Close()

	loaded := 0
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil && err != io.EOF {
			return err
		}
		if err := sink.AddData(prog.Paddr, data); err != nil {
			return err
		}
		loaded++
	}

	if loaded == 0 {
		return ErrNoLoadableSegments
	}
	return nil
}
