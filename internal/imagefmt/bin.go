package imagefmt

import (
	"fmt"
	"io"
)

// BinOptions configures LoadBinData.
type BinOptions struct {
	Skip        int64
	BaseAddress uint64
}

// LoadBinData reads r to EOF after skipping opts.Skip bytes and hands the
// whole buffer to sink as a single span at opts.BaseAddress, mirroring the
// teacher's whole-file read path in flashProgramFull.
func LoadBinData(sink Sink, r io.Reader, opts BinOptions) error {
	if opts.Skip > 0 {
		if _, err := io.CopyN(io.Discard, r, opts.Skip); err != nil {
			return fmt.Errorf("imagefmt: skip %d bytes: %w", opts.Skip, err)
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("imagefmt: read binary image: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	return sink.AddData(opts.BaseAddress, data)
}
