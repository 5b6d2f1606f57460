// Package flash implements the Flash Builder and Flash Loader: the
// address-indexed byte store file-format ingesters fill, and the
// coordinator that groups it into per-algorithm programming groups and
// drives erase/program/verify.
package flash

import (
	"fmt"
	"iter"
	"sort"

	"github.com/daschewie/dapflash/internal/targetdesc"
)

// Builder is an append-only, address-keyed byte store. Overlap between any
// two added spans is rejected at insert time; adjacent spans are not
// merged, but range queries treat the whole set as one ordered sequence.
type Builder struct {
	spans map[uint64][]byte
	order []uint64 // cached ascending keys; nil means stale
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{spans: make(map[uint64][]byte)}
}

// AddData inserts a new span starting at addr. It fails if the new span's
// address range overlaps any existing span.
func (b *Builder) AddData(addr uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	newRange := targetdesc.Range{Start: addr, End: addr + uint64(len(data))}
	for start, existing := range b.spans {
		existingRange := targetdesc.Range{Start: start, End: start + uint64(len(existing))}
		if newRange.Overlaps(existingRange) {
			return fmt.Errorf("flash: data at [0x%X, 0x%X) overlaps existing span at [0x%X, 0x%X)",
				newRange.Start, newRange.End, existingRange.Start, existingRange.End)
		}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	b.spans[addr] = cp
	b.order = nil
	return nil
}

// HasDataInRange reports whether any added span intersects r.
func (b *Builder) HasDataInRange(r targetdesc.Range) bool {
	for start, data := range b.spans {
		spanRange := targetdesc.Range{Start: start, End: start + uint64(len(data))}
		if spanRange.Overlaps(r) {
			return true
		}
	}
	return false
}

// DataInRange iterates every span intersecting r, in ascending address
// order, yielding the span in full (callers that need clipping to r do it
// themselves, since spans are not required to merge or split at region
// boundaries).
func (b *Builder) DataInRange(r targetdesc.Range) iter.Seq2[uint64, []byte] {
	return func(yield func(uint64, []byte) bool) {
		for _, addr := range b.sortedKeys() {
			data := b.spans[addr]
			spanRange := targetdesc.Range{Start: addr, End: addr + uint64(len(data))}
			if !spanRange.Overlaps(r) {
				continue
			}
			if !yield(addr, data) {
				return
			}
		}
	}
}

// All iterates every span in ascending address order.
func (b *Builder) All() iter.Seq2[uint64, []byte] {
	return func(yield func(uint64, []byte) bool) {
		for _, addr := range b.sortedKeys() {
			if !yield(addr, b.spans[addr]) {
				return
			}
		}
	}
}

// Len returns the number of spans added.
func (b *Builder) Len() int { return len(b.spans) }

func (b *Builder) sortedKeys() []uint64 {
	if b.order != nil {
		return b.order
	}
	keys := make([]uint64, 0, len(b.spans))
	for k := range b.spans {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	b.order = keys
	return keys
}
