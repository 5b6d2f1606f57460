package imagefmt

import "io"

// idfChipLayout gives the fixed flash offsets ESP-IDF's second-stage
// bootloader and partition table load at; these vary per chip because the
// boot ROM reads the bootloader header from a chip-specific address. The
// application image itself is linked against flash-mapped addresses
// already present in its ELF program headers, so it needs no rebasing.
type idfChipLayout struct {
	bootloaderOffset     uint64
	partitionTableOffset uint64
}

var idfChipLayouts = map[string]idfChipLayout{
	"esp32":   {bootloaderOffset: 0x1000, partitionTableOffset: 0x8000},
	"esp32s2": {bootloaderOffset: 0x1000, partitionTableOffset: 0x8000},
	"esp32s3": {bootloaderOffset: 0x0000, partitionTableOffset: 0x8000},
	"esp32c3": {bootloaderOffset: 0x0000, partitionTableOffset: 0x8000},
}

// IdfOptions carries the ESP-IDF second-stage bootloader and partition
// table blobs that accompany the application ELF; both are produced by
// idf.py alongside the application image and are opaque to this loader.
type IdfOptions struct {
	Bootloader     []byte
	PartitionTable []byte
}

// LoadIdfData converts an ESP-IDF application ELF plus its accompanying
// bootloader and partition table into flash spans. targetName must match
// one of the chip names in idfChipLayouts; anything else fails with
// IdfUnsupportedError.
func LoadIdfData(sink Sink, targetName string, r io.ReaderAt, opts IdfOptions) error {
	layout, ok := idfChipLayouts[targetName]
	if !ok {
		return &IdfUnsupportedError{TargetName: targetName}
	}

	if len(opts.Bootloader) > 0 {
		if err := sink.AddData(layout.bootloaderOffset, opts.Bootloader); err != nil {
			return err
		}
	}
	if len(opts.PartitionTable) > 0 {
		if err := sink.AddData(layout.partitionTableOffset, opts.PartitionTable); err != nil {
			return err
		}
	}

	return LoadElfData(sink, r)
}
