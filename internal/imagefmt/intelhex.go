package imagefmt

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// intelHexRecordPattern matches :LLAAAATT[DD...]CC records, one capture
// group per field.
var intelHexRecordPattern = regexp.MustCompile(`^:([0-9a-fA-F]{2})([0-9a-fA-F]{4})([0-9a-fA-F]{2})([0-9a-fA-F]*)([0-9a-fA-F]{2})`)

const (
	hexRecordData                   = 0x00
	hexRecordEndOfFile               = 0x01
	hexRecordExtendedSegmentAddress = 0x02
	hexRecordStartSegmentAddress = 0x03
	hexRecordExtendedLinearAddress = 0x04
	hexRecordStartLinearAddress = 0x05
)

// LoadHexData streams an Intel HEX file line by line, tracking the
// extended segment/linear base address records and handing each data
// record to sink with that base applied. Grounded directly on
// pkg/loader/intelhex.go's regex-per-line approach, generalized from the
// teacher's segment/linear records to the full spec'd record set.
func LoadHexData(sink Sink, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	var base uint64

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}

		matches := intelHexRecordPattern.FindStringSubmatch(line)
		if matches == nil {
			return fmt.Errorf("imagefmt: invalid intel hex record at line %d: %s", lineNum, line)
		}

		byteCount, _ := strconv.ParseUint(matches[1], 16, 8)
		address, _ := strconv.ParseUint(matches[2], 16, 16)
		recordType, _ := strconv.ParseUint(matches[3], 16, 8)
		dataHex := matches[4]

		switch recordType {
		case hexRecordData:
			data, err := hex.DecodeString(dataHex)
			if err != nil {
				return fmt.Errorf("imagefmt: invalid data at line %d: %w", lineNum, err)
			}
			if uint64(len(data)) != byteCount {
				return fmt.Errorf("imagefmt: byte count mismatch at line %d: expected %d, got %d",
					lineNum, byteCount, len(data))
			}
			if err := sink.AddData(base+address, data); err != nil {
				return fmt.Errorf("imagefmt: sink failed at line %d: %w", lineNum, err)
			}

		case hexRecordEndOfFile:
			return nil

		case hexRecordExtendedSegmentAddress:
			segment, _ := strconv.ParseUint(dataHex, 16, 32)
			base = segment << 4

		case hexRecordExtendedLinearAddress:
			ext, _ := strconv.ParseUint(dataHex, 16, 32)
			base = ext << 16

		case hexRecordStartSegmentAddress, hexRecordStartLinearAddress:
			// execution start address, not data; ignored

		default:
			return fmt.Errorf("imagefmt: unsupported record type 0x%02X at line %d", recordType, lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("imagefmt: read intel hex: %w", err)
	}
	return nil
}
