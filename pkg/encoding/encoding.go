// Package encoding decodes the OSTA string and timestamp formats UDF
// structures carry on disk: compression-id-prefixed "dchars"/"dstrings"
// (CS0, i.e. 8-bit or big-endian UCS-2) and the ECMA-167 Timestamp.
package encoding

import (
	"fmt"
	"time"
	"unicode/utf16"

	"github.com/bgrewell/udf-kit/pkg/udferr"
)

// DecodeDChars decodes an OSTA "dchars" byte sequence: the first byte is a
// compression ID (8 = the remaining bytes are 8-bit code points, 16 = the
// remaining bytes are big-endian UCS-2 pairs); any other value is an
// error. Empty input decodes to the empty string without error.
func DecodeDChars(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	switch raw[0] {
	case 8:
		codepoints := raw[1:]
		runes := make([]rune, len(codepoints))
		for i, b := range codepoints {
			runes[i] = rune(b)
		}
		return string(runes), nil
	case 16:
		body := raw[1:]
		if len(body)%2 != 0 {
			body = body[:len(body)-1]
		}
		units := make([]uint16, len(body)/2)
		for i := range units {
			units[i] = uint16(body[2*i])<<8 | uint16(body[2*i+1])
		}
		return string(utf16.Decode(units)), nil
	default:
		return "", fmt.Errorf("%w: compression id %d", udferr.ErrInvalidString, raw[0])
	}
}

// DecodeDString decodes a fixed-size "dstring" field: the byte at index
// size-1 holds the number of used bytes at the front of the field
// (clamped to size-1), the rest of the field is unused padding.
func DecodeDString(field []byte) (string, error) {
	if len(field) == 0 {
		return "", nil
	}

	used := int(field[len(field)-1])
	if used > len(field)-1 {
		used = len(field) - 1
	}
	return DecodeDChars(field[:used])
}

// DecodeTimestamp decodes an ECMA-167 §7.3 Timestamp (12 bytes: 2-byte
// type/timezone, 2-byte year, then month/day/hour/minute/second as single
// bytes, then centiseconds/microseconds) into a time.Time in a fixed zone
// derived from the embedded offset. Only local-time timestamps
// (type_and_timezone upper 4 bits == 1) carry a meaningful offset; the
// sentinel offset -2047 means "unspecified" and is treated as UTC.
func DecodeTimestamp(raw [12]byte) (time.Time, bool) {
	typeAndTZ := uint16(raw[0]) | uint16(raw[1])<<8
	if typeAndTZ>>12 != 1 {
		return time.Time{}, false
	}

	tz := int16(typeAndTZ & 0x0FFF)
	if tz&0x0800 != 0 {
		tz |= ^int16(0x0FFF) // sign-extend from bit 11
	}
	if tz == -2047 {
		tz = 0
	}

	year := int(uint16(raw[2]) | uint16(raw[3])<<8)
	month := time.Month(raw[4])
	day := int(raw[5])
	hour := int(raw[6])
	minute := int(raw[7])
	second := int(raw[8])

	loc := time.FixedZone("", 60*int(tz))
	return time.Date(year, month, day, hour, minute, second, 0, loc), true
}
