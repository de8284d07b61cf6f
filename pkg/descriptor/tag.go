// Package descriptor decodes the fixed-layout ECMA-167 structures that sit
// above a UDF volume's file tree: the descriptor tag common to every
// structure, the Anchor Volume Descriptor Pointer, the Primary/Logical
// Volume Descriptors, Partition Descriptors, partition maps, the File Set
// Descriptor, and the allocation descriptor / ICB tag types shared by
// File Entries and File Identifier Descriptors.
package descriptor

import (
	"encoding/binary"
	"fmt"
)

// TagSize is the on-disk size of a descriptor tag (ECMA-167 §7.2).
const TagSize = 16

// Tag is the descriptor tag common to every ECMA-167 structure this
// driver reads. Callers always check TagIdent at the positions named in
// the component design; the checksum is verified too when the caller
// opted into option.OpenOptions.StrictChecksums.
type Tag struct {
	TagIdent           uint16
	DescriptorVersion  uint16
	TagChecksum        uint8
	Reserved           uint8
	TagSerialNumber    uint16
	DescriptorCRC      uint16
	DescriptorCRCLen   uint16
	TagLocation        uint32
}

// UnmarshalTag decodes a Tag from the first TagSize bytes of raw.
func UnmarshalTag(raw []byte) (Tag, error) {
	if len(raw) < TagSize {
		return Tag{}, fmt.Errorf("descriptor tag: need %d bytes, got %d", TagSize, len(raw))
	}
	return Tag{
		TagIdent:          binary.LittleEndian.Uint16(raw[0:2]),
		DescriptorVersion: binary.LittleEndian.Uint16(raw[2:4]),
		TagChecksum:       raw[4],
		Reserved:          raw[5],
		TagSerialNumber:   binary.LittleEndian.Uint16(raw[6:8]),
		DescriptorCRC:     binary.LittleEndian.Uint16(raw[8:10]),
		DescriptorCRCLen:  binary.LittleEndian.Uint16(raw[10:12]),
		TagLocation:       binary.LittleEndian.Uint32(raw[12:16]),
	}, nil
}

// VerifyTagChecksum recomputes the tag checksum (ECMA-167 §7.2.5: the
// sum, mod 256, of bytes 0-3 and 5-15 of the tag) and compares it
// against the checksum byte stored at index 4.
func VerifyTagChecksum(raw []byte) bool {
	if len(raw) < TagSize {
		return false
	}
	var sum uint8
	for i := 0; i < TagSize; i++ {
		if i == 4 {
			continue
		}
		sum += raw[i]
	}
	return sum == raw[4]
}

// readU16/readU32 decode little-endian fixed-width integers with
// explicit bounds checks, per spec §4.1 (Endian/Tag Primitives).

func readU16(raw []byte, off int) (uint16, error) {
	if off+2 > len(raw) {
		return 0, fmt.Errorf("read_u16: offset %d out of bounds (len %d)", off, len(raw))
	}
	return binary.LittleEndian.Uint16(raw[off : off+2]), nil
}

func readU32(raw []byte, off int) (uint32, error) {
	if off+4 > len(raw) {
		return 0, fmt.Errorf("read_u32: offset %d out of bounds (len %d)", off, len(raw))
	}
	return binary.LittleEndian.Uint32(raw[off : off+4]), nil
}
