package descriptor

import "fmt"

// PDSize is the fixed on-disk size of a Partition Descriptor
// (ECMA-167 §8.4.5).
const PDSize = 512

// PDLengthFieldOffset is the byte offset of the Partition Length field
// within a PD, recorded for Provenance per the attribute-offset tracking
// the original driver performs with its g_last_pd_length_offset global.
const PDLengthFieldOffset = 192

// PD is the Partition Descriptor: it records where a logical partition
// begins and how long it is, in logical sectors relative to the volume.
type PD struct {
	Tag           Tag
	VDSNum        uint32
	PartitionFlags uint16
	PartitionNum  uint16
	StartLocation uint32
	Length        uint32
}

// UnmarshalPD decodes a PD from the first PDSize bytes of raw.
func UnmarshalPD(raw []byte) (PD, error) {
	if len(raw) < PDSize {
		return PD{}, fmt.Errorf("pd: need %d bytes, got %d", PDSize, len(raw))
	}
	tag, err := UnmarshalTag(raw)
	if err != nil {
		return PD{}, err
	}
	vdsNum, _ := readU32(raw, 16)
	flags, _ := readU16(raw, 20)
	partNum, _ := readU16(raw, 22)
	start, _ := readU32(raw, 188)
	length, _ := readU32(raw, PDLengthFieldOffset)
	return PD{
		Tag:            tag,
		VDSNum:         vdsNum,
		PartitionFlags: flags,
		PartitionNum:   partNum,
		StartLocation:  start,
		Length:         length,
	}, nil
}
