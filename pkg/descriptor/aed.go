package descriptor

import "fmt"

// AEDHeaderSize is the fixed on-disk size of an Allocation Extent
// Descriptor's header, before its table of allocation descriptors
// (ECMA-167 §14.5).
const AEDHeaderSize = 24

// AED is the Allocation Extent Descriptor header: a continuation block
// for an ICB's allocation descriptor table, chained via the last
// descriptor in each block being a pointer to the next one.
type AED struct {
	Tag                           Tag
	PreviousAllocationExtentLoc  uint32
	LengthOfAllocDescs           uint32
}

// UnmarshalAED decodes an AED header from the first AEDHeaderSize bytes
// of raw. The allocation descriptor table itself follows immediately
// after, for LengthOfAllocDescs bytes.
func UnmarshalAED(raw []byte) (AED, error) {
	if len(raw) < AEDHeaderSize {
		return AED{}, fmt.Errorf("aed: need %d bytes, got %d", AEDHeaderSize, len(raw))
	}
	tag, err := UnmarshalTag(raw)
	if err != nil {
		return AED{}, err
	}
	prev, _ := readU32(raw, 16)
	length, _ := readU32(raw, 20)
	return AED{Tag: tag, PreviousAllocationExtentLoc: prev, LengthOfAllocDescs: length}, nil
}
