package descriptor

import "fmt"

// ExtentAD is the extent_ad type (ECMA-167 §3.1.1): a byte length and a
// starting logical sector number.
type ExtentAD struct {
	Length uint32
	Start  uint32
}

// AVDPSize is the fixed on-disk size of an Anchor Volume Descriptor
// Pointer (ECMA-167 §8.4.2); the sector it occupies is zero-padded beyond
// this.
const AVDPSize = TagSize + 8 + 8

// AVDP is the Anchor Volume Descriptor Pointer: it locates the main (and
// reserve) Volume Descriptor Sequence.
type AVDP struct {
	Tag        Tag
	MainVDS    ExtentAD
	ReserveVDS ExtentAD
}

// UnmarshalAVDP decodes an AVDP from the first AVDPSize bytes of raw.
func UnmarshalAVDP(raw []byte) (AVDP, error) {
	if len(raw) < AVDPSize {
		return AVDP{}, fmt.Errorf("avdp: need %d bytes, got %d", AVDPSize, len(raw))
	}
	tag, err := UnmarshalTag(raw)
	if err != nil {
		return AVDP{}, err
	}
	mainLen, _ := readU32(raw, 16)
	mainStart, _ := readU32(raw, 20)
	resLen, _ := readU32(raw, 24)
	resStart, _ := readU32(raw, 28)
	return AVDP{
		Tag:        tag,
		MainVDS:    ExtentAD{Length: mainLen, Start: mainStart},
		ReserveVDS: ExtentAD{Length: resLen, Start: resStart},
	}, nil
}
