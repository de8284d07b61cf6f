package descriptor

import "fmt"

// ShortADSize and LongADSize are the on-disk sizes of the two allocation
// descriptor forms this driver reads (ECMA-167 §14.14.1).
const (
	ShortADSize = 8
	LongADSize  = 16
	ICBTagSize  = 20
)

// ShortAD is a short_ad allocation descriptor: a length/extent-type field
// and a block position within the current partition.
type ShortAD struct {
	Length   uint32 // low 30 bits; top 2 bits are the extent type
	Position uint32
}

// ExtentType returns the extent type packed into the top 2 bits of Length.
func (a ShortAD) ExtentType() uint8 {
	return uint8(a.Length >> 30)
}

// ExtentLength returns the extent length in bytes (low 30 bits of Length).
func (a ShortAD) ExtentLength() uint32 {
	return a.Length & 0x3FFFFFFF
}

// UnmarshalShortAD decodes a ShortAD from the first ShortADSize bytes of raw.
func UnmarshalShortAD(raw []byte) (ShortAD, error) {
	if len(raw) < ShortADSize {
		return ShortAD{}, fmt.Errorf("short_ad: need %d bytes, got %d", ShortADSize, len(raw))
	}
	length, _ := readU32(raw, 0)
	position, _ := readU32(raw, 4)
	return ShortAD{Length: length, Position: position}, nil
}

// LongAD is a long_ad allocation descriptor: a length/extent-type field, a
// logical block number, and the partition reference number it is relative
// to.
type LongAD struct {
	Length      uint32
	BlockNum    uint32
	PartRef     uint16
	ImplUse     [6]byte
}

// ExtentType returns the extent type packed into the top 2 bits of Length.
func (a LongAD) ExtentType() uint8 {
	return uint8(a.Length >> 30)
}

// ExtentLength returns the extent length in bytes (low 30 bits of Length).
func (a LongAD) ExtentLength() uint32 {
	return a.Length & 0x3FFFFFFF
}

// UnmarshalLongAD decodes a LongAD from the first LongADSize bytes of raw.
func UnmarshalLongAD(raw []byte) (LongAD, error) {
	if len(raw) < LongADSize {
		return LongAD{}, fmt.Errorf("long_ad: need %d bytes, got %d", LongADSize, len(raw))
	}
	length, _ := readU32(raw, 0)
	block, _ := readU32(raw, 4)
	partRef, _ := readU16(raw, 8)
	var impl [6]byte
	copy(impl[:], raw[10:16])
	return LongAD{Length: length, BlockNum: block, PartRef: partRef, ImplUse: impl}, nil
}

// ICBTag is the fixed 20-byte header every File Entry / Extended File
// Entry / Terminal Entry / Indirect Entry begins with after the
// descriptor tag (ECMA-167 §14.6).
type ICBTag struct {
	PriorRecordedNumDirectEntries uint32
	StrategyType                 uint16
	StrategyParameter            uint16
	MaxNumEntries                uint16
	Reserved                     uint8
	FileType                     uint8
	ParentICBBlockNum            uint32
	ParentICBPartRef             uint16
	Flags                        uint16
}

// ADType returns the allocation descriptor type packed into the low 3
// bits of Flags (ECMA-167 §14.6.8): 0 short_ad, 1 long_ad, 2 extended_ad,
// 3 the data is recorded directly in the ICB.
func (t ICBTag) ADType() uint8 {
	return uint8(t.Flags & 0x7)
}

// UnmarshalICBTag decodes an ICBTag from the first ICBTagSize bytes of raw.
func UnmarshalICBTag(raw []byte) (ICBTag, error) {
	if len(raw) < ICBTagSize {
		return ICBTag{}, fmt.Errorf("icbtag: need %d bytes, got %d", ICBTagSize, len(raw))
	}
	prior, _ := readU32(raw, 0)
	strategyType, _ := readU16(raw, 4)
	strategyParam, _ := readU16(raw, 6)
	maxEntries, _ := readU16(raw, 8)
	parentBlock, _ := readU32(raw, 12)
	parentPart, _ := readU16(raw, 16)
	flags, _ := readU16(raw, 18)
	return ICBTag{
		PriorRecordedNumDirectEntries: prior,
		StrategyType:                 strategyType,
		StrategyParameter:             strategyParam,
		MaxNumEntries:                 maxEntries,
		Reserved:                      raw[10],
		FileType:                      raw[11],
		ParentICBBlockNum:             parentBlock,
		ParentICBPartRef:              parentPart,
		Flags:                         flags,
	}, nil
}
