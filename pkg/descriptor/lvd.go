package descriptor

import "fmt"

// LVDFixedSize is the size of the Logical Volume Descriptor header before
// its variable-length partition map table (ECMA-167 §8.4.4).
const LVDFixedSize = 440

// PartitionMapHeaderSize is the size of the common header every
// partition map entry begins with (ECMA-167 §14.3).
const PartitionMapHeaderSize = 2

// Type1PartitionMapSize is the on-disk size of a type 1 (physical)
// partition map (ECMA-167 §14.4).
const Type1PartitionMapSize = 6

// LVD is the Logical Volume Descriptor: it carries the logical block
// size, the partition map table, and the long_ad pointing at the File
// Set Descriptor sequence.
type LVD struct {
	Tag              Tag
	VDSNum           uint32
	LogicalVolIdent  [128]byte
	LogicalBlockSize uint32
	NumPartitionMaps uint32
	MapTableLength   uint32
	RootFileSet      LongAD
	PartitionMapsRaw []byte // raw bytes of the partition map table, MapTableLength long
}

// UnmarshalLVD decodes an LVD from raw, which must contain at least the
// fixed header plus MapTableLength bytes of partition map table.
func UnmarshalLVD(raw []byte) (LVD, error) {
	if len(raw) < LVDFixedSize {
		return LVD{}, fmt.Errorf("lvd: need at least %d bytes, got %d", LVDFixedSize, len(raw))
	}
	tag, err := UnmarshalTag(raw)
	if err != nil {
		return LVD{}, err
	}

	vdsNum, _ := readU32(raw, 16)

	var logicalVolIdent [128]byte
	copy(logicalVolIdent[:], raw[84:212])

	bsize, _ := readU32(raw, 212)
	rootFilesetRaw := raw[248:264]
	rootFileset, err := UnmarshalLongAD(rootFilesetRaw)
	if err != nil {
		return LVD{}, fmt.Errorf("lvd: root fileset long_ad: %w", err)
	}

	mapTableLen, _ := readU32(raw, 264)
	numPartMaps, _ := readU32(raw, 268)

	end := LVDFixedSize + int(mapTableLen)
	if end > len(raw) {
		end = len(raw)
	}
	var partMaps []byte
	if end > LVDFixedSize {
		partMaps = raw[LVDFixedSize:end]
	}

	return LVD{
		Tag:              tag,
		VDSNum:           vdsNum,
		LogicalVolIdent:  logicalVolIdent,
		LogicalBlockSize: bsize,
		NumPartitionMaps: numPartMaps,
		MapTableLength:   mapTableLen,
		RootFileSet:      rootFileset,
		PartitionMapsRaw: partMaps,
	}, nil
}

// Type1PartitionMap is a decoded type 1 (physical) partition map entry.
type Type1PartitionMap struct {
	VolSeqNum     uint16
	PartitionNum  uint16
}

// ParsePartitionMapEntry reads the common header of the partition map
// entry at the start of raw. Any entry whose type is not 1 is rejected
// with udferr.ErrUnsupportedPartmap by the caller; this function only
// exposes the type byte and length so the caller can make that decision
// and step to the next entry.
func ParsePartitionMapEntry(raw []byte) (mapType uint8, length uint8, err error) {
	if len(raw) < PartitionMapHeaderSize {
		return 0, 0, fmt.Errorf("partition map: need %d bytes, got %d", PartitionMapHeaderSize, len(raw))
	}
	return raw[0], raw[1], nil
}

// UnmarshalType1PartitionMap decodes a type 1 partition map entry. raw
// must start at the map's type byte and contain at least
// Type1PartitionMapSize bytes.
func UnmarshalType1PartitionMap(raw []byte) (Type1PartitionMap, error) {
	if len(raw) < Type1PartitionMapSize {
		return Type1PartitionMap{}, fmt.Errorf("type1 partition map: need %d bytes, got %d", Type1PartitionMapSize, len(raw))
	}
	volSeq, _ := readU16(raw, 2)
	partNum, _ := readU16(raw, 4)
	return Type1PartitionMap{VolSeqNum: volSeq, PartitionNum: partNum}, nil
}
