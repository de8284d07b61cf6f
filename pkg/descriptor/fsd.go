package descriptor

import "fmt"

// FSDSize is the fixed on-disk size of a File Set Descriptor
// (ECMA-167 §14.1).
const FSDSize = 512

// FSD is the File Set Descriptor: the root of a file set's namespace,
// reached through the root_icb long_ad.
type FSD struct {
	Tag             Tag
	RecordingTime   [12]byte
	FilesetNum      uint32
	LogicalVolIdent [128]byte
	FilesetIdent    [32]byte
	RootICB         LongAD
}

// UnmarshalFSD decodes an FSD from the first FSDSize bytes of raw.
func UnmarshalFSD(raw []byte) (FSD, error) {
	if len(raw) < FSDSize {
		return FSD{}, fmt.Errorf("fsd: need %d bytes, got %d", FSDSize, len(raw))
	}
	tag, err := UnmarshalTag(raw)
	if err != nil {
		return FSD{}, err
	}

	var recordingTime [12]byte
	copy(recordingTime[:], raw[16:28])

	filesetNum, _ := readU32(raw, 40)

	var logicalVolIdent [128]byte
	copy(logicalVolIdent[:], raw[112:240])

	var filesetIdent [32]byte
	copy(filesetIdent[:], raw[304:336])

	rootICB, err := UnmarshalLongAD(raw[400:416])
	if err != nil {
		return FSD{}, fmt.Errorf("fsd: root_icb long_ad: %w", err)
	}

	return FSD{
		Tag:             tag,
		RecordingTime:   recordingTime,
		FilesetNum:      filesetNum,
		LogicalVolIdent: logicalVolIdent,
		FilesetIdent:    filesetIdent,
		RootICB:         rootICB,
	}, nil
}
