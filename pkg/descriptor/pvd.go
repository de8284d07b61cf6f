package descriptor

import "fmt"

// PVDSize is the fixed on-disk size of a Primary Volume Descriptor
// (ECMA-167 §8.4.3).
const PVDSize = 512

// PVD is the Primary Volume Descriptor. Only the fields this driver
// consumes (volume identifier, volume set identifier, recording
// timestamp) are exposed; the rest of the structure is read but
// discarded.
type PVD struct {
	Tag             Tag
	VDSNum          uint32
	PVDNum          uint32
	VolIdent        [32]byte
	VolSetIdent     [128]byte
	RecordingTime   [12]byte
}

// UnmarshalPVD decodes a PVD from the first PVDSize bytes of raw.
func UnmarshalPVD(raw []byte) (PVD, error) {
	if len(raw) < PVDSize {
		return PVD{}, fmt.Errorf("pvd: need %d bytes, got %d", PVDSize, len(raw))
	}
	tag, err := UnmarshalTag(raw)
	if err != nil {
		return PVD{}, err
	}
	vdsNum, _ := readU32(raw, 16)
	pvdNum, _ := readU32(raw, 20)

	var volIdent [32]byte
	copy(volIdent[:], raw[24:56])

	var volSetIdent [128]byte
	copy(volSetIdent[:], raw[72:200])

	var recordingTime [12]byte
	copy(recordingTime[:], raw[376:388])

	return PVD{
		Tag:           tag,
		VDSNum:        vdsNum,
		PVDNum:        pvdNum,
		VolIdent:      volIdent,
		VolSetIdent:   volSetIdent,
		RecordingTime: recordingTime,
	}, nil
}
