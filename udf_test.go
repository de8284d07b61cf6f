package udf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/disk"
	"github.com/bgrewell/udf-kit/pkg/udferr"
)

const testImageSectors = 512
const testImageSize = testImageSectors * 512

func putU16(img []byte, off int, v uint16) { binary.LittleEndian.PutUint16(img[off:off+2], v) }
func putU32(img []byte, off int, v uint32) { binary.LittleEndian.PutUint32(img[off:off+4], v) }

func putTag(img []byte, off int, ident uint16, location uint32) {
	putU16(img, off, ident)
	putU32(img, off+12, location)
}

func dchars(name string) []byte { return append([]byte{8}, []byte(name)...) }

func encodeFID(characteristics byte, icbLen, icbBlock uint32, name string) []byte {
	nameBytes := dchars(name)
	rec := make([]byte, 38+len(nameBytes))
	putU16(rec, 0, consts.TagFID)
	rec[18] = characteristics
	rec[19] = byte(len(nameBytes))
	putU32(rec, 20, icbLen)
	putU32(rec, 24, icbBlock)
	copy(rec[38:], nameBytes)
	padded := (len(rec) + 3) &^ 3
	out := make([]byte, padded)
	copy(out, rec)
	return out
}

// buildImage lays out a bsize=512 volume with: AVDP@256, VRS NSR02, VDS
// at block 100, a single partition starting at block 200, a root FSD at
// partition-relative block 0, a root directory FE at block 1 (listing
// "FILE.TXT"), and a regular-file FE at block 2 holding inline content.
func buildImage(t *testing.T) []byte {
	t.Helper()
	img := make([]byte, testImageSize)

	avdpOff := 256 * 512
	putTag(img, avdpOff, consts.TagAVDP, 256)
	putU32(img, avdpOff+16, 4*512)
	putU32(img, avdpOff+20, 100)

	copy(img[32768+1:], []byte(consts.StdIdentBEA01))
	copy(img[32768+2048+1:], []byte(consts.StdIdentNSR02))

	pvdOff := 100 * 512
	putTag(img, pvdOff, consts.TagPVD, 100)
	volSetIdentOff := pvdOff + 72
	img[volSetIdentOff] = 8
	copy(img[volSetIdentOff+1:], []byte("deadbeefCAFE"))
	img[volSetIdentOff+127] = 13

	pdOff := 101 * 512
	putTag(img, pdOff, consts.TagPD, 101)
	putU16(img, pdOff+22, 0)
	putU32(img, pdOff+188, 200)
	putU32(img, pdOff+192, 50)

	lvdOff := 102 * 512
	putTag(img, lvdOff, consts.TagLVD, 102)
	putU32(img, lvdOff+212, 512)
	putU32(img, lvdOff+248, 512)
	putU32(img, lvdOff+252, 0)
	putU16(img, lvdOff+260, 0)
	putU32(img, lvdOff+264, 6)
	putU32(img, lvdOff+268, 1)
	logicalVolIdentOff := lvdOff + 84
	img[logicalVolIdentOff] = 8
	copy(img[logicalVolIdentOff+1:], []byte("TESTVOL"))
	img[logicalVolIdentOff+127] = 8
	pmOff := lvdOff + 440
	img[pmOff] = 1
	img[pmOff+1] = 6
	putU16(img, pmOff+4, 0)

	tdOff := 103 * 512
	putTag(img, tdOff, consts.TagTD, 103)

	fsdOff := 200 * 512
	putTag(img, fsdOff, consts.TagFSD, 200)
	putU32(img, fsdOff+400, 512)
	putU32(img, fsdOff+404, 1) // root icb at partition-relative block 1
	putU16(img, fsdOff+408, 0)

	// Root directory FE at absolute block 201: inline FID listing FILE.TXT
	// at partition-relative block 2.
	rootEntries := encodeFID(0, 512, 2, "FILE.TXT")
	rootOff := 201 * 512
	putTag(img, rootOff, consts.TagFE, 201)
	img[rootOff+16+11] = consts.FileTypeDirectory
	putU16(img, rootOff+16+18, consts.ADTypeInline)
	binary.LittleEndian.PutUint64(img[rootOff+56:rootOff+64], uint64(len(rootEntries)))
	putU32(img, rootOff+172, uint32(len(rootEntries)))
	copy(img[rootOff+176:], rootEntries)

	// File FE at absolute block 202: inline content.
	content := []byte("hello udf")
	fileOff := 202 * 512
	putTag(img, fileOff, consts.TagFE, 202)
	img[fileOff+16+11] = consts.FileTypeRegular
	putU16(img, fileOff+16+18, consts.ADTypeInline)
	binary.LittleEndian.PutUint64(img[fileOff+56:fileOff+64], uint64(len(content)))
	putU32(img, fileOff+172, uint32(len(content)))
	copy(img[fileOff+176:], content)

	return img
}

func TestMountDirOpenReadLabelUUID(t *testing.T) {
	img := buildImage(t)
	d := disk.NewReaderAtDisk(bytes.NewReader(img))

	vol, err := Mount(d)
	require.NoError(t, err)

	label, ok := vol.Label()
	require.True(t, ok)
	require.Equal(t, "TESTVOL", label)

	uuid, ok := vol.UUID()
	require.True(t, ok)
	require.Len(t, uuid, 16)

	var names []string
	err = vol.Dir("/", func(name string, info DirInfo) bool {
		names = append(names, name)
		return false
	})
	require.NoError(t, err)
	require.Equal(t, []string{".", "FILE.TXT"}, names)

	h, err := vol.Open("/FILE.TXT")
	require.NoError(t, err)
	require.EqualValues(t, len("hello udf"), h.Size())

	buf := make([]byte, h.Size())
	n, err := h.Read(0, buf)
	require.NoError(t, err)
	require.Equal(t, "hello udf", string(buf[:n]))

	require.NoError(t, h.Close())
	_, err = h.Read(0, buf)
	require.ErrorIs(t, err, udferr.ErrHandleClosed)
}

func TestMountNotUDF(t *testing.T) {
	img := make([]byte, testImageSize)
	d := disk.NewReaderAtDisk(bytes.NewReader(img))
	_, err := Mount(d)
	require.ErrorIs(t, err, udferr.ErrNotUDF)
}

func TestOpenMissingFile(t *testing.T) {
	img := buildImage(t)
	d := disk.NewReaderAtDisk(bytes.NewReader(img))
	vol, err := Mount(d)
	require.NoError(t, err)

	_, err = vol.Open("/MISSING.TXT")
	require.ErrorIs(t, err, udferr.ErrNotFound)
}
