package dirent

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/disk"
	"github.com/bgrewell/udf-kit/pkg/icb"
	"github.com/bgrewell/udf-kit/pkg/option"
	"github.com/bgrewell/udf-kit/pkg/volume"
)

func putU16(buf []byte, off int, v uint16) { binary.LittleEndian.PutUint16(buf[off:off+2], v) }
func putU32(buf []byte, off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:off+4], v) }
func putU64(buf []byte, off int, v uint64) { binary.LittleEndian.PutUint64(buf[off:off+8], v) }

const blockSize = 512

func dchars(name string) []byte {
	return append([]byte{8}, []byte(name)...)
}

func encodeFID(characteristics byte, icbPartRef uint16, icbBlockNum uint32, name string) []byte {
	nameBytes := dchars(name)
	if characteristics&consts.FIDCharParent != 0 {
		nameBytes = nil
	}
	rec := make([]byte, 38+len(nameBytes))
	putU16(rec, 0, consts.TagFID)
	rec[18] = characteristics
	rec[19] = byte(len(nameBytes))
	putU32(rec, 20, uint32(blockSize)) // icb long_ad length, recorded extent
	putU32(rec, 24, icbBlockNum)
	putU16(rec, 28, icbPartRef)
	putU16(rec, 36, 0) // imp_use_length
	copy(rec[38:], nameBytes)

	padded := (len(rec) + 3) &^ 3
	out := make([]byte, padded)
	copy(out, rec)
	return out
}

func childFE(fileType uint8) []byte {
	buf := make([]byte, blockSize)
	putU16(buf, 0, consts.TagFE)
	buf[16+11] = fileType
	putU64(buf, 56, 0)
	putU32(buf, 168, 0)
	putU32(buf, 172, 0)
	return buf
}

func buildDirImage(t *testing.T) (*volume.Volume, []byte) {
	t.Helper()
	img := make([]byte, 2000*blockSize)
	copy(img[(1000+5)*blockSize:], childFE(consts.FileTypeDirectory)) // "A"
	copy(img[(1000+6)*blockSize:], childFE(consts.FileTypeRegular))   // "B.TXT"
	copy(img[(1000+7)*blockSize:], childFE(consts.FileTypeDirectory)) // parent

	vol := &volume.Volume{
		Disk:    disk.NewReaderAtDisk(bytes.NewReader(img)),
		LBShift: 0,
		PDs:     []volume.PartitionDescriptor{{PartNum: 0, Start: 1000, Length: 1000}},
		PMs:     []volume.PartitionMap{{VolSeqNum: 0, PartNum: 0}},
	}
	return vol, img
}

func TestIterateYieldsDotThenEntries(t *testing.T) {
	vol, _ := buildDirImage(t)

	var content []byte
	content = append(content, encodeFID(consts.FIDCharParent, 0, 7, "")...)
	content = append(content, encodeFID(consts.FIDCharDirectory, 0, 5, "A")...)
	content = append(content, encodeFID(0, 0, 6, "B.TXT")...)

	dirBuf := make([]byte, blockSize)
	putU16(dirBuf, 0, consts.TagFE)
	putU16(dirBuf, 16+18, consts.ADTypeInline)
	putU64(dirBuf, 56, uint64(len(content)))
	putU32(dirBuf, 168, 0)
	putU32(dirBuf, 172, uint32(len(content)))
	copy(dirBuf[176:], content)

	dirFE, err := icb.ParseFileEntryLike(dirBuf, consts.TagFE)
	require.NoError(t, err)
	dirNode := &volume.Node{Vol: vol, PartRef: 0, Buf: dirBuf}

	var names []string
	var kinds []Kind
	err = Iterate(dirNode, dirFE, func(info DirInfo) bool {
		names = append(names, info.Name)
		kinds = append(kinds, info.Kind)
		return false
	}, option.Resolve())
	require.NoError(t, err)

	require.Equal(t, []string{".", "..", "A", "B.TXT"}, names)
	require.Equal(t, []Kind{KindDir, KindDir, KindDir, KindReg}, kinds)
}

func TestIterateSkipsDeleted(t *testing.T) {
	vol, _ := buildDirImage(t)

	var content []byte
	content = append(content, encodeFID(consts.FIDCharDeleted, 0, 99, "GONE")...)
	content = append(content, encodeFID(0, 0, 6, "B.TXT")...)

	dirBuf := make([]byte, blockSize)
	putU16(dirBuf, 0, consts.TagFE)
	putU16(dirBuf, 16+18, consts.ADTypeInline)
	putU64(dirBuf, 56, uint64(len(content)))
	putU32(dirBuf, 172, uint32(len(content)))
	copy(dirBuf[176:], content)

	dirFE, err := icb.ParseFileEntryLike(dirBuf, consts.TagFE)
	require.NoError(t, err)
	dirNode := &volume.Node{Vol: vol, PartRef: 0, Buf: dirBuf}

	var names []string
	err = Iterate(dirNode, dirFE, func(info DirInfo) bool {
		names = append(names, info.Name)
		return false
	}, option.Resolve())
	require.NoError(t, err)
	require.Equal(t, []string{".", "B.TXT"}, names)
}

func TestIterateStopsOnHookTrue(t *testing.T) {
	vol, _ := buildDirImage(t)

	var content []byte
	content = append(content, encodeFID(consts.FIDCharDirectory, 0, 5, "A")...)
	content = append(content, encodeFID(0, 0, 6, "B.TXT")...)

	dirBuf := make([]byte, blockSize)
	putU16(dirBuf, 0, consts.TagFE)
	putU16(dirBuf, 16+18, consts.ADTypeInline)
	putU64(dirBuf, 56, uint64(len(content)))
	putU32(dirBuf, 172, uint32(len(content)))
	copy(dirBuf[176:], content)

	dirFE, err := icb.ParseFileEntryLike(dirBuf, consts.TagFE)
	require.NoError(t, err)
	dirNode := &volume.Node{Vol: vol, PartRef: 0, Buf: dirBuf}

	var names []string
	err = Iterate(dirNode, dirFE, func(info DirInfo) bool {
		names = append(names, info.Name)
		return info.Name == "A"
	}, option.Resolve())
	require.NoError(t, err)
	require.Equal(t, []string{".", "A"}, names)
}
