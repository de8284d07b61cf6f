package alloc

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/disk"
	"github.com/bgrewell/udf-kit/pkg/icb"
	"github.com/bgrewell/udf-kit/pkg/option"
	"github.com/bgrewell/udf-kit/pkg/udferr"
	"github.com/bgrewell/udf-kit/pkg/volume"
)

func putU16(buf []byte, off int, v uint16) { binary.LittleEndian.PutUint16(buf[off:off+2], v) }
func putU32(buf []byte, off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:off+4], v) }
func putU64(buf []byte, off int, v uint64) { binary.LittleEndian.PutUint64(buf[off:off+8], v) }

const blockSize = 512

func newVolume(img []byte) *volume.Volume {
	return &volume.Volume{
		Disk:    disk.NewReaderAtDisk(bytes.NewReader(img)),
		LBShift: 0,
		PDs:     []volume.PartitionDescriptor{{PartNum: 0, Start: 1000, Length: 1000}},
		PMs:     []volume.PartitionMap{{VolSeqNum: 0, PartNum: 0}},
	}
}

func feWithShortADs(fileSize uint64, ads [][2]uint32) []byte {
	buf := make([]byte, blockSize)
	putU16(buf, 0, consts.TagFE)
	putU64(buf, 56, fileSize)
	putU32(buf, 168, 0) // ext_attr_length
	putU32(buf, 172, uint32(len(ads)*8))
	base := 176
	for i, ad := range ads {
		off := base + i*8
		putU32(buf, off, ad[0])
		putU32(buf, off+4, ad[1])
	}
	return buf
}

func TestWalkSingleShortExtent(t *testing.T) {
	img := make([]byte, 2000*blockSize)
	vol := newVolume(img)
	fe := feWithShortADs(3000, [][2]uint32{{2048, 10}})
	parsed, err := icb.ParseFileEntryLike(fe, consts.TagFE)
	require.NoError(t, err)
	node := &volume.Node{Vol: vol, PartRef: 0, Buf: fe}

	block, hole, err := Walk(node, parsed, 0, option.Resolve())
	require.NoError(t, err)
	require.False(t, hole)
	require.EqualValues(t, 1010, block) // pds[0].Start(1000) + position(10)

	block, hole, err = Walk(node, parsed, 1, option.Resolve())
	require.NoError(t, err)
	require.False(t, hole)
	require.EqualValues(t, 1011, block)
}

func TestWalkHoleExtent(t *testing.T) {
	img := make([]byte, 2000*blockSize)
	vol := newVolume(img)
	// extent type 1 (not-recorded-allocated) packed into top 2 bits.
	length := uint32(1<<30) | 2048
	fe := feWithShortADs(2048, [][2]uint32{{length, 10}})
	parsed, err := icb.ParseFileEntryLike(fe, consts.TagFE)
	require.NoError(t, err)
	node := &volume.Node{Vol: vol, PartRef: 0, Buf: fe}

	_, hole, err := Walk(node, parsed, 0, option.Resolve())
	require.NoError(t, err)
	require.True(t, hole)
}

func TestWalkExhaustedReturnsHole(t *testing.T) {
	img := make([]byte, 2000*blockSize)
	vol := newVolume(img)
	fe := feWithShortADs(2048, [][2]uint32{{2048, 10}})
	parsed, err := icb.ParseFileEntryLike(fe, consts.TagFE)
	require.NoError(t, err)
	node := &volume.Node{Vol: vol, PartRef: 0, Buf: fe}

	_, hole, err := Walk(node, parsed, 5, option.Resolve())
	require.NoError(t, err)
	require.True(t, hole)
}

func TestWalkAEDContinuationChain(t *testing.T) {
	img := make([]byte, 2000*blockSize)

	// FE has a single short AD pointing at a continuation (type 3) at
	// partition-relative block 50.
	contLength := uint32(consts.ExtentNextExtent<<30) | 0
	fe := feWithShortADs(4096, [][2]uint32{{contLength, 50}})
	putU32(fe, 172, 8) // alloc_descs_length covers exactly one short AD

	vol := newVolume(img)

	// First AED, at absolute block 1000+50=1050, chains to a second AED
	// at partition-relative block 60.
	aed1Off := 1050 * blockSize
	putU16(img, aed1Off, consts.TagAED)
	secondContLength := uint32(consts.ExtentNextExtent<<30) | 0
	putU32(img, aed1Off+20, 8) // length_of_alloc_descs: one short AD
	putU32(img, aed1Off+24, secondContLength)
	putU32(img, aed1Off+28, 60)

	// Second AED, at absolute block 1000+60=1060, holds the real extent.
	aed2Off := 1060 * blockSize
	putU16(img, aed2Off, consts.TagAED)
	putU32(img, aed2Off+20, 8)
	realLength := uint32(2048) // extent type 0, recorded
	putU32(img, aed2Off+24, realLength)
	putU32(img, aed2Off+28, 70)

	parsed, err := icb.ParseFileEntryLike(fe, consts.TagFE)
	require.NoError(t, err)
	node := &volume.Node{Vol: vol, PartRef: 0, Buf: fe}

	block, hole, err := Walk(node, parsed, 0, option.Resolve())
	require.NoError(t, err)
	require.False(t, hole)
	require.EqualValues(t, 1070, block)
}

func TestWalkAEDLengthExceedingBlockIsRejected(t *testing.T) {
	img := make([]byte, 2000*blockSize)

	contLength := uint32(consts.ExtentNextExtent<<30) | 0
	fe := feWithShortADs(4096, [][2]uint32{{contLength, 50}})
	putU32(fe, 172, 8)

	vol := newVolume(img)

	// AED at absolute block 1000+50=1050 claims more alloc-desc bytes
	// than fit in the 512-byte scratch block that holds it.
	aedOff := 1050 * blockSize
	putU16(img, aedOff, consts.TagAED)
	putU32(img, aedOff+20, blockSize)

	parsed, err := icb.ParseFileEntryLike(fe, consts.TagFE)
	require.NoError(t, err)
	node := &volume.Node{Vol: vol, PartRef: 0, Buf: fe}

	_, _, err = Walk(node, parsed, 0, option.Resolve())
	require.ErrorIs(t, err, udferr.ErrInvalidAEDLength)
}
