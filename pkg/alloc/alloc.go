// Package alloc implements the Allocation Walker (spec §4.7): given a
// node's File/Extended File Entry and a file-relative block index,
// resolve the absolute logical block that covers it, following AED
// continuation chains and signalling holes for unrecorded extents.
package alloc

import (
	"encoding/binary"
	"fmt"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/descriptor"
	"github.com/bgrewell/udf-kit/pkg/icb"
	"github.com/bgrewell/udf-kit/pkg/option"
	"github.com/bgrewell/udf-kit/pkg/udferr"
	"github.com/bgrewell/udf-kit/pkg/volume"
)

// decodedAD is a short_ad or long_ad reduced to the fields the walker
// needs: the raw length word (carrying extent type in its top 2 bits)
// and a resolved (part_ref, block_num) pair.
type decodedAD struct {
	length  uint32
	partRef uint16
	block   uint32
}

func (d decodedAD) extentType() uint8 { return uint8(d.length >> 30) }
func (d decodedAD) extentLength() uint32 { return d.length & 0x3FFFFFFF }

// Walk resolves the absolute logical block covering file-relative block
// index k, or reports a hole. adType must be consts.ADTypeShort or
// consts.ADTypeLong; callers must handle inline (3) and extended (2)
// themselves, per spec §4.7/§4.8. When opts.StrictChecksums is set,
// every AED continuation block's tag checksum is verified.
func Walk(node *volume.Node, fe *icb.FileEntryLike, k uint32, opts *option.OpenOptions) (block uint32, hole bool, err error) {
	adType := fe.ADType()
	if adType != consts.ADTypeShort && adType != consts.ADTypeLong {
		return 0, false, fmt.Errorf("%w: allocation walker invoked with ad type %d", udferr.ErrInvalidExtentType, adType)
	}

	cur, err := fe.ADRegion()
	if err != nil {
		return 0, false, err
	}
	remaining := int64(fe.AllocDescsLength())
	adSize := shortOrLongSize(adType)

	bsize := node.Vol.BlockSize()
	fileBytes := int64(k) * int64(bsize)
	pos := 0

	for {
		if remaining < int64(adSize) {
			return 0, true, nil
		}

		ad, derr := decodeAD(cur[pos:pos+adSize], adType, node.PartRef)
		if derr != nil {
			return 0, false, derr
		}

		if ad.extentType() == consts.ExtentNextExtent {
			scratch := make([]byte, bsize)
			if err := node.Vol.ReadBlock(ad.partRef, ad.block, scratch); err != nil {
				return 0, false, err
			}
			aedTag, terr := descriptor.UnmarshalTag(scratch)
			if terr != nil {
				return 0, false, fmt.Errorf("%w: %v", udferr.ErrInvalidAEDTag, terr)
			}
			if aedTag.TagIdent != consts.TagAED {
				return 0, false, fmt.Errorf("%w: tag %d", udferr.ErrInvalidAEDTag, aedTag.TagIdent)
			}
			if opts.StrictChecksums && !descriptor.VerifyTagChecksum(scratch) {
				return 0, false, udferr.ErrTagChecksum
			}
			aed, aerr := descriptor.UnmarshalAED(scratch)
			if aerr != nil {
				return 0, false, aerr
			}
			if int64(descriptor.AEDHeaderSize)+int64(aed.LengthOfAllocDescs) > int64(len(scratch)) {
				return 0, false, fmt.Errorf("%w: %d bytes in a %d-byte block", udferr.ErrInvalidAEDLength, aed.LengthOfAllocDescs, len(scratch))
			}
			cur = scratch
			pos = descriptor.AEDHeaderSize
			remaining = int64(aed.LengthOfAllocDescs)
			continue
		}

		adLen := int64(ad.extentLength())
		if fileBytes < adLen {
			if ad.extentType() == consts.ExtentNotRecordedAllocated || ad.extentType() == consts.ExtentNotRecordedNotAllocated {
				return 0, true, nil
			}
			extraBlocks := uint32(fileBytes >> uint(9+node.Vol.LBShift))
			abs, rerr := node.Vol.ResolveBlock(ad.partRef, ad.block+extraBlocks)
			if rerr != nil {
				return 0, false, rerr
			}
			return abs, false, nil
		}

		fileBytes -= adLen
		pos += adSize
		remaining -= int64(adSize)
	}
}

func shortOrLongSize(adType uint8) int {
	if adType == consts.ADTypeLong {
		return descriptor.LongADSize
	}
	return descriptor.ShortADSize
}

func decodeAD(raw []byte, adType uint8, implicitPartRef uint16) (decodedAD, error) {
	if adType == consts.ADTypeLong {
		ad, err := descriptor.UnmarshalLongAD(raw)
		if err != nil {
			return decodedAD{}, err
		}
		return decodedAD{length: ad.Length, partRef: ad.PartRef, block: ad.BlockNum}, nil
	}
	length := binary.LittleEndian.Uint32(raw[0:4])
	position := binary.LittleEndian.Uint32(raw[4:8])
	return decodedAD{length: length, partRef: implicitPartRef, block: position}, nil
}
