// Package icb implements the ICB Loader (spec §4.6) and the
// FileEntryLike union over File Entry / Extended File Entry buffers
// (spec §3's "FileEntryLike", §9's union-of-FE/EFE design note).
package icb

import (
	"encoding/binary"
	"fmt"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/descriptor"
	"github.com/bgrewell/udf-kit/pkg/option"
	"github.com/bgrewell/udf-kit/pkg/udferr"
	"github.com/bgrewell/udf-kit/pkg/volume"
)

// Fixed header sizes before the ext_attr/alloc_descs tail, per
// ECMA-167 §14.9 (File Entry) and §14.17 (Extended File Entry).
const (
	feEABase  = 176
	efeEABase = 216
)

// FileEntryLike is a tagged view over a File Entry or Extended File
// Entry buffer: a thin accessor layer, not a copy of the data.
type FileEntryLike struct {
	buf     []byte
	isExt   bool
	icbTag  descriptor.ICBTag
	fileSz  uint64
	eaLen   uint32
	adLen   uint32
	modTime [12]byte
}

func u32(buf []byte, off int) uint32 { return binary.LittleEndian.Uint32(buf[off : off+4]) }
func u64(buf []byte, off int) uint64 { return binary.LittleEndian.Uint64(buf[off : off+8]) }

// ParseFileEntryLike interprets buf (one logical block, the node's raw
// ICB) as an FE or EFE according to tagIdent.
func ParseFileEntryLike(buf []byte, tagIdent uint16) (*FileEntryLike, error) {
	icbTag, err := descriptor.UnmarshalICBTag(buf[16 : 16+descriptor.ICBTagSize])
	if err != nil {
		return nil, err
	}

	f := &FileEntryLike{buf: buf, icbTag: icbTag}
	switch tagIdent {
	case consts.TagFE:
		f.isExt = false
		f.fileSz = u64(buf, 56)
		copy(f.modTime[:], buf[84:96])
		f.eaLen = u32(buf, 168)
		f.adLen = u32(buf, 172)
	case consts.TagEFE:
		f.isExt = true
		f.fileSz = u64(buf, 56)
		copy(f.modTime[:], buf[92:104])
		f.eaLen = u32(buf, 208)
		f.adLen = u32(buf, 212)
	default:
		return nil, fmt.Errorf("%w: tag %d is not FE/EFE", udferr.ErrInvalidFEDescriptor, tagIdent)
	}
	return f, nil
}

// ICBTag returns the decoded icbtag header.
func (f *FileEntryLike) ICBTag() descriptor.ICBTag { return f.icbTag }

// FileType returns icbtag.file_type (spec §6): 4=DIR, 5=REG, 12=SYMLINK.
func (f *FileEntryLike) FileType() uint8 { return f.icbTag.FileType }

// ADType returns the allocation descriptor type packed into icbtag.flags
// low 3 bits: 0=short, 1=long, 2=extended, 3=inline.
func (f *FileEntryLike) ADType() uint8 { return f.icbTag.ADType() }

// FileSize returns info_length, the file's byte size.
func (f *FileEntryLike) FileSize() uint64 { return f.fileSz }

// ExtAttrLength returns the byte length of the ext_attr region.
func (f *FileEntryLike) ExtAttrLength() uint32 { return f.eaLen }

// AllocDescsLength returns the byte length of the allocation descriptor
// (or inline data) region.
func (f *FileEntryLike) AllocDescsLength() uint32 { return f.adLen }

// ModTime returns the raw 12-byte modification_time field, for decoding
// by pkg/encoding.
func (f *FileEntryLike) ModTime() [12]byte { return f.modTime }

// eaBase returns the fixed header size preceding ext_attr.
func (f *FileEntryLike) eaBase() int {
	if f.isExt {
		return efeEABase
	}
	return feEABase
}

// ADRegion returns the slice of buf holding the allocation descriptors
// (or, for inline files, the file's literal data), per spec §4.7/§4.8's
// "ad_ptr = ea_base + ea_length".
func (f *FileEntryLike) ADRegion() ([]byte, error) {
	start := f.eaBase() + int(f.eaLen)
	end := start + int(f.adLen)
	if end > len(f.buf) {
		return nil, fmt.Errorf("%w: ad region [%d:%d] exceeds buffer of %d bytes", udferr.ErrInvalidFEDescriptor, start, end, len(f.buf))
	}
	return f.buf[start:end], nil
}

// Load implements the ICB Loader (spec §4.6): resolve ref through the
// volume's Block Resolver, read one logical block, and require the tag
// to be FE or EFE. When opts.StrictChecksums is set, the tag's checksum
// must also verify.
func Load(vol *volume.Volume, ref descriptor.LongAD, opts *option.OpenOptions) (*volume.Node, *FileEntryLike, volume.Provenance, error) {
	buf := make([]byte, vol.BlockSize())
	if err := vol.ReadBlock(ref.PartRef, ref.BlockNum, buf); err != nil {
		return nil, nil, volume.Provenance{}, err
	}

	tag, err := descriptor.UnmarshalTag(buf)
	if err != nil {
		return nil, nil, volume.Provenance{}, fmt.Errorf("%w: %v", udferr.ErrInvalidFEDescriptor, err)
	}
	if tag.TagIdent != consts.TagFE && tag.TagIdent != consts.TagEFE {
		return nil, nil, volume.Provenance{}, fmt.Errorf("%w: tag %d", udferr.ErrInvalidFEDescriptor, tag.TagIdent)
	}
	if opts.StrictChecksums && !descriptor.VerifyTagChecksum(buf) {
		return nil, nil, volume.Provenance{}, udferr.ErrTagChecksum
	}

	fe, err := ParseFileEntryLike(buf, tag.TagIdent)
	if err != nil {
		return nil, nil, volume.Provenance{}, err
	}

	node := &volume.Node{Vol: vol, PartRef: ref.PartRef, Buf: buf}

	absBlock, _ := vol.ResolveBlock(ref.PartRef, ref.BlockNum)
	partStart := uint32(0)
	if int(ref.PartRef) < len(vol.PMs) && int(vol.PMs[ref.PartRef].PartNum) < len(vol.PDs) {
		partStart = vol.PDs[vol.PMs[ref.PartRef].PartNum].Start
	}
	prov := volume.Provenance{
		FESector:            uint64(absBlock) << vol.LBShift,
		FETagIdent:          tag.TagIdent,
		FEOffsetInSector:    0,
		PDLengthFieldOffset: descriptor.PDLengthFieldOffset,
		PartitionStart:      partStart,
	}

	return node, fe, prov, nil
}
