// Package dirent implements the Directory Iterator (spec §4.9): streams
// File Identifier Descriptors out of a directory's File/Extended File
// Entry, synthesizing a leading "." entry and skipping deleted records.
package dirent

import (
	"time"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/descriptor"
	"github.com/bgrewell/udf-kit/pkg/encoding"
	"github.com/bgrewell/udf-kit/pkg/icb"
	"github.com/bgrewell/udf-kit/pkg/option"
	"github.com/bgrewell/udf-kit/pkg/udferr"
	"github.com/bgrewell/udf-kit/pkg/volume"

	"github.com/bgrewell/udf-kit/pkg/file"
)

// Kind classifies a directory entry.
type Kind int

const (
	KindDir Kind = iota
	KindReg
	KindSymlink
)

// DirInfo is the metadata the Directory Iterator hands back for every
// entry, matching the facade's dir() callback (spec §4.12).
type DirInfo struct {
	Name    string
	Kind    Kind
	Node    *volume.Node
	FE      *icb.FileEntryLike
	ModTime time.Time
	HasTime bool
}

// Hook is called once per yielded entry (the synthesized "." included).
// Iteration stops as soon as Hook returns true.
type Hook func(DirInfo) bool

const fidHeaderSize = 38

// Iterate streams FID entries from the directory represented by
// dirNode/dirFE, calling hook for each one until hook returns true or
// the directory's data is exhausted. When opts.StrictChecksums is set,
// every FID's tag checksum is verified.
func Iterate(dirNode *volume.Node, dirFE *icb.FileEntryLike, hook Hook, opts *option.OpenOptions) error {
	dot := DirInfo{Name: ".", Kind: KindDir, Node: dirNode.Clone(), FE: dirFE, ModTime: modTimeOf(dirFE), HasTime: hasModTime(dirFE)}
	if hook(dot) {
		return nil
	}

	fileSize := int64(dirFE.FileSize())
	offset := int64(0)
	header := make([]byte, fidHeaderSize)

	for offset < fileSize {
		if _, err := file.Read(dirNode, dirFE, offset, header, opts); err != nil {
			return err
		}
		tag, err := descriptor.UnmarshalTag(header)
		if err != nil {
			return err
		}
		if tag.TagIdent != consts.TagFID {
			return udferr.ErrInvalidFIDTag
		}
		if opts.StrictChecksums && !descriptor.VerifyTagChecksum(header) {
			return udferr.ErrTagChecksum
		}

		characteristics := header[18]
		fileIdentLength := int(header[19])
		icbRef, err := descriptor.UnmarshalLongAD(header[20:36])
		if err != nil {
			return err
		}
		impUseLength := int(header[36]) | int(header[37])<<8

		nameStart := offset + fidHeaderSize + int64(impUseLength)
		nextOffset := (nameStart + int64(fileIdentLength) + 3) &^ 3

		if characteristics&consts.FIDCharDeleted != 0 {
			offset = nextOffset
			continue
		}

		childNode, childFE, _, err := icb.Load(dirNode.Vol, icbRef, opts)
		if err != nil {
			return err
		}

		if characteristics&consts.FIDCharParent != 0 {
			if hook(DirInfo{Name: "..", Kind: KindDir, Node: childNode, FE: childFE, ModTime: modTimeOf(childFE), HasTime: hasModTime(childFE)}) {
				return nil
			}
			offset = nextOffset
			continue
		}

		nameBuf := make([]byte, fileIdentLength)
		if fileIdentLength > 0 {
			if _, err := file.Read(dirNode, dirFE, nameStart, nameBuf, opts); err != nil {
				return err
			}
		}
		name, derr := encoding.DecodeDChars(nameBuf)
		if derr != nil {
			offset = nextOffset
			continue
		}

		kind := KindReg
		if childFE.FileType() == consts.FileTypeSymlink {
			kind = KindSymlink
		} else if characteristics&consts.FIDCharDirectory != 0 {
			kind = KindDir
		}

		if hook(DirInfo{Name: name, Kind: kind, Node: childNode, FE: childFE, ModTime: modTimeOf(childFE), HasTime: hasModTime(childFE)}) {
			return nil
		}

		offset = nextOffset
	}
	return nil
}

func modTimeOf(fe *icb.FileEntryLike) time.Time {
	t, ok := encoding.DecodeTimestamp(fe.ModTime())
	if !ok {
		return time.Time{}
	}
	return t
}

func hasModTime(fe *icb.FileEntryLike) bool {
	_, ok := encoding.DecodeTimestamp(fe.ModTime())
	return ok
}
