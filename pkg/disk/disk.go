// Package disk defines the block-device abstraction the UDF decoder reads
// through, and a default adapter over io.ReaderAt for callers that don't
// need anything fancier (pass a *os.File, a memory buffer, or any other
// io.ReaderAt).
package disk

import (
	"fmt"
	"io"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/udferr"
)

// Disk is the block device abstraction this driver consumes. Sector is a
// 512-byte sector number; inSectorOffset and length address bytes within
// (and potentially across) sectors starting at that sector.
type Disk interface {
	ReadAt(sector uint64, inSectorOffset int, length int, dst []byte) error
}

// ReaderAtDisk adapts an io.ReaderAt (e.g. *os.File, a DMG/ISO image
// buffer) to the Disk interface, addressing it in fixed 512-byte sectors.
type ReaderAtDisk struct {
	R io.ReaderAt
}

// NewReaderAtDisk wraps r as a Disk.
func NewReaderAtDisk(r io.ReaderAt) *ReaderAtDisk {
	return &ReaderAtDisk{R: r}
}

func (d *ReaderAtDisk) ReadAt(sector uint64, inSectorOffset int, length int, dst []byte) error {
	if len(dst) < length {
		return fmt.Errorf("%w: destination buffer too small (%d < %d)", udferr.ErrDiskIO, len(dst), length)
	}
	offset := int64(sector)*consts.SectorSize + int64(inSectorOffset)
	n, err := d.R.ReadAt(dst[:length], offset)
	if err != nil && !(err == io.EOF && n == length) {
		return fmt.Errorf("%w: %v", udferr.ErrDiskIO, err)
	}
	if n != length {
		return fmt.Errorf("%w: short read (%d of %d bytes)", udferr.ErrDiskIO, n, length)
	}
	return nil
}

// ReadLogicalBlock reads one logical block (size 512<<lbShift) numbered b
// into buf, per spec §4.3: read(b<<lbShift, 0, 2^(9+lbShift), buf).
func ReadLogicalBlock(d Disk, lbShift uint, block uint32, buf []byte) error {
	size := BlockSize(lbShift)
	if len(buf) < size {
		return fmt.Errorf("%w: buffer smaller than logical block (%d < %d)", udferr.ErrDiskIO, len(buf), size)
	}
	sector := uint64(block) << lbShift
	return d.ReadAt(sector, 0, size, buf)
}

// BlockSize returns the logical block size in bytes for a given lbShift.
func BlockSize(lbShift uint) int {
	return consts.SectorSize << lbShift
}
