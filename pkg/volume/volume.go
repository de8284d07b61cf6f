// Package volume holds the mounted-volume handle and the node type path
// descent builds up, plus the Block Resolver that turns a partition
// reference and a partition-relative block number into an absolute
// logical block number.
package volume

import (
	"fmt"

	"github.com/bgrewell/udf-kit/pkg/descriptor"
	"github.com/bgrewell/udf-kit/pkg/disk"
	"github.com/bgrewell/udf-kit/pkg/udferr"
)

// PartitionDescriptor is the subset of a Partition Descriptor a mounted
// Volume retains: its on-disk partition number and its extent within the
// volume, in logical sectors.
type PartitionDescriptor struct {
	PartNum uint16
	Start   uint32
	Length  uint32

	// LengthFieldOffset is the byte offset of Length within the PD's
	// on-disk sector, carried for Provenance.
	LengthFieldOffset int
}

// PartitionMap is a decoded type 1 partition map entry. PartNum starts
// as the on-disk logical partition number and is rewritten during mount
// fixup to be an index into Volume.PDs.
type PartitionMap struct {
	VolSeqNum uint16
	PartNum   uint16
}

// Volume is the immutable-after-mount handle produced by the Volume
// Mounter. Every field is populated during mount and never modified
// afterward.
type Volume struct {
	Disk    disk.Disk
	LBShift uint

	PVD descriptor.PVD
	LVD descriptor.LVD
	PDs []PartitionDescriptor
	PMs []PartitionMap

	RootICB descriptor.LongAD
}

// BlockSize returns the volume's logical block size in bytes.
func (v *Volume) BlockSize() int {
	return disk.BlockSize(v.LBShift)
}

// ResolveBlock implements the Block Resolver (spec §4.5): translate a
// (part_ref, rel_block) pair into an absolute logical block number.
func (v *Volume) ResolveBlock(partRef uint16, relBlock uint32) (uint32, error) {
	if int(partRef) >= len(v.PMs) {
		return 0, fmt.Errorf("%w: part_ref %d >= %d partition maps", udferr.ErrInvalidPartRef, partRef, len(v.PMs))
	}
	pm := v.PMs[partRef]
	if int(pm.PartNum) >= len(v.PDs) {
		return 0, fmt.Errorf("%w: partition map points at PD index %d, have %d", udferr.ErrInvalidPartRef, pm.PartNum, len(v.PDs))
	}
	pd := v.PDs[pm.PartNum]
	return pd.Start + relBlock, nil
}

// ReadBlock reads one logical block at the resolved (part_ref, rel_block)
// location into buf.
func (v *Volume) ReadBlock(partRef uint16, relBlock uint32, buf []byte) error {
	abs, err := v.ResolveBlock(partRef, relBlock)
	if err != nil {
		return err
	}
	return disk.ReadLogicalBlock(v.Disk, v.LBShift, abs, buf)
}

// Node is the transient handle produced while descending a path: the FE
// or EFE buffer for one ICB, plus the partition reference it was loaded
// through (the implicit partition for any short-ADs its allocation
// descriptors use).
type Node struct {
	Vol     *Volume
	PartRef uint16
	Buf     []byte
}

// Clone returns an independent copy of n, used to synthesize the "."
// entry a directory iterator yields first.
func (n *Node) Clone() *Node {
	buf := make([]byte, len(n.Buf))
	copy(buf, n.Buf)
	return &Node{Vol: n.Vol, PartRef: n.PartRef, Buf: buf}
}

// Provenance reports where a file's backing metadata physically sits on
// disk, for tools that need to rewrite on-disk fields in place. It
// replaces the original driver's process-wide g_last_* diagnostic
// globals with an explicit, per-operation return value.
type Provenance struct {
	FESector            uint64
	FETagIdent          uint16
	FEOffsetInSector    int
	PDLengthFieldOffset int
	PartitionStart      uint32
}
