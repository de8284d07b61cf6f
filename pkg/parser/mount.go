// Package parser implements the Volume Mounter (spec §4.4): the AVDP
// search, Volume Recognition Sequence check, Volume Descriptor Sequence
// walk, partition map fixup, and root File Set Descriptor load that
// together produce a mounted volume.Volume.
package parser

import (
	"fmt"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/descriptor"
	"github.com/bgrewell/udf-kit/pkg/disk"
	"github.com/bgrewell/udf-kit/pkg/logging"
	"github.com/bgrewell/udf-kit/pkg/option"
	"github.com/bgrewell/udf-kit/pkg/udferr"
	"github.com/bgrewell/udf-kit/pkg/volume"
)

// Mount runs the five-phase bring-up described in spec §4.4 and returns
// a ready-to-use Volume.
func Mount(d disk.Disk, opts *option.OpenOptions) (*volume.Volume, error) {
	log := opts.Logger
	if log == nil {
		log = logging.DefaultLogger()
	}

	lbShift, vdsStart, err := findAVDP(d, log)
	if err != nil {
		return nil, err
	}
	log.Debug("avdp found", "lb_shift", lbShift, "vds_start", vdsStart)

	stepCap := opts.VRSStepCap
	if stepCap <= 0 {
		stepCap = consts.DefaultVRSStepCap
	}
	if err := checkVRS(d, lbShift, stepCap, log); err != nil {
		return nil, err
	}

	vol := &volume.Volume{Disk: d, LBShift: lbShift}
	if err := walkVDS(d, lbShift, vdsStart, vol, log); err != nil {
		return nil, err
	}

	if err := fixupPartitionMaps(vol); err != nil {
		return nil, err
	}

	if err := loadRootFSD(vol); err != nil {
		return nil, err
	}

	return vol, nil
}

// findAVDP implements spec §4.4 phase 1.
func findAVDP(d disk.Disk, log *logging.Logger) (lbShift uint, vdsStart uint32, err error) {
	buf := make([]byte, descriptor.AVDPSize)
	for shift := uint(0); shift <= consts.MaxLBShift; shift++ {
		for _, b := range consts.AVDPCandidateSectors {
			sector := uint64(b) << shift
			if rerr := d.ReadAt(sector, 0, descriptor.AVDPSize, buf); rerr != nil {
				continue
			}
			avdp, derr := descriptor.UnmarshalAVDP(buf)
			if derr != nil {
				continue
			}
			if avdp.Tag.TagIdent == consts.TagAVDP && avdp.Tag.TagLocation == b {
				return shift, avdp.MainVDS.Start, nil
			}
		}
	}
	log.Debug("avdp not found")
	return 0, 0, udferr.ErrNotUDF
}

// checkVRS implements spec §4.4 phase 2. lbShift is accepted to mirror
// the spec's "starting at logical block floor(32768/lbsize)" framing,
// but since 32768 is block-aligned for every supported bsize (512,
// 1024, 2048, 4096) the scan start reduces to the fixed byte offset
// consts.VRSScanStart.
func checkVRS(d disk.Disk, lbShift uint, stepCap int, log *logging.Logger) error {
	_ = lbShift
	header := make([]byte, 7)

	for step := 0; step < stepCap; step++ {
		byteOffset := uint64(consts.VRSScanStart) + uint64(step)*consts.VRSStepBytes
		sector := byteOffset / consts.SectorSize
		offset := int(byteOffset % consts.SectorSize)
		if err := d.ReadAt(sector, offset, len(header), header); err != nil {
			return fmt.Errorf("%w: vrs read: %v", udferr.ErrNotUDF, err)
		}
		ident := string(header[1:6])
		switch ident {
		case consts.StdIdentNSR02, consts.StdIdentNSR03:
			return nil
		case consts.StdIdentBEA01, consts.StdIdentBOOT2, consts.StdIdentCD001, consts.StdIdentCDW02:
			continue
		case consts.StdIdentTEA01:
			log.Debug("vrs terminated without nsr")
			return udferr.ErrNotUDF
		default:
			return udferr.ErrNotUDF
		}
	}
	log.Debug("vrs step cap exceeded", "cap", stepCap)
	return udferr.ErrNotUDF
}

// walkVDS implements spec §4.4 phase 3.
func walkVDS(d disk.Disk, lbShift uint, vdsStart uint32, vol *volume.Volume, log *logging.Logger) error {
	lbSize := disk.BlockSize(lbShift)
	buf := make([]byte, lbSize)

	for block := vdsStart; ; block++ {
		if err := disk.ReadLogicalBlock(d, lbShift, block, buf); err != nil {
			return err
		}
		tag, err := descriptor.UnmarshalTag(buf)
		if err != nil {
			return fmt.Errorf("%w: %v", udferr.ErrInvalidTag, err)
		}

		switch tag.TagIdent {
		case consts.TagPVD:
			pvd, err := descriptor.UnmarshalPVD(buf)
			if err != nil {
				return fmt.Errorf("%w: pvd: %v", udferr.ErrInvalidTag, err)
			}
			vol.PVD = pvd
		case consts.TagPD:
			pd, err := descriptor.UnmarshalPD(buf)
			if err != nil {
				return fmt.Errorf("%w: pd: %v", udferr.ErrInvalidTag, err)
			}
			if len(vol.PDs) >= consts.MaxPartitionDescriptors {
				return udferr.ErrTooManyPDs
			}
			vol.PDs = append(vol.PDs, volume.PartitionDescriptor{
				PartNum:           pd.PartitionNum,
				Start:             pd.StartLocation,
				Length:            pd.Length,
				LengthFieldOffset: descriptor.PDLengthFieldOffset,
			})
		case consts.TagLVD:
			lvd, err := descriptor.UnmarshalLVD(buf)
			if err != nil {
				return fmt.Errorf("%w: lvd: %v", udferr.ErrInvalidTag, err)
			}
			vol.LVD = lvd
			if err := parsePartitionMaps(lvd, vol, log); err != nil {
				return err
			}
		case consts.TagTD:
			return nil
		default:
			if tag.TagIdent > consts.TagTD {
				return fmt.Errorf("%w: tag %d past TD in VDS", udferr.ErrInvalidTag, tag.TagIdent)
			}
		}
	}
}

// parsePartitionMaps decodes lvd's partition map table, accepting only
// Type 1 entries (spec §4.4 phase 3).
func parsePartitionMaps(lvd descriptor.LVD, vol *volume.Volume, log *logging.Logger) error {
	raw := lvd.PartitionMapsRaw
	for i := uint32(0); i < lvd.NumPartitionMaps; i++ {
		mapType, length, err := descriptor.ParsePartitionMapEntry(raw)
		if err != nil {
			return err
		}
		if mapType != consts.PartitionMapType1 {
			log.Debug("unsupported partition map", "type", mapType)
			return udferr.ErrUnsupportedPartmap
		}
		if len(vol.PMs) >= consts.MaxPartitionMaps {
			return udferr.ErrTooManyPartMaps
		}
		pm, err := descriptor.UnmarshalType1PartitionMap(raw)
		if err != nil {
			return err
		}
		vol.PMs = append(vol.PMs, volume.PartitionMap{VolSeqNum: pm.VolSeqNum, PartNum: pm.PartitionNum})

		if int(length) > len(raw) {
			return fmt.Errorf("%w: partition map entry length %d exceeds remaining table", udferr.ErrUnsupportedPartmap, length)
		}
		raw = raw[length:]
	}
	return nil
}

// fixupPartitionMaps implements spec §4.4 phase 4: rewrite each
// PartitionMap.PartNum from an on-disk logical partition number to an
// index into vol.PDs.
func fixupPartitionMaps(vol *volume.Volume) error {
	for i, pm := range vol.PMs {
		found := -1
		for j, pd := range vol.PDs {
			if pd.PartNum == pm.PartNum {
				found = j
				break
			}
		}
		if found < 0 {
			return udferr.ErrCantFindPD
		}
		vol.PMs[i].PartNum = uint16(found)
	}
	return nil
}

// loadRootFSD implements spec §4.4 phase 5.
func loadRootFSD(vol *volume.Volume) error {
	fset := vol.LVD.RootFileSet
	buf := make([]byte, vol.BlockSize())
	if err := vol.ReadBlock(fset.PartRef, fset.BlockNum, buf); err != nil {
		return err
	}
	fsd, err := descriptor.UnmarshalFSD(buf)
	if err != nil {
		return fmt.Errorf("%w: fsd: %v", udferr.ErrInvalidTag, err)
	}
	if fsd.Tag.TagIdent != consts.TagFSD {
		return fmt.Errorf("%w: expected FSD(%d), got %d", udferr.ErrInvalidTag, consts.TagFSD, fsd.Tag.TagIdent)
	}
	vol.RootICB = fsd.RootICB
	return nil
}
