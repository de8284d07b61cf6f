// Package udf is the Public Facade (spec §4.12): mount a disk image,
// read its label and UUID, list directories, and open/read/close files
// by path. It wires together the Volume Mounter, ICB Loader, Directory
// Iterator, File Reader, and the default PathResolver into the small
// surface a host file abstraction actually needs.
package udf

import (
	"fmt"
	"time"

	"github.com/bgrewell/udf-kit/pkg/dirent"
	"github.com/bgrewell/udf-kit/pkg/disk"
	"github.com/bgrewell/udf-kit/pkg/file"
	"github.com/bgrewell/udf-kit/pkg/fshelp"
	"github.com/bgrewell/udf-kit/pkg/icb"
	"github.com/bgrewell/udf-kit/pkg/labeluuid"
	"github.com/bgrewell/udf-kit/pkg/option"
	"github.com/bgrewell/udf-kit/pkg/parser"
	"github.com/bgrewell/udf-kit/pkg/udferr"
	"github.com/bgrewell/udf-kit/pkg/volume"
)

// Volume is a mounted UDF volume handle, holding the root directory's
// node alongside the descriptors the Volume Mounter assembled.
type Volume struct {
	vol    *volume.Volume
	rootN  *volume.Node
	rootFE *icb.FileEntryLike
	opts   *option.OpenOptions
}

// Mount opens disk as a UDF volume: it runs the AVDP search, checks the
// Volume Recognition Sequence, walks the Volume Descriptor Sequence, and
// loads the root File Set Descriptor's ICB.
func Mount(d disk.Disk, opts ...option.OpenOption) (*Volume, error) {
	resolved := option.Resolve(opts...)

	vol, err := parser.Mount(d, resolved)
	if err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}

	rootN, rootFE, _, err := icb.Load(vol, vol.RootICB, resolved)
	if err != nil {
		return nil, fmt.Errorf("mount: loading root icb: %w", err)
	}
	if rootFE.FileType() != fileTypeDirectory {
		return nil, fmt.Errorf("mount: root icb is not a directory: %w", udferr.ErrNotADirectory)
	}

	resolved.Logger.Debug("mounted", "lb_shift", vol.LBShift, "partitions", len(vol.PDs))
	return &Volume{vol: vol, rootN: rootN, rootFE: rootFE, opts: resolved}, nil
}

const fileTypeDirectory = 4

// Label returns the volume's logical volume identifier, or ok=false if
// it decodes to an empty string.
func (v *Volume) Label() (string, bool) {
	label, err := labeluuid.Label(v.vol.LVD)
	if err != nil || label == "" {
		return "", false
	}
	return label, true
}

// UUID returns the 16-lowercase-hex-character UUID derived from the
// primary volume descriptor's volume set identifier, or ok=false if one
// cannot be derived.
func (v *Volume) UUID() (string, bool) {
	return labeluuid.UUID(v.vol.PVD)
}

// DirInfo is handed to a Dir callback for every entry, the facade-level
// projection of dirent.DirInfo (spec §4.12's "DirInfo{is_dir, mtime?}").
type DirInfo struct {
	IsDir   bool
	IsLink  bool
	ModTime time.Time
	HasTime bool
}

// DirHook is called once per directory entry; iteration stops as soon as
// it returns true.
type DirHook func(name string, info DirInfo) bool

// Dir lists the directory at path, calling hook for each entry (starting
// with the synthesized "." entry) until hook returns true or the
// directory is exhausted.
func (v *Volume) Dir(path string, hook DirHook) error {
	node, fe, err := v.resolve(path, fshelp.ExpectDir)
	if err != nil {
		return fmt.Errorf("dir %q: %w", path, err)
	}

	return dirent.Iterate(node, fe, func(entry dirent.DirInfo) bool {
		return hook(entry.Name, DirInfo{
			IsDir:   entry.Kind == dirent.KindDir,
			IsLink:  entry.Kind == dirent.KindSymlink,
			ModTime: entry.ModTime,
			HasTime: entry.HasTime,
		})
	}, v.opts)
}

// FileHandle is a leaf ICB opened for reading, per spec §4.12's
// Opened -> (Read)* -> Closed state machine. Closing merely marks the
// handle unusable; no underlying resource is held beyond the Volume it
// was opened against.
type FileHandle struct {
	vol    *Volume
	node   *volume.Node
	fe     *icb.FileEntryLike
	closed bool
}

// Open resolves path to a regular file and returns a FileHandle ready
// for Read calls.
func (v *Volume) Open(path string) (*FileHandle, error) {
	node, fe, err := v.resolve(path, fshelp.ExpectReg)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	return &FileHandle{vol: v, node: node, fe: fe}, nil
}

// Size returns the file's byte length.
func (h *FileHandle) Size() uint64 {
	return h.fe.FileSize()
}

// Read fills dst with up to len(dst) bytes starting at byte offset off,
// returning the number of bytes actually read (short only at EOF).
func (h *FileHandle) Read(off int64, dst []byte) (int, error) {
	if h.closed {
		return 0, fmt.Errorf("read: %w", udferr.ErrHandleClosed)
	}
	n, err := file.Read(h.node, h.fe, off, dst, h.vol.opts)
	if err != nil {
		return n, fmt.Errorf("read: %w", err)
	}
	return n, nil
}

// Close marks the handle unusable. The underlying Volume is unaffected
// and may still be used by other handles.
func (h *FileHandle) Close() error {
	h.closed = true
	return nil
}

func (v *Volume) resolve(path string, expected fshelp.ExpectedType) (*volume.Node, *icb.FileEntryLike, error) {
	return fshelp.FindFile(v.rootN, v.rootFE, path, expected, v.opts)
}
