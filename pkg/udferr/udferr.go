// Package udferr defines the sentinel error kinds returned by the UDF
// decoder. Callers should compare with errors.Is rather than matching
// strings.
package udferr

import "errors"

var (
	// ErrNotUDF is returned when no Anchor Volume Descriptor Pointer or
	// Volume Recognition Sequence can be found on the disk.
	ErrNotUDF = errors.New("udf: not a UDF volume")

	// ErrDiskIO wraps a failure from the underlying Disk adapter.
	ErrDiskIO = errors.New("udf: disk I/O error")

	// ErrInvalidTag is returned when a descriptor tag is out of the
	// range expected at a given position in the Volume Descriptor Sequence.
	ErrInvalidTag = errors.New("udf: invalid descriptor tag")

	// ErrInvalidFEDescriptor is returned when an ICB does not carry a
	// File Entry or Extended File Entry tag.
	ErrInvalidFEDescriptor = errors.New("udf: invalid file entry descriptor")

	// ErrInvalidFIDTag is returned when a directory record does not
	// carry a File Identifier Descriptor tag.
	ErrInvalidFIDTag = errors.New("udf: invalid file identifier descriptor tag")

	// ErrInvalidAEDTag is returned when an allocation extent
	// continuation block does not carry an AED tag.
	ErrInvalidAEDTag = errors.New("udf: invalid allocation extent descriptor tag")

	// ErrInvalidAEDLength is returned when an allocation extent
	// descriptor's length_of_alloc_descs claims more bytes than fit in
	// its containing block.
	ErrInvalidAEDLength = errors.New("udf: allocation extent descriptor length exceeds block")

	// ErrTagChecksum is returned when a descriptor tag's checksum does
	// not match its recomputed value and strict checksum validation is
	// enabled.
	ErrTagChecksum = errors.New("udf: descriptor tag checksum mismatch")

	// ErrTooManyPDs is returned when the Volume Descriptor Sequence
	// carries more Partition Descriptors than this driver's fixed cap.
	ErrTooManyPDs = errors.New("udf: too many partition descriptors")

	// ErrTooManyPartMaps is returned when a Logical Volume Descriptor
	// carries more partition maps than this driver's fixed cap.
	ErrTooManyPartMaps = errors.New("udf: too many partition maps")

	// ErrUnsupportedPartmap is returned for any partition map type other
	// than Type 1.
	ErrUnsupportedPartmap = errors.New("udf: unsupported partition map type")

	// ErrCantFindPD is returned when a partition map references a
	// partition number with no matching Partition Descriptor.
	ErrCantFindPD = errors.New("udf: can't find partition descriptor")

	// ErrInvalidPartRef is returned when a partition reference index is
	// out of range of the volume's partition map table.
	ErrInvalidPartRef = errors.New("udf: invalid partition reference")

	// ErrInvalidExtentType is returned when extended allocation
	// descriptors are encountered; this driver does not support them.
	ErrInvalidExtentType = errors.New("udf: invalid (extended) extent type")

	// ErrInvalidString is returned when a dchars field carries a
	// compression ID other than 8 or 16.
	ErrInvalidString = errors.New("udf: invalid dstring compression id")

	// ErrInvalidSymlink is returned when a symlink's path component
	// stream is malformed.
	ErrInvalidSymlink = errors.New("udf: invalid symlink path component")

	// ErrNotFound is returned by the default path resolver when a path
	// component cannot be located in a directory.
	ErrNotFound = errors.New("udf: file not found")

	// ErrNotADirectory is returned when a non-terminal path component
	// does not resolve to a directory, and by the default path resolver
	// when the final node's type does not match the expected type (a
	// non-directory where a directory is expected, or a directory where
	// a regular file is expected).
	ErrNotADirectory = errors.New("udf: not a directory")

	// ErrSymlinkLoop is returned when symlink resolution exceeds the
	// path resolver's depth limit.
	ErrSymlinkLoop = errors.New("udf: too many levels of symbolic links")

	// ErrHandleClosed is returned by a FileHandle's Read after Close.
	ErrHandleClosed = errors.New("udf: file handle closed")
)
