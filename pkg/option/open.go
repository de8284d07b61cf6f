package option

import (
	"github.com/bgrewell/udf-kit/pkg/logging"
)

// ReadHook is invoked once per underlying disk read FileReader performs,
// with the absolute logical block, the in-block byte offset, and the
// number of bytes read. Used for block-listing and telemetry; it never
// sees hole (zero-filled) reads, since those never reach the disk.
type ReadHook func(block uint32, offset int, n int)

// OpenOptions configures a Mount call.
type OpenOptions struct {
	// Logger receives structured diagnostics during mount.
	// Defaults to a discarding logger.
	Logger *logging.Logger

	// ReadHook, if set, is called for every disk read FileReader issues.
	ReadHook ReadHook

	// StrictChecksums, when true, requires a valid descriptor tag
	// checksum on every FE/EFE, FID, and AED continuation block read
	// after mount (the ICB Loader, Directory Iterator, and Allocation
	// Walker), instead of merely checking tag_ident.
	StrictChecksums bool

	// VRSStepCap bounds the Volume Recognition Sequence search loop
	// during mount (spec §4.4 phase 2's open question). Zero selects
	// consts.DefaultVRSStepCap.
	VRSStepCap int
}

// OpenOption mutates an OpenOptions during Mount.
type OpenOption func(*OpenOptions)

// WithLogger sets the logger used during mount.
func WithLogger(logger *logging.Logger) OpenOption {
	return func(o *OpenOptions) {
		o.Logger = logger
	}
}

// WithReadHook installs a callback invoked per disk read FileReader issues.
func WithReadHook(hook ReadHook) OpenOption {
	return func(o *OpenOptions) {
		o.ReadHook = hook
	}
}

// WithStrictChecksums requires the tag checksum of every FE/EFE, FID,
// and AED continuation block read after mount to be correct, instead of
// only checking tag_ident. Tags read during mount are not checksummed.
func WithStrictChecksums(strict bool) OpenOption {
	return func(o *OpenOptions) {
		o.StrictChecksums = strict
	}
}

// WithVRSStepCap overrides the Volume Recognition Sequence search cap.
func WithVRSStepCap(cap int) OpenOption {
	return func(o *OpenOptions) {
		o.VRSStepCap = cap
	}
}

// Resolve applies opts over the package defaults and returns the result.
func Resolve(opts ...OpenOption) *OpenOptions {
	o := &OpenOptions{
		Logger: logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
