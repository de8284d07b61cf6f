// Package symlink implements the Symlink Decoder (spec §4.10): turns a
// UDF symlink's sequence of Path Component records into a POSIX-style
// path string.
package symlink

import (
	"fmt"
	"strings"

	"github.com/bgrewell/udf-kit/pkg/encoding"
	"github.com/bgrewell/udf-kit/pkg/icb"
	"github.com/bgrewell/udf-kit/pkg/option"
	"github.com/bgrewell/udf-kit/pkg/udferr"
	"github.com/bgrewell/udf-kit/pkg/volume"

	"github.com/bgrewell/udf-kit/pkg/file"
)

const (
	componentRoot      = 1
	componentRootAlias = 2
	componentParent    = 3
	componentCurrent   = 4
	componentName      = 5
)

// Read loads a symlink node's body and decodes it into a POSIX path.
func Read(node *volume.Node, fe *icb.FileEntryLike, opts *option.OpenOptions) (string, error) {
	body := make([]byte, fe.FileSize())
	if len(body) > 0 {
		if _, err := file.Read(node, fe, 0, body, opts); err != nil {
			return "", err
		}
	}
	return Decode(body)
}

// Decode interprets raw as a sequence of Path Component records and
// returns the resulting path string.
func Decode(raw []byte) (string, error) {
	var b strings.Builder
	ptr := 0
	end := len(raw)

	for ptr < end {
		if ptr+4 > end {
			return "", fmt.Errorf("%w: truncated component header at %d", udferr.ErrInvalidSymlink, ptr)
		}
		ctype := raw[ptr]
		length := int(raw[ptr+1])
		reserved := uint16(raw[ptr+2]) | uint16(raw[ptr+3])<<8
		if reserved != 0 {
			return "", fmt.Errorf("%w: nonzero reserved field at %d", udferr.ErrInvalidSymlink, ptr)
		}
		if ptr+4+length > end {
			return "", fmt.Errorf("%w: component data overruns buffer at %d", udferr.ErrInvalidSymlink, ptr)
		}
		data := raw[ptr+4 : ptr+4+length]

		switch ctype {
		case componentRoot, componentRootAlias:
			if length != 0 {
				return "", fmt.Errorf("%w: root component carries data", udferr.ErrInvalidSymlink)
			}
			b.Reset()
			b.WriteString("/")
		case componentParent:
			writeSeparator(&b)
			b.WriteString("..")
		case componentCurrent:
			writeSeparator(&b)
			b.WriteString(".")
		case componentName:
			name, err := encoding.DecodeDChars(data)
			if err != nil {
				return "", err
			}
			writeSeparator(&b)
			b.WriteString(name)
		default:
			return "", fmt.Errorf("%w: component type %d", udferr.ErrInvalidSymlink, ctype)
		}

		ptr += 4 + length
	}

	return b.String(), nil
}

// writeSeparator inserts a "/" before the next component, unless b is
// empty or already ends in one (i.e. the component right after a root).
func writeSeparator(b *strings.Builder) {
	s := b.String()
	if len(s) > 0 && s[len(s)-1] != '/' {
		b.WriteString("/")
	}
}
