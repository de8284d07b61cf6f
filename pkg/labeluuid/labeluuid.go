// Package labeluuid implements Label & UUID (spec §4.11): the volume
// label is the logical volume identifier, and the UUID is derived from
// the primary volume descriptor's volset_ident by the scheme the
// original driver's gen_uuid_from_volset uses.
package labeluuid

import (
	"encoding/hex"
	"strings"

	"github.com/bgrewell/udf-kit/pkg/descriptor"
	"github.com/bgrewell/udf-kit/pkg/encoding"
)

// Label decodes the logical volume identifier out of an LVD.
func Label(lvd descriptor.LVD) (string, error) {
	return encoding.DecodeDString(lvd.LogicalVolIdent[:])
}

// UUID derives a 16-lowercase-hex-character UUID from a PVD's
// volset_ident, or reports ok=false if the identifier is too short
// (fewer than 8 characters) to derive one from.
//
// The first 16 decoded bytes are scanned for the first non-hex-digit
// character at position nonhexpos (16 if all are hex digits):
//   - nonhexpos < 8:  hex-encode the raw bytes buf[0:8].
//   - nonhexpos < 16: lowercase buf[0:8] as characters, hex-encode
//     buf[8:12] as raw bytes.
//   - nonhexpos == 16: lowercase buf[0:16] as characters.
func UUID(pvd descriptor.PVD) (string, bool) {
	decoded, err := encoding.DecodeDString(pvd.VolSetIdent[:])
	if err != nil {
		return "", false
	}
	raw := []byte(decoded)
	if len(raw) < 8 {
		return "", false
	}

	n := len(raw)
	if n > 16 {
		n = 16
	}
	var buf [16]byte
	copy(buf[:], raw[:n])

	nonhexpos := 16
	for i := 0; i < 16; i++ {
		if !isHexDigit(buf[i]) {
			nonhexpos = i
			break
		}
	}

	switch {
	case nonhexpos < 8:
		return hex.EncodeToString(buf[0:8]), true
	case nonhexpos < 16:
		return strings.ToLower(string(buf[0:8])) + hex.EncodeToString(buf[8:12]), true
	default:
		return strings.ToLower(string(buf[0:16])), true
	}
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
