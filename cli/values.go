package cli

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	tapcards "github.com/schjonhaug/cktap"
)

// pathValue is a derivation path flag. It accepts comma separated indices,
// may be repeated, and allows a trailing h or ' on each index. Indices are
// hardened by the card session, so they must stay below 2^31.
type pathValue struct {
	path *[]uint32
}

func newPathValue(p *[]uint32) *pathValue {
	return &pathValue{path: p}
}

func (v *pathValue) String() string {
	if v.path == nil || len(*v.path) == 0 {
		return ""
	}
	parts := make([]string, len(*v.path))
	for i, index := range *v.path {
		parts[i] = strconv.FormatUint(uint64(index), 10)
	}
	return strings.Join(parts, ",")
}

func (v *pathValue) Set(s string) error {

	// An empty value is the master key.
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var parsed []uint32

	for _, token := range strings.Split(s, ",") {

		token = strings.TrimSpace(token)

		if token == "" {
			return fmt.Errorf("empty path index in %q", s)
		}

		if strings.HasSuffix(token, "h") || strings.HasSuffix(token, "'") {
			token = token[:len(token)-1]
		}

		index, err := strconv.ParseUint(token, 10, 31)
		if err != nil {
			return fmt.Errorf("invalid path index %q", token)
		}

		parsed = append(parsed, uint32(index))
	}

	*v.path = append(*v.path, parsed...)

	return nil
}

func (v *pathValue) Type() string {
	return "path"
}

// digestValue is a 32 byte hex encoded digest flag.
type digestValue struct {
	digest *[]byte
}

func newDigestValue(d *[]byte) *digestValue {
	return &digestValue{digest: d}
}

func (v *digestValue) String() string {
	if v.digest == nil {
		return ""
	}
	return hex.EncodeToString(*v.digest)
}

func (v *digestValue) Set(s string) error {

	digest, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid digest: %v", err)
	}

	if len(digest) != len(tapcards.DefaultDigest) {
		return fmt.Errorf("digest must be %d bytes", len(tapcards.DefaultDigest))
	}

	*v.digest = digest

	return nil
}

func (v *digestValue) Type() string {
	return "hex"
}
