package testutil

import (
	"encoding/hex"
	"testing"

	"github.com/blocknode/blocknode/pkg/hashutil"
)

// MustDecodeHex decodes hex or fails the test.
func MustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("invalid hex %q: %v", s, err)
	}
	return b
}

// HashFromHex converts a hex string to a hashutil.Hash, zero-padding if
// the decoded value is shorter than 32 bytes.
func HashFromHex(s string) hashutil.Hash {
	b, _ := hex.DecodeString(s)
	var h hashutil.Hash
	copy(h[:], b)
	return h
}
