// Package hashutil provides the node's fixed-length digest primitive:
// SHA-256 hashing, the leading-zero proof-of-work predicate, and base58
// rendering for human-readable logs.
package hashutil

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// Length is the fixed width of a Hash in bytes.
const Length = 32

// Hash is a fixed-width 32-byte digest. Equality and ordering are byte-wise.
type Hash [Length]byte

// Address is an alias for Hash; it carries no semantic constraints beyond
// byte equality.
type Address = Hash

// ZeroHash is the all-zero hash, used as genesis's PrevBlockHash.
var ZeroHash Hash

// Sum computes the SHA-256 digest of data.
func Sum(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// Concat hashes the concatenation of a and b — the building block for
// Merkle-tree node hashing.
func Concat(a, b Hash) Hash {
	buf := make([]byte, 0, 2*Length)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return Sum(buf)
}

// HasLeadingZeroBytes reports whether the first n bytes of h are all zero.
// n is interpreted in bytes, not bits. n == 0 is vacuously true. n > Length
// is a caller contract violation and panics — it indicates a bug upstream,
// not recoverable input (see the difficulty invariant in the chain header).
func HasLeadingZeroBytes(h Hash, n int) bool {
	if n < 0 || n > Length {
		panic(fmt.Sprintf("hashutil: leading-zero count %d out of range [0,%d]", n, Length))
	}
	for i := 0; i < n; i++ {
		if h[i] != 0 {
			return false
		}
	}
	return true
}

// B58 renders a hash as Bitcoin-alphabet base58, for human-readable logs only.
func B58(h Hash) string {
	return base58.Encode(h[:])
}

// String implements fmt.Stringer so zap.Stringer fields render as base58.
func (h Hash) String() string {
	return B58(h)
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}
