package chaintypes

import (
	"context"
	"errors"

	"github.com/blocknode/blocknode/pkg/hashutil"
	"github.com/blocknode/blocknode/pkg/wire"
)

// ErrMiningCancelled is returned by MineNewCtx when ctx is cancelled before a
// solution is found.
var ErrMiningCancelled = errors.New("chaintypes: mining cancelled")

// cancelCheckStride bounds how often MineNewCtx polls ctx.Done() against the
// nonce search. Spec does not require per-nonce cancellation checks; this
// amortizes the check's cost while still responding to an abort promptly at
// commodity-CPU hash rates.
const cancelCheckStride = 4096

// ErrNonceExhausted is returned by MineNew when the full 32-bit nonce space
// was searched without finding a header that meets the target difficulty.
// Spec calls for no rollover: this is fatal to the caller, never retried.
var ErrNonceExhausted = errors.New("chaintypes: nonce space exhausted without a solution")

// BlockHeader is the proof-of-work envelope of a block.
type BlockHeader struct {
	PrevBlockHash hashutil.Hash
	MerkleHash    hashutil.Hash
	Difficulty    uint32
	Nonce         uint32
}

// Encode writes the header's canonical encoding: prev (32) ‖ merkle (32) ‖
// difficulty (u32 LE) ‖ nonce (u32 LE).
func (h BlockHeader) Encode(w *wire.Writer) {
	w.Raw(h.PrevBlockHash[:])
	w.Raw(h.MerkleHash[:])
	w.U32(h.Difficulty)
	w.U32(h.Nonce)
}

// Bytes returns the header's canonical binary encoding.
func (h BlockHeader) Bytes() []byte {
	w := wire.NewWriter()
	h.Encode(w)
	return w.Bytes()
}

// Hash returns the header's content hash.
func (h BlockHeader) Hash() hashutil.Hash {
	return hashutil.Sum(h.Bytes())
}

// IsValid reports whether the header's own hash has at least Difficulty
// leading zero bytes. The puzzle is solved by varying Nonce only. A
// Difficulty above hashutil.Length can never be met and reports false.
func (h BlockHeader) IsValid() bool {
	if h.Difficulty > hashutil.Length {
		return false
	}
	return hashutil.HasLeadingZeroBytes(h.Hash(), int(h.Difficulty))
}

// DecodeBlockHeader reads a canonically-encoded header.
func DecodeBlockHeader(r *wire.Reader) BlockHeader {
	var h BlockHeader
	copy(h.PrevBlockHash[:], r.Raw(hashutil.Length))
	copy(h.MerkleHash[:], r.Raw(hashutil.Length))
	h.Difficulty = r.U32()
	h.Nonce = r.U32()
	return h
}

// MineNew constructs a header over (prev, merkle, difficulty) and searches
// nonces 0, 1, 2, … for the first value whose header hash has the required
// leading zero bytes. The search is deterministic: for a given
// (prev, merkle, difficulty) the first valid nonce is always returned.
func MineNew(prev, merkle hashutil.Hash, difficulty uint32) (BlockHeader, error) {
	h := BlockHeader{
		PrevBlockHash: prev,
		MerkleHash:    merkle,
		Difficulty:    difficulty,
		Nonce:         0,
	}
	for nonce := uint64(0); nonce <= 0xFFFFFFFF; nonce++ {
		h.Nonce = uint32(nonce)
		if h.IsValid() {
			return h, nil
		}
	}
	return BlockHeader{}, ErrNonceExhausted
}

// MineNewCtx is MineNew with cooperative cancellation: the nonce search polls
// ctx at cancelCheckStride intervals and returns ErrMiningCancelled if it
// observes cancellation before finding a solution.
func MineNewCtx(ctx context.Context, prev, merkle hashutil.Hash, difficulty uint32) (BlockHeader, error) {
	h := BlockHeader{
		PrevBlockHash: prev,
		MerkleHash:    merkle,
		Difficulty:    difficulty,
		Nonce:         0,
	}
	for nonce := uint64(0); nonce <= 0xFFFFFFFF; nonce++ {
		if nonce%cancelCheckStride == 0 {
			select {
			case <-ctx.Done():
				return BlockHeader{}, ErrMiningCancelled
			default:
			}
		}
		h.Nonce = uint32(nonce)
		if h.IsValid() {
			return h, nil
		}
	}
	return BlockHeader{}, ErrNonceExhausted
}
