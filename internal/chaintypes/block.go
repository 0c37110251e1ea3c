package chaintypes

import (
	"github.com/blocknode/blocknode/pkg/hashutil"
	"github.com/blocknode/blocknode/pkg/wire"
)

// Block pairs a header with its ordered transaction sequence.
type Block struct {
	Header       BlockHeader
	Transactions Transactions
}

// Encode writes the block's canonical encoding: header encoding ‖
// transactions encoding.
func (b Block) Encode(w *wire.Writer) {
	b.Header.Encode(w)
	b.Transactions.Encode(w)
}

// Bytes returns the block's canonical binary encoding.
func (b Block) Bytes() []byte {
	w := wire.NewWriter()
	b.Encode(w)
	return w.Bytes()
}

// Hash returns the block's hash, defined as its header's hash.
func (b Block) Hash() hashutil.Hash {
	return b.Header.Hash()
}

// IsValid checks that the block has at least one transaction, that the
// header's Merkle hash matches the transactions, and that the header itself
// satisfies the proof-of-work predicate.
func (b Block) IsValid() bool {
	if len(b.Transactions) == 0 {
		return false
	}
	if Merkle(b.Transactions) != b.Header.MerkleHash {
		return false
	}
	return b.Header.IsValid()
}

// DecodeBlock reads a canonically-encoded block.
func DecodeBlock(r *wire.Reader) Block {
	return Block{
		Header:       DecodeBlockHeader(r),
		Transactions: DecodeTransactions(r),
	}
}
