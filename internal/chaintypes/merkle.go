package chaintypes

import "github.com/blocknode/blocknode/pkg/hashutil"

// Merkle computes the Merkle root of a non-empty transaction sequence by
// recursive midpoint split: one transaction hashes its own hash twice, two
// hash their pair, and longer sequences hash the roots of their two halves.
// This matches a level-by-level duplicate-last tree only for one, two, or a
// power-of-two number of transactions; for other lengths the roots differ.
//
// Merkle panics on an empty sequence: hashing zero transactions is a caller
// contract violation, not recoverable data. Block.IsValid rejects an empty
// transaction list before calling Merkle, and the miner never mines an
// empty snapshot.
func Merkle(txs Transactions) hashutil.Hash {
	switch len(txs) {
	case 0:
		panic("chaintypes: Merkle called with empty transaction sequence")
	case 1:
		h := txs[0].Hash()
		return hashutil.Concat(h, h)
	case 2:
		return hashutil.Concat(txs[0].Hash(), txs[1].Hash())
	default:
		mid := len(txs) / 2
		left := Merkle(txs[:mid])
		right := Merkle(txs[mid:])
		return hashutil.Concat(left, right)
	}
}
