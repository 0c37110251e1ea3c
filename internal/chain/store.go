// Package chain implements the in-memory block tree: a map from block hash
// to {block, height}, plus a tip pointer selected by longest-chain with a
// first-seen tie-break. There is no pruning — forks are retained
// indefinitely — and no persistence; the store lives for the process
// lifetime only.
package chain

import (
	"github.com/blocknode/blocknode/internal/chaintypes"
	"github.com/blocknode/blocknode/pkg/hashutil"
)

// Entry is an internal chain record pairing a block with its height. Genesis
// has height 0.
type Entry struct {
	Block  chaintypes.Block
	Height uint64
}

// Store is a block tree keyed by hash, with longest-chain tip selection.
// It holds no lock of its own: the node state machine (internal/node)
// guards all access with its RWMutex, per the concurrency model in the
// node's design. A Store is not safe for concurrent use on its own.
type Store struct {
	entries map[hashutil.Hash]*Entry
	tip     hashutil.Hash
}

// New returns a store containing only genesis, at height 0 and as the tip.
func New() *Store {
	g := chaintypes.Genesis()
	gh := g.Hash()
	s := &Store{
		entries: make(map[hashutil.Hash]*Entry),
		tip:     gh,
	}
	s.entries[gh] = &Entry{Block: g, Height: 0}
	return s
}

// HighestBlock returns the block at the tip.
func (s *Store) HighestBlock() chaintypes.Block {
	return s.entries[s.tip].Block
}

// TipHash returns the hash of the current tip block.
func (s *Store) TipHash() hashutil.Hash {
	return s.tip
}

// MainChainLength returns height(tip) + 1.
func (s *Store) MainChainLength() uint64 {
	return s.entries[s.tip].Height + 1
}

// Has reports whether hash is present in the store.
func (s *Store) Has(hash hashutil.Hash) bool {
	_, ok := s.entries[hash]
	return ok
}

// Get returns the entry for hash, if present.
func (s *Store) Get(hash hashutil.Hash) (*Entry, bool) {
	e, ok := s.entries[hash]
	return e, ok
}

// AddBlock validates and inserts a block, returning true iff it was newly
// accepted.
//
// Order of checks:
//  1. Reject if the block fails its own proof-of-work/Merkle validity.
//  2. Reject if its parent is not already in the store (orphan rejection —
//     no queue, no retry).
//  3. Reject if its hash is already present (duplicate).
//  4. Insert at height = parent.height + 1. If that height is >= the
//     current main chain length (i.e. strictly greater than the tip's
//     height), the new block becomes the tip; otherwise the tip is left
//     alone — the first block to reach a given height wins.
func (s *Store) AddBlock(b chaintypes.Block) bool {
	if !b.IsValid() {
		return false
	}

	parent, ok := s.entries[b.Header.PrevBlockHash]
	if !ok {
		return false
	}

	hash := b.Hash()
	if _, exists := s.entries[hash]; exists {
		return false
	}

	height := parent.Height + 1
	s.entries[hash] = &Entry{Block: b, Height: height}

	if height >= s.MainChainLength() {
		s.tip = hash
	}

	return true
}

// Forks returns the hash of every stored block that is not any other
// stored block's parent — i.e. every branch tip, including the main chain's.
// This is read-only introspection for observability; it adds no acceptance
// semantics and changes no invariant above.
func (s *Store) Forks() []hashutil.Hash {
	hasChild := make(map[hashutil.Hash]bool, len(s.entries))
	for _, e := range s.entries {
		hasChild[e.Block.Header.PrevBlockHash] = true
	}
	var leaves []hashutil.Hash
	for hash := range s.entries {
		if !hasChild[hash] {
			leaves = append(leaves, hash)
		}
	}
	return leaves
}

// Len returns the total number of blocks stored across all branches.
func (s *Store) Len() int {
	return len(s.entries)
}
