package chaintypes

import (
	"encoding/hex"
	"fmt"

	"github.com/blocknode/blocknode/pkg/hashutil"
)

// GlobalDifficulty is the single global proof-of-work difficulty constant
// (two leading zero bytes, ≈16 zero bits). Dynamic difficulty adjustment is
// explicitly out of scope; every node in the fleet uses this constant.
const GlobalDifficulty uint32 = 2

// MaxTxsPerBlock caps the number of mempool transactions a mining task pulls
// into a candidate block.
const MaxTxsPerBlock = 100

// genesisTxsHashHex is the compile-time Merkle-hash constant for the genesis
// transaction sequence, computed once over the canonical encoding and
// re-verified at startup by MustVerifyGenesis so a wire-format or hashing
// regression is caught before the node ever joins the network.
const genesisTxsHashHex = "527cea7c5b588d9fb0d6567e8e2e10497d607f47fd2d3764edb612332183b5f3"

// genesisNonce is the precomputed nonce that satisfies the genesis header at
// GenesisDifficulty.
const genesisNonce uint32 = 437

// GenesisDifficulty is the difficulty the hard-coded genesis block was mined
// at. It need not equal GlobalDifficulty — genesis predates any difficulty
// the fleet later settles on — and here it is 1 while GlobalDifficulty is 2.
const GenesisDifficulty uint32 = 1

func mustHash(hexStr string) hashutil.Hash {
	b, err := hex.DecodeString(hexStr)
	if err != nil || len(b) != hashutil.Length {
		panic(fmt.Sprintf("chaintypes: malformed genesis hash constant %q", hexStr))
	}
	var h hashutil.Hash
	copy(h[:], b)
	return h
}

// GenesisTxsHash is the Merkle hash of the genesis transaction sequence.
var GenesisTxsHash = mustHash(genesisTxsHashHex)

// mintAddress and genesisReceiver are the hard-coded addresses of the single
// genesis transaction: [1;32] → [1,0,…,0].
func mintAddress() hashutil.Address {
	var a hashutil.Address
	for i := range a {
		a[i] = 1
	}
	return a
}

func genesisReceiver() hashutil.Address {
	var a hashutil.Address
	a[0] = 1
	return a
}

// genesisTimestamp is 1707519600 seconds since the Unix epoch, which is
// 2024-02-09 23:00:00 UTC (midnight of 2024-02-10 at UTC+1). The genesis
// Merkle constant and nonce above are computed over this exact value.
const genesisTimestamp uint64 = 1707519600

// GenesisTransactions returns the single hard-coded genesis transaction as a
// Transactions sequence.
func GenesisTransactions() Transactions {
	return Transactions{
		{
			Spender:   mintAddress(),
			Receiver:  genesisReceiver(),
			Amount:    100,
			Timestamp: genesisTimestamp,
		},
	}
}

// Genesis returns the hard-coded genesis block shared by every node.
func Genesis() Block {
	txs := GenesisTransactions()
	return Block{
		Header: BlockHeader{
			PrevBlockHash: hashutil.ZeroHash,
			MerkleHash:    GenesisTxsHash,
			Difficulty:    GenesisDifficulty,
			Nonce:         genesisNonce,
		},
		Transactions: txs,
	}
}

// MustVerifyGenesis recomputes the genesis transaction sequence's Merkle hash
// and the genesis header's validity, and panics if either disagrees with the
// hard-coded constants. Every node calls this once at startup per spec: the
// genesis invariant is load-bearing for the whole fleet agreeing on a chain,
// so a drift here must fail loudly and immediately rather than surface later
// as a silent fork.
func MustVerifyGenesis() {
	computed := Merkle(GenesisTransactions())
	if computed != GenesisTxsHash {
		panic(fmt.Sprintf("chaintypes: genesis Merkle hash mismatch: computed %x, want %x", computed, GenesisTxsHash))
	}
	g := Genesis()
	if !g.IsValid() {
		panic("chaintypes: genesis block fails its own proof-of-work check")
	}
}
