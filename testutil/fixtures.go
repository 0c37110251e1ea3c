// Package testutil provides sample domain values shared across this
// module's test suites.
package testutil

import (
	"net"

	"github.com/blocknode/blocknode/internal/chaintypes"
	"github.com/blocknode/blocknode/internal/gossip"
	"github.com/blocknode/blocknode/pkg/hashutil"
)

// SampleTransaction returns a deterministic transaction seeded from n, for
// tests that need several distinguishable transactions.
func SampleTransaction(n byte) chaintypes.Transaction {
	var addr hashutil.Address
	addr[0] = n
	return chaintypes.Transaction{
		Spender:   addr,
		Receiver:  addr,
		Amount:    uint32(n),
		Timestamp: uint64(n),
	}
}

// SampleTransactions returns count distinct sample transactions.
func SampleTransactions(count int) chaintypes.Transactions {
	txs := make(chaintypes.Transactions, count)
	for i := range txs {
		txs[i] = SampleTransaction(byte(i + 1))
	}
	return txs
}

// MineBlock extends prev with txs at difficulty, failing the test (via
// panic, since package-level helpers have no *testing.T) if no nonce is
// found — which never happens at the easy difficulties tests use.
func MineBlock(prev hashutil.Hash, txs chaintypes.Transactions, difficulty uint32) chaintypes.Block {
	merkle := chaintypes.Merkle(txs)
	header, err := chaintypes.MineNew(prev, merkle, difficulty)
	if err != nil {
		panic("testutil: MineBlock: " + err.Error())
	}
	return chaintypes.Block{Header: header, Transactions: txs}
}

// EasyDifficulty is low enough that MineBlock always succeeds quickly in a
// test, as opposed to chaintypes.GlobalDifficulty.
const EasyDifficulty uint32 = 1

// SampleAddr returns a loopback SocketAddr on the given port.
func SampleAddr(port uint16) gossip.SocketAddr {
	return gossip.SocketAddr{IP: net.IPv4(127, 0, 0, 1).To4(), Port: port}
}
