package node

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocknode/blocknode/internal/chaintypes"
	"github.com/blocknode/blocknode/internal/gossip"
	"github.com/blocknode/blocknode/internal/miner"
	"github.com/blocknode/blocknode/pkg/hashutil"
	"github.com/blocknode/blocknode/testutil"
)

func addr(port uint16) gossip.SocketAddr {
	return testutil.SampleAddr(port)
}

func sampleTx(n byte) chaintypes.Transaction {
	return testutil.SampleTransaction(n)
}

// recordingBroadcaster collects every Broadcast call for assertions, instead
// of touching the network.
type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []struct {
		msg   gossip.Message
		peers []gossip.SocketAddr
	}
}

func (b *recordingBroadcaster) Broadcast(msg gossip.Message, peers []gossip.SocketAddr) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, struct {
		msg   gossip.Message
		peers []gossip.SocketAddr
	}{msg, peers})
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

// S2: a Connect from a fresh peer is acknowledged with an Addr reply
// containing the responder's own address.
func TestHandleConnectFromUnknownPeerReplies(t *testing.T) {
	n := New(addr(7000), nil, nil)

	reply, cmd := n.Handle(gossip.Connect{Addr: addr(7001)})

	require.Equal(t, miner.Keep, cmd)
	require.IsType(t, gossip.Addr{}, reply)
	peers := reply.(gossip.Addr).Peers
	require.Contains(t, peers, addr(7000))
	require.Len(t, n.peerAddrsLocked(), 1)
}

func TestHandleConnectFromSelfIsIgnored(t *testing.T) {
	n := New(addr(7000), nil, nil)

	reply, cmd := n.Handle(gossip.Connect{Addr: addr(7000)})

	require.Nil(t, reply)
	require.Equal(t, miner.Keep, cmd)
	require.Empty(t, n.peerAddrsLocked())
}

func TestHandleConnectFromKnownPeerIsSilent(t *testing.T) {
	n := New(addr(7000), nil, nil)
	n.Handle(gossip.Connect{Addr: addr(7001)})

	reply, cmd := n.Handle(gossip.Connect{Addr: addr(7001)})

	require.Nil(t, reply)
	require.Equal(t, miner.Keep, cmd)
}

func TestHandleConnectReplyCapsAtNinePeersPlusSelf(t *testing.T) {
	n := New(addr(7000), nil, nil)
	for i := uint16(1); i <= 15; i++ {
		a := addr(7000 + i)
		n.peers[a.String()] = a
	}

	reply, _ := n.Handle(gossip.Connect{Addr: addr(9000)})

	peers := reply.(gossip.Addr).Peers
	require.Len(t, peers, 10)
	require.Contains(t, peers, addr(7000))
}

// S2 continued: an Addr reply merges peers into the local set, excluding
// self, and produces no reply or mining command of its own.
func TestHandleAddrMergesPeersExcludingSelf(t *testing.T) {
	n := New(addr(7000), nil, nil)

	reply, cmd := n.Handle(gossip.Addr{Peers: []gossip.SocketAddr{addr(7001), addr(7002), addr(7000)}})

	require.Nil(t, reply)
	require.Equal(t, miner.Keep, cmd)
	require.Len(t, n.peerAddrsLocked(), 2)
	require.Contains(t, n.peerAddrsLocked(), addr(7001))
	require.Contains(t, n.peerAddrsLocked(), addr(7002))
}

// S3: fresh transactions enter the mempool, are relayed, and trigger Start;
// duplicates are dropped silently but still trigger Start.
func TestHandleTxAddsFreshTransactionsAndStarts(t *testing.T) {
	n := New(addr(7000), nil, nil)

	reply, cmd := n.Handle(gossip.Tx{Transactions: chaintypes.Transactions{sampleTx(1), sampleTx(2)}})

	require.Equal(t, miner.Start, cmd)
	require.IsType(t, gossip.Tx{}, reply)
	require.Len(t, reply.(gossip.Tx).Transactions, 2)
	require.Len(t, n.mempool, 2)
}

func TestHandleTxDedupsAgainstMempool(t *testing.T) {
	n := New(addr(7000), nil, nil)
	n.Handle(gossip.Tx{Transactions: chaintypes.Transactions{sampleTx(1)}})

	reply, cmd := n.Handle(gossip.Tx{Transactions: chaintypes.Transactions{sampleTx(1), sampleTx(2)}})

	require.Equal(t, miner.Start, cmd)
	require.Len(t, reply.(gossip.Tx).Transactions, 1)
	require.Equal(t, sampleTx(2), reply.(gossip.Tx).Transactions[0])
	require.Len(t, n.mempool, 2)
}

func TestHandleTxAllDuplicatesStillStartsWithNilReply(t *testing.T) {
	n := New(addr(7000), nil, nil)
	n.Handle(gossip.Tx{Transactions: chaintypes.Transactions{sampleTx(1)}})

	reply, cmd := n.Handle(gossip.Tx{Transactions: chaintypes.Transactions{sampleTx(1)}})

	require.Nil(t, reply)
	require.Equal(t, miner.Start, cmd)
}

// S4: MiningSnapshot reads the tip and mempool without mutating state, and
// IntegrateMined both extends the chain and prunes the mempool of the
// confirmed transactions, broadcasting NewBlock to current peers.
func TestMiningSnapshotReturnsTipAndMempool(t *testing.T) {
	n := New(addr(7000), nil, nil)
	n.Handle(gossip.Tx{Transactions: chaintypes.Transactions{sampleTx(1), sampleTx(2)}})

	tip, txs := n.MiningSnapshot()

	require.Equal(t, n.chain.TipHash(), tip)
	require.Len(t, txs, 2)
}

func TestIntegrateMinedExtendsChainPrunesMempoolAndBroadcasts(t *testing.T) {
	b := &recordingBroadcaster{}
	n := New(addr(7000), b, nil)
	p := addr(7001)
	n.peers[p.String()] = p
	n.Handle(gossip.Tx{Transactions: chaintypes.Transactions{sampleTx(1)}})

	tip, txs := n.MiningSnapshot()
	merkle := chaintypes.Merkle(txs)
	header, err := chaintypes.MineNew(tip, merkle, chaintypes.GlobalDifficulty)
	require.NoError(t, err)
	block := chaintypes.Block{Header: header, Transactions: txs}

	accepted := n.IntegrateMined(block)

	require.True(t, accepted)
	require.Empty(t, n.mempool)
	require.Equal(t, block.Hash(), n.chain.TipHash())
	require.Equal(t, 1, b.count())
}

func TestIntegrateMinedRejectsOrphan(t *testing.T) {
	b := &recordingBroadcaster{}
	n := New(addr(7000), b, nil)

	txs := chaintypes.Transactions{sampleTx(9)}
	merkle := chaintypes.Merkle(txs)
	header, err := chaintypes.MineNew(hashutil.Sum([]byte("not the tip")), merkle, chaintypes.GlobalDifficulty)
	require.NoError(t, err)
	orphan := chaintypes.Block{Header: header, Transactions: txs}

	accepted := n.IntegrateMined(orphan)

	require.False(t, accepted)
	require.Equal(t, 0, b.count())
}

// S6: a NewBlock that becomes the new tip restarts mining; one that is
// accepted onto a side branch merely starts (if idle) rather than
// interrupting in-flight work on the real tip.
func TestHandleNewBlockAsNewTipRestarts(t *testing.T) {
	n := New(addr(7000), nil, nil)
	genesisTip := n.chain.TipHash()

	txs := chaintypes.Transactions{sampleTx(5)}
	merkle := chaintypes.Merkle(txs)
	header, err := chaintypes.MineNew(genesisTip, merkle, chaintypes.GlobalDifficulty)
	require.NoError(t, err)
	block := chaintypes.Block{Header: header, Transactions: txs}

	reply, cmd := n.Handle(gossip.NewBlock{Block: block})

	require.Equal(t, miner.Restart, cmd)
	require.Equal(t, gossip.NewBlock{Block: block}, reply)
	require.Equal(t, block.Hash(), n.chain.TipHash())
}

func TestHandleNewBlockRejectsInvalid(t *testing.T) {
	n := New(addr(7000), nil, nil)

	txs := chaintypes.Transactions{sampleTx(5)}
	header := chaintypes.BlockHeader{
		PrevBlockHash: n.chain.TipHash(),
		MerkleHash:    chaintypes.Merkle(txs),
		Difficulty:    chaintypes.GlobalDifficulty,
		Nonce:         0, // almost certainly not a valid nonce
	}
	bad := chaintypes.Block{Header: header, Transactions: txs}

	reply, cmd := n.Handle(gossip.NewBlock{Block: bad})

	require.Nil(t, reply)
	require.Equal(t, miner.Start, cmd)
}

func TestPeerAddrsReturnsSnapshot(t *testing.T) {
	n := New(addr(7000), nil, nil)
	n.Handle(gossip.Connect{Addr: addr(7001)})
	n.Handle(gossip.Connect{Addr: addr(7002)})

	peers := n.PeerAddrs()

	require.Len(t, peers, 2)
}

func TestSnapshotReportsCounts(t *testing.T) {
	n := New(addr(7000), nil, nil)
	n.Handle(gossip.Connect{Addr: addr(7001)})
	n.Handle(gossip.Tx{Transactions: chaintypes.Transactions{sampleTx(1)}})

	st := n.Snapshot()

	require.Equal(t, 1, st.PeerCount)
	require.Equal(t, 1, st.MempoolSize)
	require.Equal(t, uint64(1), st.ChainLength)
	require.Equal(t, 1, st.TotalBlocks)
}
