// Package node implements the reactive state machine at the heart of the
// fleet: it consumes the four gossip message variants, mutates the mempool
// and chain store under a single readers-writer lock, and returns the reply
// to broadcast plus the mining command to apply. No I/O happens inside a
// state transition.
package node

import (
	"sync"

	"go.uber.org/zap"

	"github.com/blocknode/blocknode/internal/chain"
	"github.com/blocknode/blocknode/internal/chaintypes"
	"github.com/blocknode/blocknode/internal/gossip"
	"github.com/blocknode/blocknode/internal/metrics"
	"github.com/blocknode/blocknode/internal/miner"
	"github.com/blocknode/blocknode/pkg/hashutil"
)

// maxPeerReplyEntries caps a Connect reply at 9 known peers plus the
// replying node's own address, per spec §4.5.
const maxPeerReplyEntries = 9

// Broadcaster fans a message out to a set of peers. Implemented by
// internal/gossip's package-level Broadcast function via BroadcastFunc.
type Broadcaster interface {
	Broadcast(msg gossip.Message, peers []gossip.SocketAddr)
}

// BroadcastFunc adapts gossip.Broadcast (or a test double) to Broadcaster.
type BroadcastFunc func(msg gossip.Message, peers []gossip.SocketAddr)

// Broadcast implements Broadcaster.
func (f BroadcastFunc) Broadcast(msg gossip.Message, peers []gossip.SocketAddr) {
	f(msg, peers)
}

// Node is the per-process state machine: one address, one peer set, one
// mempool, one chain store, all guarded by a single RWMutex. The lock is
// held for the full span of Handle (a write lock) or MiningSnapshot (a read
// lock) — never across I/O.
type Node struct {
	mu sync.RWMutex

	self gossip.SocketAddr
	// peers is keyed by the address's string form rather than the SocketAddr
	// itself: SocketAddr embeds a net.IP, which is a slice and so not a valid
	// map key or == operand.
	peers   map[string]gossip.SocketAddr
	mempool map[hashutil.Hash]chaintypes.Transaction
	chain   *chain.Store

	broadcaster Broadcaster
	logger      *zap.Logger
}

// New creates a Node. self is never added to its own peer set.
func New(self gossip.SocketAddr, broadcaster Broadcaster, logger *zap.Logger) *Node {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Node{
		self:        self,
		peers:       make(map[string]gossip.SocketAddr),
		mempool:     make(map[hashutil.Hash]chaintypes.Transaction),
		chain:       chain.New(),
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Handle applies the state transition table in spec §4.5 for a single
// message, under the write lock for its full duration. No I/O occurs here;
// the caller is responsible for broadcasting the returned reply and for
// applying the returned mining command.
func (n *Node) Handle(msg gossip.Message) (reply gossip.Message, cmd miner.Command) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch m := msg.(type) {
	case gossip.Connect:
		metrics.MessagesHandled.WithLabelValues("connect").Inc()
		return n.handleConnect(m)
	case gossip.Addr:
		metrics.MessagesHandled.WithLabelValues("addr").Inc()
		return n.handleAddr(m)
	case gossip.Tx:
		metrics.MessagesHandled.WithLabelValues("tx").Inc()
		return n.handleTx(m)
	case gossip.NewBlock:
		metrics.MessagesHandled.WithLabelValues("new_block").Inc()
		return n.handleNewBlock(m)
	default:
		n.logger.Warn("unhandled message type")
		return nil, miner.Keep
	}
}

func (n *Node) handleConnect(m gossip.Connect) (gossip.Message, miner.Command) {
	if m.Addr.String() == n.self.String() {
		return nil, miner.Keep
	}

	key := m.Addr.String()
	if _, known := n.peers[key]; known {
		return nil, miner.Keep
	}

	n.peers[key] = m.Addr

	reply := gossip.Addr{Peers: n.peerReplyFor(key)}
	return reply, miner.Keep
}

// peerReplyFor builds the up-to-9-peers-plus-self reply to a Connect from
// the peer keyed by exclude, excluding that peer itself (it already knows
// its own address).
func (n *Node) peerReplyFor(exclude string) []gossip.SocketAddr {
	out := make([]gossip.SocketAddr, 0, maxPeerReplyEntries+1)
	for key, p := range n.peers {
		if key == exclude {
			continue
		}
		if len(out) >= maxPeerReplyEntries {
			break
		}
		out = append(out, p)
	}
	out = append(out, n.self)
	return out
}

func (n *Node) handleAddr(m gossip.Addr) (gossip.Message, miner.Command) {
	for _, a := range m.Peers {
		if a.String() == n.self.String() {
			continue
		}
		n.peers[a.String()] = a
	}
	return nil, miner.Keep
}

func (n *Node) handleTx(m gossip.Tx) (gossip.Message, miner.Command) {
	var fresh chaintypes.Transactions
	for _, tx := range m.Transactions {
		h := tx.Hash()
		if _, exists := n.mempool[h]; exists {
			continue
		}
		n.mempool[h] = tx
		fresh = append(fresh, tx)
	}

	if len(fresh) == 0 {
		return nil, miner.Start
	}
	return gossip.Tx{Transactions: fresh}, miner.Start
}

func (n *Node) handleNewBlock(m gossip.NewBlock) (gossip.Message, miner.Command) {
	accepted := n.chain.AddBlock(m.Block)
	if !accepted {
		metrics.BlocksRejected.WithLabelValues("invalid_or_orphan_or_duplicate").Inc()
		return nil, miner.Start
	}

	n.pruneMempool(m.Block.Transactions)

	cmd := miner.Start
	if n.chain.TipHash() == m.Block.Hash() {
		cmd = miner.Restart
	}
	return gossip.NewBlock{Block: m.Block}, cmd
}

// pruneMempool removes every transaction whose hash appears in txs. This
// runs on any accepted block, including one on a side branch (see
// DESIGN.md).
func (n *Node) pruneMempool(txs chaintypes.Transactions) {
	for _, tx := range txs {
		delete(n.mempool, tx.Hash())
	}
}

// MiningSnapshot implements miner.Snapshotter: it takes a read lock and
// returns the current tip hash and up to MaxTxsPerBlock mempool entries.
// Map iteration order is unspecified in Go; any MaxTxsPerBlock-sized subset
// of eligible entries is an acceptable snapshot.
func (n *Node) MiningSnapshot() (hashutil.Hash, chaintypes.Transactions) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var txs chaintypes.Transactions
	for _, tx := range n.mempool {
		if len(txs) >= chaintypes.MaxTxsPerBlock {
			break
		}
		txs = append(txs, tx)
	}
	return n.chain.TipHash(), txs
}

// IntegrateMined implements miner.Integrator: under the write lock it
// attempts to add a locally mined block to the chain, prunes the mempool on
// acceptance, and — still under spec §4.6's "exclusive lock" discipline for
// the integration step, but after releasing it for the network write —
// broadcasts NewBlock to every current peer.
func (n *Node) IntegrateMined(b chaintypes.Block) bool {
	n.mu.Lock()
	accepted := n.chain.AddBlock(b)
	var peers []gossip.SocketAddr
	if accepted {
		metrics.BlocksMined.Inc()
		n.pruneMempool(b.Transactions)
		peers = n.peerAddrsLocked()
	}
	n.mu.Unlock()

	if accepted && n.broadcaster != nil {
		n.broadcaster.Broadcast(gossip.NewBlock{Block: b}, peers)
	}
	return accepted
}

// PeerAddrs implements gossip.PeerLister: a read-locked snapshot of the
// current peer set, safe to pass to Broadcast outside any lock.
func (n *Node) PeerAddrs() []gossip.SocketAddr {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.peerAddrsLocked()
}

func (n *Node) peerAddrsLocked() []gossip.SocketAddr {
	out := make([]gossip.SocketAddr, 0, len(n.peers))
	for _, p := range n.peers {
		out = append(out, p)
	}
	return out
}

// Stats is a read-only snapshot of node state for observability.
type Stats struct {
	PeerCount    int
	MempoolSize  int
	ChainLength  uint64
	ForkCount    int
	TotalBlocks  int
	TipHash      hashutil.Hash
}

// Snapshot returns a Stats snapshot under a read lock.
func (n *Node) Snapshot() Stats {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return Stats{
		PeerCount:   len(n.peers),
		MempoolSize: len(n.mempool),
		ChainLength: n.chain.MainChainLength(),
		ForkCount:   len(n.chain.Forks()),
		TotalBlocks: n.chain.Len(),
		TipHash:     n.chain.TipHash(),
	}
}

// ReportMetrics pushes a fresh Stats snapshot into the package-level
// Prometheus gauges. Intended to be called periodically from cmd/blocknode,
// not on every message — gauge churn per-message would be wasted work.
func (n *Node) ReportMetrics() {
	st := n.Snapshot()
	metrics.ChainLength.Set(float64(st.ChainLength))
	metrics.PeersConnected.Set(float64(st.PeerCount))
	metrics.MempoolSize.Set(float64(st.MempoolSize))
	metrics.ForkCount.Set(float64(st.ForkCount))
	metrics.BlocksStored.Set(float64(st.TotalBlocks))
}
