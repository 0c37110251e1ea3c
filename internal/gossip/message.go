// Package gossip implements the four-message peer-to-peer protocol: wire
// encoding (a bincode-compatible little-endian tagged union), the inbound
// listener that decodes one message per TCP connection, and outbound
// broadcast. The encoding here is the fleet's sole byte-compatibility
// authority (spec §6).
package gossip

import (
	"fmt"

	"github.com/blocknode/blocknode/internal/chaintypes"
	"github.com/blocknode/blocknode/pkg/wire"
)

// MessageKind is the u32 tagged-union discriminant identifying a Message
// variant. Discriminants are the zero-based variant index, matching
// bincode's default enum encoding.
type MessageKind uint32

const (
	KindConnect MessageKind = iota
	KindAddr
	KindTx
	KindNewBlock
)

// Message is any of the four gossip protocol variants.
type Message interface {
	Kind() MessageKind
	encode(w *wire.Writer)
}

// Connect announces the sender's listening address.
type Connect struct {
	Addr SocketAddr
}

func (Connect) Kind() MessageKind { return KindConnect }
func (m Connect) encode(w *wire.Writer) {
	m.Addr.Encode(w)
}

// Addr is a peer-exchange reply, capped at 10 entries by the node state
// machine before it is ever constructed.
type Addr struct {
	Peers []SocketAddr
}

func (Addr) Kind() MessageKind { return KindAddr }
func (m Addr) encode(w *wire.Writer) {
	w.Len(len(m.Peers))
	for _, p := range m.Peers {
		p.Encode(w)
	}
}

// Tx proposes transactions for inclusion in the mempool.
type Tx struct {
	Transactions chaintypes.Transactions
}

func (Tx) Kind() MessageKind { return KindTx }
func (m Tx) encode(w *wire.Writer) {
	m.Transactions.Encode(w)
}

// NewBlock announces a freshly mined or newly accepted block.
type NewBlock struct {
	Block chaintypes.Block
}

func (NewBlock) Kind() MessageKind { return KindNewBlock }
func (m NewBlock) encode(w *wire.Writer) {
	m.Block.Encode(w)
}

// Encode serializes a Message to its canonical wire form: a u32 discriminant
// followed by the variant's payload.
func Encode(m Message) []byte {
	w := wire.NewWriter()
	w.U32(uint32(m.Kind()))
	m.encode(w)
	return w.Bytes()
}

// Decode parses a canonically-encoded Message.
func Decode(data []byte) (Message, error) {
	r := wire.NewReader(data)
	kind := MessageKind(r.U32())
	if r.Err() != nil {
		return nil, fmt.Errorf("gossip: decode discriminant: %w", r.Err())
	}

	var msg Message
	switch kind {
	case KindConnect:
		msg = Connect{Addr: DecodeSocketAddr(r)}
	case KindAddr:
		n := r.Len()
		var peers []SocketAddr
		for i := 0; i < n; i++ {
			peers = append(peers, DecodeSocketAddr(r))
		}
		msg = Addr{Peers: peers}
	case KindTx:
		msg = Tx{Transactions: chaintypes.DecodeTransactions(r)}
	case KindNewBlock:
		msg = NewBlock{Block: chaintypes.DecodeBlock(r)}
	default:
		return nil, fmt.Errorf("gossip: unknown message discriminant %d", kind)
	}

	if r.Err() != nil {
		return nil, fmt.Errorf("gossip: decode %T payload: %w", msg, r.Err())
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("gossip: %d trailing bytes after decoding %T", r.Remaining(), msg)
	}
	return msg, nil
}
