package chaintypes

import (
	"github.com/blocknode/blocknode/pkg/hashutil"
	"github.com/blocknode/blocknode/pkg/wire"
)

// Transaction is an immutable record of a transfer. Its identity is the
// content hash of its canonical binary encoding — two transactions with
// identical fields hash identically, and any field change produces a
// different hash.
type Transaction struct {
	Spender   hashutil.Address
	Receiver  hashutil.Address
	Amount    uint32
	Timestamp uint64
}

// Encode writes the transaction's canonical encoding: spender (32) ‖
// receiver (32) ‖ amount (u32 LE) ‖ timestamp (u64 LE).
func (t Transaction) Encode(w *wire.Writer) {
	w.Raw(t.Spender[:])
	w.Raw(t.Receiver[:])
	w.U32(t.Amount)
	w.U64(t.Timestamp)
}

// Bytes returns the transaction's canonical binary encoding.
func (t Transaction) Bytes() []byte {
	w := wire.NewWriter()
	t.Encode(w)
	return w.Bytes()
}

// Hash returns the transaction's content hash.
func (t Transaction) Hash() hashutil.Hash {
	return hashutil.Sum(t.Bytes())
}

// DecodeTransaction reads a canonically-encoded transaction.
func DecodeTransaction(r *wire.Reader) Transaction {
	var t Transaction
	copy(t.Spender[:], r.Raw(hashutil.Length))
	copy(t.Receiver[:], r.Raw(hashutil.Length))
	t.Amount = r.U32()
	t.Timestamp = r.U64()
	return t
}

// Transactions is an ordered sequence of Transaction. Order is part of
// identity: the Merkle hash depends on order.
type Transactions []Transaction

// Encode writes the sequence's canonical encoding: a u64 length prefix
// followed by elements in order.
func (txs Transactions) Encode(w *wire.Writer) {
	w.Len(len(txs))
	for _, t := range txs {
		t.Encode(w)
	}
}

// Bytes returns the sequence's canonical binary encoding.
func (txs Transactions) Bytes() []byte {
	w := wire.NewWriter()
	txs.Encode(w)
	return w.Bytes()
}

// DecodeTransactions reads a canonically-encoded transaction sequence.
func DecodeTransactions(r *wire.Reader) Transactions {
	n := r.Len()
	if r.Err() != nil {
		return nil
	}
	txs := make(Transactions, n)
	for i := 0; i < n; i++ {
		txs[i] = DecodeTransaction(r)
	}
	return txs
}
