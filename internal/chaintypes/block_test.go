package chaintypes

import (
	"testing"

	"github.com/blocknode/blocknode/pkg/wire"
	"github.com/stretchr/testify/require"
)

func mineBlock(t *testing.T, txs Transactions, difficulty uint32) Block {
	t.Helper()
	merkle := Merkle(txs)
	h, err := MineNew(Genesis().Hash(), merkle, difficulty)
	require.NoError(t, err)
	return Block{Header: h, Transactions: txs}
}

func TestBlockIsValid(t *testing.T) {
	txs := Transactions{sampleTx(1, 1)}
	b := mineBlock(t, txs, 1)
	require.True(t, b.IsValid())
}

func TestBlockInvalidOnMerkleMismatch(t *testing.T) {
	txs := Transactions{sampleTx(1, 1)}
	b := mineBlock(t, txs, 1)
	b.Transactions = append(b.Transactions, sampleTx(2, 2))
	require.False(t, b.IsValid())
}

func TestBlockHashIsHeaderHash(t *testing.T) {
	txs := Transactions{sampleTx(1, 1)}
	b := mineBlock(t, txs, 1)
	require.Equal(t, b.Header.Hash(), b.Hash())
}

func TestBlockRoundTripEncoding(t *testing.T) {
	txs := Transactions{sampleTx(1, 1), sampleTx(2, 2)}
	b := mineBlock(t, txs, 1)

	w := wire.NewWriter()
	b.Encode(w)

	r := wire.NewReader(w.Bytes())
	got := DecodeBlock(r)
	require.NoError(t, r.Err())
	require.Equal(t, b, got)
}
