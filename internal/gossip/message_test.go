package gossip

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocknode/blocknode/internal/chaintypes"
	"github.com/blocknode/blocknode/pkg/hashutil"
	"github.com/blocknode/blocknode/pkg/wire"
)

func sampleAddr(port uint16) SocketAddr {
	return SocketAddr{IP: net.IPv4(127, 0, 0, 1).To4(), Port: port}
}

func sampleV6Addr(port uint16) SocketAddr {
	ip := net.ParseIP("::1").To16()
	return SocketAddr{IP: ip, Port: port, IsV6: true}
}

func sampleTx(n byte) chaintypes.Transaction {
	var addr hashutil.Address
	addr[0] = n
	return chaintypes.Transaction{Spender: addr, Receiver: addr, Amount: uint32(n), Timestamp: uint64(n)}
}

func TestSocketAddrRoundTrip(t *testing.T) {
	for _, a := range []SocketAddr{sampleAddr(7000), sampleV6Addr(7001)} {
		w := wire.NewWriter()
		a.Encode(w)
		r := wire.NewReader(w.Bytes())
		got := DecodeSocketAddr(r)
		require.NoError(t, r.Err())
		require.Equal(t, a.IsV6, got.IsV6)
		require.Equal(t, a.Port, got.Port)
		require.True(t, a.IP.Equal(got.IP))
	}
}

func TestMessageRoundTripConnect(t *testing.T) {
	m := Connect{Addr: sampleAddr(7000)}
	roundTrip(t, m)
}

func TestMessageRoundTripAddr(t *testing.T) {
	m := Addr{Peers: []SocketAddr{sampleAddr(7000), sampleAddr(7001), sampleV6Addr(7002)}}
	roundTrip(t, m)
}

func TestMessageRoundTripAddrEmpty(t *testing.T) {
	m := Addr{Peers: nil}
	roundTrip(t, m)
}

func TestMessageRoundTripTx(t *testing.T) {
	m := Tx{Transactions: chaintypes.Transactions{sampleTx(1), sampleTx(2)}}
	roundTrip(t, m)
}

func TestMessageRoundTripNewBlock(t *testing.T) {
	txs := chaintypes.Transactions{sampleTx(1)}
	merkle := chaintypes.Merkle(txs)
	header, err := chaintypes.MineNew(hashutil.ZeroHash, merkle, 1)
	require.NoError(t, err)
	m := NewBlock{Block: chaintypes.Block{Header: header, Transactions: txs}}
	roundTrip(t, m)
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	m := Connect{Addr: sampleAddr(7000)}
	data := append(Encode(m), 0xFF)
	_, err := Decode(data)
	require.Error(t, err)
}

func TestDecodeRejectsUnknownDiscriminant(t *testing.T) {
	_, err := Decode([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	require.Error(t, err)
}

func TestDecodeRejectsTruncated(t *testing.T) {
	m := Tx{Transactions: chaintypes.Transactions{sampleTx(1), sampleTx(2)}}
	data := Encode(m)
	_, err := Decode(data[:len(data)-5])
	require.Error(t, err)
}

func roundTrip(t *testing.T, m Message) {
	t.Helper()
	data := Encode(m)
	got, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, m, got)
}
