package gossip

import (
	"net"

	"go.uber.org/zap"
)

// Broadcast encodes message once, then for each peer opens a fresh outbound
// connection, writes the full encoded payload, and closes. A failure to dial
// or write to one peer is logged and does not abort the broadcast to the
// others — per spec §4.7/§7, a stalled or unreachable peer never aborts
// delivery to the rest of the fleet, and is never evicted from the peer set.
func Broadcast(logger *zap.Logger, message Message, peers []SocketAddr) {
	if logger == nil {
		logger = zap.NewNop()
	}
	payload := Encode(message)

	for _, peer := range peers {
		addr := peer.String()
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			logger.Warn("broadcast dial failed", zap.String("peer", addr), zap.Error(err))
			continue
		}

		if _, err := conn.Write(payload); err != nil {
			logger.Warn("broadcast write failed", zap.String("peer", addr), zap.Error(err))
		}
		conn.Close()
	}
}
