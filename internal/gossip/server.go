package gossip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blocknode/blocknode/internal/miner"
)

// ReceiveBufferSize bounds how many bytes are read from an inbound
// connection. Messages larger than this are truncated at the receiver.
const ReceiveBufferSize = 1024

// Handler processes one decoded gossip message and returns an optional reply
// plus a mining command. It is the node state machine's Handle method; the
// interface here keeps this package from depending on internal/node.
type Handler interface {
	Handle(msg Message) (reply Message, cmd miner.Command)
}

// MiningController applies a mining command after a message is handled.
type MiningController interface {
	Handle(cmd miner.Command)
}

// PeerLister returns the current peer set for broadcasting a reply.
type PeerLister interface {
	PeerAddrs() []SocketAddr
}

// Server accepts inbound gossip connections, one message per connection, and
// drives the node state machine. The accept loop is single-threaded and
// cooperative: each connection is fully read, decoded, handled, and any
// reply broadcast, before the next connection is accepted — matching the
// spec's ordering guarantee that replies are broadcast before the next
// message is accepted.
type Server struct {
	listener net.Listener
	handler  Handler
	control  MiningController
	peers    PeerLister
	logger   *zap.Logger

	limiter *peerRateLimiter
}

// NewServer wraps an already-bound listener. Binding and the default/
// fallback port fallback are the caller's responsibility (cmd/blocknode),
// since listener bind failure is a startup concern, not a gossip one.
func NewServer(listener net.Listener, handler Handler, control MiningController, peers PeerLister, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		listener: listener,
		handler:  handler,
		control:  control,
		peers:    peers,
		logger:   logger,
		limiter:  newPeerRateLimiter(),
	}
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve runs the accept loop until ctx is cancelled or the listener is
// closed. Malformed inbound bytes are logged and dropped; the loop never
// exits on a per-connection error.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("gossip: accept: %w", err)
		}
		s.process(conn)
	}
}

func (s *Server) process(conn net.Conn) {
	connID := uuid.NewString()
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	if !s.limiter.allow(remote) {
		s.logger.Warn("inbound peer rate limited", zap.String("peer", remote), zap.String("conn", connID))
		return
	}

	data, err := io.ReadAll(io.LimitReader(conn, ReceiveBufferSize))
	if err != nil {
		s.logger.Debug("inbound read error", zap.Error(err), zap.String("conn", connID))
		return
	}

	msg, err := Decode(data)
	if err != nil {
		s.logger.Debug("dropping malformed message", zap.Error(err), zap.String("peer", remote), zap.String("conn", connID))
		return
	}

	reply, cmd := s.handler.Handle(msg)

	if reply != nil {
		Broadcast(s.logger, reply, s.peers.PeerAddrs())
	}

	s.control.Handle(cmd)
}
