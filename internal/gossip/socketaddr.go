package gossip

import (
	"fmt"
	"net"
	"strconv"

	"github.com/blocknode/blocknode/pkg/wire"
)

// socketAddrDiscriminant mirrors Rust's std::net::SocketAddr enum: V4 is
// variant 0, V6 is variant 1. The whole fleet must agree on one
// serialization (spec §6); since this implementation is the only node ever
// written against this wire format, this is also the only authority on it.
type socketAddrDiscriminant uint32

const (
	socketAddrV4 socketAddrDiscriminant = 0
	socketAddrV6 socketAddrDiscriminant = 1
)

// SocketAddr is a plain IPv4/IPv6 address and port, encoded to match Rust's
// std::net::SocketAddr bincode layout: a u32 variant discriminant, the raw
// address octets, a little-endian u16 port, and (for v6) the flowinfo and
// scope_id fields SocketAddrV6 carries.
type SocketAddr struct {
	IP       net.IP // 4 or 16 bytes, per IsV6
	Port     uint16
	IsV6     bool
	FlowInfo uint32 // always 0 unless explicitly set; carried for wire fidelity
	ScopeID  uint32
}

// ParseSocketAddr parses a "host:port" string into a SocketAddr. It accepts
// only literal IP addresses, matching the CLI surface's requirement that
// only arguments that parse as a SocketAddr are treated as peers.
func ParseSocketAddr(s string) (SocketAddr, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return SocketAddr{}, fmt.Errorf("gossip: not a socket address %q: %w", s, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return SocketAddr{}, fmt.Errorf("gossip: invalid port in %q: %w", s, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return SocketAddr{}, fmt.Errorf("gossip: invalid IP in %q", s)
	}
	if v4 := ip.To4(); v4 != nil {
		return SocketAddr{IP: v4, Port: uint16(port), IsV6: false}, nil
	}
	return SocketAddr{IP: ip.To16(), Port: uint16(port), IsV6: true}, nil
}

// String renders the address as "host:port".
func (a SocketAddr) String() string {
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(int(a.Port)))
}

// Encode writes the canonical SocketAddr encoding.
func (a SocketAddr) Encode(w *wire.Writer) {
	if a.IsV6 {
		w.U32(uint32(socketAddrV6))
		ip := a.IP.To16()
		w.Raw(ip)
		w.U16(a.Port)
		w.U32(a.FlowInfo)
		w.U32(a.ScopeID)
		return
	}
	w.U32(uint32(socketAddrV4))
	ip := a.IP.To4()
	w.Raw(ip)
	w.U16(a.Port)
}

// DecodeSocketAddr reads a canonically-encoded SocketAddr.
func DecodeSocketAddr(r *wire.Reader) SocketAddr {
	disc := socketAddrDiscriminant(r.U32())
	switch disc {
	case socketAddrV6:
		ip := append(net.IP(nil), r.Raw(16)...)
		port := r.U16()
		flow := r.U32()
		scope := r.U32()
		return SocketAddr{IP: ip, Port: port, IsV6: true, FlowInfo: flow, ScopeID: scope}
	default:
		ip := append(net.IP(nil), r.Raw(4)...)
		port := r.U16()
		return SocketAddr{IP: ip, Port: port, IsV6: false}
	}
}
