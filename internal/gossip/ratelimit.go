package gossip

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedPeers bounds the rate limiter map so an attacker spraying
// unique source addresses cannot grow it without bound.
const maxTrackedPeers = 500

// peerRateLimiter throttles inbound connections per remote address. It never
// evicts a peer from the node's peer set; a connection over the limit has
// its message logged and dropped by the server.
type peerRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newPeerRateLimiter() *peerRateLimiter {
	return &peerRateLimiter{limiters: make(map[string]*rate.Limiter)}
}

func (p *peerRateLimiter) allow(addr string) bool {
	return p.get(addr).Allow()
}

func (p *peerRateLimiter) get(addr string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if lim, ok := p.limiters[addr]; ok {
		return lim
	}

	if len(p.limiters) >= maxTrackedPeers {
		for k := range p.limiters {
			delete(p.limiters, k)
			break
		}
	}

	lim := rate.NewLimiter(20, 40)
	p.limiters[addr] = lim
	return lim
}
