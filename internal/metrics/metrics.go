// Package metrics exposes the node's observability surface: chain length,
// peer count, mempool size, fork count, and per-kind message/rejection
// counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChainLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blocknode",
		Name:      "chain_length",
		Help:      "Length of the main chain, including genesis.",
	})

	PeersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blocknode",
		Name:      "peers_connected",
		Help:      "Number of known gossip peers.",
	})

	MempoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blocknode",
		Name:      "mempool_size",
		Help:      "Number of transactions currently held in the mempool.",
	})

	ForkCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blocknode",
		Name:      "fork_count",
		Help:      "Number of distinct branch tips stored, including the main chain.",
	})

	BlocksStored = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blocknode",
		Name:      "blocks_stored",
		Help:      "Total blocks held across all branches.",
	})

	BlocksMined = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blocknode",
		Name:      "blocks_mined_total",
		Help:      "Total blocks mined locally and accepted into the store.",
	})

	MessagesHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blocknode",
		Name:      "messages_handled_total",
		Help:      "Gossip messages handled, by kind.",
	}, []string{"kind"})

	BlocksRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blocknode",
		Name:      "blocks_rejected_total",
		Help:      "Inbound NewBlock messages rejected, by reason.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(
		ChainLength,
		PeersConnected,
		MempoolSize,
		ForkCount,
		BlocksStored,
		BlocksMined,
		MessagesHandled,
		BlocksRejected,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
