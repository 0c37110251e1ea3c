// Command blocknode runs a single gossip node: it binds a listener, connects
// to any peers given on the command line, and runs the accept loop and
// mining orchestrator until interrupted.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blocknode/blocknode/internal/chaintypes"
	"github.com/blocknode/blocknode/internal/gossip"
	"github.com/blocknode/blocknode/internal/metrics"
	"github.com/blocknode/blocknode/internal/miner"
	"github.com/blocknode/blocknode/internal/node"
)

const (
	defaultBindAddr   = "127.0.0.1:7000"
	fallbackBindAddr  = "127.0.0.1:0"
	metricsReportTick = 5 * time.Second
)

var (
	metricsAddr string
	devMode     bool
)

func main() {
	root := &cobra.Command{
		Use:   "blocknode [peer ...]",
		Short: "Run a gossip blockchain node",
		Args:  cobra.ArbitraryArgs,
		RunE:  run,
	}

	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on, empty disables")
	root.Flags().BoolVar(&devMode, "dev", false, "enable development logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("blocknode: build logger: %w", err)
	}
	defer logger.Sync()

	chaintypes.MustVerifyGenesis()

	listener, err := bindListener(logger)
	if err != nil {
		return fmt.Errorf("blocknode: bind listener: %w", err)
	}
	defer listener.Close()

	selfAddr, err := gossip.ParseSocketAddr(listener.Addr().String())
	if err != nil {
		return fmt.Errorf("blocknode: parse own listener address: %w", err)
	}
	logger.Info("listening", zap.Stringer("addr", selfAddr))

	broadcaster := node.BroadcastFunc(func(msg gossip.Message, peers []gossip.SocketAddr) {
		gossip.Broadcast(logger, msg, peers)
	})
	n := node.New(selfAddr, broadcaster, logger)
	orchestrator := miner.New(n, n, logger)
	server := gossip.NewServer(listener, n, orchestrator, n, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	connectToInitialPeers(logger, selfAddr, args)

	if metricsAddr != "" {
		go serveMetrics(logger, n, ctx)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ctx) }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case err := <-serveErr:
		return err
	}
}

// bindListener tries the configured default bind address first, falling
// back to an OS-assigned ephemeral port if that address is unavailable.
// Both failing is fatal: the node cannot run without a listener.
func bindListener(logger *zap.Logger) (net.Listener, error) {
	listener, err := net.Listen("tcp", defaultBindAddr)
	if err == nil {
		return listener, nil
	}
	logger.Warn("default bind address unavailable, falling back", zap.String("addr", defaultBindAddr), zap.Error(err))

	listener, err = net.Listen("tcp", fallbackBindAddr)
	if err != nil {
		return nil, fmt.Errorf("fallback bind also failed: %w", err)
	}
	return listener, nil
}

// connectToInitialPeers sends a Connect message to each positional argument
// that parses as a SocketAddr. Arguments that don't parse are ignored —
// the CLI surface accepts arbitrary extra arguments silently.
func connectToInitialPeers(logger *zap.Logger, self gossip.SocketAddr, args []string) {
	var peers []gossip.SocketAddr
	for _, a := range args {
		addr, err := gossip.ParseSocketAddr(a)
		if err != nil {
			logger.Debug("ignoring non-address argument", zap.String("arg", a))
			continue
		}
		peers = append(peers, addr)
	}
	if len(peers) == 0 {
		return
	}
	gossip.Broadcast(logger, gossip.Connect{Addr: self}, peers)
}

func serveMetrics(logger *zap.Logger, n *node.Node, ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: metricsAddr, Handler: mux}

	go func() {
		ticker := time.NewTicker(metricsReportTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n.ReportMetrics()
			}
		}
	}()

	logger.Info("serving metrics", zap.String("addr", metricsAddr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server failed", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	if devMode {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
