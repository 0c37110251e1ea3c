// Package miner implements the CPU-bound nonce search and the orchestrator
// that starts, restarts, or leaves it running in response to commands from
// the node state machine, without ever blocking the event loop.
package miner

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/blocknode/blocknode/internal/chaintypes"
	"github.com/blocknode/blocknode/pkg/hashutil"
)

// Command is one of the three mining directives the node state machine can
// issue after handling a message.
type Command int

const (
	// Keep leaves any in-flight mining task alone.
	Keep Command = iota
	// Start spawns a task only if none is currently running.
	Start
	// Restart aborts any in-flight task and spawns a fresh one.
	Restart
)

func (c Command) String() string {
	switch c {
	case Keep:
		return "keep"
	case Start:
		return "start"
	case Restart:
		return "restart"
	default:
		return "unknown"
	}
}

// Snapshotter provides the (prevHash, candidate txs) pair a mining task reads
// once at spawn time. Implementations must take their own lock internally —
// the orchestrator never holds a lock across a mining task's lifetime.
type Snapshotter interface {
	MiningSnapshot() (hashutil.Hash, chaintypes.Transactions)
}

// Integrator accepts a mined block into the chain and reports whether it was
// newly accepted. Implementations are responsible for mempool pruning and
// for broadcasting NewBlock on acceptance.
type Integrator interface {
	IntegrateMined(chaintypes.Block) bool
}

// Orchestrator holds at most one in-flight mining task handle.
type Orchestrator struct {
	mu     sync.Mutex
	task   *task
	source Snapshotter
	sink   Integrator
	logger *zap.Logger
}

// New creates an Orchestrator reading snapshots from source and integrating
// completed blocks via sink.
func New(source Snapshotter, sink Integrator, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{source: source, sink: sink, logger: logger}
}

// Handle applies a mining command. Keep does nothing. Start spawns a new
// task only if none is running. Restart aborts any running task and always
// spawns a fresh one.
func (o *Orchestrator) Handle(cmd Command) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch cmd {
	case Keep:
		return
	case Start:
		if o.task != nil && !o.task.finished() {
			return
		}
		o.task = o.spawn()
	case Restart:
		if o.task != nil {
			o.task.abort()
		}
		o.task = o.spawn()
	}
}

// IsRunning reports whether a mining task is currently in flight. Intended
// for tests and metrics, not for control flow.
func (o *Orchestrator) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.task != nil && !o.task.finished()
}

// task is an opaque cancellable mining computation.
type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *task) abort() {
	t.cancel()
}

func (t *task) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// spawn snapshots (prevHash, txs), and if txs is non-empty, runs the
// CPU-bound nonce search on its own goroutine — off the event loop — then
// integrates and broadcasts the result under the orchestrator's sink.
func (o *Orchestrator) spawn() *task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}

	prevHash, txs := o.source.MiningSnapshot()
	if len(txs) == 0 {
		close(t.done)
		return t
	}

	go func() {
		defer close(t.done)

		merkle := chaintypes.Merkle(txs)
		header, err := chaintypes.MineNewCtx(ctx, prevHash, merkle, chaintypes.GlobalDifficulty)
		if err != nil {
			if errors.Is(err, chaintypes.ErrNonceExhausted) {
				o.logger.Fatal("mining task exhausted the nonce space", zap.Error(err))
			}
			if !errors.Is(err, context.Canceled) && !errors.Is(err, chaintypes.ErrMiningCancelled) {
				o.logger.Error("mining task failed", zap.Error(err))
			}
			return
		}

		block := chaintypes.Block{Header: header, Transactions: txs}
		if o.sink.IntegrateMined(block) {
			o.logger.Info("mined block accepted", zap.Stringer("hash", block.Hash()))
		}
	}()

	return t
}
