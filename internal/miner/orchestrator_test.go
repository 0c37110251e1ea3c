package miner

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blocknode/blocknode/internal/chaintypes"
	"github.com/blocknode/blocknode/pkg/hashutil"
)

// fakeSource supplies a fixed snapshot until swapped.
type fakeSource struct {
	mu       sync.Mutex
	prevHash hashutil.Hash
	txs      chaintypes.Transactions
}

func (f *fakeSource) MiningSnapshot() (hashutil.Hash, chaintypes.Transactions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prevHash, f.txs
}

func (f *fakeSource) set(prevHash hashutil.Hash, txs chaintypes.Transactions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prevHash = prevHash
	f.txs = txs
}

// fakeSink records every block handed to it and always accepts.
type fakeSink struct {
	mu     sync.Mutex
	blocks []chaintypes.Block
}

func (f *fakeSink) IntegrateMined(b chaintypes.Block) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks = append(f.blocks, b)
	return true
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blocks)
}

func sampleTxs(n byte) chaintypes.Transactions {
	var addr hashutil.Address
	addr[0] = n
	return chaintypes.Transactions{{Spender: addr, Receiver: addr, Amount: uint32(n), Timestamp: uint64(n)}}
}

func TestOrchestratorStartProducesBlock(t *testing.T) {
	src := &fakeSource{txs: sampleTxs(1)}
	sink := &fakeSink{}
	o := New(src, sink, nil)

	o.Handle(Start)
	require.Eventually(t, func() bool { return sink.count() == 1 }, 5*time.Second, time.Millisecond)
}

func TestOrchestratorStartIsNoopWhileRunning(t *testing.T) {
	src := &fakeSource{txs: sampleTxs(1)}
	sink := &fakeSink{}
	o := New(src, sink, nil)

	// Holding the sink's lock blocks the task inside IntegrateMined, so it is
	// still in flight when the second Start arrives.
	sink.mu.Lock()
	o.Handle(Start)
	first := o.task
	o.Handle(Start)
	second := o.task
	sink.mu.Unlock()

	require.Same(t, first, second, "a second Start must not replace a running task")
	require.Eventually(t, func() bool { return !o.IsRunning() }, 5*time.Second, time.Millisecond)
	require.Equal(t, 1, sink.count())
}

func TestOrchestratorStartWithEmptyMempoolProducesNothing(t *testing.T) {
	src := &fakeSource{txs: nil}
	sink := &fakeSink{}
	o := New(src, sink, nil)

	o.Handle(Start)
	require.Eventually(t, func() bool { return !o.IsRunning() }, time.Second, time.Millisecond)
	require.Equal(t, 0, sink.count())
}

func TestOrchestratorKeepDoesNothing(t *testing.T) {
	src := &fakeSource{txs: sampleTxs(1)}
	sink := &fakeSink{}
	o := New(src, sink, nil)
	o.Handle(Keep)
	require.False(t, o.IsRunning())
	require.Equal(t, 0, sink.count())
}

func TestOrchestratorRestartAbortsPreviousTask(t *testing.T) {
	src := &fakeSource{txs: sampleTxs(1)}
	sink := &fakeSink{}
	o := New(src, sink, nil)

	o.Handle(Start)
	o.Handle(Restart)

	require.Eventually(t, func() bool { return sink.count() >= 1 }, 5*time.Second, time.Millisecond)
}
