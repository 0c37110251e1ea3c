// Command blocknode-client broadcasts a batch of sample transactions to a
// set of peers, then exits. It is a thin diagnostic tool for exercising the
// Tx gossip path without running a full node.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blocknode/blocknode/internal/chaintypes"
	"github.com/blocknode/blocknode/internal/gossip"
	"github.com/blocknode/blocknode/pkg/hashutil"
)

// dummyTxCount is the number of sample transactions broadcast per run.
const dummyTxCount = 10

func main() {
	root := &cobra.Command{
		Use:   "blocknode-client peer [peer ...]",
		Short: "Broadcast sample transactions to a set of peers",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run,
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("blocknode-client: build logger: %w", err)
	}
	defer logger.Sync()

	var peers []gossip.SocketAddr
	for _, a := range args {
		addr, err := gossip.ParseSocketAddr(a)
		if err != nil {
			logger.Warn("ignoring non-address argument", zap.String("arg", a))
			continue
		}
		peers = append(peers, addr)
	}
	if len(peers) == 0 {
		return fmt.Errorf("blocknode-client: no valid peer addresses given")
	}

	txs := dummyTransactions(dummyTxCount)
	gossip.Broadcast(logger, gossip.Tx{Transactions: txs}, peers)
	logger.Info("broadcast sent", zap.Int("peers", len(peers)), zap.Int("transactions", len(txs)))
	return nil
}

// dummyTransactions fabricates count distinct transactions between two
// fixed placeholder addresses, for exercising the gossip path only.
func dummyTransactions(count int) chaintypes.Transactions {
	var spender, receiver hashutil.Address
	spender[0] = 0xCD
	receiver[0] = 0xEF

	txs := make(chaintypes.Transactions, count)
	for i := range txs {
		txs[i] = chaintypes.Transaction{
			Spender:   spender,
			Receiver:  receiver,
			Amount:    uint32(i + 1),
			Timestamp: uint64(1707519600 + i),
		}
	}
	return txs
}
