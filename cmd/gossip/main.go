package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/jabolina/go-gossip/configs"
	"github.com/jabolina/go-gossip/internal/telemetry"
	"github.com/jabolina/go-gossip/pkg/gossip/core"
	"github.com/jabolina/go-gossip/pkg/gossip/definition"
	"github.com/jabolina/go-gossip/pkg/gossip/helper"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Stdin, os.Stdout)
	stop()
	os.Exit(code)
}

// Runs a node reading envelopes from in and writing to out.
// Returns the process exit code.
func run(ctx context.Context, in io.Reader, out io.Writer) int {
	config, err := configs.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed loading configuration: %v\n", err)
		return 2
	}
	log := config.Logger

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	invoker := helper.NewInvoker()
	if config.MetricsAddress != "" {
		if err := invoker.Spawn(func() {
			telemetry.Serve(ctx, config.MetricsAddress, log)
		}); err != nil {
			log.Warn("metrics not exposed", "error", err)
		}
	}

	transport := core.NewStreamTransport(ctx, in, out, log, invoker)
	peer, err := core.NewPeer(ctx, config, transport, definition.NewInMemoryReplica())
	if err != nil {
		log.Error("failed creating peer", "error", err)
		return 2
	}

	err = peer.Run()
	_ = peer.Close()

	if log.IsDebug() {
		var buf bytes.Buffer
		if derr := telemetry.Dump(&buf); derr == nil {
			log.Debug("final metrics\n" + buf.String())
		}
	}

	// The reader may still be blocked on the input in both cases
	// below, so the spawned routines are not waited for.
	if errors.Is(err, context.Canceled) {
		log.Info("node interrupted", "pending", peer.Pending())
		return 0
	}
	if err != nil {
		log.Error("node stopped", "error", err)
		return 1
	}

	cancel()
	invoker.Stop()
	return 0
}
