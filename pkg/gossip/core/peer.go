package core

import (
	"context"
	"errors"
	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-gossip/internal/telemetry"
	"github.com/jabolina/go-gossip/pkg/gossip/helper"
	"github.com/jabolina/go-gossip/pkg/gossip/types"
	"time"
)

// Peer is the single owner of a Node.
//
// A single routine consumes both event sources, the envelopes
// arriving through the transport and the retry ticks, so the node
// is never entered concurrently and its state needs no locks.
type Peer struct {
	// Configuration for the peer.
	configuration *types.Configuration

	// The state machine, only touched by the polling routine.
	node *Node

	// Transport used for communication with clients and peers.
	transport Transport

	// Peer logger.
	log hclog.Logger

	// The peer cancellable context.
	context context.Context

	// A cancel function to finish the peer processing.
	finish context.CancelFunc

	// Inactivated once the peer is closed.
	running helper.Flag
}

// NewPeer creates a new peer for the given configuration, with an
// uninitialized node using the store.
func NewPeer(ctx context.Context, configuration *types.Configuration, transport Transport, store types.ReplicaStore) (*Peer, error) {
	node, err := NewNode(configuration, store)
	if err != nil {
		return nil, err
	}

	log := configuration.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	ctx, finish := context.WithCancel(ctx)
	return &Peer{
		configuration: configuration,
		node:          node,
		transport:     transport,
		log:           log.Named("peer"),
		context:       ctx,
		finish:        finish,
	}, nil
}

// Run keeps polling until the input ends, returning nil in that
// case. A decode failure or a failure writing an envelope stops the
// polling and is returned. Protocol violations are only logged.
func (p *Peer) Run() error {
	ticker := time.NewTicker(p.configuration.TickInterval)
	defer ticker.Stop()

	listener := p.transport.Listen()
	for {
		select {
		case <-p.context.Done():
			return p.context.Err()
		case in, ok := <-listener:
			if !ok {
				p.log.Info("input finished", "pending", p.node.Pending())
				return nil
			}
			if in.Err != nil {
				return in.Err
			}
			if err := p.process(in.Envelope); err != nil {
				return err
			}
		case now := <-ticker.C:
			if err := p.dispatch(p.node.Tick(now)); err != nil {
				return err
			}
		}
	}
}

// Close stops the peer, the transport and releases the node.
func (p *Peer) Close() error {
	if !p.running.Inactivate() {
		return nil
	}
	p.finish()
	err := p.transport.Close()
	p.node.Close()
	return err
}

// Pending returns how many peer broadcasts were still waiting for
// acknowledgment. Only valid after Run returns.
func (p *Peer) Pending() int {
	return p.node.Pending()
}

// Start processing the received envelope using the node.
// Refused envelopes are dropped, since a misbehaving sender must
// not take this node down.
func (p *Peer) process(envelope types.Envelope) error {
	out, err := p.node.Step(envelope)
	if err != nil {
		if errors.Is(err, types.ErrProtocolViolation) {
			telemetry.ProtocolViolations.Inc()
			p.log.Warn("dropping envelope", "from", envelope.Source, "error", err)
			return nil
		}
		return err
	}
	return p.dispatch(out)
}

func (p *Peer) dispatch(envelopes []types.Envelope) error {
	for _, envelope := range envelopes {
		if err := p.transport.Send(envelope); err != nil {
			p.log.Error("failed sending envelope", "to", envelope.Destination, "error", err)
			return err
		}
	}
	return nil
}
