package core

import (
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-gossip/internal/telemetry"
	"github.com/jabolina/go-gossip/pkg/gossip/helper"
	"github.com/jabolina/go-gossip/pkg/gossip/types"
	"time"
)

// Node is the broadcast replica state machine.
//
// Every inbound envelope is handed to Step, which mutates the local
// state and returns the envelopes to be sent, and Tick is called
// periodically to send again the broadcasts that peers did not
// acknowledge in time. The node is not safe for concurrent use, a
// single routine must own it and call both methods.
type Node struct {
	// Configuration for retries and correlation.
	configuration *types.Configuration

	// Node logger.
	log hclog.Logger

	// Used to arm the retry deadlines.
	clock func() time.Time

	// Nil until the init message is processed.
	identity *Identity

	// Direct gossip neighbors.
	topology *TopologyTable

	// Every value broadcast observed by this node.
	store types.ReplicaStore

	// Peer broadcasts waiting for acknowledgment.
	pending *PendingTable

	// Values each peer is known to hold, because the peer sent
	// the value or acknowledged it.
	known map[types.NodeID]map[int64]struct{}

	// Matches acknowledgments to the peer and value.
	correlation *Correlation

	// Next identifier for an emitted envelope.
	nextID types.MessageID
}

// NewNode creates an uninitialized node.
// The node must be closed after use.
func NewNode(configuration *types.Configuration, store types.ReplicaStore) (*Node, error) {
	if err := types.ValidateConfiguration(configuration); err != nil {
		return nil, err
	}

	log := configuration.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	return &Node{
		configuration: configuration,
		log:           log.Named("node"),
		clock:         time.Now,
		topology:      NewTopologyTable(),
		store:         store,
		pending:       NewPendingTable(),
		known:         make(map[types.NodeID]map[int64]struct{}),
		correlation:   NewCorrelation(configuration.CorrelationTTL),
	}, nil
}

// Close releases the resources held by the node.
func (n *Node) Close() {
	n.correlation.Close()
}

// ID returns the node id, empty before init.
func (n *Node) ID() types.NodeID {
	if n.identity == nil {
		return ""
	}
	return n.identity.ID
}

// Ready returns true after the init message is processed.
func (n *Node) Ready() bool {
	return n.identity != nil
}

// Step handles a single inbound envelope and returns what must be
// sent in response. The replies come first, followed by any peer
// broadcast the envelope triggered.
//
// An envelope that is not acceptable returns an error wrapping
// ErrProtocolViolation and leaves the state untouched.
func (n *Node) Step(in types.Envelope) ([]types.Envelope, error) {
	if in.Body.Payload == nil {
		return nil, fmt.Errorf("%w: envelope from %s without payload", types.ErrProtocolViolation, in.Source)
	}

	kind := in.Body.Payload.Kind()
	telemetry.EnvelopesReceived.WithLabelValues(string(kind)).Inc()

	if n.identity == nil {
		init, ok := in.Body.Payload.(types.Init)
		if !ok {
			return nil, fmt.Errorf("%w: %s from %s before init", types.ErrProtocolViolation, kind, in.Source)
		}
		return n.handleInit(in, init)
	}

	switch p := in.Body.Payload.(type) {
	case types.Init:
		return n.handleInit(in, p)
	case types.Echo:
		return []types.Envelope{n.reply(in, types.EchoOk{Echo: p.Echo})}, nil
	case types.Generate:
		id := fmt.Sprintf("%s-%s", n.identity.ID, helper.GenerateUID())
		return []types.Envelope{n.reply(in, types.GenerateOk{ID: id})}, nil
	case types.Topology:
		return n.handleTopology(in, p), nil
	case types.Broadcast:
		return n.handleBroadcast(in, p), nil
	case types.BroadcastOk:
		return nil, n.handleBroadcastOk(in)
	case types.Read:
		return []types.Envelope{n.reply(in, types.ReadOk{Messages: n.store.Values()})}, nil
	default:
		// BroadcastOk is the only reply this node ever waits for.
		if types.IsReply(in.Body.Payload) {
			return nil, fmt.Errorf("%w: unexpected %s from %s", types.ErrProtocolViolation, kind, in.Source)
		}
		return nil, fmt.Errorf("%w: unhandled %s from %s", types.ErrProtocolViolation, kind, in.Source)
	}
}

// Tick sends again every pending broadcast with an elapsed deadline.
// The visited entries are bounded by the pending table size.
func (n *Node) Tick(now time.Time) []types.Envelope {
	if n.identity == nil {
		return nil
	}

	var out []types.Envelope
	for _, entry := range n.pending.Expired(now) {
		n.log.Debug("retrying broadcast", "peer", entry.Peer, "value", entry.Value, "attempts", entry.Attempts)
		out = append(out, n.send(entry.Peer, entry.Value, entry.Attempts+1, now))
		telemetry.BroadcastRetries.Inc()
	}
	return out
}

// Pending returns how many peer broadcasts wait for acknowledgment.
func (n *Node) Pending() int {
	return n.pending.Len()
}

func (n *Node) handleInit(in types.Envelope, init types.Init) ([]types.Envelope, error) {
	if n.identity != nil {
		if n.identity.ID != init.NodeID {
			return nil, fmt.Errorf("%w: init as %s but node is %s", types.ErrProtocolViolation, init.NodeID, n.identity.ID)
		}
		return []types.Envelope{n.reply(in, types.InitOk{})}, nil
	}

	n.identity = NewIdentity(init.NodeID, init.NodeIDs)
	n.log = n.log.With("id", init.NodeID)
	n.log.Info("node initialized", "members", len(init.NodeIDs))
	return []types.Envelope{n.reply(in, types.InitOk{})}, nil
}

func (n *Node) handleTopology(in types.Envelope, topology types.Topology) []types.Envelope {
	out := []types.Envelope{n.reply(in, types.TopologyOk{})}
	added, removed, changed := n.topology.Apply(n.identity.ID, topology.Topology)
	if !changed {
		return out
	}

	n.log.Info("topology changed", "neighbors", n.topology.Neighbors(), "added", added, "removed", removed)
	for _, peer := range removed {
		n.pending.RemovePeer(peer)
	}

	// Values learned before the neighbor existed must reach it too.
	now := n.clock()
	values := n.store.Values()
	for _, peer := range added {
		for _, value := range values {
			if n.knows(peer, value) || n.pending.Contains(peer, value) {
				continue
			}
			out = append(out, n.send(peer, value, 1, now))
		}
	}
	n.updateGauges()
	return out
}

func (n *Node) handleBroadcast(in types.Envelope, broadcast types.Broadcast) []types.Envelope {
	out := []types.Envelope{n.reply(in, types.BroadcastOk{})}
	value := broadcast.Message

	if n.isPeer(in.Source) {
		n.learn(in.Source, value)
	}

	if !n.store.Add(value) {
		n.log.Trace("duplicated broadcast", "from", in.Source, "value", value)
		n.updateGauges()
		return out
	}

	now := n.clock()
	for _, peer := range n.topology.Neighbors() {
		if peer == in.Source || n.knows(peer, value) || n.pending.Contains(peer, value) {
			continue
		}
		out = append(out, n.send(peer, value, 1, now))
	}
	n.updateGauges()
	return out
}

func (n *Node) handleBroadcastOk(in types.Envelope) error {
	if in.Body.InReplyTo == nil {
		return fmt.Errorf("%w: broadcast_ok from %s without in_reply_to", types.ErrProtocolViolation, in.Source)
	}

	id := *in.Body.InReplyTo
	t, ok := n.correlation.Resolve(id)
	if !ok {
		if id >= n.nextID {
			return fmt.Errorf("%w: broadcast_ok from %s for %d never issued", types.ErrProtocolViolation, in.Source, id)
		}
		n.log.Debug("ignoring stale acknowledgment", "from", in.Source, "in_reply_to", id)
		return nil
	}

	if t.Peer != in.Source {
		return fmt.Errorf("%w: broadcast_ok from %s for %d sent to %s", types.ErrProtocolViolation, in.Source, id, t.Peer)
	}

	n.learn(t.Peer, t.Value)
	n.updateGauges()
	return nil
}

// Records that the peer holds the value, which also means
// nothing must be sent again.
func (n *Node) learn(peer types.NodeID, value int64) {
	values, ok := n.known[peer]
	if !ok {
		values = make(map[int64]struct{})
		n.known[peer] = values
	}
	values[value] = struct{}{}

	if n.pending.Remove(peer, value) {
		telemetry.BroadcastAcknowledged.Inc()
	}
}

func (n *Node) knows(peer types.NodeID, value int64) bool {
	_, ok := n.known[peer][value]
	return ok
}

func (n *Node) isPeer(id types.NodeID) bool {
	if id == n.identity.ID {
		return false
	}
	return n.identity.IsMember(id) || n.topology.IsNeighbor(id)
}

// Creates the broadcast for the peer and arms its retry.
func (n *Node) send(peer types.NodeID, value int64, attempt int, now time.Time) types.Envelope {
	id := n.next()
	n.correlation.Track(id, peer, value)
	n.pending.Arm(peer, value, attempt, now.Add(n.backoff(attempt)))
	return types.Envelope{
		Source:      n.identity.ID,
		Destination: peer,
		Body: types.Body{
			ID:      types.MessageIDRef(id),
			Payload: types.Broadcast{Message: value},
		},
	}
}

func (n *Node) reply(in types.Envelope, payload types.Payload) types.Envelope {
	return in.Reply(n.identity.ID, n.next(), payload)
}

func (n *Node) next() types.MessageID {
	id := n.nextID
	n.nextID++
	return id
}

// Exponential backoff, doubling the retry interval for each
// attempt up to the maximum interval.
func (n *Node) backoff(attempt int) time.Duration {
	interval := n.configuration.RetryInterval
	for i := 1; i < attempt && interval < n.configuration.MaxRetryInterval; i++ {
		interval *= 2
	}
	if interval > n.configuration.MaxRetryInterval {
		interval = n.configuration.MaxRetryInterval
	}
	return interval
}

func (n *Node) updateGauges() {
	telemetry.PendingAcknowledgments.Set(float64(n.pending.Len()))
	telemetry.ReplicaValues.Set(float64(n.store.Len()))
}
