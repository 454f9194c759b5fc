package core

import (
	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-gossip/pkg/gossip/definition"
	"github.com/jabolina/go-gossip/pkg/gossip/types"
	"testing"
	"time"
)

// Manual clock, so retry deadlines are deterministic.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

func testConfiguration() *types.Configuration {
	c := definition.DefaultConfiguration()
	c.Logger = hclog.NewNullLogger()
	return c
}

func newTestNode(t *testing.T, clock *fakeClock) *Node {
	n, err := NewNode(testConfiguration(), definition.NewInMemoryReplica())
	if err != nil {
		t.Fatalf("failed creating node. %v", err)
	}
	n.clock = clock.Now
	return n
}

// Creates a node already initialized as id inside the cluster.
func newReadyNode(t *testing.T, clock *fakeClock, id types.NodeID, members ...types.NodeID) *Node {
	n := newTestNode(t, clock)
	step(t, n, request("c0", id, 1000, types.Init{NodeID: id, NodeIDs: members}))
	return n
}

func request(src, dest types.NodeID, id types.MessageID, payload types.Payload) types.Envelope {
	return types.Envelope{
		Source:      src,
		Destination: dest,
		Body: types.Body{
			ID:      types.MessageIDRef(id),
			Payload: payload,
		},
	}
}

func ack(src, dest types.NodeID, id types.MessageID, inReplyTo types.MessageID) types.Envelope {
	return types.Envelope{
		Source:      src,
		Destination: dest,
		Body: types.Body{
			ID:        types.MessageIDRef(id),
			InReplyTo: types.MessageIDRef(inReplyTo),
			Payload:   types.BroadcastOk{},
		},
	}
}

func step(t *testing.T, n *Node, in types.Envelope) []types.Envelope {
	t.Helper()
	out, err := n.Step(in)
	if err != nil {
		t.Fatalf("failed handling %s from %s. %v", in.Body.Payload.Kind(), in.Source, err)
	}
	return out
}

// Every peer broadcast inside out, grouped by destination.
func broadcasts(out []types.Envelope) map[types.NodeID][]types.Envelope {
	res := make(map[types.NodeID][]types.Envelope)
	for _, e := range out {
		if _, ok := e.Body.Payload.(types.Broadcast); ok {
			res[e.Destination] = append(res[e.Destination], e)
		}
	}
	return res
}

func readValues(t *testing.T, n *Node) []int64 {
	t.Helper()
	out := step(t, n, request("c9", n.ID(), 9999, types.Read{}))
	if len(out) != 1 {
		t.Fatalf("expected a single read reply, found %d", len(out))
	}
	res, ok := out[0].Body.Payload.(types.ReadOk)
	if !ok {
		t.Fatalf("expected read_ok, found %#v", out[0].Body.Payload)
	}
	return res.Messages
}
