package core

import (
	"github.com/jabolina/go-gossip/pkg/gossip/types"
	"sort"
)

// Identity of the local node, fixed once the init message
// is processed.
type Identity struct {
	// This node id.
	ID types.NodeID

	// Every node in the cluster, including this one.
	Members []types.NodeID

	members map[types.NodeID]struct{}
}

// NewIdentity creates the identity for the node with the
// given cluster membership.
func NewIdentity(id types.NodeID, members []types.NodeID) *Identity {
	i := &Identity{
		ID:      id,
		Members: append([]types.NodeID(nil), members...),
		members: make(map[types.NodeID]struct{}, len(members)),
	}
	for _, member := range members {
		i.members[member] = struct{}{}
	}
	return i
}

// IsMember returns true if the node is part of the cluster.
func (i *Identity) IsMember(id types.NodeID) bool {
	_, ok := i.members[id]
	return ok
}

// TopologyTable holds the direct gossip neighbors of this node.
// The harness sends the adjacency for the whole cluster, but only
// the entry for this node is retained.
type TopologyTable struct {
	// Sorted neighbor list, so the fan-out order is stable.
	neighbors []types.NodeID

	set map[types.NodeID]struct{}
}

func NewTopologyTable() *TopologyTable {
	return &TopologyTable{set: make(map[types.NodeID]struct{})}
}

// Apply sets the neighbors for self from the adjacency. Self is
// never a neighbor and repeated entries are merged.
// Applying the same neighbor set again is a no-op and reports
// no change.
func (t *TopologyTable) Apply(self types.NodeID, adjacency map[types.NodeID][]types.NodeID) (added, removed []types.NodeID, changed bool) {
	next := make(map[types.NodeID]struct{})
	for _, neighbor := range adjacency[self] {
		if neighbor == self || neighbor == "" {
			continue
		}
		next[neighbor] = struct{}{}
	}

	for neighbor := range next {
		if _, ok := t.set[neighbor]; !ok {
			added = append(added, neighbor)
		}
	}
	for neighbor := range t.set {
		if _, ok := next[neighbor]; !ok {
			removed = append(removed, neighbor)
		}
	}

	if len(added) == 0 && len(removed) == 0 {
		return nil, nil, false
	}

	sortNodes(added)
	sortNodes(removed)
	t.set = next
	t.neighbors = t.neighbors[:0]
	for neighbor := range next {
		t.neighbors = append(t.neighbors, neighbor)
	}
	sortNodes(t.neighbors)
	return added, removed, true
}

// Neighbors returns a copy of the current neighbor list.
func (t *TopologyTable) Neighbors() []types.NodeID {
	return append([]types.NodeID(nil), t.neighbors...)
}

// IsNeighbor returns true if this node gossips directly to id.
func (t *TopologyTable) IsNeighbor(id types.NodeID) bool {
	_, ok := t.set[id]
	return ok
}

func sortNodes(nodes []types.NodeID) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i] < nodes[j]
	})
}
