package core

import (
	"fmt"
	"github.com/jabolina/go-gossip/pkg/gossip/types"
	"github.com/wangjia184/sortedset"
	"math"
	"time"
)

// PendingEntry is a broadcast sent to a peer that was not
// acknowledged yet.
type PendingEntry struct {
	// Peer that must acknowledge the value.
	Peer types.NodeID

	// The value sent.
	Value int64

	// How many times the value was sent to the peer.
	Attempts int

	// When the value must be sent again.
	Deadline time.Time
}

// PendingTable keeps track of the in-flight peer broadcasts.
//
// Entries are kept inside a sorted set using the retry deadline
// as score, so the head of the set is always the next entry to
// expire and verifying the expired entries does not need to visit
// the whole table. Since the data structure is a set, only a
// single entry exists for each peer and value pair, arming an
// existing entry again only updates its deadline.
type PendingTable struct {
	set *sortedset.SortedSet
}

func NewPendingTable() *PendingTable {
	return &PendingTable{set: sortedset.New()}
}

// The value goes first, since it only holds digits the key
// is never ambiguous, whatever the peer name is.
func pendingKey(peer types.NodeID, value int64) string {
	return fmt.Sprintf("%d@%s", value, peer)
}

// Arm adds or updates the entry for the peer and value.
func (p *PendingTable) Arm(peer types.NodeID, value int64, attempts int, deadline time.Time) {
	entry := PendingEntry{
		Peer:     peer,
		Value:    value,
		Attempts: attempts,
		Deadline: deadline,
	}
	p.set.AddOrUpdate(pendingKey(peer, value), sortedset.SCORE(deadline.UnixNano()), entry)
}

// Contains verify if the value still waits for the peer acknowledgment.
func (p *PendingTable) Contains(peer types.NodeID, value int64) bool {
	return p.set.GetByKey(pendingKey(peer, value)) != nil
}

// Get returns the entry for the peer and value, if any.
func (p *PendingTable) Get(peer types.NodeID, value int64) (PendingEntry, bool) {
	node := p.set.GetByKey(pendingKey(peer, value))
	if node == nil {
		return PendingEntry{}, false
	}
	return node.Value.(PendingEntry), true
}

// Remove the entry for the peer and value.
// Returns true if the entry existed.
func (p *PendingTable) Remove(peer types.NodeID, value int64) bool {
	return p.set.Remove(pendingKey(peer, value)) != nil
}

// RemovePeer drops every entry waiting for the given peer.
// Returns how many entries were removed.
func (p *PendingTable) RemovePeer(peer types.NodeID) int {
	removed := 0
	for _, entry := range p.between(math.MinInt64, math.MaxInt64) {
		if entry.Peer == peer && p.Remove(entry.Peer, entry.Value) {
			removed++
		}
	}
	return removed
}

// Expired returns a copy of every entry with a deadline that is
// not after now, ordered by deadline. The entries are not removed.
func (p *PendingTable) Expired(now time.Time) []PendingEntry {
	head := p.set.PeekMin()
	if head == nil || int64(head.Score()) > now.UnixNano() {
		return nil
	}
	return p.between(math.MinInt64, now.UnixNano())
}

// How many entries are waiting for acknowledgment.
func (p *PendingTable) Len() int {
	return p.set.GetCount()
}

func (p *PendingTable) between(start, end int64) []PendingEntry {
	nodes := p.set.GetByScoreRange(sortedset.SCORE(start), sortedset.SCORE(end), nil)
	entries := make([]PendingEntry, 0, len(nodes))
	for _, node := range nodes {
		entries = append(entries, node.Value.(PendingEntry))
	}
	return entries
}
