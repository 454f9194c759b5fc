package core

import (
	"github.com/ReneKroon/ttlcache"
	"github.com/jabolina/go-gossip/pkg/gossip/types"
	"strconv"
	"time"
)

// Where a peer broadcast was sent to.
type target struct {
	Peer  types.NodeID
	Value int64
}

// Correlation remembers which peer and value each outbound
// broadcast identifier refers to, so an acknowledgment carrying
// only the in_reply_to field can be matched to its pending entry.
//
// Every retry uses a fresh identifier, and acknowledgments for any
// of the previous attempts are still accepted while remembered.
// Identifiers are forgotten after the TTL, any acknowledgment that
// arrives later is handled as a stale one.
type Correlation struct {
	cache *ttlcache.Cache
}

func NewCorrelation(ttl time.Duration) *Correlation {
	c := ttlcache.NewCache()
	c.SetTTL(ttl)
	return &Correlation{cache: c}
}

// Track associates the identifier with the peer and value.
func (c *Correlation) Track(id types.MessageID, peer types.NodeID, value int64) {
	c.cache.Set(correlationKey(id), target{Peer: peer, Value: value})
}

// Resolve returns the peer and value the identifier was sent for.
func (c *Correlation) Resolve(id types.MessageID) (target, bool) {
	v, ok := c.cache.Get(correlationKey(id))
	if !ok {
		return target{}, false
	}
	return v.(target), true
}

// Close stops the expiration routine.
func (c *Correlation) Close() {
	c.cache.Close()
}

func correlationKey(id types.MessageID) string {
	return strconv.FormatUint(uint64(id), 10)
}
