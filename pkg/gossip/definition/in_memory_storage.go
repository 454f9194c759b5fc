package definition

import (
	"github.com/jabolina/go-gossip/pkg/gossip/types"
	"sort"
	"sync"
)

// Provides a basic implementation of the ReplicaStore interface
// that will use only the memory. Values are lost when the
// process exits.
type InMemoryReplica struct {
	// Mutex for operations executions.
	mutex *sync.Mutex

	// The in-memory set.
	values map[int64]struct{}
}

// Create a new replica store using memory only.
func NewInMemoryReplica() *InMemoryReplica {
	return &InMemoryReplica{
		mutex:  &sync.Mutex{},
		values: make(map[int64]struct{}),
	}
}

// Implements the ReplicaStore interface.
func (s *InMemoryReplica) Add(value int64) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.values[value]; ok {
		return false
	}
	s.values[value] = struct{}{}
	return true
}

// Implements the ReplicaStore interface.
func (s *InMemoryReplica) Contains(value int64) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, ok := s.values[value]
	return ok
}

// Implements the ReplicaStore interface.
// The returned slice is never nil, so an empty store is
// written as an empty list on the wire.
func (s *InMemoryReplica) Values() []int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	res := make([]int64, 0, len(s.values))
	for v := range s.values {
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i] < res[j]
	})
	return res
}

// Implements the ReplicaStore interface.
func (s *InMemoryReplica) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.values)
}

var _ types.ReplicaStore = (*InMemoryReplica)(nil)
