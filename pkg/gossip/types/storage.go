package types

// ReplicaStore holds the deduplicated set of broadcast values
// known to a node. Insertion order is irrelevant.
type ReplicaStore interface {
	// Add the value to the set.
	// Returns true if the value was not present before.
	Add(value int64) bool

	// Verify if the value is already known.
	Contains(value int64) bool

	// Snapshot of every known value, in ascending order.
	Values() []int64

	// How many distinct values are known.
	Len() int
}
