package helper

import "sync/atomic"

// Flag is a one-way switch used to make Close methods idempotent.
// The zero value is active, and it can be turned off exactly once.
type Flag struct {
	off atomic.Bool
}

// IsActive returns true until the flag is inactivated.
func (f *Flag) IsActive() bool {
	return !f.off.Load()
}

// Inactivate turns the flag off. Only the caller that performed the
// transition gets true, so concurrent closers run the shutdown once.
func (f *Flag) Inactivate() bool {
	return f.off.CompareAndSwap(false, true)
}
