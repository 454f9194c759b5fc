package helper

import (
	"errors"
	"sync"
	"sync/atomic"
)

var ErrInvokerStopped = errors.New("invoker stopped")

// Invoker owns the routines started by a component, so shutdown can
// wait for every one of them.
type Invoker interface {
	// Spawn runs f in a new routine. Fails once the invoker is stopped.
	Spawn(f func()) error

	// Stop refuses new routines and blocks until the running ones return.
	Stop()
}

// GroupInvoker implements Invoker with a wait group.
type GroupInvoker struct {
	// Guards stopped against Spawn racing with Stop.
	mutex sync.Mutex

	stopped bool

	group sync.WaitGroup

	// Routines still running.
	active atomic.Int32
}

// NewInvoker creates an invoker ready to spawn routines.
func NewInvoker() *GroupInvoker {
	return &GroupInvoker{}
}

// GroupInvoker implements Invoker interface.
func (g *GroupInvoker) Spawn(f func()) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.stopped {
		return ErrInvokerStopped
	}

	g.group.Add(1)
	g.active.Add(1)
	go func() {
		defer g.group.Done()
		defer g.active.Add(-1)
		f()
	}()
	return nil
}

// GroupInvoker implements Invoker interface.
// Calling Stop more than once is allowed.
func (g *GroupInvoker) Stop() {
	g.mutex.Lock()
	g.stopped = true
	g.mutex.Unlock()
	g.group.Wait()
}

// Active returns how many spawned routines did not return yet.
func (g *GroupInvoker) Active() int {
	return int(g.active.Load())
}

var _ Invoker = (*GroupInvoker)(nil)
