package scheduler

import "sync/atomic"

// Guard prevents a loop's cycles from overlapping.
//
// TryRun never blocks: if a cycle is already in progress it returns
// immediately without running fn. The guard is released on every exit
// path of fn, including a panic, which is re-raised after release.
type Guard struct {
	busy atomic.Bool
}

// TryRun runs fn if no other run holds the guard.
// ran reports whether fn was invoked.
func (g *Guard) TryRun(fn func() error) (ran bool, err error) {
	if !g.busy.CompareAndSwap(false, true) {
		return false, nil
	}
	defer g.busy.Store(false)
	return true, fn()
}

// Busy reports whether a run currently holds the guard.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
