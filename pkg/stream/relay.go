package stream

import (
	"context"
	"sync"
)

// relay holds the state every operator shares: the upstream subscription
// and whether a terminal signal has already gone downstream
type relay struct {
	ctx  context.Context
	mu   sync.Mutex
	up   Subscription
	done bool
}

func (r *relay) setUpstream(s Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.up = s
}

func (r *relay) upstream() Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.up == nil {
		return emptySubscription{}
	}
	return r.up
}

func (r *relay) terminated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// terminate marks the relay done, reporting whether this call did so
func (r *relay) terminate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return false
	}
	r.done = true
	return true
}

func (r *relay) dropError(err error) {
	ErrorDropped(r.ctx, err)
}
