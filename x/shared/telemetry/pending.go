package telemetry

import "sync"

// Pending queues metric updates that describe store writes not yet committed.
// Whoever owns the store branch calls Commit once the branch is written and
// Discard when it is dropped. The zero value is ready to use.
type Pending struct {
	mu      sync.Mutex
	updates []func()
}

// Add queues update until the next Commit or Discard.
func (p *Pending) Add(update func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, update)
}

// Commit applies the queued updates in the order they were added.
func (p *Pending) Commit() {
	p.mu.Lock()
	updates := p.updates
	p.updates = nil
	p.mu.Unlock()

	for _, update := range updates {
		update()
	}
}

// Discard drops the queued updates.
func (p *Pending) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = nil
}

// Len returns the number of queued updates.
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.updates)
}
