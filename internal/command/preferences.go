package command

import (
	"slices"
	"sync"
)

// Preferences holds the user's playlist selection and scan order. Both live
// in memory only; the host runtime owns their persistence and replays them
// after a restart.
type Preferences struct {
	mu     sync.Mutex
	active []string
	order  []string
}

// SetActive replaces the active playlist selection and reconciles the scan
// order: playlists that stay active keep their relative position, newly
// activated ones are appended in the order they were selected. Returns the
// resulting order.
func (p *Preferences) SetActive(ids []string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	order := make([]string, 0, len(ids))
	for _, id := range p.order {
		if slices.Contains(ids, id) {
			order = append(order, id)
		}
	}
	for _, id := range ids {
		if !slices.Contains(order, id) {
			order = append(order, id)
		}
	}

	p.active = slices.Clone(ids)
	p.order = order
	return slices.Clone(order)
}

// SetOrder replaces the scan order. Entries that are not active are dropped;
// active playlists missing from the given order keep their current relative
// position at the end. Returns the resulting order.
func (p *Preferences) SetOrder(order []string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := make([]string, 0, len(p.active))
	for _, id := range order {
		if slices.Contains(p.active, id) && !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	for _, id := range p.order {
		if !slices.Contains(next, id) {
			next = append(next, id)
		}
	}

	p.order = next
	return slices.Clone(next)
}

// Active returns the active playlist IDs.
func (p *Preferences) Active() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.active)
}

// Order returns the scan priority order.
func (p *Preferences) Order() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.order)
}
