package guard

import "sync"

// Navigator keeps the navigation history. The last entry is the current route.
type Navigator struct {
	mu      sync.Mutex
	entries []string
}

// NewNavigator starts the history at start.
func NewNavigator(start string) *Navigator {
	return &Navigator{entries: []string{start}}
}

// Current returns the current route.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.entries[len(n.entries)-1]
}

// Push appends path to the history.
func (n *Navigator) Push(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, path)
}

// Replace swaps the current entry for path.
func (n *Navigator) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries[len(n.entries)-1] = path
}

// Back drops the current entry and returns the new current route. It
// reports false when already at the first entry.
func (n *Navigator) Back() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.entries) == 1 {
		return n.entries[0], false
	}
	n.entries = n.entries[:len(n.entries)-1]
	return n.entries[len(n.entries)-1], true
}

// History returns a copy of the history, oldest first.
func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.entries...)
}
