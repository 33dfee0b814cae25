// Package db provides change notification for live queries.
package db

import "sync"

// Collection names used throughout the store.
const (
	CollectionContacts = "contacts"
	CollectionVisitors = "visitors"
	CollectionBlogs    = "blogs"
)

// Notifier fans out a signal per collection after every committed
// mutation. Listeners receive at-least-one signal per batch of changes;
// a full buffer coalesces into the already-pending signal, which is
// safe because consumers re-read the whole snapshot anyway.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[string][]chan struct{}
}

// NewNotifier creates a new Notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		listeners: make(map[string][]chan struct{}),
	}
}

// Listen registers for change signals on a collection. The returned
// cancel function must be called when the listener goes away.
func (n *Notifier) Listen(collection string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	n.listeners[collection] = append(n.listeners[collection], ch)
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		chans := n.listeners[collection]
		for i, c := range chans {
			if c == ch {
				n.listeners[collection] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}

// Notify signals every listener on a collection.
func (n *Notifier) Notify(collection string) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.listeners[collection] {
		select {
		case ch <- struct{}{}:
		default:
			// Signal already pending; the next snapshot read covers this change.
		}
	}
}
