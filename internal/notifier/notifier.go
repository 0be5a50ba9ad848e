// Package notifier fans out change revisions of one visualizer to its live
// viewers.
package notifier

import "sync"

// Notifier delivers revision numbers to subscribers. Each subscriber holds at
// most one pending revision: a slow reader skips intermediate revisions and
// only sees the latest one.
type Notifier struct {
	mu        sync.Mutex
	listeners map[chan uint64]struct{}
	closed    bool
}

func New() *Notifier {
	return &Notifier{listeners: make(map[chan uint64]struct{})}
}

// Subscribe returns a channel receiving revisions. Call Unsubscribe when done.
// Subscribing to a closed notifier returns a closed channel.
func (n *Notifier) Subscribe() chan uint64 {
	ch := make(chan uint64, 1)
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		close(ch)
		return ch
	}
	n.listeners[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a listener channel.
func (n *Notifier) Unsubscribe(ch chan uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.listeners[ch]; !ok {
		return
	}
	delete(n.listeners, ch)
	close(ch)
}

// Publish sends rev to every listener without blocking.
func (n *Notifier) Publish(rev uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.listeners {
		select {
		case ch <- rev:
			continue
		default:
		}
		// Replace the stale pending revision.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- rev:
		default:
		}
	}
}

// Close closes every listener; later subscriptions get a closed channel.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for ch := range n.listeners {
		close(ch)
		delete(n.listeners, ch)
	}
}

// Len returns the number of live subscribers.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}
