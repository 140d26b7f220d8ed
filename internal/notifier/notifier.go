// Package notifier broadcasts result-generation changes to UI loops.
package notifier

import "sync"

// Notifier sends the latest generation number to every subscriber.
// Each subscriber channel holds at most one value; a slow reader only ever
// sees the newest generation, never a backlog.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan uint64]struct{}
	closed    bool
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan uint64]struct{}),
	}
}

// Subscribe returns a channel receiving generation numbers and a function
// that unsubscribes and closes it. The caller must call the function when
// done.
func (n *Notifier) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { n.unsubscribe(ch) })
	}
}

func (n *Notifier) unsubscribe(ch chan uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.listeners[ch]; ok {
		delete(n.listeners, ch)
		close(ch)
	}
}

// Broadcast delivers gen to all listeners without blocking, replacing any
// value a listener has not consumed yet.
func (n *Notifier) Broadcast(gen uint64) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- gen:
		default:
			// Drop the stale value, then retry once.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- gen:
			default:
			}
		}
	}
}

// Len returns the number of subscribers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Close closes every subscriber channel. Later subscriptions receive an
// already closed channel.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	for ch := range n.listeners {
		delete(n.listeners, ch)
		close(ch)
	}
}
