// Package notify holds the single pending transient notification
package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a notification stays visible
const DefaultTTL = 4 * time.Second

// Notification is the pending message and when it dismisses itself
type Notification struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier keeps at most one notification and one dismiss timer
type Notifier struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	current  *Notification
	timer    *time.Timer
	gen      uint64
	closed   bool
	onChange []func(Notification, bool)
}

// New creates a notifier whose messages dismiss after ttl
func New(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{ttl: ttl, now: time.Now}
}

// Set shows message, replacing any pending one and its timer
func (n *Notifier) Set(message string) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}

	if n.timer != nil {
		n.timer.Stop()
	}
	n.gen++
	gen := n.gen
	note := Notification{Message: message, ExpiresAt: n.now().Add(n.ttl)}
	n.current = &note
	n.timer = time.AfterFunc(n.ttl, func() { n.expire(gen) })
	listeners := n.listeners()
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(note, true)
	}
}

// Dismiss clears the pending notification early
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	if n.closed || n.current == nil {
		n.mu.Unlock()
		return
	}
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.gen++
	n.current = nil
	listeners := n.listeners()
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(Notification{}, false)
	}
}

// expire runs on the timer; a stale generation means the message was replaced
func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	if n.closed || gen != n.gen {
		n.mu.Unlock()
		return
	}
	n.current = nil
	n.timer = nil
	listeners := n.listeners()
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(Notification{}, false)
	}
}

// Current returns the pending notification, if any
func (n *Notifier) Current() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notification{}, false
	}
	return *n.current, true
}

// OnChange registers fn to run after every set and dismissal
func (n *Notifier) OnChange(fn func(note Notification, visible bool)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = append(n.onChange, fn)
}

// Close stops the pending timer; nothing fires afterwards
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.closed = true
	n.current = nil
	n.onChange = nil
}

func (n *Notifier) listeners() []func(Notification, bool) {
	return append([]func(Notification, bool){}, n.onChange...)
}
