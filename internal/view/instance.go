package view

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDetached means the instance is not mounted, or absent altogether
	ErrDetached = errors.New("view instance is not attached")
	// ErrNotLaidOut means the instance is mounted but display-suppressed or zero-sized
	ErrNotLaidOut = errors.New("view instance is not laid out")
)

// Placement describes where a mounted instance sits
type Placement int

const (
	// OnScreen instances are visible to the user
	OnScreen Placement = iota
	// OffScreen instances are positioned outside the viewport but still laid out
	OffScreen
)

// PropsSource returns the props an instance should render right now
type PropsSource func() Props

// Instance is one mounted copy of the receipt view.
// Instances share no state: each derives its document from its props source on demand.
type Instance struct {
	name      string
	placement Placement
	props     PropsSource

	mu      sync.RWMutex
	mounted bool
	hidden  bool
}

// NewInstance creates an unmounted instance
func NewInstance(name string, placement Placement, props PropsSource) *Instance {
	return &Instance{name: name, placement: placement, props: props}
}

// Name returns the instance name
func (i *Instance) Name() string {
	return i.name
}

// Placement returns where the instance sits when mounted
func (i *Instance) Placement() Placement {
	return i.placement
}

// Mount attaches the instance and makes it laid out
func (i *Instance) Mount() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.mounted = true
	i.hidden = false
}

// Unmount detaches the instance
func (i *Instance) Unmount() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.mounted = false
}

// SetHidden suppresses or restores layout of a mounted instance
func (i *Instance) SetHidden(hidden bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.hidden = hidden
}

// Mounted reports whether the instance is attached
func (i *Instance) Mounted() bool {
	if i == nil {
		return false
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.mounted
}

// Capturable reports whether Capture would succeed on geometry grounds
func (i *Instance) Capturable() bool {
	if i == nil {
		return false
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.mounted && !i.hidden && i.props != nil
}

// Capture lays out the instance from its current props
func (i *Instance) Capture() (*Document, error) {
	if i == nil || !i.Mounted() || i.props == nil {
		return nil, ErrDetached
	}
	if !i.Capturable() {
		return nil, fmt.Errorf("%s: %w", i.name, ErrNotLaidOut)
	}

	doc := Render(i.props())
	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, fmt.Errorf("%s: %w", i.name, ErrNotLaidOut)
	}
	return doc, nil
}
