package channel

import (
	"errors"
	"fmt"
	"sync"
)

// Registry maps channel types to their registered provider adapters.
// Registration happens once at process start; lookups are pure.
type Registry struct {
	mu      sync.RWMutex
	senders map[Type]Sender
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		senders: map[Type]Sender{},
	}
}

// Register adds a sender to the registry.
func (r *Registry) Register(sender Sender) error {
	if sender == nil {
		return errors.New("sender is nil")
	}
	ct, err := ParseType(sender.Type().String())
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.senders[ct]; exists {
		return fmt.Errorf("channel type already registered: %s", ct)
	}
	r.senders[ct] = sender
	return nil
}

// MustRegister calls Register and panics on error.
func (r *Registry) MustRegister(sender Sender) {
	if err := r.Register(sender); err != nil {
		panic(err)
	}
}

// Get returns the sender for the given channel type.
func (r *Registry) Get(channelType Type) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sender, ok := r.senders[channelType]
	return sender, ok
}

// Types returns all registered channel types.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]Type, 0, len(r.senders))
	for ct := range r.senders {
		items = append(items, ct)
	}
	return items
}
