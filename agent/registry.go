package agent

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/lamina/core"
)

var (
	// ErrDuplicateAgent is returned when a name is registered twice.
	ErrDuplicateAgent = errors.New("agent already registered")
	// ErrEmptyAgentName is returned for entries without a name.
	ErrEmptyAgentName = errors.New("agent name is required")
	// ErrNilFactory is returned for entries without a constructor.
	ErrNilFactory = errors.New("agent constructor is required")
	// ErrUnknownAgent is returned when a name has no registered entry.
	ErrUnknownAgent = errors.New("unknown agent")
)

// Factory constructs a fresh agent instance.
type Factory func() core.Agent

// Entry is one row of the registration table.
type Entry struct {
	Name        string
	Description string
	New         Factory
}

// Catalog enumerates the agents known at invocation time.
type Catalog interface {
	Describe() []core.AgentInfo
}

// Registry maps agent names to constructors. It is filled once at startup
// and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

// NewRegistry builds a registry from entries, failing on the first invalid
// or duplicate entry.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds e to the table.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" {
		return ErrEmptyAgentName
	}
	if e.New == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, e.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAgent, e.Name)
	}

	r.entries[e.Name] = e
	r.order = append(r.order, e.Name)

	return nil
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// New constructs the agent registered under name.
func (r *Registry) New(name string) (core.Agent, error) {
	e, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, name)
	}
	return e.New(), nil
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Describe returns name and description of every entry in registration order.
func (r *Registry) Describe() []core.AgentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]core.AgentInfo, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, core.AgentInfo{Name: name, Description: r.entries[name].Description})
	}

	return infos
}

// List maps every name to the Go type implementing it.
func (r *Registry) List() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.entries))
	for name, e := range r.entries {
		out[name] = fmt.Sprintf("%T", e.New())
	}

	return out
}
