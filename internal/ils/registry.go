package ils

import (
	"fmt"
	"sort"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

// Constructor builds a Client for one host system.
type Constructor func(host domain.HostLms) (Client, error)

// Factory maps client types to constructors.
type Factory struct {
	ctors map[domain.HostLmsClientType]Constructor
}

// NewFactory creates an empty Factory.
func NewFactory() *Factory {
	return &Factory{ctors: make(map[domain.HostLmsClientType]Constructor)}
}

// Register adds or replaces the constructor for t.
func (f *Factory) Register(t domain.HostLmsClientType, ctor Constructor) {
	f.ctors[t] = ctor
}

// Build creates a Registry holding one client per host.
func (f *Factory) Build(hosts []domain.HostLms) (*Registry, error) {
	clients := make([]Client, 0, len(hosts))
	for _, h := range hosts {
		ctor, ok := f.ctors[h.ClientType]
		if !ok {
			return nil, fmt.Errorf("host lms %s: unsupported client type %q", h.Code, h.ClientType)
		}
		c, err := ctor(h)
		if err != nil {
			return nil, fmt.Errorf("host lms %s: %w", h.Code, err)
		}
		clients = append(clients, c)
	}
	return NewRegistry(clients...), nil
}

type registryEntry struct {
	client Client
	table  *StatusTable
}

// Registry resolves host system codes to clients. It is built once and
// passed explicitly; it is never mutated after construction.
type Registry struct {
	entries map[string]registryEntry
}

// NewRegistry creates a Registry for clients, keyed by their host code.
func NewRegistry(clients ...Client) *Registry {
	r := &Registry{entries: make(map[string]registryEntry, len(clients))}
	for _, c := range clients {
		host := c.HostLms()
		r.entries[host.Code] = registryEntry{client: c, table: NewStatusTable(host)}
	}
	return r
}

// Lookup returns the client for code.
func (r *Registry) Lookup(code string) (Client, error) {
	e, ok := r.entries[code]
	if !ok {
		return nil, fmt.Errorf("host lms %q: %w", code, domain.ErrNotFound)
	}
	return e.client, nil
}

// Statuses returns the status table for code.
func (r *Registry) Statuses(code string) (*StatusTable, error) {
	e, ok := r.entries[code]
	if !ok {
		return nil, fmt.Errorf("host lms %q: %w", code, domain.ErrNotFound)
	}
	return e.table, nil
}

// Codes returns every registered host code in sorted order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.entries))
	for code := range r.entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
