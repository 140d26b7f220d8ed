package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/slickdata/pkg/core"
)

// Factory creates an unconnected client. A nil logger means discard.
type Factory func(*slog.Logger) Client

var (
	registryMu sync.RWMutex
	registry   = make(map[core.DatabaseType]Factory)
)

// Register adds a backend factory to the registry.
// Called by backend implementations in their init() functions.
func Register(kind core.DatabaseType, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = factory
}

// Get retrieves a backend factory by database type.
func Get(kind core.DatabaseType) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[kind]
	return f, ok
}

// NewClient creates an unconnected client for the given database type.
func NewClient(kind core.DatabaseType, logger *slog.Logger) (Client, error) {
	if kind == "" {
		return nil, core.InvalidInputf("database type not specified")
	}

	factory, ok := Get(kind)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      kind,
			Available: ListAdapters(),
		}
	}
	return factory(logger), nil
}

// ListAdapters returns all registered database types (sorted).
func ListAdapters() []core.DatabaseType {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]core.DatabaseType, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// IsRegistered checks if a database type has a backend.
func IsRegistered(kind core.DatabaseType) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[kind]
	return ok
}

// UnknownAdapterError is returned when no backend is registered for a type.
type UnknownAdapterError struct {
	Type      core.DatabaseType
	Available []core.DatabaseType
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("no backend for database type %q\nAvailable backends: %v\nHint: check the db_type of the connection in connections.json", e.Type, e.Available)
}
