package adapter

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapetl/pkg/core"
)

// Factory constructs an adapter instance. A nil logger means discard.
type Factory func(*slog.Logger) Adapter

var factories = struct {
	sync.RWMutex
	byName map[string]Factory
}{byName: make(map[string]Factory)}

// Register makes an adapter type available under the given name. Adapter
// packages call this from init(); importing one with a blank identifier is
// enough to register it. Names are case-insensitive.
func Register(name string, factory Factory) {
	factories.Lock()
	defer factories.Unlock()
	factories.byName[strings.ToLower(name)] = factory
}

// Get looks up a registered factory by name.
func Get(name string) (Factory, bool) {
	factories.RLock()
	defer factories.RUnlock()
	f, ok := factories.byName[strings.ToLower(name)]
	return f, ok
}

// NewAdapter builds an adapter for the config's type. The returned adapter
// is not yet connected.
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	return factory(logger), nil
}

// ListAdapters returns the registered adapter names, sorted.
func ListAdapters() []string {
	factories.RLock()
	defer factories.RUnlock()
	names := make([]string, 0, len(factories.byName))
	for name := range factories.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether an adapter type is available.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// UnknownAdapterError is returned when a config names an adapter type that
// no imported package has registered.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: Check your source.type in leapetl.yaml", e.Type, e.Available)
}
