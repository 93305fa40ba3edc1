package engine

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds one engine instance from driver options.
type Factory func(opts map[string]string) (Engine, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a driver available by name, replacing any previous
// registration under that name.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = f
}

// Open builds an engine with the named driver.
func Open(name string, opts map[string]string) (Engine, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
	}
	return f(opts)
}

// Drivers lists registered driver names in ascending order.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
