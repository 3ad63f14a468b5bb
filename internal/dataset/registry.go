package dataset

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Dataset)
	registryMu sync.RWMutex
)

// Register adds a dataset to the registry.
// Panics if a dataset with the same key is already registered.
func Register(d Dataset) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if d.Key == "" {
		panic("dataset key is empty")
	}
	if _, exists := registry[d.Key]; exists {
		panic(fmt.Sprintf("dataset already registered: %s", d.Key))
	}
	registry[d.Key] = d
}

// Get returns a dataset by key.
// Returns false if not found.
func Get(key string) (Dataset, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	d, ok := registry[key]
	return d, ok
}

// All returns all registered datasets.
// Sorted by group then by key for consistent ordering.
func All() []Dataset {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Dataset, 0, len(registry))
	for _, d := range registry {
		result = append(result, d)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// ByGroup returns all datasets for a specific group, sorted by key.
func ByGroup(group string) []Dataset {
	var result []Dataset
	for _, d := range All() {
		if d.Group == group {
			result = append(result, d)
		}
	}
	return result
}

// Groups returns all unique group names, sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, d := range registry {
		seen[d.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// Count returns the number of registered datasets.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered datasets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Dataset)
}
