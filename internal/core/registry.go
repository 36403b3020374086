package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]GroupDefinition)
	registryMu sync.RWMutex
)

// Register adds a group definition to the registry.
// Panics if a group with the same key is already registered or the
// definition has no output fields.
func Register(def GroupDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("group already registered: %s", def.Info.Key))
	}
	if len(def.FieldSpecs) == 0 {
		panic(fmt.Sprintf("group %s has no field specs", def.Info.Key))
	}
	if len(def.Signature) == 0 {
		panic(fmt.Sprintf("group %s has no signature", def.Info.Key))
	}

	if def.Info.FileName == "" {
		def.Info.FileName = def.Info.Key + ".csv"
	}

	registry[def.Info.Key] = def
}

// Get returns a group definition by key.
// Returns false if not found.
func Get(key string) (GroupDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered group definitions.
// Sorted by processing order then key for consistent ordering.
func All() []GroupDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]GroupDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Order != result[j].Info.Order {
			return result[i].Info.Order < result[j].Info.Order
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Keys returns the registered group keys in processing order.
func Keys() []string {
	defs := All()
	keys := make([]string, len(defs))
	for i, def := range defs {
		keys[i] = def.Info.Key
	}
	return keys
}

// GroupCount returns the number of registered groups.
func GroupCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
