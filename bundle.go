package ecs

import (
	"fmt"
	"sync"
)

// Bundle is a deduplicated, ordered set of component types plus the
// values to install, together with any required components that must
// exist alongside them (spec.md §3 "Bundle"). Required components are
// resolved transitively via RegisterRequiredComponent.
type Bundle struct {
	types  []ComponentType
	values map[ComponentType]any
}

// NewBundle starts an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{values: make(map[ComponentType]any)}
}

// With adds a component type and its value to the bundle. Duplicate
// types within one bundle are rejected, matching the teacher's original
// bundle.cpp duplicate-detection behavior.
func (b *Bundle) With(t ComponentType, value any) *Bundle {
	if _, exists := b.values[t]; exists {
		panic(fmt.Sprintf("ecs: bundle already contains duplicate component type %q", t))
	}
	b.types = append(b.types, t)
	b.values[t] = value
	return b
}

// ExplicitTypes returns the component types named directly in the
// bundle, in insertion order, not including required components.
func (b *Bundle) ExplicitTypes() []ComponentType {
	return append([]ComponentType(nil), b.types...)
}

// Value returns the value registered under t, if any.
func (b *Bundle) Value(t ComponentType) (any, bool) {
	v, ok := b.values[t]
	return v, ok
}

// requiredComponentEntry pairs a dependency type with the constructor
// used to fill it in when absent from an explicit bundle.
type requiredComponentEntry struct {
	Type        ComponentType
	Constructor func() any
}

// requiredComponentsRegistry tracks, per component type, the other
// component types that must accompany it (spec.md §3's bundle "required
// components", grounded on original_source/epix_engine's
// RequiredComponents::merge). Process-wide, like the type-name intern
// cache in types.go: required-component relationships are a property of
// the Go types involved, not of any one World.
var requiredComponentsRegistry = struct {
	mu      sync.RWMutex
	entries map[ComponentType][]requiredComponentEntry
}{entries: make(map[ComponentType][]requiredComponentEntry)}

// RegisterRequiredComponent declares that whenever `owner` is inserted
// into an entity (explicitly or transitively), `required` must also be
// present; ctor supplies its default value when not already provided.
func RegisterRequiredComponent(owner, required ComponentType, ctor func() any) {
	requiredComponentsRegistry.mu.Lock()
	defer requiredComponentsRegistry.mu.Unlock()
	requiredComponentsRegistry.entries[owner] = append(requiredComponentsRegistry.entries[owner], requiredComponentEntry{
		Type:        required,
		Constructor: ctor,
	})
}

// resolveRequiredComponents walks the transitive closure of required
// components for the given explicit set, skipping any type already
// present, and returns the additional (type, value) pairs to install.
func resolveRequiredComponents(explicit []ComponentType) []requiredComponentEntry {
	requiredComponentsRegistry.mu.RLock()
	defer requiredComponentsRegistry.mu.RUnlock()

	present := make(map[ComponentType]struct{}, len(explicit))
	for _, t := range explicit {
		present[t] = struct{}{}
	}

	var out []requiredComponentEntry
	queue := append([]ComponentType(nil), explicit...)
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		for _, entry := range requiredComponentsRegistry.entries[t] {
			if _, ok := present[entry.Type]; ok {
				continue
			}
			present[entry.Type] = struct{}{}
			out = append(out, entry)
			queue = append(queue, entry.Type)
		}
	}
	return out
}
