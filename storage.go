package ecs

import "sync"

// World encapsulates entity/component storage, resources, the deferred
// command queue, and the event registry (spec.md §3 "World").
type World struct {
	registry  *EntityRegistry
	storage   StorageProvider
	resources ResourceContainer
	clock     tickClock

	commands *CommandBuffer

	archetypesMu sync.RWMutex
	archetypes   map[EntityID][]ComponentType
	transitions  map[archetypeTransitionKey][]ComponentType

	events *eventRegistry
}

// StorageProvider manages component storage backends keyed by type.
type StorageProvider interface {
	RegisterComponent(ComponentType, StorageStrategy) error
	View(ComponentType) (ComponentView, error)
	Types() []ComponentType
}

// StorageStrategy describes how a component type is stored internally
// (e.g. dense/table-backed, sparse, shared).
type StorageStrategy interface {
	Name() string
	NewStore(ComponentType) ComponentStore
}

// ComponentStore permits read/write access to component instances.
type ComponentStore interface {
	ComponentView
	Set(EntityID, any, ComponentTicks) error
	Remove(EntityID) bool
	Clear()
}

// ComponentView exposes read-only iteration over stored components, plus
// the per-slot change-detection ticks spec.md §3 requires.
type ComponentView interface {
	ComponentType() ComponentType
	Len() int
	Has(EntityID) bool
	Get(EntityID) (any, bool)
	Ticks(EntityID) (ComponentTicks, bool)
	Iterate(func(EntityID, any, ComponentTicks) bool)
}

// ResourceContainer holds shared resources accessible to systems.
type ResourceContainer interface {
	Get(name string) (any, bool)
	Set(name string, value any)
	Delete(name string)
	Range(func(string, any) bool)
}
