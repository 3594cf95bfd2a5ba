package ecs

import (
	"sort"
	"strings"
)

// Archetype is the identity of "which set of components an entity
// currently has" (spec.md §3). It is derived bookkeeping over the
// per-component-type stores rather than a physical column table: spec.md
// §1 leaves table storage unspecified except where it bears on scheduler
// correctness, and the scheduler only ever needs the type-set identity,
// not a packed layout.
type Archetype []ComponentType

func newArchetype(types []ComponentType) Archetype {
	out := append([]ComponentType(nil), types...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return Archetype(out)
}

func (a Archetype) contains(t ComponentType) bool {
	for _, existing := range a {
		if existing == t {
			return true
		}
	}
	return false
}

func (a Archetype) key() string {
	parts := make([]string, len(a))
	for i, t := range a {
		parts[i] = string(t)
	}
	return strings.Join(parts, "\x00")
}

func (a Archetype) withAdded(types []ComponentType) Archetype {
	set := make(map[ComponentType]struct{}, len(a)+len(types))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range types {
		set[t] = struct{}{}
	}
	merged := make([]ComponentType, 0, len(set))
	for t := range set {
		merged = append(merged, t)
	}
	return newArchetype(merged)
}

func (a Archetype) withRemoved(types []ComponentType) Archetype {
	remove := make(map[ComponentType]struct{}, len(types))
	for _, t := range types {
		remove[t] = struct{}{}
	}
	var kept []ComponentType
	for _, t := range a {
		if _, drop := remove[t]; !drop {
			kept = append(kept, t)
		}
	}
	return newArchetype(kept)
}

// archetypeTransitionKey caches "apply bundle B to archetype A ⇒
// archetype A'" (spec.md §3), so repeated bundle operations are O(1)
// after the first resolution, grounded on original_source/epix_engine's
// BundleInfo edge cache (insert_bundle_into_archetype /
// remove_bundle_from_archetype) — reduced here to a map keyed by the
// source archetype and bundle identity, since this package has no
// physical table storage to relocate.
type archetypeTransitionKey struct {
	from   string
	bundle string
	remove bool
}

func bundleKey(types []ComponentType) string {
	sorted := append([]ComponentType(nil), types...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, t := range sorted {
		parts[i] = string(t)
	}
	return strings.Join(parts, "\x00")
}

// archetypeOf returns the entity's current archetype, or an empty one if
// the entity is not yet tracked.
func (w *World) archetypeOf(id EntityID) Archetype {
	w.archetypesMu.RLock()
	defer w.archetypesMu.RUnlock()
	return Archetype(append([]ComponentType(nil), w.archetypes[id]...))
}

// applyBundleInsert computes (and caches) the archetype resulting from
// inserting bundleTypes into the entity's current archetype, then
// records the entity under the new archetype.
func (w *World) applyBundleInsert(id EntityID, bundleTypes []ComponentType) Archetype {
	from := w.archetypeOf(id)
	key := archetypeTransitionKey{from: from.key(), bundle: bundleKey(bundleTypes), remove: false}

	w.archetypesMu.Lock()
	defer w.archetypesMu.Unlock()

	next, ok := w.transitions[key]
	if !ok {
		next = from.withAdded(bundleTypes)
		w.transitions[key] = next
	}
	w.archetypes[id] = append([]ComponentType(nil), next...)
	return Archetype(next)
}

// applyBundleRemove computes (and caches) the archetype resulting from
// removing bundleTypes from the entity's current archetype.
func (w *World) applyBundleRemove(id EntityID, bundleTypes []ComponentType) Archetype {
	from := w.archetypeOf(id)
	key := archetypeTransitionKey{from: from.key(), bundle: bundleKey(bundleTypes), remove: true}

	w.archetypesMu.Lock()
	defer w.archetypesMu.Unlock()

	next, ok := w.transitions[key]
	if !ok {
		next = from.withRemoved(bundleTypes)
		w.transitions[key] = next
	}
	w.archetypes[id] = append([]ComponentType(nil), next...)
	return Archetype(next)
}

func (w *World) forgetArchetype(id EntityID) {
	w.archetypesMu.Lock()
	defer w.archetypesMu.Unlock()
	delete(w.archetypes, id)
}
