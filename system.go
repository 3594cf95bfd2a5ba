package ecs

import (
	"context"
	"time"
)

// ComponentType identifies a component storage bucket. Two components
// share a ComponentType iff they were registered (or derived via
// ComponentTypeOf) with the same identity.
type ComponentType string

// AccessMode indicates read or write intent when declaring resource or
// component access.
type AccessMode uint8

const (
	AccessModeRead AccessMode = iota
	AccessModeWrite
)

// ResourceAccess declares mutable or immutable access to a resource.
type ResourceAccess struct {
	Name string
	Mode AccessMode
}

// ComponentAccess declares mutable or immutable access to a component
// type, optionally narrowed to a filter set (query-filter intersection
// for the conflict predicate in spec.md §4.3).
type ComponentAccess struct {
	Type   ComponentType
	Mode   AccessMode
	Filter []ComponentType
}

// SystemDescriptor describes resource usage and metadata for a system.
// The declared access set is the union of Reads/Writes/Resources; World
// being true declares exclusive world access, which conflicts with
// everything (spec.md §4.3).
type SystemDescriptor struct {
	Name         string
	Reads        []ComponentAccess
	Writes       []ComponentAccess
	Resources    []ResourceAccess
	World        bool
	Tags         []string
	RunEvery     TickInterval
	Executor     ExecutorLabel
	AsyncAllowed bool
}

// TickInterval controls how frequently a system runs: it fires when
// (tick+Offset) % Every == 0; Every == 0 means every tick.
type TickInterval struct {
	Every  uint32
	Offset uint32
}

func shouldRunTick(tick uint64, interval TickInterval) bool {
	every := uint64(interval.Every)
	if every == 0 {
		return true
	}
	offset := uint64(interval.Offset % interval.Every)
	return (tick+offset)%every == 0
}

// System is executable logic scheduled within a SystemSet.
type System interface {
	Descriptor() SystemDescriptor
	Run(ctx context.Context, exec ExecutionContext) SystemResult
}

// SystemResult indicates how a system behaved during execution.
type SystemResult struct {
	Skipped bool
	Err     error
}

// ExecutionContext supplies a system with scoped access to the world and
// to per-run facilities (commands, logging, tracing, timing).
type ExecutionContext interface {
	World() *World
	TimeDelta() time.Duration
	TickIndex() uint64
	Logger() Logger
	Tracer() Tracer
	Defer(cmd WorldCommand)
}

// funcSystem adapts a plain function plus a descriptor into a System,
// the common case for simple systems that need no private state.
type funcSystem struct {
	desc SystemDescriptor
	fn   func(ctx context.Context, exec ExecutionContext) SystemResult
}

// NewFuncSystem builds a System from a descriptor and a run function.
func NewFuncSystem(desc SystemDescriptor, fn func(ctx context.Context, exec ExecutionContext) SystemResult) System {
	return funcSystem{desc: desc, fn: fn}
}

func (s funcSystem) Descriptor() SystemDescriptor { return s.desc }

func (s funcSystem) Run(ctx context.Context, exec ExecutionContext) SystemResult {
	return s.fn(ctx, exec)
}

// accessConflicts reports whether two declared access sets may race, per
// spec.md §4.3: same resource with at least one write, same component
// with at least one mutable query whose filter intersects the other, or
// either side declaring exclusive world access. This predicate is
// conservative by design (spec.md §9): a false positive only costs
// scheduling parallelism, a false negative would be a data race, so
// every ambiguous case here resolves to "conflicts".
func accessConflicts(a, b SystemDescriptor) bool {
	if a.World || b.World {
		return true
	}
	if resourceAccessConflicts(a.Resources, b.Resources) {
		return true
	}
	if componentAccessConflicts(a.Writes, b.Reads) || componentAccessConflicts(a.Writes, b.Writes) {
		return true
	}
	if componentAccessConflicts(b.Writes, a.Reads) {
		return true
	}
	return false
}

func resourceAccessConflicts(a, b []ResourceAccess) bool {
	for _, ra := range a {
		for _, rb := range b {
			if ra.Name != rb.Name {
				continue
			}
			if ra.Mode == AccessModeWrite || rb.Mode == AccessModeWrite {
				return true
			}
		}
	}
	return false
}

func componentAccessConflicts(writes, other []ComponentAccess) bool {
	for _, w := range writes {
		for _, o := range other {
			if w.Type != o.Type {
				continue
			}
			if filtersIntersect(w.Filter, o.Filter) {
				return true
			}
		}
	}
	return false
}

func filtersIntersect(a, b []ComponentType) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	set := make(map[ComponentType]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}
