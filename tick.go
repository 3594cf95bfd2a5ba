package ecs

// Tick is a monotonically increasing counter used for change detection.
// Comparisons are wrap-safe: IsNewerThan treats Tick as living on a
// circle half the width of its range, so a single wraparound of the
// counter never makes an old tick appear newer than one observed later
// in wall-clock order.
type Tick uint32

// IsNewerThan reports whether t is strictly newer than other, as
// observed no earlier than relativeTo. This mirrors the half-range
// wraparound comparison used for sequence numbers: the difference
// t-other, interpreted as a signed 32-bit delta, must be positive and
// relativeTo must not have already lapped t.
func (t Tick) IsNewerThan(other, relativeTo Tick) bool {
	delta := int32(relativeTo - other)
	age := int32(relativeTo - t)
	return age < delta
}

// ComponentTicks tracks when a component value was first inserted and
// when it was last mutated.
type ComponentTicks struct {
	Added   Tick
	Changed Tick
}

// NewComponentTicks stamps both Added and Changed with the given tick,
// as happens on first insertion.
func NewComponentTicks(at Tick) ComponentTicks {
	return ComponentTicks{Added: at, Changed: at}
}

// MarkChanged advances Changed to at. Callers only reach this through a
// mutable handle, so Added is left untouched.
func (c *ComponentTicks) MarkChanged(at Tick) {
	c.Changed = at
}

// IsAdded reports whether the component was inserted strictly after
// relativeTo, as observed at now.
func (c ComponentTicks) IsAdded(relativeTo, now Tick) bool {
	return c.Added.IsNewerThan(relativeTo, now)
}

// IsChanged reports whether the component was mutated strictly after
// relativeTo, as observed at now.
func (c ComponentTicks) IsChanged(relativeTo, now Tick) bool {
	return c.Changed.IsNewerThan(relativeTo, now)
}

// tickClock is embedded in World to hand out monotonically increasing
// ticks without requiring a mutex on the hot path: callers that mutate
// components already hold whatever discipline the scheduler enforces,
// so a plain counter (not atomic) is sufficient the same way the
// teacher's tickIndex in scheduler_impl.go was a plain uint64 guarded by
// the scheduler's own mutex.
type tickClock struct {
	current Tick
}

func (c *tickClock) Tick() Tick {
	return c.current
}

func (c *tickClock) AdvanceTick() Tick {
	c.current++
	return c.current
}
