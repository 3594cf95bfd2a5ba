package ecs

import (
	"context"
	"sync"
)

// eventChannel is the untyped, double-buffered backing store for one
// event type E (spec.md §4.7): writers append to current; once per
// frame rotate swaps previous←current, dropping whatever was in
// previous. Readers track a cursor of (generation, index) so events
// written this frame remain readable through the next rotation and are
// discarded after.
type eventChannel struct {
	mu         sync.Mutex
	current    []any
	previous   []any
	generation uint64
}

func newEventChannel() *eventChannel {
	return &eventChannel{}
}

func (c *eventChannel) write(value any) {
	c.mu.Lock()
	c.current = append(c.current, value)
	c.mu.Unlock()
}

// rotate swaps buffers, advancing the channel's generation. Called once
// per frame by the event-rotation maintenance system (spec.md §4.5/4.7).
func (c *eventChannel) rotate() {
	c.mu.Lock()
	c.previous = c.current
	c.current = nil
	c.generation++
	c.mu.Unlock()
}

// readFrom returns every event at or after cursor, plus the cursor to
// resume from next time. A cursor pointing at the channel's previous
// generation resumes mid-buffer; anything older has already rotated out
// of previous entirely, so the reader simply catches up on what remains
// (spec.md §4.7's "discarded after" guarantee applies per-event, not
// per-reader: a reader that lags more than one frame has already missed
// those events, it is not owed a replay).
func (c *eventChannel) readFrom(cursor eventCursor) ([]any, eventCursor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []any
	switch {
	case cursor.generation == c.generation:
		out = append(out, c.current[minInt(cursor.index, len(c.current)):]...)
	case cursor.generation == c.generation-1:
		out = append(out, c.previous[minInt(cursor.index, len(c.previous)):]...)
		out = append(out, c.current...)
	default:
		out = append(out, c.previous...)
		out = append(out, c.current...)
	}
	return out, eventCursor{generation: c.generation, index: len(c.current)}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// eventCursor is a reader's position within an eventChannel.
type eventCursor struct {
	generation uint64
	index      int
}

// eventRegistry holds one eventChannel per event type, keyed by the
// interned type name (spec.md §4.7).
type eventRegistry struct {
	mu       sync.RWMutex
	channels map[string]*eventChannel
}

func newEventRegistry() *eventRegistry {
	return &eventRegistry{channels: make(map[string]*eventChannel)}
}

func (r *eventRegistry) channelFor(key string) *eventChannel {
	r.mu.RLock()
	ch, ok := r.channels[key]
	r.mu.RUnlock()
	if ok {
		return ch
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.channels[key]; ok {
		return ch
	}
	ch = newEventChannel()
	r.channels[key] = ch
	return ch
}

// rotateAll rotates every known channel; the run loop calls this once
// per frame (spec.md §4.7), conventionally from a maintenance system
// scheduled in the Last schedule.
func (r *eventRegistry) rotateAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.channels {
		ch.rotate()
	}
}

func eventKeyOf[E any]() string {
	return "event:" + typeNameOf[E]()
}

// EventWriter appends values of type E to the world's event channel for E.
type EventWriter[E any] struct {
	channel *eventChannel
}

// NewEventWriter builds a writer bound to world's channel for E.
func NewEventWriter[E any](w *World) EventWriter[E] {
	return EventWriter[E]{channel: w.events.channelFor(eventKeyOf[E]())}
}

// Write appends value to the channel's current buffer.
func (w EventWriter[E]) Write(value E) {
	w.channel.write(value)
}

// EventReader reads events of type E from a private, advancing cursor.
type EventReader[E any] struct {
	channel *eventChannel
	cursor  eventCursor
}

// NewEventReader builds a reader bound to world's channel for E, starting
// at the channel's current position (it will not see events written
// before construction).
func NewEventReader[E any](w *World) *EventReader[E] {
	ch := w.events.channelFor(eventKeyOf[E]())
	ch.mu.Lock()
	cursor := eventCursor{generation: ch.generation, index: len(ch.current)}
	ch.mu.Unlock()
	return &EventReader[E]{channel: ch, cursor: cursor}
}

// Read returns every event written since the reader's cursor, advancing
// it. Each event is delivered at most once per reader lifetime, in
// write order (spec.md §4.7).
func (r *EventReader[E]) Read() []E {
	raw, next := r.channel.readFrom(r.cursor)
	r.cursor = next
	if len(raw) == 0 {
		return nil
	}
	out := make([]E, 0, len(raw))
	for _, v := range raw {
		if typed, ok := v.(E); ok {
			out = append(out, typed)
		}
	}
	return out
}

// RotateEventsSystem is the maintenance system (spec.md §4.5) that
// rotates every event channel once per frame; schedule it last in the
// Last schedule so every reader has had a chance to observe this
// frame's writes before they age out.
func RotateEventsSystem() System {
	return NewFuncSystem(
		SystemDescriptor{Name: "RotateEvents", World: true},
		func(ctx context.Context, exec ExecutionContext) SystemResult {
			exec.World().Events().rotateAll()
			return SystemResult{}
		},
	)
}
