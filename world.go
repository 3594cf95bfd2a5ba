package ecs

type WorldOption func(*World)

// NewWorld constructs a world with default registries and providers.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		registry:    NewEntityRegistry(),
		storage:     newStorageProvider(),
		resources:   newResourceContainer(),
		commands:    NewCommandBuffer(),
		archetypes:  make(map[EntityID][]ComponentType),
		transitions: make(map[archetypeTransitionKey][]ComponentType),
		events:      newEventRegistry(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WithEntityRegistry overrides the default registry.
func WithEntityRegistry(registry *EntityRegistry) WorldOption {
	return func(w *World) {
		if registry != nil {
			w.registry = registry
		}
	}
}

// WithStorageProvider overrides the default storage provider.
func WithStorageProvider(provider StorageProvider) WorldOption {
	return func(w *World) {
		if provider != nil {
			w.storage = provider
		}
	}
}

// WithResourceContainer overrides the default resource container.
func WithResourceContainer(container ResourceContainer) WorldOption {
	return func(w *World) {
		if container != nil {
			w.resources = container
		}
	}
}

// Registry exposes the backing entity registry.
func (w *World) Registry() *EntityRegistry {
	return w.registry
}

// Storage returns the storage provider used by the world.
func (w *World) Storage() StorageProvider {
	return w.storage
}

// Resources exposes the resource container.
func (w *World) Resources() ResourceContainer {
	return w.resources
}

// RegisterComponent allows callers to register component storage strategies.
func (w *World) RegisterComponent(t ComponentType, strategy StorageStrategy) error {
	return w.storage.RegisterComponent(t, strategy)
}

// ViewComponent retrieves a component view by type.
func (w *World) ViewComponent(t ComponentType) (ComponentView, error) {
	return w.storage.View(t)
}

// Tick returns the world's current tick.
func (w *World) Tick() Tick {
	return w.clock.Tick()
}

// AdvanceTick bumps and returns the world's tick (spec.md §4.1).
func (w *World) AdvanceTick() Tick {
	return w.clock.AdvanceTick()
}

// Events exposes the world's event registry (spec.md §4.7).
func (w *World) Events() *eventRegistry {
	return w.events
}

// Queue enqueues a deferred world mutation; it is applied the next time
// ApplyCommands drains the buffer (spec.md §4.2).
func (w *World) Queue(cmd WorldCommand) {
	w.commands.Push(cmd)
}

// ApplyCommands drains the world's command buffer to fixpoint: applying a
// command may enqueue further commands, and draining repeats until none
// remain (spec.md §4.2).
func (w *World) ApplyCommands() error {
	for {
		pending := w.commands.Drain()
		if len(pending) == 0 {
			return nil
		}
		for _, cmd := range pending {
			wc, ok := cmd.(WorldCommand)
			if !ok {
				continue
			}
			if err := wc.Apply(w); err != nil {
				return err
			}
		}
	}
}

// Spawn allocates a new entity, installs bundle (plus its transitively
// required components), and returns the entity id (spec.md §4.1). It
// returns an error when a bundle or required component type has no
// registered store; the entity id is still allocated and returned then,
// carrying whichever components were set before the failing one.
// EntityRegistry.Create never reports allocator exhaustion.
func (w *World) Spawn(bundle *Bundle) (EntityID, error) {
	id := w.registry.Create()
	if err := w.installBundle(id, bundle); err != nil {
		return id, err
	}
	return id, nil
}

// Despawn removes all of an entity's components, bumps its generation,
// and frees the index (spec.md §4.1).
func (w *World) Despawn(id EntityID) bool {
	if id.IsZero() {
		return false
	}
	for _, t := range w.storage.Types() {
		if store, err := w.storage.View(t); err == nil {
			if writable, ok := store.(ComponentStore); ok {
				writable.Remove(id)
			}
		}
	}
	w.forgetArchetype(id)
	return w.registry.Destroy(id)
}

// Insert moves entity into the archetype reached by adding bundle's
// components, installing any newly-required components along the way.
func (w *World) Insert(id EntityID, bundle *Bundle) error {
	if !w.registry.IsAlive(id) {
		return ErrEntityDoesNotExist
	}
	return w.installBundle(id, bundle)
}

func (w *World) installBundle(id EntityID, bundle *Bundle) error {
	explicit := bundle.ExplicitTypes()
	required := resolveRequiredComponents(explicit)

	now := w.clock.Tick()
	for _, t := range explicit {
		value, _ := bundle.Value(t)
		if err := w.setComponent(id, t, value, now); err != nil {
			return err
		}
	}
	for _, entry := range required {
		if err := w.setComponent(id, entry.Type, entry.Constructor(), now); err != nil {
			return err
		}
	}

	allTypes := make([]ComponentType, 0, len(explicit)+len(required))
	allTypes = append(allTypes, explicit...)
	for _, entry := range required {
		allTypes = append(allTypes, entry.Type)
	}
	w.applyBundleInsert(id, allTypes)
	return nil
}

func (w *World) setComponent(id EntityID, t ComponentType, value any, now Tick) error {
	store, err := w.storage.View(t)
	if err != nil {
		return err
	}
	writable, ok := store.(ComponentStore)
	if !ok {
		return ErrComponentNotRegistered
	}
	return writable.Set(id, value, NewComponentTicks(now))
}

// Remove drops types from entity's archetype, leaving other components
// untouched (spec.md §4.1).
func (w *World) Remove(id EntityID, types ...ComponentType) error {
	if !w.registry.IsAlive(id) {
		return ErrEntityDoesNotExist
	}
	for _, t := range types {
		store, err := w.storage.View(t)
		if err != nil {
			continue
		}
		if writable, ok := store.(ComponentStore); ok {
			writable.Remove(id)
		}
	}
	w.applyBundleRemove(id, types)
	return nil
}

// Get reads a component's current value without advancing its changed tick.
func (w *World) Get(id EntityID, t ComponentType) (any, error) {
	if !w.registry.IsAlive(id) {
		return nil, ErrEntityDoesNotExist
	}
	store, err := w.storage.View(t)
	if err != nil {
		return nil, err
	}
	value, ok := store.Get(id)
	if !ok {
		return nil, ErrComponentMissing
	}
	return value, nil
}

// GetMut writes a component's value and advances its changed tick
// (spec.md §4.1 "get_mut<T>(entity)").
func (w *World) GetMut(id EntityID, t ComponentType, value any) error {
	if !w.registry.IsAlive(id) {
		return ErrEntityDoesNotExist
	}
	store, err := w.storage.View(t)
	if err != nil {
		return err
	}
	writable, ok := store.(ComponentStore)
	if !ok {
		return ErrComponentNotRegistered
	}
	ticks, existed := store.Ticks(id)
	if !existed {
		ticks = NewComponentTicks(w.clock.Tick())
	} else {
		ticks.MarkChanged(w.clock.Tick())
	}
	return writable.Set(id, value, ticks)
}
