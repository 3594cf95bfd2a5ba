package ecs

import "fmt"

// WorldCommand is a deferred structural mutation applied against a
// World between schedule phases (spec.md §4.2): Spawn, Despawn, Insert,
// Remove, InsertResource, RemoveResource.
type WorldCommand interface {
	Apply(world *World) error
}

// ScheduleCommand is a deferred edit to a Schedule's set graph
// (spec.md §4.2/§4.4): AddSystems, ConfigureSets, RemoveSystem,
// RemoveSet. While a schedule is running, these are queued on the
// schedule's pending-command queue and applied on the next build.
type ScheduleCommand interface {
	Apply(schedule *Schedule) error
}

// NewSpawnCommand enqueues a new entity carrying bundle. If target is
// non-nil it receives the allocated id once the command applies.
func NewSpawnCommand(bundle *Bundle, target *EntityID) WorldCommand {
	return spawnCommand{bundle: bundle, target: target}
}

// NewDespawnCommand enqueues removal of an entity and all its components.
func NewDespawnCommand(id EntityID) WorldCommand {
	return despawnCommand{entity: id}
}

// NewInsertCommand enqueues installing bundle's components onto entity.
func NewInsertCommand(id EntityID, bundle *Bundle) WorldCommand {
	return insertCommand{entity: id, bundle: bundle}
}

// NewRemoveCommand enqueues removal of the named component types from entity.
func NewRemoveCommand(id EntityID, types ...ComponentType) WorldCommand {
	return removeCommand{entity: id, types: types}
}

// NewInsertResourceCommand enqueues installing value as the world's
// singleton resource of type T.
func NewInsertResourceCommand[T any](value T) WorldCommand {
	return insertResourceCommand{key: ResourceKeyOf[T](), value: value}
}

// NewRemoveResourceCommand enqueues removal of the world's singleton
// resource of type T.
func NewRemoveResourceCommand[T any]() WorldCommand {
	return removeResourceCommand{key: ResourceKeyOf[T]()}
}

type spawnCommand struct {
	bundle *Bundle
	target *EntityID
}

func (c spawnCommand) Apply(world *World) error {
	id, err := world.Spawn(c.bundle)
	if err != nil {
		return err
	}
	if c.target != nil {
		*c.target = id
	}
	return nil
}

type despawnCommand struct {
	entity EntityID
}

func (c despawnCommand) Apply(world *World) error {
	if c.entity.IsZero() {
		return fmt.Errorf("ecs: despawn zero entity")
	}
	if !world.Despawn(c.entity) {
		return fmt.Errorf("ecs: despawn stale entity %v", c.entity)
	}
	return nil
}

type insertCommand struct {
	entity EntityID
	bundle *Bundle
}

func (c insertCommand) Apply(world *World) error {
	if c.entity.IsZero() {
		return fmt.Errorf("ecs: insert onto zero entity")
	}
	return world.Insert(c.entity, c.bundle)
}

type removeCommand struct {
	entity EntityID
	types  []ComponentType
}

func (c removeCommand) Apply(world *World) error {
	if c.entity.IsZero() {
		return fmt.Errorf("ecs: remove from zero entity")
	}
	return world.Remove(c.entity, c.types...)
}

type insertResourceCommand struct {
	key   string
	value any
}

func (c insertResourceCommand) Apply(world *World) error {
	world.resources.Set(c.key, c.value)
	return nil
}

type removeResourceCommand struct {
	key string
}

func (c removeResourceCommand) Apply(world *World) error {
	world.resources.Delete(c.key)
	return nil
}

// NewAddSystemsCommand enqueues registration of the given set configs
// against a schedule (spec.md §4.4 "add_systems").
func NewAddSystemsCommand(configs ...SystemSetConfig) ScheduleCommand {
	return addSystemsCommand{configs: configs}
}

// NewConfigureSetsCommand enqueues edits to existing set configuration
// (ordering/containment/conditions) without adding a new system.
func NewConfigureSetsCommand(configs ...SystemSetConfig) ScheduleCommand {
	return configureSetsCommand{configs: configs}
}

// NewRemoveSystemCommand enqueues removal of the set owning the named
// system label, dropping it from the schedule entirely.
func NewRemoveSystemCommand(label SystemSetLabel) ScheduleCommand {
	return removeSystemCommand{label: label}
}

// NewRemoveSetCommand enqueues removal of a set (and its ownership of
// any system) from the schedule, without requiring it to own a system.
func NewRemoveSetCommand(label SystemSetLabel) ScheduleCommand {
	return removeSetCommand{label: label}
}

type addSystemsCommand struct {
	configs []SystemSetConfig
}

func (c addSystemsCommand) Apply(schedule *Schedule) error {
	for _, cfg := range flattenConfigs(c.configs) {
		schedule.addSet(cfg.toSet())
	}
	return nil
}

type configureSetsCommand struct {
	configs []SystemSetConfig
}

func (c configureSetsCommand) Apply(schedule *Schedule) error {
	for _, cfg := range flattenConfigs(c.configs) {
		schedule.configureSet(cfg)
	}
	return nil
}

type removeSystemCommand struct {
	label SystemSetLabel
}

func (c removeSystemCommand) Apply(schedule *Schedule) error {
	schedule.removeSet(c.label)
	return nil
}

type removeSetCommand struct {
	label SystemSetLabel
}

func (c removeSetCommand) Apply(schedule *Schedule) error {
	schedule.removeSet(c.label)
	return nil
}

var (
	_ WorldCommand = spawnCommand{}
	_ WorldCommand = despawnCommand{}
	_ WorldCommand = insertCommand{}
	_ WorldCommand = removeCommand{}
	_ WorldCommand = insertResourceCommand{}
	_ WorldCommand = removeResourceCommand{}

	_ ScheduleCommand = addSystemsCommand{}
	_ ScheduleCommand = configureSetsCommand{}
	_ ScheduleCommand = removeSystemCommand{}
	_ ScheduleCommand = removeSetCommand{}
)
