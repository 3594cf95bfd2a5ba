package ecs_test

import (
	"testing"

	"github.com/embergate/ecs"
	ecsstorage "github.com/embergate/ecs/ecs/storage"
)

func TestSpawnCommand(t *testing.T) {
	world := ecs.NewWorld()
	comp := ecs.ComponentType("comp")
	if err := world.RegisterComponent(comp, ecsstorage.NewDenseStrategy()); err != nil {
		t.Fatalf("register component: %v", err)
	}

	bundle := ecs.NewBundle().With(comp, 7)
	var id ecs.EntityID
	cmd := ecs.NewSpawnCommand(bundle, &id)
	if err := cmd.Apply(world); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if id.IsZero() {
		t.Fatalf("expected id to be populated")
	}
	if !world.Registry().IsAlive(id) {
		t.Fatalf("expected entity to exist")
	}
	value, err := world.Get(id, comp)
	if err != nil || value.(int) != 7 {
		t.Fatalf("unexpected component state: value=%v, err=%v", value, err)
	}
}

func TestDespawnCommand(t *testing.T) {
	world := ecs.NewWorld()
	id, err := world.Spawn(ecs.NewBundle())
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	cmd := ecs.NewDespawnCommand(id)
	if err := cmd.Apply(world); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if world.Registry().IsAlive(id) {
		t.Fatalf("expected entity destroyed")
	}
}

func TestInsertRemoveCommands(t *testing.T) {
	world := ecs.NewWorld()
	comp := ecs.ComponentType("comp")
	if err := world.RegisterComponent(comp, ecsstorage.NewDenseStrategy()); err != nil {
		t.Fatalf("register component: %v", err)
	}
	id, err := world.Spawn(ecs.NewBundle())
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	insert := ecs.NewInsertCommand(id, ecs.NewBundle().With(comp, 99))
	if err := insert.Apply(world); err != nil {
		t.Fatalf("apply insert: %v", err)
	}

	view, err := world.ViewComponent(comp)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	value, ok := view.Get(id)
	if !ok || value.(int) != 99 {
		t.Fatalf("unexpected component state: value=%v, ok=%v", value, ok)
	}

	remove := ecs.NewRemoveCommand(id, comp)
	if err := remove.Apply(world); err != nil {
		t.Fatalf("apply remove: %v", err)
	}
	if view.Has(id) {
		t.Fatalf("component should be removed")
	}
}

type testResource struct {
	Value int
}

func TestResourceCommands(t *testing.T) {
	world := ecs.NewWorld()

	insert := ecs.NewInsertResourceCommand(testResource{Value: 5})
	if err := insert.Apply(world); err != nil {
		t.Fatalf("apply insert resource: %v", err)
	}
	got, err := ecs.GetResource[testResource](world)
	if err != nil || got.Value != 5 {
		t.Fatalf("unexpected resource state: got=%v, err=%v", got, err)
	}

	remove := ecs.NewRemoveResourceCommand[testResource]()
	if err := remove.Apply(world); err != nil {
		t.Fatalf("apply remove resource: %v", err)
	}
	if ecs.HasResource[testResource](world) {
		t.Fatalf("resource should be removed")
	}
}
