package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/embergate/ecs"
)

type countingPlugin struct {
	built *[]string
	name  string
}

func (p countingPlugin) Build(app *ecs.App) error {
	*p.built = append(*p.built, p.name)
	return nil
}

type spawningPlugin struct {
	built *[]string
}

func (p spawningPlugin) Build(app *ecs.App) error {
	*p.built = append(*p.built, "spawning")
	return app.AddPlugin(countingPlugin{built: p.built, name: "spawned-child"})
}

func TestAppBuildPluginsToFixpoint(t *testing.T) {
	app := ecs.NewApp(ecs.AppConfig{DefaultPoolSize: 1})
	var built []string

	if err := app.AddPlugin(spawningPlugin{built: &built}); err != nil {
		t.Fatalf("add plugin: %v", err)
	}

	if len(built) != 2 || built[0] != "spawning" || built[1] != "spawned-child" {
		t.Fatalf("expected spawning then spawned-child, got %v", built)
	}
}

type finishingPlugin struct {
	order *[]string
}

func (p finishingPlugin) Build(app *ecs.App) error {
	*p.order = append(*p.order, "build")
	return nil
}

func (p finishingPlugin) Finish(app *ecs.App) error {
	*p.order = append(*p.order, "finish")
	return nil
}

func TestAppFinishingPluginRunsAfterBuildFixpoint(t *testing.T) {
	app := ecs.NewApp(ecs.AppConfig{DefaultPoolSize: 1})
	var order []string

	if err := app.AddPlugin(finishingPlugin{order: &order}); err != nil {
		t.Fatalf("add plugin: %v", err)
	}
	if len(order) != 2 || order[0] != "build" || order[1] != "finish" {
		t.Fatalf("expected [build finish], got %v", order)
	}
}

func TestAppAddPluginAfterBuildFails(t *testing.T) {
	app := ecs.NewApp(ecs.AppConfig{DefaultPoolSize: 1})
	var built []string
	if err := app.AddPlugin(countingPlugin{built: &built, name: "first"}); err != nil {
		t.Fatalf("add first plugin: %v", err)
	}
	if err := app.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := app.AddPlugin(countingPlugin{built: &built, name: "late"}); err == nil {
		t.Fatalf("expected error adding plugin after build fixpoint completed")
	}
}

type healthResource struct {
	Value int
}

func TestSubAppExtractCopiesResourceFromMain(t *testing.T) {
	app := ecs.NewApp(ecs.AppConfig{DefaultPoolSize: 1})
	ecs.InsertResource(app.World(), healthResource{Value: 42})

	render := app.AddSubApp(ecs.AppLabelOf[struct{ renderMarker int }]())
	render.SetExtract(func(main, sub *ecs.World) {
		health, err := ecs.GetResource[healthResource](main)
		if err != nil {
			return
		}
		ecs.InsertResource(sub, health)
	})

	if _, err := app.RunFrame(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("run frame: %v", err)
	}

	got, err := ecs.GetResource[healthResource](render.World())
	if err != nil {
		t.Fatalf("expected resource extracted into sub-app world: %v", err)
	}
	if got.Value != 42 {
		t.Fatalf("unexpected extracted value: %d", got.Value)
	}
}

func TestSubAppExtractSeesMainUpdateOutput(t *testing.T) {
	app := ecs.NewApp(ecs.AppConfig{DefaultPoolSize: 1})
	ecs.InsertResource(app.World(), healthResource{Value: 1})

	app.AddSystems(ecs.ScheduleUpdate, ecs.NewSystemConfig(ecs.NewFuncSystem(
		ecs.SystemDescriptor{Name: "bump-health"},
		func(ctx context.Context, exec ecs.ExecutionContext) ecs.SystemResult {
			health, err := ecs.GetResource[healthResource](exec.World())
			if err != nil {
				return ecs.SystemResult{Err: err}
			}
			health.Value++
			ecs.InsertResource(exec.World(), health)
			return ecs.SystemResult{}
		},
	)))

	render := app.AddSubApp(ecs.AppLabelOf[struct{ renderMarker int }]())
	render.SetExtract(func(main, sub *ecs.World) {
		health, err := ecs.GetResource[healthResource](main)
		if err != nil {
			return
		}
		ecs.InsertResource(sub, health)
	})

	if _, err := app.RunFrame(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("run frame: %v", err)
	}

	got, err := ecs.GetResource[healthResource](render.World())
	if err != nil {
		t.Fatalf("expected resource extracted into sub-app world: %v", err)
	}
	// The sub-app's extract must run after the main app's Update, so it
	// observes the bumped value, not the value from before this frame.
	if got.Value != 2 {
		t.Fatalf("expected extract to see post-Update value 2, got %d", got.Value)
	}
}

func TestAppRunFrameReportsExit(t *testing.T) {
	app := ecs.NewApp(ecs.AppConfig{DefaultPoolSize: 1})
	app.AddSystems(ecs.ScheduleUpdate, ecs.NewSystemConfig(ecs.NewFuncSystem(
		ecs.SystemDescriptor{Name: "request-exit"},
		func(ctx context.Context, exec ecs.ExecutionContext) ecs.SystemResult {
			ecs.NewEventWriter[ecs.AppExit](exec.World()).Write(ecs.AppExit{Code: 0})
			return ecs.SystemResult{}
		},
	)))

	exit, err := app.RunFrame(context.Background(), time.Millisecond)
	if err != nil {
		t.Fatalf("run frame: %v", err)
	}
	if !exit {
		t.Fatalf("expected AppExit event to be observed")
	}
}
