package ecs_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/embergate/ecs"
)

func recordingSystem(name string, order *[]string) ecs.System {
	return ecs.NewFuncSystem(
		ecs.SystemDescriptor{Name: name},
		func(ctx context.Context, exec ecs.ExecutionContext) ecs.SystemResult {
			*order = append(*order, name)
			return ecs.SystemResult{}
		},
	)
}

func TestScheduleRunOrdersByDependency(t *testing.T) {
	var order []string
	sched := ecs.NewSchedule(ecs.ScheduleUpdate)
	sched.AddSystems(
		ecs.NewSystemConfig(recordingSystem("b", &order)).After("a"),
		ecs.NewSystemConfig(recordingSystem("a", &order)),
	)

	world := ecs.NewWorld()
	_, err := sched.Run(context.Background(), world, nil, nil, nil, 1, time.Millisecond)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("expected [a b], got %v", order)
	}
}

func TestScheduleRunGatesOnFailingCondition(t *testing.T) {
	var order []string
	alwaysFalse := ecs.NewFuncCondition(
		ecs.SystemDescriptor{Name: "never"},
		func(ctx context.Context, exec ecs.ExecutionContext) (bool, error) { return false, nil },
	)

	sched := ecs.NewSchedule(ecs.ScheduleUpdate)
	sched.AddSystems(
		ecs.NewSystemConfig(recordingSystem("gated", &order)).RunIf(alwaysFalse),
	)

	world := ecs.NewWorld()
	summary, err := sched.Run(context.Background(), world, nil, nil, nil, 1, time.Millisecond)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 0 {
		t.Fatalf("expected gated system to be skipped, ran: %v", order)
	}
	if summary.SetsSkipped != 1 {
		t.Fatalf("expected 1 skipped set, got %d", summary.SetsSkipped)
	}
}

func TestScheduleRunGatesChildrenOnParentCondition(t *testing.T) {
	var order []string
	alwaysFalse := ecs.NewFuncCondition(
		ecs.SystemDescriptor{Name: "gate"},
		func(ctx context.Context, exec ecs.ExecutionContext) (bool, error) { return false, nil },
	)

	sched := ecs.NewSchedule(ecs.ScheduleUpdate)
	sched.ConfigureSets(ecs.NewSetConfig("parent").RunIf(alwaysFalse))
	sched.AddSystems(
		ecs.NewSystemConfig(recordingSystem("child", &order)).InSet("parent"),
	)

	world := ecs.NewWorld()
	_, err := sched.Run(context.Background(), world, nil, nil, nil, 1, time.Millisecond)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 0 {
		t.Fatalf("expected child to be skipped when parent condition fails, ran: %v", order)
	}
}

func TestScheduleDetectsCyclicDependency(t *testing.T) {
	sched := ecs.NewSchedule(ecs.ScheduleUpdate)
	var order []string
	sched.AddSystems(
		ecs.NewSystemConfig(recordingSystem("a", &order)).After("b"),
		ecs.NewSystemConfig(recordingSystem("b", &order)).After("a"),
	)

	world := ecs.NewWorld()
	_, err := sched.Run(context.Background(), world, nil, nil, nil, 1, time.Millisecond)
	if err == nil {
		t.Fatalf("expected cyclic dependency error")
	}
	prepErr, ok := err.(*ecs.SchedulePrepareError)
	if !ok {
		t.Fatalf("expected *ecs.SchedulePrepareError, got %T: %v", err, err)
	}
	if prepErr.Kind != ecs.CyclicDependency {
		t.Fatalf("expected CyclicDependency, got %v", prepErr.Kind)
	}
}

func TestScheduleDetectsCyclicHierarchy(t *testing.T) {
	sched := ecs.NewSchedule(ecs.ScheduleUpdate)
	sched.ConfigureSets(
		ecs.NewSetConfig("x").InSet("y"),
		ecs.NewSetConfig("y").InSet("x"),
	)

	world := ecs.NewWorld()
	_, err := sched.Run(context.Background(), world, nil, nil, nil, 1, time.Millisecond)
	if err == nil {
		t.Fatalf("expected cyclic hierarchy error")
	}
	prepErr, ok := err.(*ecs.SchedulePrepareError)
	if !ok {
		t.Fatalf("expected *ecs.SchedulePrepareError, got %T: %v", err, err)
	}
	if prepErr.Kind != ecs.CyclicHierarchy {
		t.Fatalf("expected CyclicHierarchy, got %v", prepErr.Kind)
	}
}

func TestScheduleDetectsTransitiveParentsWithDeps(t *testing.T) {
	// C is in both A and B. A runs after X, and X runs after B, so B
	// is transitively ordered before A even though no edge names A and B
	// directly. Two ancestors of the same set (A, B) are transitively
	// ordered, so this must be rejected as ParentsWithDeps.
	sched := ecs.NewSchedule(ecs.ScheduleUpdate)
	sched.ConfigureSets(
		ecs.NewSetConfig("C").InSet("A").InSet("B"),
		ecs.NewSetConfig("A").After("X"),
		ecs.NewSetConfig("B"),
		ecs.NewSetConfig("X").After("B"),
	)

	world := ecs.NewWorld()
	_, err := sched.Run(context.Background(), world, nil, nil, nil, 1, time.Millisecond)
	if err == nil {
		t.Fatalf("expected ParentsWithDeps error")
	}
	prepErr, ok := err.(*ecs.SchedulePrepareError)
	if !ok {
		t.Fatalf("expected *ecs.SchedulePrepareError, got %T: %v", err, err)
	}
	if prepErr.Kind != ecs.ParentsWithDeps {
		t.Fatalf("expected ParentsWithDeps, got %v", prepErr.Kind)
	}
}

func TestScheduleRunOnceRemovesSystemsAfterRun(t *testing.T) {
	var order []string
	sched := ecs.NewSchedule(ecs.ScheduleStartup)
	sched.RunOnce = true
	sched.AddSystems(ecs.NewSystemConfig(recordingSystem("setup", &order)))

	world := ecs.NewWorld()
	if _, err := sched.Run(context.Background(), world, nil, nil, nil, 1, time.Millisecond); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(order) != 1 {
		t.Fatalf("expected setup to run once, got %v", order)
	}

	// A system added in the window between the first run completing and
	// the next Run() call must still execute once: it wasn't present at
	// the completed run, so it must not be swept up by that run's cleanup.
	sched.AddSystems(ecs.NewSystemConfig(recordingSystem("late", &order)))

	if _, err := sched.Run(context.Background(), world, nil, nil, nil, 2, time.Millisecond); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(order) != 2 || order[1] != "late" {
		t.Fatalf("expected late-added system to run on the next build, got %v", order)
	}

	if _, err := sched.Run(context.Background(), world, nil, nil, nil, 3, time.Millisecond); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("expected startup systems to be dropped after their run, got %v", order)
	}
}

func TestScheduleConcurrentNonConflictingSystems(t *testing.T) {
	sched := ecs.NewSchedule(ecs.ScheduleUpdate)
	var mu sync.Mutex
	ran := make(map[string]bool)
	sys := func(name string) ecs.System {
		return ecs.NewFuncSystem(ecs.SystemDescriptor{Name: name}, func(ctx context.Context, exec ecs.ExecutionContext) ecs.SystemResult {
			mu.Lock()
			ran[name] = true
			mu.Unlock()
			return ecs.SystemResult{}
		})
	}
	sched.AddSystems(
		ecs.NewSystemConfig(sys("independent-a")),
		ecs.NewSystemConfig(sys("independent-b")),
	)

	world := ecs.NewWorld()
	execs := ecs.NewExecutors(2)
	defer execs.Close()
	summary, err := sched.Run(context.Background(), world, execs, nil, nil, 1, time.Millisecond)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !ran["independent-a"] || !ran["independent-b"] {
		t.Fatalf("expected both systems to run, got %v", ran)
	}
	if summary.SetsExecuted != 2 {
		t.Fatalf("expected 2 sets executed, got %d", summary.SetsExecuted)
	}
}
