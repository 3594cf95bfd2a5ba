package ecs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// App owns a main World, its schedules, and any number of sub-apps
// (spec.md §4.6). A frame runs the main loop order, then for each
// sub-app its extract, extract-order and main-loop-order, and finally
// checks for AppExit events.
type App struct {
	InstanceID string

	world     *World
	schedules map[ScheduleLabel]*Schedule

	mainStartupOrder []ScheduleLabel
	mainLoopOrder    []ScheduleLabel
	exitOrder        []ScheduleLabel

	subApps map[AppLabel]*SubApp

	executors *Executors
	logger    Logger
	tracer    Tracer
	observer  ScheduleObserver

	mu          sync.Mutex
	building    bool
	pluginsBuilt bool
	pluginQueue []Plugin

	startupRan bool
	exitReader *EventReader[AppExit]
}

// AppExit is the well-known event type App.RunFrame checks for between
// frames; writing one from any system requests the main loop stop
// (spec.md §4.6 step 4).
type AppExit struct {
	Code int
}

// NewApp constructs an App with the standard schedule orders (spec.md §2):
// Startup runs once, then First/PreUpdate/StateTransition/Update/
// PostUpdate/Last repeat every frame, then Exit runs once on shutdown.
func NewApp(cfg AppConfig) *App {
	if cfg.DefaultPoolSize <= 0 {
		cfg.DefaultPoolSize = 0
	}
	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	a := &App{
		InstanceID: instanceID,
		world:      NewWorld(),
		schedules:  make(map[ScheduleLabel]*Schedule),
		subApps:    make(map[AppLabel]*SubApp),
		executors:  NewExecutors(cfg.DefaultPoolSize),
		logger:     noopLogger{},
		tracer:     noopTracer{},
	}
	a.observer = cfg.Instrumentation.BuildObserver(a.logger, a.tracer)

	a.registerSchedule(ScheduleStartup, &a.mainStartupOrder)
	a.mainStartupSchedule().RunOnce = true

	for _, label := range []ScheduleLabel{
		ScheduleFirst, SchedulePreUpdate, ScheduleStateTransition,
		ScheduleUpdate, SchedulePostUpdate, ScheduleLast,
	} {
		a.registerSchedule(label, &a.mainLoopOrder)
	}
	a.registerSchedule(ScheduleExit, &a.exitOrder)

	a.Schedule(ScheduleLast).AddSystems(NewSystemConfig(RotateEventsSystem()))
	a.exitReader = NewEventReader[AppExit](a.world)
	return a
}

// Create builds an App the way App.Create conventionally does for a
// rendering-capable program: a main app plus a Render sub-app wired
// with an extract-order ahead of its own main-loop order (spec.md §4.6).
func Create(cfg AppConfig) *App {
	app := NewApp(cfg)
	render := app.AddSubApp(AppLabelOf[renderAppMarker]())
	render.AddSchedule(ScheduleExtract, &render.extractOrder)
	render.AddSchedule(ScheduleRender, &render.mainLoopOrder)
	return app
}

type renderAppMarker struct{}

func (a *App) registerSchedule(label ScheduleLabel, order *[]ScheduleLabel) *Schedule {
	sched := NewSchedule(label)
	a.schedules[label] = sched
	if order != nil {
		*order = append(*order, label)
	}
	return sched
}

func (a *App) mainStartupSchedule() *Schedule {
	return a.schedules[ScheduleStartup]
}

// World returns the app's main world.
func (a *App) World() *World { return a.world }

// Executors returns the shared executors table used by every schedule
// driven by this app (main and sub-apps alike).
func (a *App) Executors() *Executors { return a.executors }

// Schedule returns (creating if absent) the schedule registered under
// label on the main app.
func (a *App) Schedule(label ScheduleLabel) *Schedule {
	sched, ok := a.schedules[label]
	if !ok {
		sched = NewSchedule(label)
		a.schedules[label] = sched
	}
	return sched
}

// AddSystems registers configs against the named main-app schedule.
func (a *App) AddSystems(label ScheduleLabel, configs ...SystemSetConfig) *App {
	a.Schedule(label).AddSystems(configs...)
	return a
}

// AddSubApp registers and returns a new sub-app under label.
func (a *App) AddSubApp(label AppLabel) *SubApp {
	sub := NewSubApp(label)
	a.subApps[label] = sub
	return sub
}

// SubApp returns the sub-app registered under label, or nil.
func (a *App) SubApp(label AppLabel) *SubApp {
	return a.subApps[label]
}

// Build runs the plugin build fixpoint described in spec.md §4.6: every
// registered plugin's Build runs in insertion order; plugins added
// during Build are built too, until no more are queued; each plugin's
// Finish then runs once.
func (a *App) Build() error {
	if len(a.pluginQueue) == 0 {
		a.mu.Lock()
		a.pluginsBuilt = true
		a.mu.Unlock()
		return nil
	}
	return a.buildPlugins()
}

// RunFrame drives one frame: the main-loop schedules in order, then for
// each sub-app, extract followed by its extract-order and main-loop-order
// schedules, then reports whether an AppExit event was observed (spec.md
// §2, §4.6). Sub-apps are driven by the main app only after its main
// schedules complete, so extract always sees the current frame's state.
func (a *App) RunFrame(ctx context.Context, dt time.Duration) (bool, error) {
	if !a.startupRan {
		for _, label := range a.mainStartupOrder {
			if _, err := a.runSchedule(ctx, a.world, label, dt); err != nil {
				return false, err
			}
		}
		a.startupRan = true
	}

	for _, label := range a.mainLoopOrder {
		if _, err := a.runSchedule(ctx, a.world, label, dt); err != nil {
			return false, err
		}
	}

	for _, sub := range a.subApps {
		runExtract(a.world, sub)
		for _, label := range sub.extractOrder {
			if _, err := a.runSubSchedule(ctx, sub, label, dt); err != nil {
				return false, err
			}
		}
		for _, label := range sub.mainLoopOrder {
			if _, err := a.runSubSchedule(ctx, sub, label, dt); err != nil {
				return false, err
			}
		}
	}

	exits := a.exitReader.Read()
	return len(exits) > 0, nil
}

// RunToExit drives frames until an AppExit event is observed or ctx is
// cancelled, then runs the exit-order schedules once.
func (a *App) RunToExit(ctx context.Context, dt time.Duration) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		exit, err := a.RunFrame(ctx, dt)
		if err != nil {
			return err
		}
		if exit {
			break
		}
	}
	for _, label := range a.exitOrder {
		if _, err := a.runSchedule(ctx, a.world, label, dt); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) runSchedule(ctx context.Context, world *World, label ScheduleLabel, dt time.Duration) (ScheduleRunSummary, error) {
	sched := a.schedules[label]
	tick := uint64(world.AdvanceTick())
	summary, err := sched.Run(ctx, world, a.executors, a.logger, a.tracer, tick, dt)
	if a.observer != nil {
		a.observer.ScheduleRunCompleted(summary)
	}
	return summary, err
}

func (a *App) runSubSchedule(ctx context.Context, sub *SubApp, label ScheduleLabel, dt time.Duration) (ScheduleRunSummary, error) {
	sched := sub.schedules[label]
	if sched == nil {
		return ScheduleRunSummary{}, nil
	}
	world := sub.world
	tick := uint64(world.AdvanceTick())
	summary, err := sched.Run(ctx, world, a.executors, a.logger, a.tracer, tick, dt)
	if a.observer != nil {
		a.observer.ScheduleRunCompleted(summary)
	}
	return summary, err
}
