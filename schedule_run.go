package ecs

import (
	"context"
	"sync"
	"time"
)

// runExecutionContext is the ExecutionContext handed to systems and
// conditions dispatched by Schedule.Run.
type runExecutionContext struct {
	world  *World
	dt     time.Duration
	tick   uint64
	logger Logger
	tracer Tracer
}

func (c *runExecutionContext) World() *World              { return c.world }
func (c *runExecutionContext) TimeDelta() time.Duration    { return c.dt }
func (c *runExecutionContext) TickIndex() uint64           { return c.tick }
func (c *runExecutionContext) Logger() Logger              { return c.logger }
func (c *runExecutionContext) Tracer() Tracer              { return c.tracer }
func (c *runExecutionContext) Defer(cmd WorldCommand)      { c.world.Queue(cmd) }

var _ ExecutionContext = (*runExecutionContext)(nil)

// Run executes one pass of the schedule's set graph against world,
// dispatching owned systems onto execs, per spec.md §4.5. It drains
// pending schedule-command edits and rebuilds the cache if dirty,
// evaluates conditions top-down through the in_sets hierarchy, and
// dispatches ready, non-conflicting systems concurrently in waves
// bounded by the dependency graph.
func (s *Schedule) Run(ctx context.Context, world *World, execs *Executors, logger Logger, tracer Tracer, tick uint64, dt time.Duration) (ScheduleRunSummary, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	if tracer == nil {
		tracer = noopTracer{}
	}

	start := time.Now()
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.drainPending()
	cache, err := s.buildSets()
	if err != nil {
		return ScheduleRunSummary{Label: s.Label, Tick: tick, Duration: time.Since(start), Error: err}, err
	}

	n := len(cache.order)
	entered := make([]bool, n)
	passed := make([]bool, n)
	finished := make([]bool, n)
	dispatched := make([]bool, n)
	dependsRemaining := make([]int, n)
	childrenRemaining := make([]int, n)
	for i, info := range cache.order {
		dependsRemaining[i] = info.cachedDependsCount
		childrenRemaining[i] = info.cachedChildrenCount
	}

	setsExecuted := 0
	setsSkipped := 0

	parentsEntered := func(i int) bool {
		for _, p := range cache.order[i].parents {
			if !entered[p] {
				return false
			}
		}
		return true
	}
	parentsPassed := func(i int) bool {
		for _, p := range cache.order[i].parents {
			if !passed[p] {
				return false
			}
		}
		return true
	}

	var cascade func(i int)
	cascade = func(i int) {
		for _, su := range cache.order[i].succeeds {
			dependsRemaining[su]--
		}
		for _, p := range cache.order[i].parents {
			childrenRemaining[p]--
			if childrenRemaining[p] == 0 && !finished[p] {
				finished[p] = true
				cascade(p)
			}
		}
	}
	finishSet := func(i int) {
		if finished[i] {
			return
		}
		finished[i] = true
		cascade(i)
	}

	execCtx := &runExecutionContext{world: world, dt: dt, tick: tick, logger: logger, tracer: tracer}

	for {
		if err := ctx.Err(); err != nil {
			return s.scheduleRunResult(cache, finished, start, tick, setsExecuted, setsSkipped, err), err
		}

		progressed := false

		// Entering phase: decide pass/fail for every set whose
		// dependencies are satisfied and whose parents have entered.
		for i := 0; i < n; i++ {
			if entered[i] || finished[i] {
				continue
			}
			if dependsRemaining[i] != 0 || !parentsEntered(i) {
				continue
			}
			entered[i] = true
			progressed = true

			info := cache.order[i]
			if !parentsPassed(i) {
				passed[i] = false
				if info.set.System == nil && len(info.children) == 0 {
					finishSet(i)
				} else if info.set.System == nil {
					// container awaits its (equally failing) children
				} else {
					finishSet(i)
				}
				continue
			}

			ok, condErr := evaluateConditions(ctx, execCtx, info.set.Conditions)
			if condErr != nil {
				logger.Error("condition evaluation failed", "set", string(info.set.Label), "err", condErr)
				passed[i] = false
				finishSet(i)
				continue
			}
			passed[i] = ok
			if !ok {
				setsSkipped++
				if info.set.System == nil && len(info.children) == 0 {
					finishSet(i)
				} else if info.set.System != nil {
					finishSet(i)
				}
				continue
			}
			if info.set.System == nil && len(info.children) == 0 {
				finishSet(i)
			}
		}

		// Dispatch phase: run any entered, passed, system-owning set not
		// yet dispatched, skipping ones that conflict with another
		// dispatched this round.
		var roundDescriptors []SystemDescriptor
		var roundIdx []int
		for i := 0; i < n; i++ {
			info := cache.order[i]
			if !entered[i] || finished[i] || dispatched[i] || !passed[i] || info.set.System == nil {
				continue
			}
			desc := info.set.System.Descriptor()
			if !shouldRunTick(tick, desc.RunEvery) {
				dispatched[i] = true
				setsSkipped++
				childrenRemaining[i]--
				if childrenRemaining[i] == 0 {
					finishSet(i)
				}
				continue
			}
			conflicted := false
			for _, other := range roundDescriptors {
				if accessConflicts(desc, other) {
					conflicted = true
					break
				}
			}
			if conflicted {
				continue
			}
			dispatched[i] = true
			roundDescriptors = append(roundDescriptors, desc)
			roundIdx = append(roundIdx, i)
		}

		if len(roundIdx) > 0 {
			progressed = true
			var wg sync.WaitGroup
			results := make([]SystemResult, len(roundIdx))
			for slot, i := range roundIdx {
				wg.Add(1)
				go func(slot, i int) {
					defer wg.Done()
					results[slot] = dispatchSystem(ctx, execs, cache.order[i].set, execCtx)
				}(slot, i)
			}
			wg.Wait()
			for slot, i := range roundIdx {
				result := results[slot]
				if result.Err != nil {
					logger.Error("system failed", "set", string(cache.order[i].set.Label), "err", result.Err)
				} else if !result.Skipped {
					setsExecuted++
				} else {
					setsSkipped++
				}
				childrenRemaining[i]--
				if childrenRemaining[i] == 0 {
					finishSet(i)
				}
			}
		}

		if !progressed {
			break
		}
	}

	if err := world.ApplyCommands(); err != nil {
		return s.scheduleRunResult(cache, finished, start, tick, setsExecuted, setsSkipped, err), err
	}

	if s.RunOnce {
		for _, info := range cache.order {
			s.QueueCommand(removeSetCommand{label: info.set.Label})
		}
	}

	summary := s.scheduleRunResult(cache, finished, start, tick, setsExecuted, setsSkipped, nil)
	if len(summary.SetsRemaining) > 0 {
		err := &RunScheduleError{Label: s.Label, Remaining: summary.SetsRemaining}
		summary.Error = err
		return summary, err
	}
	return summary, nil
}

func (s *Schedule) scheduleRunResult(cache *scheduleCache, finished []bool, start time.Time, tick uint64, executed, skipped int, err error) ScheduleRunSummary {
	var remaining []SystemSetLabel
	for i, ok := range finished {
		if !ok {
			remaining = append(remaining, cache.order[i].set.Label)
		}
	}
	return ScheduleRunSummary{
		Label:         s.Label,
		Tick:          tick,
		Duration:      time.Since(start),
		SetsTotal:     len(cache.order),
		SetsExecuted:  executed,
		SetsSkipped:   skipped,
		SetsRemaining: remaining,
		Error:         err,
	}
}

// evaluateConditions runs every condition attached to a set in order,
// short-circuiting on the first false or erroring result (spec.md §4.5:
// "a system runs after its conditions have all returned true").
// Conditions are evaluated inline rather than dispatched onto an
// Executors pool: they are predicates over already-settled state and,
// per spec.md §4.3, participate in the same conflict class as systems,
// so serializing their (typically cheap) evaluation sidesteps needing a
// second conflict-checked dispatch path for what is usually a handful of
// boolean reads.
func evaluateConditions(ctx context.Context, exec ExecutionContext, conditions []Condition) (bool, error) {
	for _, cond := range conditions {
		ok, err := cond.Evaluate(ctx, exec)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// dispatchSystem runs one set's owned system on its declared executor
// and translates the outcome into a SystemResult. Dispatch failures
// (e.g. an unregistered executor label) are reported as a failed result
// rather than aborting the whole schedule run.
func dispatchSystem(ctx context.Context, execs *Executors, set *SystemSet, exec *runExecutionContext) SystemResult {
	desc := set.System.Descriptor()
	label := firstNonEmptyExecutor(set.Executor)
	if execs == nil {
		return set.System.Run(ctx, exec)
	}
	handle, err := execs.DetachTask(ctx, label, desc.Name, func(taskCtx context.Context) taskResult {
		result := set.System.Run(taskCtx, exec)
		return taskResult{err: result.Err, value: result}
	})
	if err != nil {
		return SystemResult{Err: err}
	}
	outcome := handle.Wait()
	if outcome.err != nil {
		return SystemResult{Err: outcome.err}
	}
	if result, ok := outcome.value.(SystemResult); ok {
		return result
	}
	return SystemResult{}
}
