package ecs

// SubApp is a secondary World driven alongside the main App (spec.md
// §4.6), e.g. a render world extracted from the main simulation world
// each frame. It carries its own schedules and main-loop order, plus an
// extract-order run before that main-loop each frame.
type SubApp struct {
	Label  AppLabel
	world  *World

	schedules map[ScheduleLabel]*Schedule
	extractOrder []ScheduleLabel
	mainLoopOrder []ScheduleLabel

	extract ExtractFunc
}

// ExtractFunc copies or moves whatever a sub-app needs out of the main
// world into the sub-app's world. During extract, main temporarily
// exposes an ExtractTarget resource pointing at sub (spec.md §4.6 step 1).
type ExtractFunc func(main, sub *World)

// NewSubApp constructs an empty sub-app with its own world.
func NewSubApp(label AppLabel) *SubApp {
	return &SubApp{
		Label:     label,
		world:     NewWorld(),
		schedules: make(map[ScheduleLabel]*Schedule),
	}
}

// World returns the sub-app's own world.
func (sa *SubApp) World() *World { return sa.world }

// SetExtract installs the function invoked during this sub-app's
// extract phase each frame.
func (sa *SubApp) SetExtract(fn ExtractFunc) { sa.extract = fn }

// AddSchedule registers a schedule under label, creating it if absent,
// and appends it to the given order list (extract or main-loop).
func (sa *SubApp) AddSchedule(label ScheduleLabel, order *[]ScheduleLabel) *Schedule {
	sched, ok := sa.schedules[label]
	if !ok {
		sched = NewSchedule(label)
		sa.schedules[label] = sched
	}
	if order != nil {
		*order = append(*order, label)
	}
	return sched
}

// Schedule returns the sub-app's schedule registered under label, or
// nil if none was added.
func (sa *SubApp) Schedule(label ScheduleLabel) *Schedule {
	return sa.schedules[label]
}

// AddSystems registers configs against the named schedule, creating the
// schedule if it does not already exist.
func (sa *SubApp) AddSystems(label ScheduleLabel, configs ...SystemSetConfig) {
	sched, ok := sa.schedules[label]
	if !ok {
		sched = NewSchedule(label)
		sa.schedules[label] = sched
	}
	sched.AddSystems(configs...)
}
