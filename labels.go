package ecs

// ScheduleLabel identifies a Schedule within an App.
type ScheduleLabel string

// SystemSetLabel identifies a SystemSet within a Schedule's set graph.
type SystemSetLabel string

// AppLabel identifies a SubApp within an App.
type AppLabel string

// ExecutorLabel identifies a named worker pool in an Executors table.
type ExecutorLabel string

// Well-known schedule labels forming the main loop order described in
// SPEC_FULL.md §2.
const (
	ScheduleFirst           ScheduleLabel = "First"
	SchedulePreUpdate       ScheduleLabel = "PreUpdate"
	ScheduleStateTransition ScheduleLabel = "StateTransition"
	ScheduleUpdate          ScheduleLabel = "Update"
	SchedulePostUpdate      ScheduleLabel = "PostUpdate"
	ScheduleLast            ScheduleLabel = "Last"
	ScheduleStartup         ScheduleLabel = "Startup"
	ScheduleExit            ScheduleLabel = "Exit"
	ScheduleExtract         ScheduleLabel = "ExtractSchedule"
	ScheduleRender          ScheduleLabel = "Render"
)

// Well-known executor labels. SingleThread is cooperative and pins work
// to one goroutine (GUI/GPU submission); Default is the multi-worker pool.
const (
	ExecutorSingleThread ExecutorLabel = "SingleThread"
	ExecutorDefault      ExecutorLabel = "Default"
)

// ScheduleLabelOf derives a stable label from a marker type T, e.g.
// type Update struct{}; ScheduleLabelOf[Update]() — equality and hashing
// of the resulting ScheduleLabel remain O(1) string comparisons, while
// the label's identity is pinned to the type, not to any value of it.
func ScheduleLabelOf[T any]() ScheduleLabel {
	return ScheduleLabel(typeNameOf[T]())
}

// SystemSetLabelOf derives a stable set label from a marker type T.
func SystemSetLabelOf[T any]() SystemSetLabel {
	return SystemSetLabel(typeNameOf[T]())
}

// AppLabelOf derives a stable sub-app label from a marker type T.
func AppLabelOf[T any]() AppLabel {
	return AppLabel(typeNameOf[T]())
}

// ExecutorLabelOf derives a stable executor label from a marker type T.
func ExecutorLabelOf[T any]() ExecutorLabel {
	return ExecutorLabel(typeNameOf[T]())
}
