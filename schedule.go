package ecs

import "sync"

// Schedule owns a set map (spec.md §4.4) plus the flattened cache built
// from it. The set map is edited by AddSystems/ConfigureSets/
// RemoveSystem/RemoveSet; while the schedule is running, edits are
// deferred to its pending-command queue and applied on the next build.
type Schedule struct {
	Label ScheduleLabel

	// RunOnce marks a schedule (e.g. a Startup schedule) whose sets are
	// dropped after their first successful run, per spec.md §4.5 step 6.
	RunOnce bool

	mu             sync.Mutex
	sets           map[SystemSetLabel]*SystemSet
	insertionOrder []SystemSetLabel
	pending        []ScheduleCommand
	running        bool
	dirty          bool
	cache          *scheduleCache
}

// NewSchedule constructs an empty schedule under label.
func NewSchedule(label ScheduleLabel) *Schedule {
	return &Schedule{
		Label: label,
		sets:  make(map[SystemSetLabel]*SystemSet),
		dirty: true,
	}
}

// AddSystems registers configs (and their nested sub-configs) as sets
// in the schedule. While the schedule is running, this is deferred to
// the pending-command queue.
func (s *Schedule) AddSystems(configs ...SystemSetConfig) {
	if s.isRunning() {
		s.QueueCommand(addSystemsCommand{configs: configs})
		return
	}
	for _, cfg := range flattenConfigs(configs) {
		s.addSet(cfg.toSet())
	}
}

// ConfigureSets edits existing set configuration (ordering, containment,
// conditions) without necessarily introducing a new owned system.
func (s *Schedule) ConfigureSets(configs ...SystemSetConfig) {
	if s.isRunning() {
		s.QueueCommand(configureSetsCommand{configs: configs})
		return
	}
	for _, cfg := range flattenConfigs(configs) {
		s.configureSet(cfg)
	}
}

// RemoveSystem drops the set owning label, removing it from the graph.
func (s *Schedule) RemoveSystem(label SystemSetLabel) {
	if s.isRunning() {
		s.QueueCommand(removeSystemCommand{label: label})
		return
	}
	s.removeSet(label)
}

// RemoveSet drops label from the graph, whether or not it owns a system.
func (s *Schedule) RemoveSet(label SystemSetLabel) {
	if s.isRunning() {
		s.QueueCommand(removeSetCommand{label: label})
		return
	}
	s.removeSet(label)
}

// QueueCommand defers cmd until the schedule is no longer running.
func (s *Schedule) QueueCommand(cmd ScheduleCommand) {
	s.mu.Lock()
	s.pending = append(s.pending, cmd)
	s.mu.Unlock()
}

func (s *Schedule) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Schedule) addSet(set *SystemSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sets[set.Label]; !exists {
		s.insertionOrder = append(s.insertionOrder, set.Label)
	}
	s.sets[set.Label] = set
	s.dirty = true
}

func (s *Schedule) configureSet(cfg SystemSetConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.sets[cfg.Label]
	if !ok {
		s.insertionOrder = append(s.insertionOrder, cfg.Label)
		s.sets[cfg.Label] = cfg.toSet()
		s.dirty = true
		return
	}
	existing.InSets = append(existing.InSets, cfg.InSets...)
	existing.Depends = append(existing.Depends, cfg.Depends...)
	existing.Succeeds = append(existing.Succeeds, cfg.Succeeds...)
	existing.Conditions = append(existing.Conditions, cfg.Conditions...)
	if cfg.System != nil {
		existing.System = cfg.System
	}
	if cfg.Executor != "" {
		existing.Executor = cfg.Executor
	}
	s.dirty = true
}

func (s *Schedule) removeSet(label SystemSetLabel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sets[label]; !ok {
		return
	}
	delete(s.sets, label)
	filtered := s.insertionOrder[:0]
	for _, l := range s.insertionOrder {
		if l != label {
			filtered = append(filtered, l)
		}
	}
	s.insertionOrder = filtered
	for _, set := range s.sets {
		set.InSets = removeLabel(set.InSets, label)
		set.Depends = removeLabel(set.Depends, label)
		set.Succeeds = removeLabel(set.Succeeds, label)
	}
	s.dirty = true
}

func (s *Schedule) drainPending() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, cmd := range pending {
		_ = cmd.Apply(s)
	}
}

func removeLabel(labels []SystemSetLabel, target SystemSetLabel) []SystemSetLabel {
	out := labels[:0]
	for _, l := range labels {
		if l != target {
			out = append(out, l)
		}
	}
	return out
}
