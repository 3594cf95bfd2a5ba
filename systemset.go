package ecs

// SystemSet is a node in a Schedule's set graph. A set may own a system
// (making it a leaf), contain other sets via InSets, and carry ordering
// edges (Depends/Succeeds) and run-conditions.
type SystemSet struct {
	Label      SystemSetLabel
	Name       string
	System     System
	InSets     []SystemSetLabel
	Depends    []SystemSetLabel
	Succeeds   []SystemSetLabel
	Conditions []Condition
	Executor   ExecutorLabel
}

// SystemSetConfig is a builder describing one set and, optionally,
// nested sub-configs (spec.md §6). Build it with helpers and pass the
// result to Schedule.AddSystems / Schedule.ConfigureSets.
type SystemSetConfig struct {
	Label      SystemSetLabel
	Name       string
	System     System
	Conditions []Condition
	InSets     []SystemSetLabel
	Depends    []SystemSetLabel
	Succeeds   []SystemSetLabel
	Executor   ExecutorLabel
	SubConfigs []SystemSetConfig
}

// NewSetConfig starts a builder for the set identified by label.
func NewSetConfig(label SystemSetLabel) SystemSetConfig {
	return SystemSetConfig{Label: label, Name: string(label), Executor: ExecutorDefault}
}

// NewSystemConfig starts a builder for a leaf set that owns sys, with a
// label derived from the system's declared name.
func NewSystemConfig(sys System) SystemSetConfig {
	desc := sys.Descriptor()
	return SystemSetConfig{
		Label:    SystemSetLabel(desc.Name),
		Name:     desc.Name,
		System:   sys,
		Executor: firstNonEmptyExecutor(desc.Executor),
	}
}

func firstNonEmptyExecutor(label ExecutorLabel) ExecutorLabel {
	if label == "" {
		return ExecutorDefault
	}
	return label
}

// Before declares that this set must run before the named set (pushes
// to Succeeds, per spec.md §6).
func (c SystemSetConfig) Before(label SystemSetLabel) SystemSetConfig {
	c.Succeeds = append(c.Succeeds, label)
	return c
}

// After declares that this set must run after the named set (pushes to
// Depends).
func (c SystemSetConfig) After(label SystemSetLabel) SystemSetConfig {
	c.Depends = append(c.Depends, label)
	return c
}

// InSet declares that this set is contained by the named set.
func (c SystemSetConfig) InSet(label SystemSetLabel) SystemSetConfig {
	c.InSets = append(c.InSets, label)
	return c
}

// RunIf attaches a run-condition to this set.
func (c SystemSetConfig) RunIf(cond Condition) SystemSetConfig {
	c.Conditions = append(c.Conditions, cond)
	return c
}

// OnExecutor pins the set's owned system to the named executor.
func (c SystemSetConfig) OnExecutor(label ExecutorLabel) SystemSetConfig {
	c.Executor = label
	return c
}

// WithSubConfigs attaches nested configs to be registered alongside this one.
func (c SystemSetConfig) WithSubConfigs(subs ...SystemSetConfig) SystemSetConfig {
	c.SubConfigs = append(c.SubConfigs, subs...)
	return c
}

// Chain injects pairwise Depends edges across configs in order: configs[i+1]
// depends on configs[i]. This is the set-level equivalent of declaring a
// strict sequence without naming every edge by hand.
func Chain(configs []SystemSetConfig) []SystemSetConfig {
	out := make([]SystemSetConfig, len(configs))
	copy(out, configs)
	for i := 1; i < len(out); i++ {
		out[i] = out[i].After(out[i-1].Label)
	}
	return out
}

func (c SystemSetConfig) toSet() *SystemSet {
	return &SystemSet{
		Label:      c.Label,
		Name:       c.Name,
		System:     c.System,
		InSets:     append([]SystemSetLabel(nil), c.InSets...),
		Depends:    append([]SystemSetLabel(nil), c.Depends...),
		Succeeds:   append([]SystemSetLabel(nil), c.Succeeds...),
		Conditions: append([]Condition(nil), c.Conditions...),
		Executor:   firstNonEmptyExecutor(c.Executor),
	}
}

func flattenConfigs(configs []SystemSetConfig) []SystemSetConfig {
	out := make([]SystemSetConfig, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, cfg)
		if len(cfg.SubConfigs) > 0 {
			out = append(out, flattenConfigs(cfg.SubConfigs)...)
		}
	}
	return out
}
