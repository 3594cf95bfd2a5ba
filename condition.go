package ecs

import "context"

// Condition is a boolean-returning system attached to a SystemSet; it
// gates execution of the set's owned system and, transitively, its
// children. Conditions declare access through a SystemDescriptor like
// any other system (spec.md §9). Schedule.Run does not run them through
// the conflict check: it evaluates them inline in its entering phase,
// between dispatch waves, when no system of the schedule is in flight,
// so a condition never observes a write that is still in progress.
type Condition interface {
	Descriptor() SystemDescriptor
	Evaluate(ctx context.Context, exec ExecutionContext) (bool, error)
}

// conditionAsSystem adapts a Condition to the System interface, reporting
// a false result as Skipped. Schedule.Run does not use it; it evaluates
// conditions inline via evaluateConditions.
type conditionAsSystem struct {
	cond Condition
}

func (c conditionAsSystem) Descriptor() SystemDescriptor { return c.cond.Descriptor() }

func (c conditionAsSystem) Run(ctx context.Context, exec ExecutionContext) SystemResult {
	passed, err := c.cond.Evaluate(ctx, exec)
	if err != nil {
		return SystemResult{Err: err}
	}
	return SystemResult{Skipped: !passed}
}

// funcCondition adapts a plain predicate function into a Condition.
type funcCondition struct {
	desc SystemDescriptor
	fn   func(ctx context.Context, exec ExecutionContext) (bool, error)
}

// NewFuncCondition builds a Condition from a descriptor and a predicate.
func NewFuncCondition(desc SystemDescriptor, fn func(ctx context.Context, exec ExecutionContext) (bool, error)) Condition {
	return funcCondition{desc: desc, fn: fn}
}

func (c funcCondition) Descriptor() SystemDescriptor { return c.desc }

func (c funcCondition) Evaluate(ctx context.Context, exec ExecutionContext) (bool, error) {
	return c.fn(ctx, exec)
}
