package behavior

import (
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"
	pabtpkg "github.com/joeycumines/go-pabt"
)

// Cond is a condition on a single fact, usable as a plan goal or as a step
// precondition.
type Cond struct {
	fact  Fact
	desc  string
	match func(any) bool
}

var _ pabtpkg.Condition = (*Cond)(nil)

// Is holds when the fact equals v.
func Is(f Fact, v any) *Cond {
	return &Cond{
		fact:  f,
		desc:  fmt.Sprintf("%s == %v", f, v),
		match: func(got any) bool { return got == v },
	}
}

// Known holds once the fact has any non-nil value.
func Known(f Fact) *Cond {
	return &Cond{
		fact:  f,
		desc:  string(f) + " known",
		match: func(got any) bool { return got != nil },
	}
}

// Check holds when fn accepts the fact's value. desc names the check in
// diagnostics.
func Check(f Fact, desc string, fn func(any) bool) *Cond {
	return &Cond{fact: f, desc: string(f) + " " + desc, match: fn}
}

// Fact returns the fact the condition reads.
func (c *Cond) Fact() Fact { return c.fact }

// Key implements pabt.Condition.
func (c *Cond) Key() any { return c.fact }

// Match implements pabt.Condition.
func (c *Cond) Match(v any) bool {
	return c.match != nil && c.match(v)
}

func (c *Cond) String() string { return c.desc }

type effect struct {
	fact  Fact
	value any
}

func (e effect) Key() any   { return e.fact }
func (e effect) Value() any { return e.value }

// Step is one thing a plan can do: run node once the step's needs hold, to
// make its yields true.
type Step struct {
	name  string
	needs []pabtpkg.IConditions
	yield pabtpkg.Effects
	node  bt.Node
}

var _ pabtpkg.IAction = (*Step)(nil)

// NewStep creates a step that runs node.
//
// Panics if node is nil.
func NewStep(name string, node bt.Node) *Step {
	if node == nil {
		panic(fmt.Sprintf("behavior.NewStep: nil node for step %q", name))
	}
	return &Step{name: name, node: node}
}

// Needs adds an alternative set of preconditions: the step may run when all
// conditions of any one set hold. A step without needs may always run.
func (s *Step) Needs(conds ...*Cond) *Step {
	group := make(pabtpkg.IConditions, len(conds))
	for i, c := range conds {
		group[i] = c
	}
	s.needs = append(s.needs, group)
	return s
}

// Yields declares that the step, on success, leaves f set to v.
func (s *Step) Yields(f Fact, v any) *Step {
	s.yield = append(s.yield, effect{fact: f, value: v})
	return s
}

// Name returns the step name.
func (s *Step) Name() string { return s.name }

// Conditions implements pabt.IAction.
func (s *Step) Conditions() []pabtpkg.IConditions { return s.needs }

// Effects implements pabt.IAction.
func (s *Step) Effects() pabtpkg.Effects { return s.yield }

// Node implements pabt.IAction.
func (s *Step) Node() bt.Node { return s.node }

// repairs reports whether one of the step's yields satisfies failed.
func (s *Step) repairs(failed pabtpkg.Condition) bool {
	for _, e := range s.yield {
		if e.Key() == failed.Key() && failed.Match(e.Value()) {
			return true
		}
	}
	return false
}
