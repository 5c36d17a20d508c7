package behavior

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	bt "github.com/joeycumines/go-behaviortree"
	pabtpkg "github.com/joeycumines/go-pabt"
)

// Planner is the pabt state of one objective's plan: its Facts, and the
// steps able to repair a failed condition.
type Planner struct {
	Facts

	steps  []*Step
	logger *slog.Logger
}

var _ pabtpkg.IState = (*Planner)(nil)

// NewPlanner creates an empty planner. A nil logger uses slog.Default.
func NewPlanner(logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{logger: logger}
}

// Add registers steps, replacing any existing step of the same name.
func (p *Planner) Add(steps ...*Step) {
	for _, s := range steps {
		i, found := slices.BinarySearchFunc(p.steps, s.name, func(x *Step, name string) int {
			return strings.Compare(x.name, name)
		})
		if found {
			p.steps[i] = s
			continue
		}
		p.steps = slices.Insert(p.steps, i, s)
	}
}

// Steps returns the registered steps in name order.
func (p *Planner) Steps() []*Step {
	return slices.Clone(p.steps)
}

// Variable implements pabt.IState. Unrecorded facts read as nil.
func (p *Planner) Variable(key any) (any, error) {
	var f Fact
	switch k := key.(type) {
	case Fact:
		f = k
	case string:
		f = Fact(k)
	default:
		return nil, fmt.Errorf("behavior: unsupported fact key %T", key)
	}
	v, _ := p.Facts.Get(f)
	return v, nil
}

// Actions implements pabt.IState: the steps, in name order, with a yield that
// satisfies failed. A nil condition returns every step.
func (p *Planner) Actions(failed pabtpkg.Condition) ([]pabtpkg.IAction, error) {
	var out []pabtpkg.IAction
	for _, s := range p.steps {
		if failed == nil || s.repairs(failed) {
			out = append(out, s)
		}
	}
	if failed != nil && len(out) == 0 {
		p.logger.Debug("no step repairs condition", "condition", failed, "facts", p.Facts.String())
	}
	return out, nil
}

// Plan expands goal, a conjunction of conditions, into a behaviour tree over
// the planner's steps.
func (p *Planner) Plan(goal ...*Cond) (bt.Node, error) {
	conds := make(pabtpkg.IConditions, len(goal))
	for i, c := range goal {
		conds[i] = c
	}
	plan, err := pabtpkg.INew(p, []pabtpkg.IConditions{conds})
	if err != nil {
		return nil, fmt.Errorf("behavior: plan %v: %w", goal, err)
	}
	return plan.Node(), nil
}
