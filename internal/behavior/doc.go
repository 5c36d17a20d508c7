// Package behavior plans the work of single-target objectives.
//
// An objective keeps its view of the world as Facts, refreshed before each
// tick. A Planner wraps those facts as a pabt state and expands a goal into a
// behaviour tree from Steps: each Step needs some conditions, yields some
// facts, and carries the bt.Node that does the work. Steps are offered to the
// planner in name order so a plan expands the same way on every run.
//
//	p := behavior.NewPlanner(logger)
//	p.Add(
//	    behavior.NewStep("moveTo", walk).Yields(atTarget, true),
//	    behavior.NewStep("treat", treat).Needs(behavior.Is(atTarget, true)).Yields(treated, true),
//	)
//	node, err := p.Plan(behavior.Is(treated, true))
//
// Formula compiles the numeric expr-lang expressions used to tune urgency.
package behavior
