package crew

import (
	bt "github.com/joeycumines/go-behaviortree"

	"github.com/joeycumines/crew-scheduler/internal/objective"
	"github.com/joeycumines/crew-scheduler/internal/world"
)

// FindSafety moves its agent, one hull per tick, to the nearest hull the
// agent does not perceive as unsafe. It completes once there and abandons
// when no such hull is reachable.
type FindSafety struct {
	*objective.Behavior
	env  Env
	dest world.HullID
}

// NewFindSafety creates the flee duty.
func NewFindSafety(env Env, s Settings, opts ...objective.Option) *FindSafety {
	f := &FindSafety{env: env}
	f.Behavior = objective.NewBehavior(KindFindSafety,
		func() float64 {
			if !env.Self.Active() || !env.IsUnsafe(env.Self.Hull) {
				return objective.MinPriority
			}
			return s.FindSafetyPriority
		},
		bt.New(bt.Selector,
			bt.New(f.isSafe),
			bt.New(f.step),
		),
		opts...,
	)
	return f
}

// Destination returns the hull chosen by the latest step, if any.
func (f *FindSafety) Destination() world.HullID { return f.dest }

func (f *FindSafety) isSafe([]bt.Node) (bt.Status, error) {
	if f.env.Self.Hull != "" && !f.env.IsUnsafe(f.env.Self.Hull) {
		return bt.Success, nil
	}
	return bt.Failure, nil
}

func (f *FindSafety) step([]bt.Node) (bt.Status, error) {
	self := f.env.Self
	if !self.Active() {
		return bt.Failure, errIncapacitated
	}
	dest, path, ok := f.env.World.Nearest(self.Hull, func(h *world.Hull) bool {
		return !f.env.IsUnsafe(h.ID)
	})
	if !ok || len(path) == 0 {
		return bt.Failure, errNoSafeHull
	}
	f.dest = dest
	if err := f.env.World.MoveAgent(self.ID, path[0]); err != nil {
		return bt.Failure, err
	}
	if self.Hull == dest {
		return bt.Success, nil
	}
	return bt.Running, nil
}
