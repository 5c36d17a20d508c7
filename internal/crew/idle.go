package crew

import (
	bt "github.com/joeycumines/go-behaviortree"

	"github.com/joeycumines/crew-scheduler/internal/objective"
)

// Idle is the fallback duty: a constant low priority that never completes,
// so every agent always has something selected.
type Idle struct {
	*objective.Behavior
	env Env
}

// NewIdle creates the idle duty.
func NewIdle(env Env, s Settings, opts ...objective.Option) *Idle {
	i := &Idle{env: env}
	i.Behavior = objective.NewBehavior(KindIdle,
		func() float64 {
			if !env.Self.Active() {
				return objective.MinPriority
			}
			return s.IdlePriority
		},
		bt.New(func([]bt.Node) (bt.Status, error) {
			return bt.Running, nil
		}),
		opts...,
	)
	return i
}
