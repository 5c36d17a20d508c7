package crew

import (
	"math"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/joeycumines/crew-scheduler/internal/objective"
	"github.com/joeycumines/crew-scheduler/internal/world"
)

// Combat attacks active hostiles sharing the agent's hull until none remain.
type Combat struct {
	*objective.Behavior
	env      Env
	settings Settings
	lastHit  world.AgentID
}

// NewCombat creates the combat duty.
func NewCombat(env Env, s Settings, opts ...objective.Option) *Combat {
	c := &Combat{env: env, settings: s}
	c.Behavior = objective.NewBehavior(KindCombat,
		func() float64 {
			if !env.Self.Active() || !env.World.HostilePresent(env.Self, env.Self.Hull) {
				return objective.MinPriority
			}
			return s.CombatPriority
		},
		bt.New(bt.Selector,
			bt.New(c.clear),
			bt.New(c.attack),
		),
		opts...,
	)
	return c
}

// LastTarget returns the hostile hit by the latest update.
func (c *Combat) LastTarget() world.AgentID { return c.lastHit }

func (c *Combat) clear([]bt.Node) (bt.Status, error) {
	if c.env.World.HostilePresent(c.env.Self, c.env.Self.Hull) {
		return bt.Failure, nil
	}
	return bt.Success, nil
}

func (c *Combat) attack([]bt.Node) (bt.Status, error) {
	self := c.env.Self
	if !self.Active() {
		return bt.Failure, errIncapacitated
	}
	hostile := c.env.World.FirstHostile(self, self.Hull)
	if hostile == nil {
		return bt.Success, nil
	}
	dt := c.CurrentTick().Delta
	damage := c.settings.CombatDamage * dt * (1 + self.Skill(c.settings.WeaponsSkill)/100)
	hostile.Vitals.Health = math.Max(hostile.Vitals.Health-damage, -world.MaxVitality)
	c.lastHit = hostile.ID
	c.env.Log().Debug("combat hit",
		"agent", self.ID,
		"target", hostile.ID,
		"damage", damage,
		"health", hostile.Vitals.Health)
	return bt.Running, nil
}
