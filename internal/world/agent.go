package world

import (
	"maps"
	"math"
)

// Vital bounds.
const (
	MinVitality = 0
	MaxVitality = 100
)

// Vitals are the distress sub-signals of an agent.
type Vitals struct {
	// Health is the base condition, 0 (critical) to 100.
	Health float64 `yaml:"health" json:"health"`
	// Bleeding is the ongoing blood loss rate.
	Bleeding float64 `yaml:"bleeding" json:"bleeding"`
	// Bloodloss accumulates from bleeding; 100 is fatal.
	Bloodloss float64 `yaml:"bloodloss" json:"bloodloss"`
	// Oxygen is 100 when breathing normally and goes negative when
	// suffocating.
	Oxygen float64 `yaml:"oxygen" json:"oxygen"`
}

// Vitality is the default need-intensity: Health - Bleeding - Bloodloss, minus
// any oxygen deficit, clamped to [MinVitality, MaxVitality]. Lower means
// worse off.
func (v Vitals) Vitality() float64 {
	f := v.Health - v.Bleeding - v.Bloodloss + math.Min(v.Oxygen, 0)
	if math.IsNaN(f) || f < MinVitality {
		return MinVitality
	}
	return math.Min(f, MaxVitality)
}

// Agent is any crew member, player or hostile. The simulation owns the
// lifecycle; the scheduler only observes it.
type Agent struct {
	ID     AgentID
	Name   string
	Team   string
	Job    string
	Skills map[string]float64
	Vitals Vitals
	Hull   HullID
	Player bool
	Dead   bool

	// Removed is set once the agent is destroyed and no longer part of the
	// world, for holders of stale pointers.
	Removed bool
}

// Skill returns the named skill level. Missing skill information reads as 0.
func (a *Agent) Skill(name string) float64 {
	if a == nil {
		return 0
	}
	return a.Skills[name]
}

// CopySkills returns a copy of the skill table.
func (a *Agent) CopySkills() map[string]float64 {
	if a == nil || a.Skills == nil {
		return nil
	}
	return maps.Clone(a.Skills)
}

// Unconscious reports whether the agent is alive but unable to act.
func (a *Agent) Unconscious() bool {
	return a != nil && !a.Dead && a.Vitals.Vitality() <= MinVitality
}

// Active reports whether the agent exists, is alive and can act for itself.
func (a *Agent) Active() bool {
	return a != nil && !a.Dead && !a.Removed && !a.Unconscious()
}
