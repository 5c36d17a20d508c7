// Package crew implements the standing duties every crew member carries
// besides rescue: idling, fleeing unsafe hulls and fighting hostiles in the
// same hull. Each is an objective.Behavior ticking a small behaviour tree.
package crew

import (
	"errors"
	"log/slog"

	"github.com/joeycumines/crew-scheduler/internal/world"
)

// Objective kinds.
const (
	KindIdle       = "idle"
	KindFindSafety = "find safety"
	KindCombat     = "combat"
)

var (
	errIncapacitated = errors.New("agent incapacitated")
	errNoSafeHull    = errors.New("no safe hull reachable")
)

// Settings are the tunables of the standing duties.
type Settings struct {
	IdlePriority       float64
	FindSafetyPriority float64
	CombatPriority     float64
	// CombatDamage is the health removed from a hostile per second, before
	// the attacker's weapons skill bonus.
	CombatDamage float64
	// WeaponsSkill names the skill scaling combat damage.
	WeaponsSkill string
}

// DefaultSettings returns the stock tuning.
func DefaultSettings() Settings {
	return Settings{
		IdlePriority:       5,
		FindSafetyPriority: 90,
		CombatPriority:     95,
		CombatDamage:       25,
		WeaponsSkill:       "weapons",
	}
}

// Env is what an objective knows about its owner: the agent it drives, the
// world it observes, and the owner's own perception of unsafe hulls.
type Env struct {
	Self       *world.Agent
	World      *world.World
	Perception world.Perception
	Logger     *slog.Logger
}

// Log returns the configured logger, or slog.Default().
func (e Env) Log() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// IsUnsafe reports whether the owner perceives hull as unsafe. Without a
// perception nothing is unsafe.
func (e Env) IsUnsafe(hull world.HullID) bool {
	return e.Perception != nil && e.Perception.IsUnsafe(hull)
}
