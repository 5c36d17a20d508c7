package sim

import (
	"math"

	"github.com/joeycumines/crew-scheduler/internal/world"
)

// Effects are the per-second rates of the world's own dynamics.
type Effects struct {
	// BloodlossRate converts bleeding into accumulated bloodloss.
	BloodlossRate float64
	// OxygenDrain is lost per second in a flooded hull.
	OxygenDrain float64
	// OxygenRecovery is regained per second elsewhere, up to 100.
	OxygenRecovery float64
}

// DefaultEffects returns the stock rates.
func DefaultEffects() Effects {
	return Effects{
		BloodlossRate:  0.5,
		OxygenDrain:    20,
		OxygenRecovery: 10,
	}
}

// Fatal thresholds.
const (
	fatalHealth    = -100
	fatalBloodloss = 100
	fatalOxygen    = -100
)

// apply advances every living agent by dt seconds, returning the agents that
// died during this step, in id order.
func (e Effects) apply(w *world.World, dt float64) (died []world.AgentID) {
	for a := range w.Agents() {
		if a.Dead {
			continue
		}
		v := &a.Vitals
		if v.Bleeding > 0 {
			v.Bloodloss += v.Bleeding * e.BloodlossRate * dt
		}
		if h, ok := w.Hull(a.Hull); ok && h.Flooded {
			v.Oxygen = math.Max(v.Oxygen-e.OxygenDrain*dt, fatalOxygen)
		} else if v.Oxygen < 100 {
			v.Oxygen = math.Min(v.Oxygen+e.OxygenRecovery*dt, 100)
		}
		if v.Health <= fatalHealth || v.Bloodloss >= fatalBloodloss || v.Oxygen <= fatalOxygen {
			a.Dead = true
			died = append(died, a.ID)
		}
	}
	return died
}
