package rescue

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/joeycumines/crew-scheduler/internal/behavior"
	"github.com/joeycumines/crew-scheduler/internal/world"
)

// VitalityEnv is the environment of a custom vitality formula.
type VitalityEnv struct {
	Health    float64
	Bleeding  float64
	Bloodloss float64
	Oxygen    float64
}

// Evaluator computes need-intensity (vitality) for rescue candidates: lower
// is worse off. The result is always within [world.MinVitality,
// world.MaxVitality].
type Evaluator struct {
	formula *behavior.Formula
	logger  *slog.Logger
}

// NewEvaluator creates an Evaluator. An empty formula selects
// world.Vitals.Vitality.
func NewEvaluator(formula string, logger *slog.Logger) (*Evaluator, error) {
	e := &Evaluator{logger: logger}
	if formula != "" {
		f, err := behavior.CompileFormula(formula, VitalityEnv{})
		if err != nil {
			return nil, fmt.Errorf("vitality formula: %w", err)
		}
		e.formula = f
	}
	return e, nil
}

// DefaultEvaluator uses the stock vitality formula.
var DefaultEvaluator = &Evaluator{}

// Vitality returns the clamped need-intensity of a. A missing agent reads as
// fully healthy, so it never looks like a rescue candidate.
func (e *Evaluator) Vitality(a *world.Agent) float64 {
	if a == nil {
		return world.MaxVitality
	}
	if e == nil || e.formula == nil {
		return a.Vitals.Vitality()
	}
	v, err := e.formula.Eval(VitalityEnv{
		Health:    a.Vitals.Health,
		Bleeding:  a.Vitals.Bleeding,
		Bloodloss: a.Vitals.Bloodloss,
		Oxygen:    a.Vitals.Oxygen,
	})
	if err != nil {
		e.log().Debug("vitality formula failed, using default", "agent", a.ID, "error", err)
		return a.Vitals.Vitality()
	}
	return clampVitality(v)
}

func (e *Evaluator) log() *slog.Logger {
	if e.logger == nil {
		return slog.Default()
	}
	return e.logger
}

func clampVitality(v float64) float64 {
	if math.IsNaN(v) || v < world.MinVitality {
		return world.MinVitality
	}
	return math.Min(v, world.MaxVitality)
}
