package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/joeycumines/crew-scheduler/internal/rescue"
	"github.com/joeycumines/crew-scheduler/internal/sim"
)

// Scheduler materialises the scheduler tuning from the [rescue], [crew] and
// [effects] sections plus sim.switch-margin, starting from
// sim.DefaultSettings. Every malformed value is reported, joined.
func (c *Config) Scheduler(logger *slog.Logger) (sim.Settings, error) {
	s := sim.DefaultSettings()
	var errs []error

	float := func(section, key string, dst *float64) {
		v, ok := c.Sections[section][key]
		if !ok {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("option %q in [%s]: expected float, got %q", key, section, v))
			return
		}
		*dst = f
	}
	str := func(section, key string, dst *string) {
		if v, ok := c.Sections[section][key]; ok && v != "" {
			*dst = v
		}
	}

	float(SectionRescue, "vitality-threshold", &s.Rescue.VitalityThreshold)
	float(SectionRescue, "order-threshold", &s.Rescue.OrderThreshold)
	float(SectionRescue, "enough-rescuers", &s.Rescue.EnoughRescuers)
	float(SectionRescue, "non-medic-multiplier", &s.Rescue.NonMedicMultiplier)
	str(SectionRescue, "medical-skill", &s.Rescue.MedicalSkill)
	str(SectionRescue, "medic-job", &s.Rescue.MedicJob)
	float(SectionRescue, "treat-rate", &s.Rescue.TreatRate)

	float(SectionCrew, "idle-priority", &s.Crew.IdlePriority)
	float(SectionCrew, "find-safety-priority", &s.Crew.FindSafetyPriority)
	float(SectionCrew, "combat-priority", &s.Crew.CombatPriority)
	float(SectionCrew, "combat-damage", &s.Crew.CombatDamage)
	str(SectionCrew, "weapons-skill", &s.Crew.WeaponsSkill)

	float(SectionEffects, "bloodloss-rate", &s.Effects.BloodlossRate)
	float(SectionEffects, "oxygen-drain", &s.Effects.OxygenDrain)
	float(SectionEffects, "oxygen-recovery", &s.Effects.OxygenRecovery)

	if v, ok := c.GetGlobalOption("sim.switch-margin"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			errs = append(errs, fmt.Errorf("global option %q: expected non-negative float, got %q", "sim.switch-margin", v))
		} else {
			s.SwitchMargin = f
		}
	}

	if expr := c.Sections[SectionRescue]["vitality-expr"]; expr != "" {
		e, err := rescue.NewEvaluator(expr, logger)
		if err != nil {
			errs = append(errs, fmt.Errorf("option %q in [%s]: %w", "vitality-expr", SectionRescue, err))
		} else {
			s.Evaluator = e
		}
	}

	if err := errors.Join(errs...); err != nil {
		return sim.Settings{}, err
	}
	return s, nil
}
