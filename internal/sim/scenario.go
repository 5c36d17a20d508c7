package sim

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joeycumines/crew-scheduler/internal/crew"
	"github.com/joeycumines/crew-scheduler/internal/rescue"
	"github.com/joeycumines/crew-scheduler/internal/world"
)

// Event kinds.
const (
	EventDamage = "damage"
	EventFlood  = "flood"
	EventDrain  = "drain"
	EventOrder  = "order"
	EventRevoke = "revoke"
	EventRemove = "remove"
	EventMove   = "move"
)

// Scenario is a YAML-described world plus a timeline of events.
type Scenario struct {
	Name       string          `yaml:"name"`
	Structures []StructureSpec `yaml:"structures"`
	Hulls      []HullSpec      `yaml:"hulls"`
	Agents     []AgentSpec     `yaml:"agents"`
	Events     []Event         `yaml:"events"`
}

// StructureSpec describes a world.Structure.
type StructureSpec struct {
	ID   string `yaml:"id"`
	Team string `yaml:"team"`
}

// HullSpec describes a world.Hull. Neighbour links are bidirectional.
type HullSpec struct {
	ID         string   `yaml:"id"`
	Structure  string   `yaml:"structure"`
	Flooded    bool     `yaml:"flooded"`
	Breached   bool     `yaml:"breached"`
	Neighbours []string `yaml:"neighbours"`
}

// AgentSpec describes a world.Agent. Omitted vitals mean fully healthy.
type AgentSpec struct {
	ID     string             `yaml:"id"`
	Name   string             `yaml:"name"`
	Team   string             `yaml:"team"`
	Job    string             `yaml:"job"`
	Skills map[string]float64 `yaml:"skills"`
	Vitals *world.Vitals      `yaml:"vitals"`
	Hull   string             `yaml:"hull"`
	Player bool               `yaml:"player"`
	Dead   bool               `yaml:"dead"`
}

// Event is a scheduled change to the world or to an agent's orders.
type Event struct {
	Tick  uint64 `yaml:"tick"`
	Kind  string `yaml:"kind"`
	Agent string `yaml:"agent,omitempty"`
	Hull  string `yaml:"hull,omitempty"`
	// Order is the objective kind of an order event.
	Order string `yaml:"order,omitempty"`
	// Damage is subtracted from health, Bleeding added to bleeding.
	Damage   float64 `yaml:"damage,omitempty"`
	Bleeding float64 `yaml:"bleeding,omitempty"`
}

func (e Event) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d:%s", e.Tick, e.Kind)
	if e.Agent != "" {
		fmt.Fprintf(&b, " agent=%s", e.Agent)
	}
	if e.Hull != "" {
		fmt.Fprintf(&b, " hull=%s", e.Hull)
	}
	if e.Order != "" {
		fmt.Fprintf(&b, " order=%q", e.Order)
	}
	return b.String()
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	return &sc, nil
}

// Validate reports every problem in sc, joined; nil means Build will
// succeed.
func (sc *Scenario) Validate() error {
	var errs []error
	issue := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	structures := map[string]bool{}
	for i, s := range sc.Structures {
		switch {
		case s.ID == "":
			issue("structures[%d]: missing id", i)
		case structures[s.ID]:
			issue("structures[%d]: duplicate id %q", i, s.ID)
		}
		structures[s.ID] = true
	}

	hulls := map[string]bool{}
	for i, h := range sc.Hulls {
		switch {
		case h.ID == "":
			issue("hulls[%d]: missing id", i)
		case hulls[h.ID]:
			issue("hulls[%d]: duplicate id %q", i, h.ID)
		}
		hulls[h.ID] = true
		if h.Structure != "" && !structures[h.Structure] {
			issue("hulls[%d]: unknown structure %q", i, h.Structure)
		}
	}
	for i, h := range sc.Hulls {
		for _, n := range h.Neighbours {
			if !hulls[n] {
				issue("hulls[%d]: unknown neighbour %q", i, n)
			}
		}
	}

	agents := map[string]bool{}
	for i, a := range sc.Agents {
		switch {
		case a.ID == "":
			issue("agents[%d]: missing id", i)
		case agents[a.ID]:
			issue("agents[%d]: duplicate id %q", i, a.ID)
		}
		agents[a.ID] = true
		if a.Hull != "" && !hulls[a.Hull] {
			issue("agents[%d]: unknown hull %q", i, a.Hull)
		}
	}

	for i, e := range sc.Events {
		if e.Tick == 0 {
			issue("events[%d]: tick must be at least 1", i)
		}
		needAgent, needHull := false, false
		switch e.Kind {
		case EventDamage, EventRevoke, EventRemove:
			needAgent = true
		case EventFlood, EventDrain:
			needHull = true
		case EventMove:
			needAgent, needHull = true, true
		case EventOrder:
			needAgent = true
			switch e.Order {
			case rescue.KindAll, crew.KindFindSafety, crew.KindCombat:
			default:
				issue("events[%d]: unknown order %q", i, e.Order)
			}
		default:
			issue("events[%d]: unknown kind %q", i, e.Kind)
			continue
		}
		if needAgent && !agents[e.Agent] {
			issue("events[%d]: unknown agent %q", i, e.Agent)
		}
		if needHull && !hulls[e.Hull] {
			issue("events[%d]: unknown hull %q", i, e.Hull)
		}
	}
	return errors.Join(errs...)
}

// World builds the scenario's initial world.
func (sc *Scenario) World() (*world.World, error) {
	w := world.New()
	for _, s := range sc.Structures {
		if err := w.AddStructure(&world.Structure{ID: world.StructureID(s.ID), Team: s.Team}); err != nil {
			return nil, err
		}
	}
	for _, h := range sc.Hulls {
		if err := w.AddHull(&world.Hull{
			ID:        world.HullID(h.ID),
			Structure: world.StructureID(h.Structure),
			Flooded:   h.Flooded,
			Breached:  h.Breached,
		}); err != nil {
			return nil, err
		}
	}
	for _, h := range sc.Hulls {
		for _, n := range h.Neighbours {
			if err := w.Link(world.HullID(h.ID), world.HullID(n)); err != nil {
				return nil, err
			}
		}
	}
	for _, spec := range sc.Agents {
		vitals := world.Vitals{Health: world.MaxVitality, Oxygen: 100}
		if spec.Vitals != nil {
			vitals = *spec.Vitals
		}
		a := &world.Agent{
			ID:     world.AgentID(spec.ID),
			Name:   spec.Name,
			Team:   spec.Team,
			Job:    spec.Job,
			Skills: spec.Skills,
			Vitals: vitals,
			Hull:   world.HullID(spec.Hull),
			Player: spec.Player,
			Dead:   spec.Dead,
		}
		if err := w.AddAgent(a); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Build validates sc and returns a Simulation with its events scheduled.
func (sc *Scenario) Build(opts ...Option) (*Simulation, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", sc.Name, err)
	}
	w, err := sc.World()
	if err != nil {
		return nil, err
	}
	s, err := New(w, opts...)
	if err != nil {
		return nil, err
	}
	s.Schedule(sc.Events...)
	return s, nil
}

// apply performs one event against the simulation.
func (s *Simulation) apply(e Event) error {
	id := world.AgentID(e.Agent)
	switch e.Kind {
	case EventDamage:
		a, ok := s.world.Agent(id)
		if !ok {
			return fmt.Errorf("damage %s: %w", id, world.ErrNotFound)
		}
		a.Vitals.Health -= e.Damage
		a.Vitals.Bleeding += e.Bleeding
	case EventFlood, EventDrain:
		h, ok := s.world.Hull(world.HullID(e.Hull))
		if !ok {
			return fmt.Errorf("%s %s: %w", e.Kind, e.Hull, world.ErrNotFound)
		}
		h.Flooded = e.Kind == EventFlood
		if e.Kind == EventDrain {
			h.Breached = false
		}
	case EventOrder:
		return s.IssueOrder(id, e.Order)
	case EventRevoke:
		return s.RevokeOrder(id)
	case EventRemove:
		if !s.RemoveAgent(id) {
			return fmt.Errorf("remove %s: %w", id, world.ErrNotFound)
		}
	case EventMove:
		return s.world.MoveAgent(id, world.HullID(e.Hull))
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return nil
}
