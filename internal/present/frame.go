// Package present renders simulation state for humans: a lipgloss table of
// agents and their objectives, and a bubbletea model that steps a
// simulation live.
//
// The highlighted agent is process-wide presentation state, scoped to one
// frame (see BeginFrame). Nothing outside this package reads it.
package present

import (
	"github.com/joeycumines/crew-scheduler/internal/sim"
)

// Frame is everything one rendering shows.
type Frame struct {
	Run     string
	Seq     uint64
	Elapsed float64
	Rows    []Row
	Unsafe  []string
	Events  []string
	Died    []string
	Errors  []string
}

// Row is one agent.
type Row struct {
	ID        string
	Name      string
	Job       string
	Hull      string
	Vitality  float64
	Player    bool
	Dead      bool
	Active    bool
	Managed   bool
	Objective string
	Priority  float64
	Order     string
	Targets   []string
}

// Snapshot captures s after the tick that produced r. Every live agent gets
// a row, in id order; players and unmanaged agents have no objective.
func Snapshot(s *sim.Simulation, r sim.TickReport) Frame {
	f := Frame{
		Run:     s.RunID(),
		Seq:     r.Seq,
		Elapsed: r.Elapsed,
		Events:  r.Events,
		Died:    r.Died,
	}
	for _, h := range s.World().PerceiveHazards().Sorted() {
		f.Unsafe = append(f.Unsafe, string(h))
	}
	for a := range s.World().Agents() {
		row := Row{
			ID:       string(a.ID),
			Name:     a.Name,
			Job:      a.Job,
			Hull:     string(a.Hull),
			Vitality: a.Vitals.Vitality(),
			Player:   a.Player,
			Dead:     a.Dead,
			Active:   a.Active(),
		}
		if ar, ok := r.Agent(string(a.ID)); ok {
			row.Managed = true
			row.Vitality = ar.Vitality
			row.Objective = ar.Objective
			row.Priority = ar.Priority
			row.Order = ar.Order
			row.Targets = ar.Targets
			if ar.Error != "" {
				f.Errors = append(f.Errors, ar.ID+": "+ar.Error)
			}
		}
		f.Rows = append(f.Rows, row)
	}
	return f
}
