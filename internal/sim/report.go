package sim

// TickReport summarises one simulation step.
type TickReport struct {
	Seq     uint64        `json:"seq"`
	Elapsed float64       `json:"elapsed"`
	Events  []string      `json:"events,omitempty"`
	Died    []string      `json:"died,omitempty"`
	Agents  []AgentReport `json:"agents"`
}

// AgentReport is the state of one controlled agent after a tick.
type AgentReport struct {
	ID       string  `json:"id"`
	Hull     string  `json:"hull"`
	Vitality float64 `json:"vitality"`
	Active   bool    `json:"active"`
	// Objective is the kind of the objective that ran, empty when none did.
	Objective string  `json:"objective,omitempty"`
	Priority  float64 `json:"priority,omitempty"`
	Order     string  `json:"order,omitempty"`
	// Targets are the ids tracked by the agent's "rescue all" goal.
	Targets []string `json:"targets,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Agent returns the report of the agent with id.
func (r TickReport) Agent(id string) (AgentReport, bool) {
	for _, a := range r.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentReport{}, false
}
