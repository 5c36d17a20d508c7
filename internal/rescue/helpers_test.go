package rescue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/crew-scheduler/internal/crew"
	"github.com/joeycumines/crew-scheduler/internal/objective"
	"github.com/joeycumines/crew-scheduler/internal/world"
)

type fakeView struct {
	current objective.Objective
	order   objective.Objective
}

func (v fakeView) CurrentObjective() objective.Objective { return v.current }
func (v fakeView) CurrentOrder() objective.Objective     { return v.order }

type fakePeers struct {
	views map[world.AgentID]objective.Introspector
	peers []Peer
}

func (f *fakePeers) Lookup(id world.AgentID) (objective.Introspector, bool) {
	v, ok := f.views[id]
	return v, ok
}

func (f *fakePeers) Peers(self world.AgentID) []Peer {
	var out []Peer
	for _, p := range f.peers {
		if p.ID != self {
			out = append(out, p)
		}
	}
	return out
}

type fixture struct {
	world *world.World
	self  *world.Agent
	peers *fakePeers
}

// newFixture builds a sub with medbay - corridor - engine, plus a hull
// "dock" on a separate outpost, and a medic "self" in the medbay.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := world.New()
	require.NoError(t, w.AddStructure(&world.Structure{ID: "sub", Team: "crew"}))
	require.NoError(t, w.AddStructure(&world.Structure{ID: "outpost", Team: "crew"}))
	for _, h := range []*world.Hull{
		{ID: "medbay", Structure: "sub"},
		{ID: "corridor", Structure: "sub"},
		{ID: "engine", Structure: "sub"},
		{ID: "dock", Structure: "outpost"},
	} {
		require.NoError(t, w.AddHull(h))
	}
	require.NoError(t, w.Link("medbay", "corridor"))
	require.NoError(t, w.Link("corridor", "engine"))

	self := &world.Agent{
		ID:     "self",
		Team:   "crew",
		Job:    "medicaldoctor",
		Skills: map[string]float64{"medical": 50},
		Vitals: world.Vitals{Health: 100, Oxygen: 100},
		Hull:   "medbay",
	}
	require.NoError(t, w.AddAgent(self))
	return &fixture{
		world: w,
		self:  self,
		peers: &fakePeers{views: make(map[world.AgentID]objective.Introspector)},
	}
}

func (f *fixture) add(t *testing.T, a *world.Agent) *world.Agent {
	t.Helper()
	if a.Team == "" {
		a.Team = "crew"
	}
	require.NoError(t, f.world.AddAgent(a))
	return a
}

func (f *fixture) injured(t *testing.T, id world.AgentID, hull world.HullID, health float64) *world.Agent {
	t.Helper()
	return f.add(t, &world.Agent{ID: id, Hull: hull, Vitals: world.Vitals{Health: health, Oxygen: 100}})
}

// env returns an Env for self; manager may be nil.
func (f *fixture) env(manager objective.Introspector, unsafe world.UnsafeHulls) Env {
	if unsafe == nil {
		unsafe = world.UnsafeHulls{}
	}
	return Env{
		Env: crew.Env{
			Self:       f.self,
			World:      f.world,
			Perception: unsafe,
		},
		Manager:  manager,
		Peers:    f.peers,
		Settings: DefaultSettings(),
	}
}

// engagedPeer registers a bot peer whose current objective is a rescue-all.
func (f *fixture) engagedPeer(t *testing.T, id world.AgentID, job string, skill float64) {
	t.Helper()
	a := f.add(t, &world.Agent{
		ID:     id,
		Job:    job,
		Skills: map[string]float64{"medical": skill},
		Vitals: world.Vitals{Health: 100, Oxygen: 100},
		Hull:   "corridor",
	})
	peerEnv := Env{Env: crew.Env{Self: a, World: f.world}, Settings: DefaultSettings()}
	view := fakeView{current: NewAll(peerEnv)}
	f.peers.views[id] = view
	f.peers.peers = append(f.peers.peers, Peer{ID: id, Job: job, Skills: a.CopySkills(), Objectives: view})
}

// orderedManager returns a manager whose current order is a rescue-all for
// self, and the env wired to it.
func (f *fixture) orderedManager(t *testing.T, unsafe world.UnsafeHulls) (*objective.Manager, Env) {
	t.Helper()
	m := objective.NewManager()
	env := f.env(m.View(), unsafe)
	require.NoError(t, m.SetCurrentOrder(NewAll(env)))
	return m, env
}

func tickAt(seq uint64) objective.Tick {
	return objective.Tick{Seq: seq, Delta: 1}
}
