package rescue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/crew-scheduler/internal/crew"
	"github.com/joeycumines/crew-scheduler/internal/objective"
	"github.com/joeycumines/crew-scheduler/internal/world"
)

func TestIsValidTarget(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name  string
		setup func(t *testing.T, f *fixture) (Env, *world.Agent)
		want  bool
	}{
		{
			name: "injured crew member",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				return f.env(nil, nil), f.injured(t, "a", "corridor", 30)
			},
			want: true,
		},
		{
			name: "nil target",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				return f.env(nil, nil), nil
			},
		},
		{
			name: "dead",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				a := f.injured(t, "a", "corridor", 30)
				a.Dead = true
				return f.env(nil, nil), a
			},
		},
		{
			name: "removed",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				a := f.injured(t, "a", "corridor", 30)
				require.True(t, f.world.RemoveAgent("a"))
				return f.env(nil, nil), a
			},
		},
		{
			name: "other team",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				return f.env(nil, nil), f.add(t, &world.Agent{ID: "r", Team: "raiders", Hull: "corridor", Vitals: world.Vitals{Health: 30}})
			},
		},
		{
			name: "healthy enough",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				return f.env(nil, nil), f.injured(t, "a", "corridor", 85)
			},
		},
		{
			name: "healthy enough but ordered",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				_, env := f.orderedManager(t, nil)
				return env, f.injured(t, "a", "corridor", 85)
			},
			want: true,
		},
		{
			name: "self below the order threshold",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				f.self.Vitals.Health = 90
				return f.env(nil, nil), f.self
			},
			want: true,
		},
		{
			name: "other structure",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				return f.env(nil, nil), f.injured(t, "a", "dock", 30)
			},
		},
		{
			name: "no hull",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				return f.env(nil, nil), f.injured(t, "a", "", 30)
			},
		},
		{
			name: "rescuer has no hull",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				f.self.Hull = ""
				return f.env(nil, nil), f.injured(t, "a", "corridor", 30)
			},
		},
		{
			name: "unsafe hull",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				unsafe := world.UnsafeHulls{}
				unsafe.Mark("corridor")
				return f.env(nil, unsafe), f.injured(t, "a", "corridor", 30)
			},
		},
		{
			name: "unsafe hull but ordered",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				unsafe := world.UnsafeHulls{}
				unsafe.Mark("corridor")
				_, env := f.orderedManager(t, unsafe)
				return env, f.injured(t, "a", "corridor", 30)
			},
			want: true,
		},
		{
			name: "busy fighting",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				a := f.injured(t, "a", "corridor", 30)
				f.peers.views["a"] = fakeView{current: crew.NewCombat(crew.Env{Self: a, World: f.world}, crew.DefaultSettings())}
				return f.env(nil, nil), a
			},
		},
		{
			name: "busy fleeing under orders",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				a := f.injured(t, "a", "corridor", 30)
				f.peers.views["a"] = fakeView{order: crew.NewFindSafety(crew.Env{Self: a, World: f.world}, crew.DefaultSettings())}
				return f.env(nil, nil), a
			},
		},
		{
			name: "busy but unconscious",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				a := f.injured(t, "a", "corridor", 0)
				f.peers.views["a"] = fakeView{current: crew.NewCombat(crew.Env{Self: a, World: f.world}, crew.DefaultSettings())}
				return f.env(nil, nil), a
			},
			want: true,
		},
		{
			name: "players are never busy",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				a := f.injured(t, "a", "corridor", 30)
				a.Player = true
				f.peers.views["a"] = fakeView{current: crew.NewCombat(crew.Env{Self: a, World: f.world}, crew.DefaultSettings())}
				return f.env(nil, nil), a
			},
			want: true,
		},
		{
			name: "idle peer",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				a := f.injured(t, "a", "corridor", 30)
				f.peers.views["a"] = fakeView{current: crew.NewIdle(crew.Env{Self: a, World: f.world}, crew.DefaultSettings())}
				return f.env(nil, nil), a
			},
			want: true,
		},
		{
			name: "hostile in the target hull",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				f.add(t, &world.Agent{ID: "r", Team: "raiders", Hull: "corridor", Vitals: world.Vitals{Health: 100, Oxygen: 100}})
				return f.env(nil, nil), f.injured(t, "a", "corridor", 30)
			},
		},
		{
			name: "dead hostile in the target hull",
			setup: func(t *testing.T, f *fixture) (Env, *world.Agent) {
				f.add(t, &world.Agent{ID: "r", Team: "raiders", Hull: "corridor", Dead: true})
				return f.env(nil, nil), f.injured(t, "a", "corridor", 30)
			},
			want: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			env, target := tc.setup(t, f)
			got := IsValidTarget(env, target)
			assert.Equal(t, tc.want, got)
			// unchanged world, unchanged answer
			assert.Equal(t, got, IsValidTarget(env, target))
		})
	}
}

func TestThreshold(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.injured(t, "a", "corridor", 30)

	assert.Equal(t, 80.0, Threshold(f.env(nil, nil), a))
	assert.Equal(t, 100.0, Threshold(f.env(nil, nil), f.self))

	_, env := f.orderedManager(t, nil)
	assert.True(t, env.Ordered())
	assert.Equal(t, 100.0, Threshold(env, a))
}

func TestAllEvaluate(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name    string
		setup   func(t *testing.T, f *fixture)
		ordered bool
		targets []float64
		want    float64
	}{
		{
			name:    "alone",
			targets: []float64{30},
			want:    30,
		},
		{
			name:    "worst target wins",
			targets: []float64{50, 30, 70},
			want:    30,
		},
		{
			name: "enough rescuers",
			setup: func(t *testing.T, f *fixture) {
				f.engagedPeer(t, "p", "medicaldoctor", 50)
			},
			targets: []float64{30},
			want:    100,
		},
		{
			name: "more targets than better rescuers",
			setup: func(t *testing.T, f *fixture) {
				f.engagedPeer(t, "p", "medicaldoctor", 50)
			},
			targets: []float64{30, 60},
			want:    15,
		},
		{
			name: "non-medic doubles while a medic exists",
			setup: func(t *testing.T, f *fixture) {
				f.self.Job = "captain"
				f.self.Skills = nil
				f.engagedPeer(t, "p", "medicaldoctor", 50)
			},
			targets: []float64{30, 60},
			want:    30,
		},
		{
			name: "less skilled peer",
			setup: func(t *testing.T, f *fixture) {
				f.engagedPeer(t, "p", "medicaldoctor", 10)
			},
			targets: []float64{30},
			want:    30,
		},
		{
			name: "peer not engaged",
			setup: func(t *testing.T, f *fixture) {
				f.engagedPeer(t, "p", "medicaldoctor", 50)
				f.peers.peers[0].Objectives = fakeView{}
			},
			targets: []float64{30},
			want:    30,
		},
		{
			name: "peer without skill information",
			setup: func(t *testing.T, f *fixture) {
				f.engagedPeer(t, "p", "engineer", 50)
				f.peers.peers[0].Skills = nil
			},
			targets: []float64{30},
			want:    30,
		},
		{
			name: "ordered ignores better rescuers",
			setup: func(t *testing.T, f *fixture) {
				f.engagedPeer(t, "p", "medicaldoctor", 50)
			},
			ordered: true,
			targets: []float64{30},
			want:    30,
		},
		{
			name: "ordered still divides by coverage",
			setup: func(t *testing.T, f *fixture) {
				f.engagedPeer(t, "p", "medicaldoctor", 50)
				f.engagedPeer(t, "q", "medicaldoctor", 50)
			},
			ordered: true,
			targets: []float64{30},
			want:    60,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			if tc.setup != nil {
				tc.setup(t, f)
			}
			var all *All
			if tc.ordered {
				m, _ := f.orderedManager(t, nil)
				all = m.CurrentOrder().(*All)
			} else {
				all = NewAll(f.env(nil, nil))
			}
			var tracked []*world.Agent
			for i, v := range tc.targets {
				tracked = append(tracked, f.injured(t, world.AgentID(rune('a'+i)), "corridor", v))
			}
			assert.InDelta(t, tc.want, all.Evaluate(tracked), 1e-9)
		})
	}
}

func TestAllIsInverseAndForceRun(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.injured(t, "a", "corridor", 30)
	all := NewAll(f.env(nil, nil))
	assert.True(t, all.ForceRun())
	assert.Equal(t, KindAll, all.Kind())

	all.Reconcile(tickAt(1))
	assert.Equal(t, []string{"a"}, all.TargetIDs())
	assert.InDelta(t, 70, all.RecomputePriority(), 1e-9)

	child, ok := all.Child("a")
	require.True(t, ok)
	r, ok := child.(*Rescue)
	require.True(t, ok)
	assert.Equal(t, world.AgentID("a"), r.Target())
}

// A target at vitality 30 is tracked; once treated to 80 it is released and
// its Rescue completes.
func TestRescueAllTreatsUntilHealthy(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.injured(t, "a", "medbay", 30)

	m := objective.NewManager()
	all := NewAll(f.env(m.View(), nil))
	require.NoError(t, m.Register(all))

	require.NoError(t, m.Tick(tickAt(1)))
	assert.Same(t, objective.Objective(all), m.CurrentObjective())
	child, ok := all.Child("a")
	require.True(t, ok)

	for seq := uint64(2); seq <= 20 && all.Tracks("a"); seq++ {
		require.NoError(t, m.Tick(tickAt(seq)))
	}
	assert.False(t, all.Tracks("a"))
	assert.True(t, child.IsCompleted())
	assert.GreaterOrEqual(t, a.Vitals.Vitality(), 80.0)
	assert.Equal(t, world.HullID("medbay"), f.self.Hull)
}

func TestRescueAllReleasesRecoveredTarget(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.injured(t, "a", "engine", 30)
	all := NewAll(f.env(nil, nil))

	require.NoError(t, all.Update(tickAt(1)))
	child, ok := all.Child("a")
	require.True(t, ok)

	a.Vitals.Health = 85
	all.Reconcile(tickAt(2))
	assert.False(t, all.Tracks("a"))
	assert.True(t, child.IsAbandoned())
}

func TestRescueAllUnsafeHull(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.injured(t, "a", "corridor", 30)
	unsafe := world.UnsafeHulls{}
	unsafe.Mark("corridor")

	all := NewAll(f.env(nil, unsafe))
	all.Reconcile(tickAt(1))
	assert.False(t, all.Tracks("a"))

	m, _ := f.orderedManager(t, unsafe)
	order := m.CurrentOrder().(*All)
	order.Reconcile(tickAt(1))
	assert.True(t, order.Tracks("a"))
}

func TestRescueAllOrderOutranksCombat(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.add(t, &world.Agent{ID: "r", Team: "raiders", Hull: "medbay", Vitals: world.Vitals{Health: 100, Oxygen: 100}})
	f.injured(t, "a", "corridor", 90)

	m := objective.NewManager()
	combat := crew.NewCombat(f.env(nil, nil).Env, crew.DefaultSettings())
	require.NoError(t, m.Register(combat))
	env := f.env(m.View(), nil)
	order := NewAll(env)
	require.NoError(t, m.SetCurrentOrder(order))

	require.NoError(t, m.Tick(tickAt(1)))
	assert.Same(t, objective.Objective(order), m.CurrentObjective())
	assert.Equal(t, 95.0, combat.Priority())
	assert.InDelta(t, 10, order.Priority(), 1e-9)
	assert.True(t, order.Tracks("a"))
}

func TestRescueAllHoldsOnlyWhileOrdered(t *testing.T) {
	t.Parallel()

	t.Run("ordered", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m, env := f.orderedManager(t, nil)
		order := m.CurrentOrder()
		require.NotNil(t, order)
		for seq := uint64(1); seq <= 3; seq++ {
			require.NoError(t, m.Tick(tickAt(seq)))
			assert.False(t, order.State().Terminal())
			assert.Same(t, order, m.CurrentOrder())
			assert.True(t, env.Ordered())
		}

		a := f.injured(t, "a", "corridor", 60)
		assert.True(t, IsValidTarget(env, a))
		require.NoError(t, m.Tick(tickAt(4)))
		assert.True(t, order.(*All).Tracks("a"))
		assert.Same(t, order, m.CurrentObjective())
	})

	t.Run("not ordered", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := objective.NewManager()
		all := NewAll(f.env(m.View(), nil))
		assert.False(t, all.HoldWhenEmpty())
		require.NoError(t, all.Update(tickAt(1)))
		assert.True(t, all.IsCompleted())
	})
}

func TestRescueWalksThenTreats(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.injured(t, "a", "engine", 30)
	r, err := NewRescue(f.env(nil, nil), "a")
	require.NoError(t, err)
	assert.InDelta(t, 70, r.RecomputePriority(), 1e-9)

	var hulls []world.HullID
	for seq := uint64(1); seq <= 20 && !r.State().Terminal(); seq++ {
		require.NoError(t, r.Update(tickAt(seq)))
		hulls = append(hulls, f.self.Hull)
	}
	require.True(t, r.IsCompleted(), r.AbandonReason())
	assert.Contains(t, hulls, world.HullID("corridor"))
	assert.Equal(t, world.HullID("engine"), f.self.Hull)
	assert.GreaterOrEqual(t, a.Vitals.Vitality(), 80.0)
	assert.True(t, r.Facts().Bool(FactAtTarget))
	assert.True(t, r.Facts().Bool(FactTreated))
}

func TestRescueAbandons(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		mutate func(f *fixture, target *world.Agent)
		reason string
	}{
		{
			name:   "target removed",
			mutate: func(f *fixture, _ *world.Agent) { f.world.RemoveAgent("a") },
			reason: errTargetGone.Error(),
		},
		{
			name:   "target died",
			mutate: func(_ *fixture, a *world.Agent) { a.Dead = true },
			reason: errTargetDead.Error(),
		},
		{
			name:   "target unreachable",
			mutate: func(_ *fixture, a *world.Agent) { a.Hull = "dock" },
			reason: errUnreachable.Error(),
		},
		{
			name:   "rescuer incapacitated",
			mutate: func(f *fixture, _ *world.Agent) { f.self.Vitals.Health = 0 },
			reason: errIncapacitated.Error(),
		},
		{
			name:   "rescuer removed",
			mutate: func(f *fixture, _ *world.Agent) { f.world.RemoveAgent("self") },
			reason: errRescuerRemoved.Error(),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			a := f.injured(t, "a", "engine", 30)
			r, err := NewRescue(f.env(nil, nil), "a")
			require.NoError(t, err)
			require.NoError(t, r.Update(tickAt(1)))
			require.Equal(t, objective.Active, r.State())

			tc.mutate(f, a)
			require.NoError(t, r.Update(tickAt(2)))
			assert.True(t, r.IsAbandoned())
			assert.Equal(t, tc.reason, r.AbandonReason())
			assert.Equal(t, 0.0, r.RecomputePriority())
		})
	}
}

func TestTreat(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		in     world.Vitals
		amount float64
		want   world.Vitals
	}{
		{
			name:   "every deficit recovers",
			in:     world.Vitals{Health: 50, Bleeding: 20, Bloodloss: 10, Oxygen: -30},
			amount: 15,
			want:   world.Vitals{Health: 65, Bleeding: 5, Bloodloss: 0, Oxygen: -15},
		},
		{
			name:   "bounded by healthy values",
			in:     world.Vitals{Health: 95, Oxygen: -5},
			amount: 15,
			want:   world.Vitals{Health: 100, Oxygen: 0},
		},
		{
			name:   "positive oxygen untouched",
			in:     world.Vitals{Health: 40, Oxygen: 60},
			amount: 10,
			want:   world.Vitals{Health: 50, Oxygen: 60},
		},
		{
			name:   "zero amount",
			in:     world.Vitals{Health: 40, Bleeding: 5},
			amount: 0,
			want:   world.Vitals{Health: 40, Bleeding: 5},
		},
		{
			name:   "negative amount",
			in:     world.Vitals{Health: 40},
			amount: -10,
			want:   world.Vitals{Health: 40},
		},
		{
			name:   "NaN amount",
			in:     world.Vitals{Health: 40},
			amount: math.NaN(),
			want:   world.Vitals{Health: 40},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v := tc.in
			Treat(&v, tc.amount)
			assert.Equal(t, tc.want, v)
		})
	}
}
