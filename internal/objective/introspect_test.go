package objective

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntrospection(t *testing.T) {
	t.Parallel()

	m := NewManager()
	view := m.View()
	assert.False(t, IsCurrentObjective[*stub](view))

	a := newStub("a", 20)
	require.NoError(t, m.Register(a))
	require.NoError(t, m.Tick(tickAt(1)))

	assert.True(t, IsCurrentObjective[*stub](view))
	assert.False(t, IsCurrentObjective[*otherStub](view))
	assert.False(t, IsCurrentOrder[*stub](view))

	o := &otherStub{stub: newStub("ordered", 1)}
	require.NoError(t, m.SetCurrentOrder(o))
	require.NoError(t, m.Tick(tickAt(2)))
	assert.True(t, IsCurrentObjective[*otherStub](view))
	assert.True(t, IsCurrentOrder[*otherStub](view))
	assert.True(t, HasActiveObjective[*otherStub](view))
}

func TestHasActiveObjectiveWalksChildren(t *testing.T) {
	t.Parallel()

	p := newFakePolicy(&fakeTarget{id: "x", urgency: 10, valid: true})
	l := NewLoop[*fakeTarget]("loop", p)
	m := NewManager()
	require.NoError(t, m.Register(l))
	require.NoError(t, m.Tick(tickAt(1)))

	view := m.View()
	assert.True(t, IsCurrentObjective[*Loop[*fakeTarget]](view))
	assert.False(t, IsCurrentObjective[*stub](view))
	assert.True(t, HasActiveObjective[*stub](view))
	assert.False(t, HasActiveObjective[*otherStub](view))
}

func TestViewIsReadOnly(t *testing.T) {
	t.Parallel()

	view := NewManager().View()
	_, ok := view.(*Manager)
	assert.False(t, ok)
}

func TestIntrospectionNil(t *testing.T) {
	t.Parallel()
	assert.False(t, IsCurrentObjective[*stub](nil))
	assert.False(t, IsCurrentOrder[*stub](nil))
	assert.False(t, HasActiveObjective[*stub](nil))
}
