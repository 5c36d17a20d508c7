package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFacts(t *testing.T) {
	t.Parallel()

	var facts Facts
	assert.Zero(t, facts.Len())
	assert.Empty(t, facts.Names())
	assert.False(t, facts.Bool("treated"))
	_, ok := facts.Get("treated")
	assert.False(t, ok)

	assert.True(t, facts.Set("treated", false), "first record is a change")
	assert.False(t, facts.Set("treated", false))
	assert.True(t, facts.Set("treated", true))
	assert.True(t, facts.Bool("treated"))

	facts.Set("hull", "medbay")
	facts.Set("atTarget", true)
	assert.False(t, facts.Bool("hull"), "non-bool reads as false")
	assert.Equal(t, []Fact{"atTarget", "hull", "treated"}, facts.Names())
	assert.Equal(t, "atTarget=true hull=medbay treated=true", facts.String())

	facts.Forget("hull")
	v, ok := facts.Get("hull")
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, 2, facts.Len())
}
