package domain_test

import (
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	state, out := domain.Noop[string, string]().Run("state")
	assert.Equal(t, "state", state)
	assert.Nil(t, out)
}

func TestEmitOutput(t *testing.T) {
	state, out := domain.EmitOutput[string]("foo").Run("state")
	assert.Equal(t, "state", state)
	require.NotNil(t, out)
	assert.Equal(t, "foo", *out)
}

func TestEnterState(t *testing.T) {
	state, out := domain.EnterState[string, int]("next").Run("state")
	assert.Equal(t, "next", state)
	assert.Nil(t, out)

	state, out = domain.EnterStateAndEmit("next", 3).Run("state")
	assert.Equal(t, "next", state)
	require.NotNil(t, out)
	assert.Equal(t, 3, *out)
}

func TestAction_NilIsNoop(t *testing.T) {
	var a *domain.Action[int, int]
	state, out := a.Run(7)
	assert.Equal(t, 7, state)
	assert.Nil(t, out)
	assert.Equal(t, "anonymous", a.String())
}

func TestAction_ApplyTwiceIsPure(t *testing.T) {
	inc := domain.NewAction("inc", func(s int) (int, *string) { return s + 1, nil })

	first, _ := inc.Run(1)
	second, _ := inc.Run(1)
	assert.Equal(t, first, second)
	assert.Equal(t, "inc", inc.String())
}

func TestIdentity_String(t *testing.T) {
	assert.Equal(t, "tree", domain.NewIdentity("tree", "").String())
	assert.Equal(t, "tree#leaf", domain.NewIdentity("tree", "leaf").String())

	path := domain.Path{}.Child(domain.NewIdentity("tree", "middle")).Child(domain.NewIdentity("tree", "leaf"))
	assert.Equal(t, "/tree#middle/tree#leaf", path.String())
	assert.Equal(t, "/", domain.Path{}.String())
}

func TestIdentity_Structural(t *testing.T) {
	assert.Equal(t, domain.NewIdentity("a", "k"), domain.Identity{Type: "a", Key: "k"})
	assert.NotEqual(t, domain.NewIdentity("a", "k"), domain.NewIdentity("b", "k"))
	assert.NotEqual(t, domain.NewIdentity("a", "k"), domain.NewIdentity("a", ""))
}
