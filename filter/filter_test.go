package filter

import (
	"testing"

	"github.com/antonmedv/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcriess/lightspeed-court/types"
)

func TestFilterMatch(t *testing.T) {
	actor := types.Actor{CharName: "Phoenix", IPID: "abc"}
	ban := types.NewBanEvent(actor, "mod", "1h")
	ooc := types.NewOOCEvent(actor, "Lobby", "Main", "!roll")
	ic := types.NewICEvent(actor, "Lobby", "Main", "Objection!")

	f, err := Compile(`Kind in ["ban", "kick"] || (Kind == "ooc" && HasPrefix(Message, "!"))`)
	require.NoError(t, err)
	assert.True(t, f.Match(ban))
	assert.True(t, f.Match(ooc))
	assert.False(t, f.Match(ic))
	assert.False(t, f.Match(nil))

	f, err = Compile(`CharName == "Phoenix" && Area == "Lobby"`)
	require.NoError(t, err)
	assert.True(t, f.Match(ic))
	assert.False(t, f.Match(ban))
}

func TestEmptyFilterMatchesEverything(t *testing.T) {
	f, err := Compile("  ")
	require.NoError(t, err)
	assert.True(t, f.Match(types.NewConnectEvent(types.Actor{})))

	var nilFilter *Filter
	assert.True(t, nilFilter.Match(types.NewConnectEvent(types.Actor{})))
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(`Kind ==`)
	assert.Error(t, err)
	_, err = Compile(`Unknown == 1`)
	assert.Error(t, err)
	_, err = Compile(`Kind`)
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	env := NewEnv(types.NewCommandEvent(types.Actor{}, "Lobby", "Main", "ban", "abc 3600 spam"))
	res, err := expr.Eval(`AsInt(AsStringSlice(Args)[1]) > 60`, env)
	require.NoError(t, err)
	assert.Equal(t, true, res)
	assert.Equal(t, 0.5, AsFloat("0.5"))
	assert.Equal(t, int64(0), AsInt("x"))
}
