package scenario_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/streamtest/internal/scenario"
)

func TestLuaExpressionAndStatement(t *testing.T) {
	env := scenario.NewLuaEnv()

	expr, err := env.Compile("value + 1")
	require.NoError(t, err)
	res, err := env.Call(expr, 41)
	require.NoError(t, err)
	assert.Equal(t, 42, res)

	stmt, err := env.Compile(`
		local doubled = value * 2
		return doubled + 0.5
	`)
	require.NoError(t, err)
	res, err = env.Call(stmt, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 4.5, res)
}

func TestLuaExpressionMentioningReturn(t *testing.T) {
	env := scenario.NewLuaEnv()
	script, err := env.Compile("value.returned > 0")
	require.NoError(t, err)

	ok, err := env.Test(script, map[string]any{"returned": 3.0})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.Test(script, map[string]any{"returned": 0.0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLuaTables(t *testing.T) {
	env := scenario.NewLuaEnv()

	script, err := env.Compile(
		"return { name = value.name, tags = { 'a', 'b' }, n = #value.items }",
	)
	require.NoError(t, err)
	res, err := env.Call(script, map[string]any{
		"name":  "widget",
		"items": []any{1.0, 2.0, 3.0},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name": "widget",
		"tags": []any{"a", "b"},
		"n":    3,
	}, res)
}

func TestLuaTest(t *testing.T) {
	env := scenario.NewLuaEnv()
	script, err := env.Compile("value == 'yes'")
	require.NoError(t, err)

	ok, err := env.Test(script, "yes")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.Test(script, "no")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLuaSandbox(t *testing.T) {
	env := scenario.NewLuaEnv()
	script, err := env.Compile("return os == nil and io == nil and load == nil")
	require.NoError(t, err)
	ok, err := env.Test(script, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLuaErrors(t *testing.T) {
	env := scenario.NewLuaEnv()
	_, err := env.Compile("return +")
	assert.ErrorIs(t, err, scenario.ErrLuaCompile)

	script, err := env.Compile("return value.missing.field")
	require.NoError(t, err)
	_, err = env.Call(script, map[string]any{})
	assert.ErrorIs(t, err, scenario.ErrLuaExecution)

	_, err = env.Call("not compiled", nil)
	assert.ErrorIs(t, err, scenario.ErrLuaBadCompiledType)
}

func TestLuaCompileCaches(t *testing.T) {
	env := scenario.NewLuaEnv()
	first, err := env.Compile("value")
	require.NoError(t, err)
	second, err := env.Compile("value")
	require.NoError(t, err)
	assert.Same(t, first, second)
}
