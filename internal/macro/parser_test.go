package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victortrac/inputcore/internal/keyboardlayout"
)

func testRuntime() *Runtime {
	return &Runtime{Layout: keyboardlayout.New()}
}

func TestIsMacro(t *testing.T) {
	assert.True(t, IsMacro("k(a)"))
	assert.True(t, IsMacro("a + b"))
	assert.False(t, IsMacro("a"))
	assert.False(t, IsMacro("key_a"))
}

func TestParseMacroSimpleKey(t *testing.T) {
	m, err := ParseMacro("k(a)", testRuntime())
	require.NoError(t, err)
	assert.Equal(t, "k(a)", m.Code)
}

func TestParseMacroChainedCalls(t *testing.T) {
	m, err := ParseMacro("k(a).k(b)", testRuntime())
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestParseMacroRepeat(t *testing.T) {
	m, err := ParseMacro("r(3, k(a))", testRuntime())
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestParseMacroPlusSyntaxDesugars(t *testing.T) {
	m, err := ParseMacro("a+b", testRuntime())
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestParseMacroRejectsMixedPlusAndCall(t *testing.T) {
	_, err := ParseMacro("a+k(b)", testRuntime())
	assert.Error(t, err)
}

func TestParseMacroRejectsUnknownFunction(t *testing.T) {
	_, err := ParseMacro("nonsense(a)", testRuntime())
	assert.Error(t, err)
}

func TestParseMacroRejectsWrongArgCount(t *testing.T) {
	_, err := ParseMacro("k()", testRuntime())
	assert.Error(t, err)
}

func TestParseMacroRejectsUnbalancedBrackets(t *testing.T) {
	_, err := ParseMacro("k(a", testRuntime())
	assert.Error(t, err)
}

func TestParseMacroCommentsAreStripped(t *testing.T) {
	m, err := ParseMacro("k(a) # press a\n", testRuntime())
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestParseMacroVariableArgument(t *testing.T) {
	m, err := ParseMacro(`set(x, 5)`, testRuntime())
	require.NoError(t, err)
	assert.NotNil(t, m)
}
