package keyboardlayout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIsCaseInsensitive(t *testing.T) {
	l := New()

	lower, ok := l.Get("key_a")
	assert.True(t, ok)

	upper, ok := l.Get("KEY_A")
	assert.True(t, ok)

	assert.Equal(t, lower, upper)
}

func TestGetUnknownName(t *testing.T) {
	l := New()
	_, ok := l.Get("not_a_real_key")
	assert.False(t, ok)
}

func TestGetNameRoundTrip(t *testing.T) {
	l := New()

	code, ok := l.Get("key_a")
	assert.True(t, ok)

	name, ok := l.GetName(code)
	assert.True(t, ok)
	assert.NotEmpty(t, name)

	back, ok := l.Get(name)
	assert.True(t, ok)
	assert.Equal(t, code, back)
}

func TestDisableCodeSentinel(t *testing.T) {
	l := New()

	code, ok := l.Get("disable")
	assert.True(t, ok)
	assert.Equal(t, DisableCode, code)

	name, ok := l.GetName(DisableCode)
	assert.True(t, ok)
	assert.Equal(t, disableName, name)
}

func TestCorrectCase(t *testing.T) {
	l := New()

	corrected := l.CorrectCase("key_a")
	assert.NotEmpty(t, corrected)
	assert.Equal(t, corrected, l.CorrectCase(corrected), "idempotent")

	assert.Equal(t, "not_a_real_key", l.CorrectCase("not_a_real_key"))
}
