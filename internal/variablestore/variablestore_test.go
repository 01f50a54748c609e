package variablestore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "variables.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetUnsetReturnsNil(t *testing.T) {
	s := openTemp(t)
	assert.Nil(t, s.Get("does_not_exist"))
}

func TestSetThenGetRoundTripsByKind(t *testing.T) {
	s := openTemp(t)

	s.Set("name", "taco")
	assert.Equal(t, "taco", s.Get("name"))

	s.Set("count", 3.0)
	assert.Equal(t, 3.0, s.Get("count"))

	s.Set("flag", true)
	assert.Equal(t, true, s.Get("flag"))
}

func TestSetOverwritesExistingValue(t *testing.T) {
	s := openTemp(t)

	s.Set("key", "first")
	s.Set("key", "second")
	assert.Equal(t, "second", s.Get("key"))
}

func TestClearRemovesEverything(t *testing.T) {
	s := openTemp(t)

	s.Set("a", "1")
	s.Set("b", "2")
	s.Clear()

	assert.Nil(t, s.Get("a"))
	assert.Nil(t, s.Get("b"))
}

func TestIsAlive(t *testing.T) {
	s := openTemp(t)
	assert.True(t, s.IsAlive(0))
	assert.True(t, s.IsAlive(50*time.Millisecond))
}

func TestTwoStoresShareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")

	a, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	a.Set("shared", "value")

	b, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	assert.Equal(t, "value", b.Get("shared"))
}
