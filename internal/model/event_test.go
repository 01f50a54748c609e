package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKeyRepeat(t *testing.T) {
	assert.True(t, InputEvent{Type: EvKey, Value: 2}.IsKeyRepeat())
	assert.False(t, InputEvent{Type: EvKey, Value: 1}.IsKeyRepeat())
	assert.False(t, InputEvent{Type: EvAbs, Value: 2}.IsKeyRepeat())
}

func TestInputConfigIsAnalog(t *testing.T) {
	assert.True(t, InputConfig{Type: EvAbs, AnalogThreshold: AnalogValueMarker}.IsAnalog())
	assert.False(t, InputConfig{Type: EvAbs, AnalogThreshold: 50}.IsAnalog())
	assert.False(t, InputConfig{Type: EvKey, AnalogThreshold: AnalogValueMarker}.IsAnalog())
}

func TestInputCombinationTriggerAndNonTrigger(t *testing.T) {
	c := InputCombination{
		{Type: EvKey, Code: 1},
		{Type: EvKey, Code: 2},
		{Type: EvKey, Code: 3},
	}
	assert.Equal(t, uint16(3), c.Trigger().Code)
	assert.Equal(t, []InputConfig{{Type: EvKey, Code: 1}, {Type: EvKey, Code: 2}}, c.NonTrigger())
}

func TestInputCombinationAnalogCounting(t *testing.T) {
	c := InputCombination{
		{Type: EvAbs, Code: 1, AnalogThreshold: AnalogValueMarker},
		{Type: EvKey, Code: 2},
	}
	assert.Equal(t, 1, c.AnalogCount())
	assert.True(t, c.HasAnalog())
}

func TestCanonicalKeyIgnoresNonTriggerOrder(t *testing.T) {
	a := InputCombination{
		{Type: EvKey, Code: 1},
		{Type: EvKey, Code: 2},
		{Type: EvKey, Code: 9}, // trigger
	}
	b := InputCombination{
		{Type: EvKey, Code: 2},
		{Type: EvKey, Code: 1},
		{Type: EvKey, Code: 9}, // trigger
	}
	assert.Equal(t, a.CanonicalKey(), b.CanonicalKey())
}

func TestCanonicalKeyDistinguishesDifferentTriggers(t *testing.T) {
	a := InputCombination{
		{Type: EvKey, Code: 1},
		{Type: EvKey, Code: 9},
	}
	b := InputCombination{
		{Type: EvKey, Code: 1},
		{Type: EvKey, Code: 10},
	}
	assert.NotEqual(t, a.CanonicalKey(), b.CanonicalKey())
}

func TestHashDevicePathIsStable(t *testing.T) {
	a := HashDevicePath("/dev/input/event3")
	b := HashDevicePath("/dev/input/event3")
	c := HashDevicePath("/dev/input/event4")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
