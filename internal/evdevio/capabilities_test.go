package evdevio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardKeyboardCapabilitiesNonEmpty(t *testing.T) {
	caps := StandardKeyboardCapabilities()
	assert.NotEmpty(t, caps.Keys)
	assert.Empty(t, caps.Rel)
	assert.Empty(t, caps.Abs)
}

func TestStandardMouseCapabilities(t *testing.T) {
	caps := StandardMouseCapabilities()
	assert.NotEmpty(t, caps.Keys)
	assert.NotEmpty(t, caps.Rel)
}

func TestMergeCapabilitiesDeduplicates(t *testing.T) {
	a := Capabilities{Keys: []uint16{1, 2}, Rel: []uint16{10}}
	b := Capabilities{Keys: []uint16{2, 3}, Rel: []uint16{10, 11}}

	merged := MergeCapabilities(a, b)

	assert.ElementsMatch(t, []uint16{1, 2, 3}, merged.Keys)
	assert.ElementsMatch(t, []uint16{10, 11}, merged.Rel)
}

func TestMergeCapabilitiesAbsByCode(t *testing.T) {
	a := Capabilities{Abs: []AxisCapability{{Code: 0, Min: -100, Max: 100}}}
	b := Capabilities{Abs: []AxisCapability{{Code: 0, Min: -200, Max: 200}, {Code: 1, Min: 0, Max: 255}}}

	merged := MergeCapabilities(a, b)

	require := assert.New(t)
	require.Len(merged.Abs, 2)
	require.Equal(int32(-100), merged.Abs[0].Min, "existing code 0 entry is kept, not overwritten by the second merge")
}
