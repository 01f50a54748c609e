package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victortrac/inputcore/internal/keyboardlayout"
	"github.com/victortrac/inputcore/internal/model"
)

func keyCombo(code uint16) model.InputCombination {
	return model.InputCombination{{Type: model.EvKey, Code: code}}
}

func TestNewRequiresOutput(t *testing.T) {
	_, err := New(keyCombo(30), Keyboard, nil)
	assert.Error(t, err)
}

func TestNewWithOutputEventSucceeds(t *testing.T) {
	m, err := New(keyCombo(30), Keyboard, nil, WithOutputEvent(model.EvKey, 48))
	require.NoError(t, err)
	assert.Equal(t, uint16(48), m.OutputCode)
}

func TestNewRejectsMultipleAnalogInputs(t *testing.T) {
	combo := model.InputCombination{
		{Type: model.EvAbs, Code: 0, AnalogThreshold: model.AnalogValueMarker},
		{Type: model.EvAbs, Code: 1, AnalogThreshold: model.AnalogValueMarker},
	}
	_, err := New(combo, Keyboard, nil, WithOutputEvent(model.EvAbs, 0))
	assert.Error(t, err)
}

func TestNewRejectsTriggerPointOutOfRange(t *testing.T) {
	combo := model.InputCombination{
		{Type: model.EvAbs, Code: 0, AnalogThreshold: 150},
	}
	_, err := New(combo, Keyboard, nil, WithOutputEvent(model.EvKey, 30))
	assert.Error(t, err)
}

func TestNewRejectsTypeCodeAlongsideMacro(t *testing.T) {
	layout := keyboardlayout.New()
	_, err := New(keyCombo(30), Keyboard, layout,
		WithOutputSymbol("r(3, k(a))"),
		WithOutputEvent(model.EvKey, 30),
	)
	assert.Error(t, err)
}

func TestNewRejectsUnknownSymbol(t *testing.T) {
	layout := keyboardlayout.New()
	_, err := New(keyCombo(30), Keyboard, layout, WithOutputSymbol("not_a_real_key"))
	assert.Error(t, err)
}

func TestNewAcceptsKnownSymbol(t *testing.T) {
	layout := keyboardlayout.New()
	m, err := New(keyCombo(30), Keyboard, layout, WithOutputSymbol("key_a"))
	require.NoError(t, err)
	assert.Equal(t, "key_a", m.OutputSymbol)
}

func TestNewRequiresAxisOutputTypeForAnalogInput(t *testing.T) {
	combo := model.InputCombination{
		{Type: model.EvAbs, Code: 0, AnalogThreshold: model.AnalogValueMarker},
	}
	_, err := New(combo, Mouse, nil, WithOutputEvent(model.EvKey, 30))
	assert.Error(t, err)

	_, err = New(combo, Mouse, nil, WithOutputEvent(model.EvRel, 0))
	assert.NoError(t, err)
}

func TestPresetRejectsPermutationCollision(t *testing.T) {
	p := NewPreset()

	comboA := model.InputCombination{
		{Type: model.EvKey, Code: 1},
		{Type: model.EvKey, Code: 2},
		{Type: model.EvKey, Code: 9},
	}
	comboB := model.InputCombination{
		{Type: model.EvKey, Code: 2},
		{Type: model.EvKey, Code: 1},
		{Type: model.EvKey, Code: 9},
	}

	mA, err := New(comboA, Keyboard, nil, WithOutputEvent(model.EvKey, 30))
	require.NoError(t, err)
	mB, err := New(comboB, Keyboard, nil, WithOutputEvent(model.EvKey, 31))
	require.NoError(t, err)

	require.NoError(t, p.Add(mA))
	assert.Error(t, p.Add(mB))
	assert.Equal(t, 1, p.Len())
}

func TestPresetMappingsPreservesInsertionOrder(t *testing.T) {
	p := NewPreset()

	m1, _ := New(keyCombo(1), Keyboard, nil, WithOutputEvent(model.EvKey, 30))
	m2, _ := New(keyCombo(2), Keyboard, nil, WithOutputEvent(model.EvKey, 31))

	require.NoError(t, p.Add(m1))
	require.NoError(t, p.Add(m2))

	mappings := p.Mappings()
	assert.Len(t, mappings, 2)
	assert.Equal(t, uint16(30), mappings[0].OutputCode)
	assert.Equal(t, uint16(31), mappings[1].OutputCode)
}
