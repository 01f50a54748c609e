package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/victortrac/inputcore/internal/keyboardlayout"
	"github.com/victortrac/inputcore/internal/model"
)

// jsonInputConfig mirrors model.InputConfig's JSON spelling (spec §6's
// "Preset input" shape: a flat list of input-combination/output pairs,
// the simplest format that satisfies "consumes from a preset loader a
// list of Mappings" without implementing the GUI-owned persistence
// format that is out of scope).
type jsonInputConfig struct {
	Type            uint16 `json:"type"`
	Code            uint16 `json:"code"`
	AnalogThreshold int    `json:"analog_threshold"`
}

type jsonMapping struct {
	EventCombination []jsonInputConfig `json:"event_combination"`
	TargetUinput     string            `json:"target_uinput"`

	OutputSymbol string  `json:"output_symbol,omitempty"`
	OutputType   *uint16 `json:"output_type,omitempty"`
	OutputCode   *uint16 `json:"output_code,omitempty"`

	MacroKeySleepMs int     `json:"macro_key_sleep_ms,omitempty"`
	Deadzone        float64 `json:"deadzone,omitempty"`
	Gain            float64 `json:"gain,omitempty"`
	Expo            float64 `json:"expo,omitempty"`
	RateHz          float64 `json:"rate_hz,omitempty"`
	RelSpeed        int     `json:"rel_speed,omitempty"`
	RelInputCutoff  int     `json:"rel_input_cutoff,omitempty"`
	ReleaseTimeout  float64 `json:"release_timeout,omitempty"`
}

// DecodePreset parses a JSON array of mapping objects into a validated
// Preset, resolving output_symbol key names against layout.
func DecodePreset(data []byte, layout *keyboardlayout.Layout) (*Preset, error) {
	var raw []jsonMapping
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding preset: %w", err)
	}

	preset := NewPreset()
	for i, jm := range raw {
		m, err := jm.toMapping(layout)
		if err != nil {
			return nil, fmt.Errorf("mapping %d: %w", i, err)
		}
		if err := preset.Add(m); err != nil {
			return nil, fmt.Errorf("mapping %d: %w", i, err)
		}
	}
	return preset, nil
}

func (jm jsonMapping) toMapping(layout *keyboardlayout.Layout) (*Mapping, error) {
	if len(jm.EventCombination) == 0 {
		return nil, fmt.Errorf("event_combination must not be empty")
	}
	combo := make(model.InputCombination, len(jm.EventCombination))
	for i, ic := range jm.EventCombination {
		combo[i] = model.InputConfig{Type: ic.Type, Code: ic.Code, AnalogThreshold: ic.AnalogThreshold}
	}

	var opts []Option
	if jm.OutputSymbol != "" {
		opts = append(opts, WithOutputSymbol(jm.OutputSymbol))
	}
	if jm.OutputType != nil && jm.OutputCode != nil {
		opts = append(opts, WithOutputEvent(*jm.OutputType, *jm.OutputCode))
	}
	if jm.MacroKeySleepMs != 0 {
		opts = append(opts, WithMacroKeySleepMs(jm.MacroKeySleepMs))
	}
	if jm.Deadzone != 0 {
		opts = append(opts, WithDeadzone(jm.Deadzone))
	}
	if jm.Gain != 0 {
		opts = append(opts, WithGain(jm.Gain))
	}
	if jm.Expo != 0 {
		opts = append(opts, WithExpo(jm.Expo))
	}
	if jm.RateHz != 0 {
		opts = append(opts, WithRateHz(jm.RateHz))
	}
	if jm.RelSpeed != 0 {
		opts = append(opts, WithRelSpeed(jm.RelSpeed))
	}
	if jm.RelInputCutoff != 0 {
		opts = append(opts, WithRelInputCutoff(jm.RelInputCutoff))
	}
	if jm.ReleaseTimeout != 0 {
		opts = append(opts, WithReleaseTimeout(jm.ReleaseTimeout))
	}

	return New(combo, KnownUinput(jm.TargetUinput), layout, opts...)
}
