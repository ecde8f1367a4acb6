// Package preset loads and saves JSON patches layered over the engine's
// default parameters.
package preset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/algo-fm/fm"
)

// File is the JSON schema for synth presets. Pointer fields distinguish
// "absent" from zero so a preset can override only what it names.
type File struct {
	Name       string   `json:"name,omitempty"`
	Algorithm  string   `json:"algorithm,omitempty"`
	OutputGain *float32 `json:"output_gain,omitempty"`

	AttackMs     *float32 `json:"attack_ms,omitempty"`
	DecayMs      *float32 `json:"decay_ms,omitempty"`
	SustainLevel *float32 `json:"sustain_level,omitempty"`
	ReleaseMs    *float32 `json:"release_ms,omitempty"`

	Operators []OperatorSetting `json:"operators,omitempty"`

	Feedback     *float32 `json:"feedback,omitempty"`
	ToneCutoffHz *float32 `json:"tone_cutoff_hz,omitempty"`
}

// OperatorSetting is a partial per-operator override entry.
type OperatorSetting struct {
	Ratio *float32 `json:"ratio,omitempty"`
	Index *float32 `json:"index,omitempty"`
	Mix   *float32 `json:"mix,omitempty"`
}

// LoadJSON loads a preset file and applies it on top of default params.
// The returned algorithm defaults to the two-operator stack when the file
// does not name one.
func LoadJSON(path string) (*fm.Params, fm.Algorithm, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, 0, err
	}

	p := fm.NewDefaultParams()
	algo, err := ApplyFile(p, &f)
	if err != nil {
		return nil, 0, err
	}
	return p, algo, nil
}

// ApplyFile applies a parsed preset onto existing params and returns the
// selected algorithm.
func ApplyFile(dst *fm.Params, f *File) (fm.Algorithm, error) {
	algo := fm.AlgoTwoOpStack
	if dst == nil {
		return algo, fmt.Errorf("nil destination params")
	}
	if f == nil {
		return algo, nil
	}

	if f.Algorithm != "" {
		a, err := fm.ParseAlgorithm(f.Algorithm)
		if err != nil {
			return algo, err
		}
		algo = a
	}
	if f.OutputGain != nil {
		if *f.OutputGain < 0 {
			return algo, fmt.Errorf("output_gain must be >= 0")
		}
		dst.OutputGain = *f.OutputGain
	}
	if f.AttackMs != nil {
		if *f.AttackMs < 0 {
			return algo, fmt.Errorf("attack_ms must be >= 0")
		}
		dst.AttackMs = *f.AttackMs
	}
	if f.DecayMs != nil {
		if *f.DecayMs < 0 {
			return algo, fmt.Errorf("decay_ms must be >= 0")
		}
		dst.DecayMs = *f.DecayMs
	}
	if f.SustainLevel != nil {
		if *f.SustainLevel < 0 || *f.SustainLevel > 1 {
			return algo, fmt.Errorf("sustain_level must be in [0,1]")
		}
		dst.SustainLevel = *f.SustainLevel
	}
	if f.ReleaseMs != nil {
		if *f.ReleaseMs < 0 {
			return algo, fmt.Errorf("release_ms must be >= 0")
		}
		dst.ReleaseMs = *f.ReleaseMs
	}
	if f.Feedback != nil {
		if *f.Feedback < 0 || *f.Feedback > 1 {
			return algo, fmt.Errorf("feedback must be in [0,1]")
		}
		dst.Feedback = *f.Feedback
	}
	if f.ToneCutoffHz != nil {
		if *f.ToneCutoffHz < 0 {
			return algo, fmt.Errorf("tone_cutoff_hz must be >= 0")
		}
		dst.ToneCutoff = *f.ToneCutoffHz
	}

	if len(f.Operators) > fm.NumOperators {
		return algo, fmt.Errorf("at most %d operators, got %d", fm.NumOperators, len(f.Operators))
	}
	for i, op := range f.Operators {
		if op.Ratio != nil {
			if *op.Ratio < 0 {
				return algo, fmt.Errorf("operators[%d].ratio must be >= 0", i)
			}
			dst.OpRatio[i] = *op.Ratio
		}
		if op.Index != nil {
			if *op.Index < 0 {
				return algo, fmt.Errorf("operators[%d].index must be >= 0", i)
			}
			dst.OpIndex[i] = *op.Index
		}
		if op.Mix != nil {
			if *op.Mix < 0 || *op.Mix > 1 {
				return algo, fmt.Errorf("operators[%d].mix must be in [0,1]", i)
			}
			dst.OpMix[i] = *op.Mix
		}
	}

	return algo, dst.Validate()
}

// SaveJSON writes params as a complete preset file.
func SaveJSON(path string, name string, params *fm.Params, algo fm.Algorithm) error {
	if params == nil {
		return fmt.Errorf("nil params")
	}
	f := File{
		Name:         name,
		Algorithm:    algo.String(),
		OutputGain:   ptr(params.OutputGain),
		AttackMs:     ptr(params.AttackMs),
		DecayMs:      ptr(params.DecayMs),
		SustainLevel: ptr(params.SustainLevel),
		ReleaseMs:    ptr(params.ReleaseMs),
		Feedback:     ptr(params.Feedback),
		ToneCutoffHz: ptr(params.ToneCutoff),
	}
	f.Operators = make([]OperatorSetting, fm.NumOperators)
	for i := 0; i < fm.NumOperators; i++ {
		f.Operators[i] = OperatorSetting{
			Ratio: ptr(params.OpRatio[i]),
			Index: ptr(params.OpIndex[i]),
			Mix:   ptr(params.OpMix[i]),
		}
	}

	b, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

func ptr(v float32) *float32 { return &v }
