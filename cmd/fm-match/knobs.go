package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-fm/fm"
)

type knobDef struct {
	Name string
	Min  float64
	Max  float64
}

type candidate struct {
	Vals []float64
}

// parseOptimizeGroups parses a comma-separated string of group names.
// Valid groups: ops, envelope, output.
func parseOptimizeGroups(raw string) (map[string]bool, error) {
	valid := map[string]bool{"ops": true, "envelope": true, "output": true}
	groups := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !valid[s] {
			return nil, fmt.Errorf("unknown optimize group %q (valid: ops, envelope, output)", s)
		}
		groups[s] = true
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no optimize groups specified")
	}
	return groups, nil
}

func initCandidate(base *fm.Params, groups map[string]bool) ([]knobDef, candidate) {
	defs := make([]knobDef, 0, 24)
	vals := make([]float64, 0, 24)
	addKnob := func(def knobDef, val float64) {
		defs = append(defs, def)
		vals = append(vals, val)
	}

	if groups["ops"] {
		for i := 0; i < fm.NumOperators; i++ {
			addKnob(knobDef{Name: fmt.Sprintf("op.%d.ratio", i), Min: 0.25, Max: 12.0}, float64(base.OpRatio[i]))
			addKnob(knobDef{Name: fmt.Sprintf("op.%d.index", i), Min: 0.0, Max: 10.0}, float64(base.OpIndex[i]))
			addKnob(knobDef{Name: fmt.Sprintf("op.%d.mix", i), Min: 0.0, Max: 1.0}, float64(base.OpMix[i]))
		}
		addKnob(knobDef{Name: "feedback", Min: 0.0, Max: 1.0}, float64(base.Feedback))
	}

	if groups["envelope"] {
		addKnob(knobDef{Name: "attack_ms", Min: 1.0, Max: 200.0}, float64(base.AttackMs))
		addKnob(knobDef{Name: "decay_ms", Min: 5.0, Max: 2000.0}, float64(base.DecayMs))
		addKnob(knobDef{Name: "sustain_level", Min: 0.0, Max: 1.0}, float64(base.SustainLevel))
		addKnob(knobDef{Name: "release_ms", Min: 5.0, Max: 2000.0}, float64(base.ReleaseMs))
	}

	if groups["output"] {
		addKnob(knobDef{Name: "output_gain", Min: 0.05, Max: 1.5}, float64(base.OutputGain))
		addKnob(knobDef{Name: "tone_cutoff_hz", Min: 0.0, Max: 18000.0}, float64(base.ToneCutoff))
	}

	for i := range vals {
		vals[i] = clamp(vals[i], defs[i].Min, defs[i].Max)
	}
	return defs, candidate{Vals: vals}
}

func applyCandidate(base *fm.Params, defs []knobDef, c candidate) *fm.Params {
	params := *base

	for i, def := range defs {
		v := c.Vals[i]
		switch {
		case strings.HasPrefix(def.Name, "op."):
			var op int
			var field string
			if _, err := fmt.Sscanf(def.Name, "op.%d.%s", &op, &field); err != nil {
				continue
			}
			if op < 0 || op >= fm.NumOperators {
				continue
			}
			switch field {
			case "ratio":
				params.OpRatio[op] = float32(v)
			case "index":
				params.OpIndex[op] = float32(v)
			case "mix":
				params.OpMix[op] = float32(v)
			}
		case def.Name == "feedback":
			params.Feedback = float32(v)
		case def.Name == "attack_ms":
			params.AttackMs = float32(v)
		case def.Name == "decay_ms":
			params.DecayMs = float32(v)
		case def.Name == "sustain_level":
			params.SustainLevel = float32(v)
		case def.Name == "release_ms":
			params.ReleaseMs = float32(v)
		case def.Name == "output_gain":
			params.OutputGain = float32(v)
		case def.Name == "tone_cutoff_hz":
			params.ToneCutoff = float32(v)
		}
	}

	return &params
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = clamp(pos[i], 0, 1)
		}
		vals[i] = defs[i].Min + x*(defs[i].Max-defs[i].Min)
	}
	return candidate{Vals: vals}
}

func cloneCandidate(c candidate) candidate {
	vals := make([]float64, len(c.Vals))
	copy(vals, c.Vals)
	return candidate{Vals: vals}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
