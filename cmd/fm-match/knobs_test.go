package main

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fm/fm"
)

func TestParseOptimizeGroups(t *testing.T) {
	groups, err := parseOptimizeGroups("ops, envelope")
	if err != nil {
		t.Fatalf("parseOptimizeGroups: %v", err)
	}
	if !groups["ops"] || !groups["envelope"] || groups["output"] {
		t.Fatalf("unexpected groups: %v", groups)
	}

	if _, err := parseOptimizeGroups("ops,bogus"); err == nil {
		t.Fatalf("expected error for unknown group")
	}
	if _, err := parseOptimizeGroups(" , "); err == nil {
		t.Fatalf("expected error for empty group list")
	}
}

func TestInitCandidateKnobCounts(t *testing.T) {
	base := fm.NewDefaultParams()

	defs, cand := initCandidate(base, map[string]bool{"ops": true})
	// 3 knobs per operator plus feedback.
	want := 3*fm.NumOperators + 1
	if len(defs) != want || len(cand.Vals) != want {
		t.Fatalf("ops knobs: defs=%d vals=%d want=%d", len(defs), len(cand.Vals), want)
	}

	defs, _ = initCandidate(base, map[string]bool{"envelope": true, "output": true})
	if len(defs) != 6 {
		t.Fatalf("envelope+output knobs: got=%d want=6", len(defs))
	}
}

func TestInitCandidateClampsToBounds(t *testing.T) {
	base := fm.NewDefaultParams()
	base.OpIndex[1] = 50.0 // above the knob ceiling

	defs, cand := initCandidate(base, map[string]bool{"ops": true})
	for i, d := range defs {
		if cand.Vals[i] < d.Min || cand.Vals[i] > d.Max {
			t.Fatalf("knob %s out of bounds: %f not in [%f,%f]", d.Name, cand.Vals[i], d.Min, d.Max)
		}
	}
}

func TestApplyCandidateWritesFields(t *testing.T) {
	base := fm.NewDefaultParams()
	defs, cand := initCandidate(base, map[string]bool{"ops": true, "envelope": true, "output": true})

	for i, d := range defs {
		switch d.Name {
		case "op.1.ratio":
			cand.Vals[i] = 3.5
		case "op.0.mix":
			cand.Vals[i] = 0.25
		case "attack_ms":
			cand.Vals[i] = 42.0
		case "output_gain":
			cand.Vals[i] = 0.9
		}
	}

	params := applyCandidate(base, defs, cand)
	if params.OpRatio[1] != 3.5 {
		t.Fatalf("op.1.ratio: got=%f want=3.5", params.OpRatio[1])
	}
	if params.OpMix[0] != 0.25 {
		t.Fatalf("op.0.mix: got=%f want=0.25", params.OpMix[0])
	}
	if params.AttackMs != 42.0 {
		t.Fatalf("attack_ms: got=%f want=42.0", params.AttackMs)
	}
	if params.OutputGain != 0.9 {
		t.Fatalf("output_gain: got=%f want=0.9", params.OutputGain)
	}
	if base.OpRatio[1] == 3.5 {
		t.Fatalf("applyCandidate mutated the base params")
	}
}

func TestFromNormalizedMapsRange(t *testing.T) {
	defs := []knobDef{
		{Name: "a", Min: 10, Max: 20},
		{Name: "b", Min: -1, Max: 1},
	}

	c := fromNormalized([]float64{0.0, 1.0}, defs)
	if c.Vals[0] != 10 || c.Vals[1] != 1 {
		t.Fatalf("endpoints: got=%v", c.Vals)
	}

	c = fromNormalized([]float64{0.5, 0.5}, defs)
	if math.Abs(c.Vals[0]-15) > 1e-9 || math.Abs(c.Vals[1]) > 1e-9 {
		t.Fatalf("midpoints: got=%v", c.Vals)
	}

	// Out-of-range positions clamp; short positions default to Min.
	c = fromNormalized([]float64{2.0}, defs)
	if c.Vals[0] != 20 || c.Vals[1] != -1 {
		t.Fatalf("clamping: got=%v", c.Vals)
	}
}
