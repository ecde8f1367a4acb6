package fm

import (
	"math"
	"testing"
)

func testParams() *Params {
	p := NewDefaultParams()
	p.AttackMs = 10.0
	p.DecayMs = 20.0
	p.SustainLevel = 0.8
	p.ReleaseMs = 10.0
	return p
}

func TestEnvelopeAttackReachesPeak(t *testing.T) {
	p := testParams()
	var e envelope
	e.init(48000)
	e.noteOn(p)

	attackSamples := int(p.AttackMs * 48000 / 1000)
	for i := 0; i < attackSamples+2; i++ {
		e.advance(p)
	}
	if e.stage == stageAttack {
		t.Fatalf("still in attack after %d samples, level=%f", attackSamples+2, e.level)
	}
}

func TestEnvelopeDecaysToSustain(t *testing.T) {
	p := testParams()
	var e envelope
	e.init(48000)
	e.noteOn(p)

	total := int((p.AttackMs + p.DecayMs) * 48000 / 1000)
	for i := 0; i < total+10; i++ {
		e.advance(p)
	}
	if e.stage != stageSustain {
		t.Fatalf("expected sustain stage, got %s", e.stage)
	}
	if math.Abs(float64(e.level-p.SustainLevel)) > 1e-4 {
		t.Fatalf("sustain level: got=%f want=%f", e.level, p.SustainLevel)
	}
}

func TestEnvelopeSustainHoldsIndefinitely(t *testing.T) {
	p := testParams()
	var e envelope
	e.init(48000)
	e.noteOn(p)

	for i := 0; i < 48000; i++ {
		e.advance(p)
	}
	if e.stage != stageSustain {
		t.Fatalf("expected sustain after 1s, got %s", e.stage)
	}
	if math.Abs(float64(e.level-p.SustainLevel)) > 1e-4 {
		t.Fatalf("sustain drifted: got=%f want=%f", e.level, p.SustainLevel)
	}
}

// Release must close the envelope within the configured release time no
// matter which stage it interrupts.
func TestEnvelopeReleaseFromEveryStage(t *testing.T) {
	p := testParams()
	releaseSamples := int(p.ReleaseMs*48000/1000) + 2

	warmups := []int{
		0,    // straight out of attack start
		200,  // mid-attack
		600,  // mid-decay
		4800, // sustain
	}
	for _, warm := range warmups {
		var e envelope
		e.init(48000)
		e.noteOn(p)
		for i := 0; i < warm; i++ {
			e.advance(p)
		}
		e.noteOff(p)
		for i := 0; i < releaseSamples; i++ {
			e.advance(p)
		}
		if e.active() {
			t.Fatalf("envelope still active %d samples after release (warmup %d): stage=%s level=%f",
				releaseSamples, warm, e.stage, e.level)
		}
		if e.level != 0 {
			t.Fatalf("level not closed after release (warmup %d): %f", warm, e.level)
		}
	}
}

func TestEnvelopeNoteOffWhileIdleIsNoOp(t *testing.T) {
	p := testParams()
	var e envelope
	e.init(48000)
	e.noteOff(p)
	if e.active() {
		t.Fatalf("noteOff on idle envelope activated it: stage=%s", e.stage)
	}
}

// Retriggering an audible envelope must ramp from the current level, never
// snap back to zero.
func TestEnvelopeRetriggerKeepsLevel(t *testing.T) {
	p := testParams()
	var e envelope
	e.init(48000)
	e.noteOn(p)

	for i := 0; i < 4800; i++ {
		e.advance(p)
	}
	e.noteOff(p)
	for i := 0; i < 100; i++ {
		e.advance(p)
	}
	before := e.level
	if before <= 0.1 {
		t.Fatalf("test setup: expected audible level, got %f", before)
	}

	e.noteOn(p)
	after := e.advance(p)
	maxStep := e.maxStepFor(p)
	if math.Abs(float64(after-before)) > float64(maxStep)+1e-6 {
		t.Fatalf("retrigger jumped the level: before=%f after=%f maxStep=%f", before, after, maxStep)
	}
	if e.stage != stageAttack {
		t.Fatalf("expected attack after retrigger, got %s", e.stage)
	}
}

// The level may never move faster per sample than the steepest configured
// segment slope allows.
func TestEnvelopePerSampleDeltaBounded(t *testing.T) {
	p := testParams()
	var e envelope
	e.init(48000)
	e.noteOn(p)
	maxStep := float64(e.maxStepFor(p)) + 1e-6

	prev := float64(0)
	for i := 0; i < 3000; i++ {
		if i == 1500 {
			e.noteOff(p)
		}
		lvl := float64(e.advance(p))
		if d := math.Abs(lvl - prev); d > maxStep {
			t.Fatalf("level moved %f in one sample at %d, max allowed %f", d, i, maxStep)
		}
		prev = lvl
	}
}

func TestEnvelopeFullSustainSkipsDecay(t *testing.T) {
	p := testParams()
	p.SustainLevel = 1.0
	var e envelope
	e.init(48000)
	e.noteOn(p)

	attackSamples := int(p.AttackMs * 48000 / 1000)
	for i := 0; i < attackSamples+2; i++ {
		e.advance(p)
	}
	if e.stage != stageSustain {
		t.Fatalf("expected sustain with full sustain level, got %s", e.stage)
	}
	if e.level != 1.0 {
		t.Fatalf("expected level 1.0, got %f", e.level)
	}
}

func TestEnvelopeStageStrings(t *testing.T) {
	stages := map[envelopeStage]string{
		stageIdle:    "idle",
		stageAttack:  "attack",
		stageDecay:   "decay",
		stageSustain: "sustain",
		stageRelease: "release",
	}
	for s, want := range stages {
		if got := s.String(); got != want {
			t.Fatalf("stage %d: got=%q want=%q", int(s), got, want)
		}
	}
}
