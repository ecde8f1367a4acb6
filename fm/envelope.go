package fm

import (
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

const (
	maxEnvelopeLevel = 1.0
	minEnvelopeLevel = 0.0
	// Segment times shorter than this are clamped so a segment always has a
	// finite, non-zero per-sample slope.
	minSegmentMs = 1.0
)

type envelopeStage int

const (
	stageIdle envelopeStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

func (s envelopeStage) String() string {
	switch s {
	case stageIdle:
		return "idle"
	case stageAttack:
		return "attack"
	case stageDecay:
		return "decay"
	case stageSustain:
		return "sustain"
	case stageRelease:
		return "release"
	}
	return "unknown"
}

// envelope is a linear ADSR generator. Each segment has a fixed per-sample
// step, so the level never moves faster than the slope implied by the
// configured segment time. Retriggering while audible keeps the current
// level and ramps up from there; a hard reset to zero is exactly the click
// this design exists to avoid.
type envelope struct {
	sampleRate float32
	stage      envelopeStage
	level      float32
	step       float32
}

func (e *envelope) init(sampleRate float32) {
	e.sampleRate = sampleRate
	e.stage = stageIdle
	e.level = 0
	e.step = 0
}

func (e *envelope) active() bool {
	return e.stage != stageIdle
}

func (e *envelope) releasing() bool {
	return e.stage == stageRelease
}

// segmentSamples converts a segment duration to a sample count, clamped so
// the result is always >= 1.
func (e *envelope) segmentSamples(ms float32) float32 {
	if ms < minSegmentMs {
		ms = minSegmentMs
	}
	n := ms * e.sampleRate / 1000.0
	if n < 1 {
		n = 1
	}
	return n
}

// noteOn enters Attack from whatever level the envelope currently holds.
// The slope is always the fresh-attack slope; only the starting value
// differs between a fresh trigger and a retrigger on a stolen voice.
func (e *envelope) noteOn(p *Params) {
	e.step = maxEnvelopeLevel / e.segmentSamples(p.AttackMs)
	e.stage = stageAttack
}

// noteOff enters Release from any audible state, ramping the current level
// to zero over the configured release time.
func (e *envelope) noteOff(p *Params) {
	if e.stage == stageIdle {
		return
	}
	if e.level <= minEnvelopeLevel {
		e.level = minEnvelopeLevel
		e.stage = stageIdle
		return
	}
	e.step = -e.level / e.segmentSamples(p.ReleaseMs)
	e.stage = stageRelease
}

// advance progresses the state machine by one sample and returns the level.
func (e *envelope) advance(p *Params) float32 {
	sustain := clamp01(p.SustainLevel)
	switch e.stage {
	case stageIdle:
		e.level = minEnvelopeLevel
	case stageAttack:
		e.level += e.step
		if e.level >= maxEnvelopeLevel {
			e.level = maxEnvelopeLevel
			if sustain >= maxEnvelopeLevel {
				e.stage = stageSustain
				break
			}
			e.step = -(maxEnvelopeLevel - sustain) / e.segmentSamples(p.DecayMs)
			e.stage = stageDecay
		}
	case stageDecay:
		e.level += e.step
		if e.level <= sustain {
			e.level = sustain
			e.stage = stageSustain
		}
	case stageSustain:
		e.level = sustain
	case stageRelease:
		e.level += e.step
		if e.level <= minEnvelopeLevel {
			e.level = minEnvelopeLevel
			e.stage = stageIdle
		}
	}
	e.level = float32(dspcore.FlushDenormals(float64(e.level)))
	return e.level
}

// maxStepFor reports the largest per-sample level change the configured
// segment times permit. Used by the anti-pop checks.
func (e *envelope) maxStepFor(p *Params) float32 {
	attack := maxEnvelopeLevel / e.segmentSamples(p.AttackMs)
	release := maxEnvelopeLevel / e.segmentSamples(p.ReleaseMs)
	decay := maxEnvelopeLevel / e.segmentSamples(p.DecayMs)
	m := attack
	if release > m {
		m = release
	}
	if decay > m {
		m = decay
	}
	return m
}
