package fm

import "math"

// clock is the per-operator timebase: a modulo counter normalized to one
// waveform cycle, so the accumulator stays in [0,1) no matter how many
// samples have been rendered.
type clock struct {
	counter  float32 // current phase in [0,1)
	phaseInc float32 // frequency / sampleRate
}

// setFreq retunes the clock without touching the counter, so a sounding
// operator can glide to a new frequency phase-continuously.
func (c *clock) setFreq(freqHz, sampleRate float32) {
	if freqHz < 0 {
		freqHz = 0
	}
	if sampleRate <= 0 {
		c.phaseInc = 0
		return
	}
	c.phaseInc = freqHz / sampleRate
}

func (c *clock) reset() {
	c.counter = 0
}

// advance moves the counter one sample period forward and wraps it.
func (c *clock) advance() {
	c.counter = wrapPhase(c.counter + c.phaseInc)
}

// offset returns the counter displaced by a phase-modulation amount in
// cycles, wrapped into [0,1). The counter itself is left untouched.
func (c *clock) offset(phase float32) float32 {
	return wrapPhase(c.counter + phase)
}

// wrapPhase folds p into [0,1). The single-wrap cases cover normal phase
// increments; the modulo fallback handles large modulation excursions.
func wrapPhase(p float32) float32 {
	switch {
	case p >= 0 && p < 1:
		return p
	case p >= 1 && p < 2:
		return p - 1
	case p < 0 && p >= -1:
		return p + 1
	}
	p = float32(math.Mod(float64(p), 1.0))
	if p < 0 {
		p++
	}
	return p
}
