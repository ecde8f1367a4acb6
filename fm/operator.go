package fm

// operator is one oscillator unit of the FM graph: a clock feeding the
// shared sine table. Whether it acts as carrier, modulator, or both is
// decided by the routing, not by the operator itself.
type operator struct {
	clock      clock
	lastOutput float32 // previous sample, kept for self-feedback routing
}

// trigger tunes the operator for a fresh note and restarts its phase.
func (o *operator) trigger(freqHz, ratio, sampleRate float32) {
	o.clock.setFreq(freqHz*ratio, sampleRate)
	o.clock.reset()
	o.lastOutput = 0
}

// retune changes frequency without resetting phase. Used both for ratio
// parameter changes on a sounding note and for retriggering a stolen voice,
// where a phase reset would add its own discontinuity on top of the
// envelope's.
func (o *operator) retune(freqHz, ratio, sampleRate float32) {
	o.clock.setFreq(freqHz*ratio, sampleRate)
}

// advance produces one sample. pm is the already-scaled phase modulation
// input in cycles.
func (o *operator) advance(pm float32) float32 {
	out := sineAt(o.clock.offset(pm))
	o.clock.advance()
	o.lastOutput = out
	return out
}

func (o *operator) reset() {
	o.clock.reset()
	o.lastOutput = 0
}
