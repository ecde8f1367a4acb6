package fm

// voice is one polyphonic synthesis unit: four operators wired by the
// engine's routing, one amplitude envelope, and the note state needed by
// the allocator. Voices live in a fixed pool; they are reset and reused,
// never reallocated.
type voice struct {
	sampleRate float32

	ops     [NumOperators]operator
	outputs [NumOperators]float32
	env     envelope

	note     int
	velocity float32
	baseFreq float32
	age      int64
	active   bool
}

func (v *voice) init(sampleRate float32) {
	v.sampleRate = sampleRate
	v.env.init(sampleRate)
	v.clear()
}

func (v *voice) clear() {
	v.note = -1
	v.velocity = 0
	v.baseFreq = 0
	v.age = 0
	v.active = false
}

// noteOn assigns a note to this voice. When the voice is still audible
// (a steal), operator phases are kept and only retuned, and the envelope
// ramps up from its current level; both halves of that are required to
// keep the output continuous across the steal.
func (v *voice) noteOn(note int, velocity float32, p *Params) {
	stealing := v.env.active()
	v.note = note
	v.velocity = velocity
	v.baseFreq = midiNoteToFreq(note)
	v.age = 0
	v.active = true
	for i := range v.ops {
		if stealing {
			v.ops[i].retune(v.baseFreq, p.OpRatio[i], v.sampleRate)
		} else {
			v.ops[i].trigger(v.baseFreq, p.OpRatio[i], v.sampleRate)
		}
	}
	v.env.noteOn(p)
}

func (v *voice) noteOff(p *Params) {
	v.env.noteOff(p)
}

// retune applies smoothed ratio changes to a sounding voice without
// resetting phases. Called once per sub-block, not per sample.
func (v *voice) retune(p *Params) {
	for i := range v.ops {
		v.ops[i].retune(v.baseFreq, p.OpRatio[i], v.sampleRate)
	}
}

// advance renders one mono sample: modulators before the carriers they
// feed, carriers summed and scaled by envelope and velocity.
func (v *voice) advance(p *Params, r *routing) float32 {
	eg := v.env.advance(p)
	for i := NumOperators - 1; i >= 0; i-- {
		var pm float32
		for _, src := range r.modSources[i] {
			pm += v.outputs[src] * p.OpIndex[src]
		}
		if r.feedback[i] {
			pm += v.ops[i].lastOutput * p.OpIndex[i] * p.Feedback
		}
		v.outputs[i] = v.ops[i].advance(pm * modIndexScale)
	}
	var sample float32
	for _, c := range r.carriers {
		sample += v.outputs[c] * p.OpMix[c]
	}
	return sample * r.carrierCut * eg * v.velocity
}

// finished reports whether the envelope has fully closed and the slot can
// be handed back to the allocator.
func (v *voice) finished() bool {
	return v.active && !v.env.active()
}
