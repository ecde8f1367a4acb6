package fm

import (
	"github.com/cwbudde/algo-fm/dsp"
)

// maxBlockSpan caps the number of samples rendered between parameter
// smoothing updates. Blocks are additionally split at note event offsets,
// so events land sample-accurately.
const maxBlockSpan = 64

// Engine is the polyphonic FM voice engine: a fixed pool of voices, the
// note allocator with its stealing policy, and the output mix stage. All
// voice storage is preallocated at construction; Process neither allocates
// nor blocks.
type Engine struct {
	cfg     Config
	routing routing

	voices []voice

	port     paramPort
	smoother paramSmoother

	tone       *dsp.Biquad
	toneCutoff float32
	toneOn     bool
}

// NewEngine creates an engine with cfg.Voices preallocated voice slots.
func NewEngine(cfg Config, params *Params) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if params == nil {
		params = NewDefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		routing: newRouting(cfg.Algorithm),
		voices:  make([]voice, cfg.Voices),
		tone:    dsp.NewBiquad(1, 0, 0, 0, 0),
	}
	sr := float32(cfg.SampleRate)
	for i := range e.voices {
		e.voices[i].init(sr)
	}
	e.smoother.sampleRate = sr
	e.port.publish(params)
	return e, nil
}

// SampleRate returns the construction-time sample rate in Hz.
func (e *Engine) SampleRate() int { return e.cfg.SampleRate }

// Algorithm returns the fixed operator topology.
func (e *Engine) Algorithm() Algorithm { return e.cfg.Algorithm }

// SetParams publishes a new parameter snapshot. Safe to call from a
// control path concurrent with Process; the engine copies the snapshot and
// smooths continuous fields on the render side.
func (e *Engine) SetParams(params *Params) {
	e.port.publish(params)
}

// NoteOn triggers a note immediately (offset 0 of the next span).
func (e *Engine) NoteOn(note int, velocity float32) {
	e.noteOn(clampNote(note), clamp01(velocity))
}

// NoteOff releases a note immediately. Unknown notes are a no-op.
func (e *Engine) NoteOff(note int) {
	e.noteOff(clampNote(note))
}

// ActiveVoices reports how many voice slots currently hold a note.
func (e *Engine) ActiveVoices() int {
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

// Process renders len(out) mono samples, applying events at their sample
// offsets. Events must be ordered by Offset; offsets are clamped into the
// block. The output is always finite.
func (e *Engine) Process(out []float32, events []NoteEvent) {
	target := e.port.load()
	n := len(out)
	blockStart := 0
	evIdx := 0

	for blockStart < n {
		for evIdx < len(events) && clampOffset(events[evIdx].Offset, n) <= blockStart {
			e.handleEvent(events[evIdx])
			evIdx++
		}

		blockEnd := blockStart + maxBlockSpan
		if blockEnd > n {
			blockEnd = n
		}
		if evIdx < len(events) {
			if off := clampOffset(events[evIdx].Offset, n); off < blockEnd {
				blockEnd = off
			}
		}

		p := e.smoother.step(target, blockEnd-blockStart)
		e.renderSpan(out[blockStart:blockEnd], p)
		blockStart = blockEnd
	}

	// Events at or past the end of the block take effect now, so they are
	// not lost for the next block.
	for ; evIdx < len(events); evIdx++ {
		e.handleEvent(events[evIdx])
	}

	for i := range e.voices {
		if e.voices[i].active {
			e.voices[i].age++
		}
	}
}

func clampOffset(off, n int) int {
	if off < 0 {
		return 0
	}
	if off > n {
		return n
	}
	return off
}

func (e *Engine) handleEvent(ev NoteEvent) {
	switch ev.Kind {
	case NoteOnEvent:
		e.noteOn(clampNote(ev.Note), clamp01(ev.Velocity))
	case NoteOffEvent:
		e.noteOff(clampNote(ev.Note))
	}
}

// currentParams returns the render-side effective parameters, falling back
// to the published snapshot before the first rendered span.
func (e *Engine) currentParams() *Params {
	if e.smoother.initialized {
		return &e.smoother.current
	}
	return e.port.load()
}

func (e *Engine) noteOn(note int, velocity float32) {
	p := e.currentParams()
	slot := -1
	for i := range e.voices {
		if !e.voices[i].env.active() {
			slot = i
			break
		}
	}
	if slot < 0 {
		slot = e.stealTarget()
	}
	e.voices[slot].noteOn(note, velocity, p)
}

// stealTarget picks the victim when every slot is sounding: the quietest
// voice already in release, else the oldest voice. A releasing voice is
// nearly done anyway, so preempting it is the least audible choice.
func (e *Engine) stealTarget() int {
	best := -1
	bestLevel := float32(2)
	for i := range e.voices {
		v := &e.voices[i]
		if v.env.releasing() && v.env.level < bestLevel {
			best = i
			bestLevel = v.env.level
		}
	}
	if best >= 0 {
		return best
	}
	oldest := 0
	oldestAge := int64(-1)
	for i := range e.voices {
		if e.voices[i].age > oldestAge {
			oldest = i
			oldestAge = e.voices[i].age
		}
	}
	return oldest
}

func (e *Engine) noteOff(note int) {
	p := e.currentParams()
	for i := range e.voices {
		v := &e.voices[i]
		if v.active && v.note == note && !v.env.releasing() {
			v.noteOff(p)
		}
	}
}

func (e *Engine) renderSpan(dst []float32, p *Params) {
	e.updateTone(p)
	for i := range e.voices {
		if e.voices[i].active {
			e.voices[i].retune(p)
		}
	}

	for s := range dst {
		var mix float32
		for i := range e.voices {
			v := &e.voices[i]
			if !v.active {
				continue
			}
			mix += v.advance(p, &e.routing)
		}
		mix *= p.OutputGain
		if e.toneOn {
			mix = e.tone.Process(mix)
		}
		if !isFinite(mix) {
			mix = 0
		}
		dst[s] = mix
	}

	for i := range e.voices {
		if e.voices[i].finished() {
			e.voices[i].clear()
		}
	}
}

func (e *Engine) updateTone(p *Params) {
	cutoff := p.ToneCutoff
	if cutoff <= 0 {
		e.toneOn = false
		return
	}
	nyquist := float32(e.cfg.SampleRate) / 2
	cutoff = minf(cutoff, nyquist*0.95)
	if cutoff != e.toneCutoff {
		e.tone.SetLowpass(cutoff, float32(e.cfg.SampleRate), 0.7071)
		e.toneCutoff = cutoff
	}
	e.toneOn = true
}
