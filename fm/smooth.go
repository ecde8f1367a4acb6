package fm

import (
	"math"
	"sync/atomic"
)

// smoothingTauMs is the one-pole time constant applied to continuous
// parameters on the render side, so control-path edits never step the
// audio abruptly.
const smoothingTauMs = 50.0

// paramPort is the wait-free hand-off between the control path and the
// render path: the control path publishes complete snapshots, the render
// path loads whichever snapshot is latest at the start of a block.
type paramPort struct {
	snapshot atomic.Pointer[Params]
}

func (p *paramPort) publish(params *Params) {
	cp := *params
	p.snapshot.Store(&cp)
}

func (p *paramPort) load() *Params {
	return p.snapshot.Load()
}

// paramSmoother tracks the render-side effective parameters. Continuous
// fields approach the published target with a one-pole law, advanced once
// per sub-block; segment times and the tone cutoff switch as-is.
type paramSmoother struct {
	sampleRate  float32
	initialized bool
	current     Params
}

func (s *paramSmoother) snap(target *Params) *Params {
	s.current = *target
	s.initialized = true
	return &s.current
}

// step advances the effective parameters by span samples toward target and
// returns them. The returned pointer aliases internal state and is only
// valid until the next call.
func (s *paramSmoother) step(target *Params, span int) *Params {
	if !s.initialized || span <= 0 {
		return s.snap(target)
	}
	tauSamples := smoothingTauMs * s.sampleRate / 1000.0
	a := 1.0 - float32(math.Exp(-float64(span)/float64(tauSamples)))

	cur := &s.current
	cur.OutputGain += (target.OutputGain - cur.OutputGain) * a
	cur.SustainLevel += (target.SustainLevel - cur.SustainLevel) * a
	cur.Feedback += (target.Feedback - cur.Feedback) * a
	for i := 0; i < NumOperators; i++ {
		cur.OpRatio[i] += (target.OpRatio[i] - cur.OpRatio[i]) * a
		cur.OpIndex[i] += (target.OpIndex[i] - cur.OpIndex[i]) * a
		cur.OpMix[i] += (target.OpMix[i] - cur.OpMix[i]) * a
	}

	// Segment times parameterize slopes computed at state transitions, so
	// stepping them directly cannot click.
	cur.AttackMs = target.AttackMs
	cur.DecayMs = target.DecayMs
	cur.ReleaseMs = target.ReleaseMs
	cur.ToneCutoff = target.ToneCutoff
	return cur
}
