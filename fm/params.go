package fm

import "fmt"

// NumOperators is the fixed number of FM operators per voice. Topologies
// that use fewer simply leave the remaining operators silent.
const NumOperators = 4

// Params holds every live synthesis parameter. The engine treats a Params
// value handed to SetParams as an immutable snapshot; continuous fields are
// smoothed on the render side before they reach the voices.
type Params struct {
	OutputGain float32

	// ADSR segment times in milliseconds plus the sustain plateau level.
	AttackMs     float32
	DecayMs      float32
	SustainLevel float32
	ReleaseMs    float32

	// Per-operator settings. Ratio is the frequency multiple of the voice's
	// base frequency. Index is the operator's peak phase deviation in
	// radians when it acts as a modulator. Mix is the operator's output
	// weight when it acts as a carrier.
	OpRatio [NumOperators]float32
	OpIndex [NumOperators]float32
	OpMix   [NumOperators]float32

	// Feedback scales operator self-modulation in topologies that use it.
	Feedback float32

	// ToneCutoff enables a lowpass on the mixed output when > 0 (Hz).
	ToneCutoff float32
}

// NewDefaultParams creates default parameters: a plain 2:1 two-operator
// bell-ish patch with moderate envelope times.
func NewDefaultParams() *Params {
	p := &Params{
		OutputGain:   0.5,
		AttackMs:     10.0,
		DecayMs:      100.0,
		SustainLevel: 0.8,
		ReleaseMs:    100.0,
		Feedback:     0.0,
		ToneCutoff:   0.0,
	}
	for i := 0; i < NumOperators; i++ {
		p.OpRatio[i] = 1.0
		p.OpIndex[i] = 0.0
		p.OpMix[i] = 1.0
	}
	// Operator 1 modulating operator 0 is the audible default.
	p.OpRatio[1] = 2.0
	p.OpIndex[1] = 2.0
	return p
}

// Validate reports the first out-of-range parameter, if any.
func (p *Params) Validate() error {
	if p.OutputGain < 0 {
		return fmt.Errorf("output gain must be >= 0, got %g", p.OutputGain)
	}
	if p.AttackMs < 0 || p.DecayMs < 0 || p.ReleaseMs < 0 {
		return fmt.Errorf("envelope times must be >= 0")
	}
	if p.SustainLevel < 0 || p.SustainLevel > 1 {
		return fmt.Errorf("sustain level must be in [0,1], got %g", p.SustainLevel)
	}
	for i := 0; i < NumOperators; i++ {
		if p.OpRatio[i] < 0 {
			return fmt.Errorf("operator %d ratio must be >= 0, got %g", i, p.OpRatio[i])
		}
		if p.OpIndex[i] < 0 {
			return fmt.Errorf("operator %d index must be >= 0, got %g", i, p.OpIndex[i])
		}
		if p.OpMix[i] < 0 || p.OpMix[i] > 1 {
			return fmt.Errorf("operator %d mix must be in [0,1], got %g", i, p.OpMix[i])
		}
	}
	if p.Feedback < 0 || p.Feedback > 1 {
		return fmt.Errorf("feedback must be in [0,1], got %g", p.Feedback)
	}
	if p.ToneCutoff < 0 {
		return fmt.Errorf("tone cutoff must be >= 0, got %g", p.ToneCutoff)
	}
	return nil
}

// Config holds construction-time engine settings.
type Config struct {
	SampleRate int
	Voices     int
	Algorithm  Algorithm
}

// Validate rejects configurations the engine cannot run with. A pool with
// zero voices is a construction error, never a render-time condition.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be > 0, got %d", c.SampleRate)
	}
	if c.Voices < 1 {
		return fmt.Errorf("voice count must be >= 1, got %d", c.Voices)
	}
	if !c.Algorithm.valid() {
		return fmt.Errorf("unknown algorithm %d", int(c.Algorithm))
	}
	return nil
}
