// Package irsynth generates synthetic stereo room impulse responses used as
// the default reverb for the render tools.
package irsynth

import (
	"fmt"
	"math"
	"math/rand"
)

// Config controls synthetic IR generation.
type Config struct {
	SampleRate int
	DurationS  float64
	Modes      int
	Seed       int64

	Brightness  float64
	StereoWidth float64
	DirectLevel float64
	EarlyCount  int
	LateLevel   float64

	LowDecayS  float64
	HighDecayS float64

	NormalizePeak float64
}

func DefaultConfig() Config {
	return Config{
		SampleRate:    48000,
		DurationS:     1.5,
		Modes:         96,
		Seed:          1,
		Brightness:    1.0,
		StereoWidth:   0.6,
		DirectLevel:   0.5,
		EarlyCount:    12,
		LateLevel:     0.05,
		LowDecayS:     1.6,
		HighDecayS:    0.3,
		NormalizePeak: 0.9,
	}
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.Modes < 1 {
		return fmt.Errorf("modes must be >= 1")
	}
	if c.Brightness <= 0 {
		return fmt.Errorf("brightness must be > 0")
	}
	if c.StereoWidth < 0 {
		return fmt.Errorf("stereo width must be >= 0")
	}
	if c.DirectLevel < 0 {
		return fmt.Errorf("direct level must be >= 0")
	}
	if c.EarlyCount < 0 {
		return fmt.Errorf("early count must be >= 0")
	}
	if c.LateLevel < 0 {
		return fmt.Errorf("late level must be >= 0")
	}
	if c.LowDecayS <= 0 || c.HighDecayS <= 0 {
		return fmt.Errorf("decay seconds must be > 0")
	}
	if c.NormalizePeak <= 0 {
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// GenerateStereo synthesizes a stereo IR: a direct impulse, log-spaced
// decaying modes, an early reflection cluster, and a diffuse noise tail.
func GenerateStereo(cfg Config) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	n := int(math.Round(cfg.DurationS * float64(cfg.SampleRate)))
	if n < 1 {
		n = 1
	}
	left := make([]float64, n)
	right := make([]float64, n)

	rng := rand.New(rand.NewSource(cfg.Seed))

	left[0] += cfg.DirectLevel * (1.0 - 0.05*cfg.StereoWidth)
	right[0] += cfg.DirectLevel * (1.0 + 0.05*cfg.StereoWidth)

	maxF := 0.45 * float64(cfg.SampleRate)
	minF := 60.0
	if minF >= maxF {
		minF = maxF * 0.5
	}

	// Log-spaced decaying modes; RNG only jitters amplitude, phase, and pan.
	for m := 0; m < cfg.Modes; m++ {
		fNorm := (float64(m) + 0.5) / float64(cfg.Modes)
		f := minF * math.Pow(maxF/minF, fNorm)

		brightnessExp := 0.7 + 0.9*cfg.Brightness
		amp := 0.9 / math.Pow(1.0+f/150.0, brightnessExp)
		amp *= 0.7 + 0.6*rng.Float64()

		tau := lerp(cfg.LowDecayS, cfg.HighDecayS, math.Sqrt(f/maxF))
		decay := math.Exp(-1.0 / (tau * float64(cfg.SampleRate)))

		pan := (rng.Float64()*2.0 - 1.0) * cfg.StereoWidth
		lGain := 1.0 - 0.45*pan
		rGain := 1.0 + 0.45*pan

		phi := rng.Float64() * 2.0 * math.Pi
		addMode(left, amp*lGain, f, phi, decay, cfg.SampleRate)
		addMode(right, amp*rGain, f, phi+0.01*pan, decay, cfg.SampleRate)
	}

	// Early reflections cluster in the first 30 ms.
	for i := 0; i < cfg.EarlyCount; i++ {
		t := 0.001 + 0.030*rng.Float64()
		idx := int(t * float64(cfg.SampleRate))
		if idx <= 0 || idx >= n {
			continue
		}
		amp := (0.10 + 0.35*rng.Float64()) * math.Exp(-t*28.0)
		pan := (rng.Float64()*2.0 - 1.0) * cfg.StereoWidth
		left[idx] += amp * (1.0 - 0.5*pan)
		right[idx] += amp * (1.0 + 0.5*pan)
	}

	// Diffuse late tail: lowpassed noise under an exponential envelope.
	if cfg.LateLevel > 0 {
		lpL := 0.0
		lpR := 0.0
		for i := 0; i < n; i++ {
			t := float64(i) / float64(cfg.SampleRate)
			env := math.Exp(-t / (0.75 * cfg.LowDecayS))
			lpL = 0.985*lpL + 0.015*rng.NormFloat64()
			lpR = 0.985*lpR + 0.015*rng.NormFloat64()
			left[i] += cfg.LateLevel * env * lpL
			right[i] += cfg.LateLevel * env * lpR
		}
	}

	highpassDC(left, 0.995)
	highpassDC(right, 0.995)

	peak := maxAbs(left)
	if rp := maxAbs(right); rp > peak {
		peak = rp
	}
	if peak < 1e-12 {
		peak = 1e-12
	}
	s := cfg.NormalizePeak / peak
	outL := make([]float32, n)
	outR := make([]float32, n)
	for i := 0; i < n; i++ {
		outL[i] = float32(left[i] * s)
		outR[i] = float32(right[i] * s)
	}
	return outL, outR, nil
}

// addMode accumulates one exponentially decaying sinusoid with a recursive
// oscillator, avoiding a per-sample sin call.
func addMode(dst []float64, amp, freq, phase, decay float64, sampleRate int) {
	w := 2.0 * math.Pi * freq / float64(sampleRate)
	cosW := math.Cos(w)
	sinW := math.Sin(w)
	re := math.Cos(phase)
	im := math.Sin(phase)
	g := amp
	for i := range dst {
		dst[i] += g * im
		re, im = re*cosW-im*sinW, re*sinW+im*cosW
		g *= decay
		if g < 1e-9 {
			break
		}
	}
}

func highpassDC(x []float64, coeff float64) {
	prevIn := 0.0
	prevOut := 0.0
	for i := range x {
		out := x[i] - prevIn + coeff*prevOut
		prevIn = x[i]
		prevOut = out
		x[i] = out
	}
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
