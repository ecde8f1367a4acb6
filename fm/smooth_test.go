package fm

import (
	"math"
	"testing"
)

func TestParamPortPublishCopies(t *testing.T) {
	var port paramPort
	p := NewDefaultParams()
	port.publish(p)

	p.OutputGain = 99.0
	if got := port.load().OutputGain; got == 99.0 {
		t.Fatalf("published snapshot aliases the caller's params")
	}
}

func TestSmootherFirstStepSnaps(t *testing.T) {
	var s paramSmoother
	s.sampleRate = 48000
	target := NewDefaultParams()
	target.OutputGain = 0.7

	got := s.step(target, 64)
	if got.OutputGain != 0.7 {
		t.Fatalf("first step should snap: got=%f want=0.7", got.OutputGain)
	}
	if !s.initialized {
		t.Fatalf("smoother not marked initialized")
	}
}

func TestSmootherConvergesToTarget(t *testing.T) {
	var s paramSmoother
	s.sampleRate = 48000

	start := NewDefaultParams()
	start.OutputGain = 1.0
	s.step(start, 64)

	target := NewDefaultParams()
	target.OutputGain = 0.0

	// 50 ms time constant: one tau in, the gap has shrunk to ~1/e.
	tau := smoothingTauMs * 48.0 / 64.0
	tauSpans := int(tau)
	for i := 0; i < tauSpans; i++ {
		s.step(target, 64)
	}
	atTau := float64(s.current.OutputGain)
	if math.Abs(atTau-1.0/math.E) > 0.02 {
		t.Fatalf("after one tau: got=%f want=%f", atTau, 1.0/math.E)
	}

	for i := 0; i < 20*tauSpans; i++ {
		s.step(target, 64)
	}
	if s.current.OutputGain > 1e-6 {
		t.Fatalf("did not converge: %g", s.current.OutputGain)
	}
}

func TestSmootherCopiesSegmentTimesDirectly(t *testing.T) {
	var s paramSmoother
	s.sampleRate = 48000
	s.step(NewDefaultParams(), 64)

	target := NewDefaultParams()
	target.AttackMs = 333.0
	target.ReleaseMs = 444.0
	target.ToneCutoff = 1234.0

	got := s.step(target, 64)
	if got.AttackMs != 333.0 || got.ReleaseMs != 444.0 || got.ToneCutoff != 1234.0 {
		t.Fatalf("segment times must switch without smoothing: attack=%f release=%f cutoff=%f",
			got.AttackMs, got.ReleaseMs, got.ToneCutoff)
	}
}
