package analysis

import (
	"math"
	"testing"
)

func sineSignal(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestAnalyzePeakAtSineFrequency(t *testing.T) {
	spec, err := Analyze(sineSignal(1000, 48000, 48000), 48000, 4096)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	freq, mag := spec.PeakNear(1000, 200)
	if mag <= 0 {
		t.Fatalf("no peak found near 1 kHz")
	}
	if math.Abs(freq-1000) > spec.BinHz {
		t.Fatalf("peak frequency: got=%.1f Hz want=1000 Hz (bin %.2f Hz)", freq, spec.BinHz)
	}
}

func TestAnalyzeRejectsBadArguments(t *testing.T) {
	sig := sineSignal(440, 48000, 4096)
	if _, err := Analyze(sig, 0, 4096); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
	if _, err := Analyze(sig, 48000, 1000); err == nil {
		t.Fatalf("expected error for non-power-of-two fft size")
	}
	if _, err := Analyze(nil, 48000, 4096); err == nil {
		t.Fatalf("expected error for empty signal")
	}
}

func TestAnalyzeShortSignalZeroPads(t *testing.T) {
	spec, err := Analyze(sineSignal(1000, 48000, 512), 48000, 4096)
	if err != nil {
		t.Fatalf("Analyze short signal: %v", err)
	}
	freq, mag := spec.PeakNear(1000, 300)
	if mag <= 0 {
		t.Fatalf("no peak in zero-padded frame")
	}
	// A 512-sample window widens the peak; allow a few bins of slack.
	if math.Abs(freq-1000) > 4*spec.BinHz {
		t.Fatalf("padded peak frequency: got=%.1f Hz want~1000 Hz", freq)
	}
}

func TestBandLevelOrdersBands(t *testing.T) {
	spec, err := Analyze(sineSignal(1000, 48000, 48000), 48000, 4096)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	inBand := spec.BandLevelDB(800, 1200)
	outBand := spec.BandLevelDB(4000, 8000)
	if inBand <= outBand+20 {
		t.Fatalf("band containing the tone should dominate: in=%f dB out=%f dB", inBand, outBand)
	}
}

func TestSidebandFrequencies(t *testing.T) {
	got := SidebandFrequencies(440, 100, 2)
	want := []float64{340, 540, 240, 640}
	if len(got) != len(want) {
		t.Fatalf("sideband count: got=%d want=%d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("sideband %d: got=%f want=%f", i, got[i], want[i])
		}
	}
}

func TestSidebandFrequenciesDropsNonPositive(t *testing.T) {
	got := SidebandFrequencies(200, 150, 2)
	for _, f := range got {
		if f <= 0 {
			t.Fatalf("non-positive sideband survived: %f", f)
		}
	}
	// 200 - 2*150 = -100 is dropped, so 3 remain.
	if len(got) != 3 {
		t.Fatalf("sideband count: got=%d want=3", len(got))
	}
}

func TestDistanceZeroForIdenticalSpectra(t *testing.T) {
	spec, err := Analyze(sineSignal(1000, 48000, 48000), 48000, 4096)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if d := Distance(spec, spec); d > 1e-9 {
		t.Fatalf("self distance: got=%f want=0", d)
	}
}

func TestDistanceSeparatesDifferentTones(t *testing.T) {
	a, err := Analyze(sineSignal(500, 48000, 48000), 48000, 4096)
	if err != nil {
		t.Fatalf("Analyze a: %v", err)
	}
	b, err := Analyze(sineSignal(500, 48000, 48000), 48000, 4096)
	if err != nil {
		t.Fatalf("Analyze b: %v", err)
	}
	c, err := Analyze(sineSignal(3000, 48000, 48000), 48000, 4096)
	if err != nil {
		t.Fatalf("Analyze c: %v", err)
	}
	same := Distance(a, b)
	different := Distance(a, c)
	if different <= same {
		t.Fatalf("distance does not separate: same=%f different=%f", same, different)
	}
}

func TestAnalyzeFMSpectrumShowsSidebands(t *testing.T) {
	// Phase-modulated tone: carrier 2 kHz, modulator 400 Hz, index 2 rad.
	const (
		carrier   = 2000.0
		modulator = 400.0
		index     = 2.0
	)
	n := 48000
	sig := make([]float64, n)
	for i := range sig {
		ts := float64(i) / 48000.0
		sig[i] = math.Sin(2*math.Pi*carrier*ts + index*math.Sin(2*math.Pi*modulator*ts))
	}
	spec, err := Analyze(sig, 48000, 8192)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// A frequency far from any sideband serves as the noise reference.
	_, noise := spec.PeakNear(7000, 2*spec.BinHz)
	for _, f := range SidebandFrequencies(carrier, modulator, 2) {
		_, mag := spec.PeakNear(f, 2*spec.BinHz)
		if mag < noise*10 {
			t.Fatalf("sideband at %.0f Hz not above noise: mag=%g noise=%g", f, mag, noise)
		}
	}
}
