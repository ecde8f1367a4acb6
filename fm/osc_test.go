package fm

import (
	"math"
	"testing"
)

func TestSineAtQuarterPoints(t *testing.T) {
	cases := []struct {
		phase float32
		want  float64
	}{
		{0.0, 0.0},
		{0.25, 1.0},
		{0.5, 0.0},
		{0.75, -1.0},
	}
	for _, tc := range cases {
		got := float64(sineAt(tc.phase))
		if math.Abs(got-tc.want) > 1e-3 {
			t.Fatalf("sineAt(%f): got=%f want=%f", tc.phase, got, tc.want)
		}
	}
}

func TestSineAtMatchesMathSin(t *testing.T) {
	for i := 0; i < 1000; i++ {
		phase := float32(i) / 1000.0
		got := float64(sineAt(phase))
		want := math.Sin(2 * math.Pi * float64(phase))
		// Linear interpolation over 1024 entries is good to ~2e-5.
		if math.Abs(got-want) > 1e-4 {
			t.Fatalf("sineAt(%f): got=%f want=%f", phase, got, want)
		}
	}
}

func TestSineAtBounded(t *testing.T) {
	for i := 0; i < 4096; i++ {
		phase := float32(i) / 4096.0
		v := sineAt(phase)
		if v < -1.0001 || v > 1.0001 {
			t.Fatalf("sineAt(%f) out of range: %f", phase, v)
		}
	}
}
