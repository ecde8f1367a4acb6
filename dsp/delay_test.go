package dsp

import (
	"math"
	"testing"
)

func TestDelayLineReadZeroIsLastWrite(t *testing.T) {
	d := NewDelayLine(8)
	d.Write(0.5)
	if got := d.Read(0); got != 0.5 {
		t.Fatalf("Read(0): got=%f want=0.5", got)
	}
}

func TestDelayLineIntegerTaps(t *testing.T) {
	d := NewDelayLine(16)
	for i := 0; i < 10; i++ {
		d.Write(float32(i))
	}
	for delay := 0; delay < 10; delay++ {
		want := float32(9 - delay)
		if got := d.Read(delay); got != want {
			t.Fatalf("Read(%d): got=%f want=%f", delay, got, want)
		}
	}
}

func TestDelayLineFractionalInterpolates(t *testing.T) {
	d := NewDelayLine(8)
	d.Write(0.0)
	d.Write(1.0)
	if got := d.ReadFractional(0.5); math.Abs(float64(got-0.5)) > 1e-6 {
		t.Fatalf("ReadFractional(0.5): got=%f want=0.5", got)
	}
}

func TestDelayLineClampsOutOfRange(t *testing.T) {
	d := NewDelayLine(4)
	for i := 0; i < 4; i++ {
		d.Write(float32(i))
	}
	if got := d.Read(-3); got != d.Read(0) {
		t.Fatalf("negative delay not clamped: got=%f want=%f", got, d.Read(0))
	}
	if got := d.Read(100); got != d.Read(3) {
		t.Fatalf("oversized delay not clamped: got=%f want=%f", got, d.Read(3))
	}
}

func TestStereoWidenerLeftIsDry(t *testing.T) {
	w := NewStereoWidener(48000, 10.0, 0.8)
	for i := 0; i < 1000; i++ {
		in := float32(math.Sin(float64(i) * 0.05))
		l, _ := w.Process(in)
		if l != in {
			t.Fatalf("left channel altered at %d: got=%f want=%f", i, l, in)
		}
	}
}

func TestStereoWidenerZeroWidthIsDualMono(t *testing.T) {
	w := NewStereoWidener(48000, 10.0, 0.0)
	for i := 0; i < 1000; i++ {
		in := float32(math.Sin(float64(i) * 0.05))
		l, r := w.Process(in)
		if l != r {
			t.Fatalf("zero width produced stereo difference at %d: l=%f r=%f", i, l, r)
		}
	}
}

func TestStereoWidenerRightIsDelayed(t *testing.T) {
	const delayMs = 10.0
	taps := int(delayMs * 48000 / 1000)
	w := NewStereoWidener(48000, delayMs, 1.0)

	var rights []float32
	for i := 0; i < taps+100; i++ {
		in := float32(0)
		if i == 0 {
			in = 1.0
		}
		_, r := w.Process(in)
		rights = append(rights, r)
	}
	// Width 1: right is the fully delayed signal.
	if rights[taps-1] != 1.0 {
		t.Fatalf("expected impulse on right at tap %d, got %f", taps-1, rights[taps-1])
	}
}
