package fm

import (
	"math"
	"testing"
)

func TestClockAdvanceStaysInUnitRange(t *testing.T) {
	var c clock
	c.setFreq(440.0, 48000.0)

	for i := 0; i < 200000; i++ {
		c.advance()
		if c.counter < 0 || c.counter >= 1 {
			t.Fatalf("counter escaped [0,1) at sample %d: got %f", i, c.counter)
		}
	}
}

func TestClockNegativeFreqClampsToZero(t *testing.T) {
	var c clock
	c.setFreq(-100.0, 48000.0)
	if c.phaseInc != 0 {
		t.Fatalf("expected zero increment for negative frequency, got %f", c.phaseInc)
	}
	c.advance()
	if c.counter != 0 {
		t.Fatalf("expected counter to stay at 0, got %f", c.counter)
	}
}

func TestClockSetFreqKeepsCounter(t *testing.T) {
	var c clock
	c.setFreq(440.0, 48000.0)
	for i := 0; i < 100; i++ {
		c.advance()
	}
	before := c.counter
	c.setFreq(880.0, 48000.0)
	if c.counter != before {
		t.Fatalf("retune moved the counter: got=%f want=%f", c.counter, before)
	}
}

func TestClockOffsetDoesNotMutate(t *testing.T) {
	var c clock
	c.setFreq(440.0, 48000.0)
	for i := 0; i < 37; i++ {
		c.advance()
	}
	before := c.counter
	_ = c.offset(0.73)
	_ = c.offset(-0.73)
	if c.counter != before {
		t.Fatalf("offset mutated the counter: got=%f want=%f", c.counter, before)
	}
}

func TestWrapPhase(t *testing.T) {
	cases := []struct {
		in   float32
		want float32
	}{
		{0.0, 0.0},
		{0.25, 0.25},
		{0.999, 0.999},
		{1.0, 0.0},
		{1.5, 0.5},
		{-0.25, 0.75},
		{2.5, 0.5},
		{-2.25, 0.75},
	}
	for _, tc := range cases {
		got := wrapPhase(tc.in)
		if math.Abs(float64(got-tc.want)) > 1e-6 {
			t.Fatalf("wrapPhase(%f): got=%f want=%f", tc.in, got, tc.want)
		}
		if got < 0 || got >= 1 {
			t.Fatalf("wrapPhase(%f) outside [0,1): got=%f", tc.in, got)
		}
	}
}
