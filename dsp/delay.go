package dsp

// DelayLine is a circular buffer with integer and fractional taps.
type DelayLine struct {
	buffer   []float32
	writePos int
	size     int
}

// NewDelayLine creates a delay line holding size samples.
func NewDelayLine(size int) *DelayLine {
	if size < 1 {
		size = 1
	}
	return &DelayLine{buffer: make([]float32, size), size: size}
}

// Write pushes a sample into the line.
func (d *DelayLine) Write(sample float32) {
	d.buffer[d.writePos] = sample
	d.writePos = (d.writePos + 1) % d.size
}

// Read returns the sample written delay samples ago.
func (d *DelayLine) Read(delay int) float32 {
	if delay < 0 {
		delay = 0
	}
	if delay >= d.size {
		delay = d.size - 1
	}
	readPos := (d.writePos - 1 - delay + 2*d.size) % d.size
	return d.buffer[readPos]
}

// ReadFractional reads with linear interpolation between adjacent taps.
func (d *DelayLine) ReadFractional(delay float32) float32 {
	if delay < 0 {
		delay = 0
	}
	intDelay := int(delay)
	frac := delay - float32(intDelay)
	s1 := d.Read(intDelay)
	s2 := d.Read(intDelay + 1)
	return s1 + frac*(s2-s1)
}

// Reset clears the buffer.
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

// StereoWidener turns a mono stream into stereo by delaying one side a few
// milliseconds (Haas effect) and crossfading by width.
type StereoWidener struct {
	delay *DelayLine
	taps  int
	width float32
}

// NewStereoWidener creates a widener. delayMs is the inter-channel delay;
// width in [0,1] sets how much of the delayed signal reaches the right
// channel (0 = dual mono).
func NewStereoWidener(sampleRate int, delayMs float32, width float32) *StereoWidener {
	taps := int(delayMs * float32(sampleRate) / 1000.0)
	if taps < 1 {
		taps = 1
	}
	return &StereoWidener{
		delay: NewDelayLine(taps + 1),
		taps:  taps,
		width: clampWidth(width),
	}
}

func clampWidth(w float32) float32 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// Process consumes one mono sample and returns the left/right pair.
func (w *StereoWidener) Process(sample float32) (float32, float32) {
	w.delay.Write(sample)
	delayed := w.delay.Read(w.taps - 1)
	right := (1.0-w.width)*sample + w.width*delayed
	return sample, right
}

// Reset clears the internal delay history.
func (w *StereoWidener) Reset() {
	w.delay.Reset()
}
