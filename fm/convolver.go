package fm

import (
	"fmt"
	"os"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
)

// RoomConvolver turns the engine's mono output into a stereo room send:
// partitioned streaming convolution against a stereo impulse response,
// blended with the dry signal at a configurable wet mix. It belongs to the
// offline output stage (render tools); Process allocates its result slice
// and is not meant for the real-time path.
type RoomConvolver struct {
	sampleRate int
	partSize   int
	irLen      int
	wet        float32

	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]

	wetL []float32
	wetR []float32
	pad  []float32
}

// NewRoomConvolver creates a convolver with a unity (dry) response and the
// given wet mix in [0,1].
func NewRoomConvolver(sampleRate int, wetMix float32) *RoomConvolver {
	c := &RoomConvolver{
		sampleRate: sampleRate,
		partSize:   128,
		wet:        clamp01(wetMix),
	}
	c.SetIR([]float32{1.0}, []float32{1.0})
	return c
}

// IRLength returns the configured impulse response length in samples.
func (c *RoomConvolver) IRLength() int { return c.irLen }

// SetWetMix changes the wet/dry balance. 0 is fully dry, 1 fully wet.
func (c *RoomConvolver) SetWetMix(wetMix float32) {
	c.wet = clamp01(wetMix)
}

// Process consumes mono input and returns interleaved stereo: the dry
// signal on both channels crossfaded with the convolved room response.
func (c *RoomConvolver) Process(input []float32) []float32 {
	output := make([]float32, len(input)*2)
	dry := 1.0 - c.wet

	processed := 0
	for processed < len(input) {
		blockEnd := processed + c.partSize
		if blockEnd > len(input) {
			blockEnd = len(input)
		}
		blockLen := blockEnd - processed
		block := input[processed:blockEnd]

		if blockLen < c.partSize {
			copy(c.pad, block)
			for i := blockLen; i < c.partSize; i++ {
				c.pad[i] = 0
			}
			block = c.pad
		}

		errL := c.leftOLA.ProcessBlockTo(c.wetL, block)
		errR := c.rightOLA.ProcessBlockTo(c.wetR, block)
		if errL != nil || errR != nil {
			// Keep the dry signal rather than dropping audio for this block.
			for i := 0; i < blockLen; i++ {
				s := input[processed+i]
				output[(processed+i)*2] = s
				output[(processed+i)*2+1] = s
			}
			processed = blockEnd
			continue
		}

		for i := 0; i < blockLen; i++ {
			s := input[processed+i]
			output[(processed+i)*2] = dry*s + c.wet*c.wetL[i]
			output[(processed+i)*2+1] = dry*s + c.wet*c.wetR[i]
		}
		processed = blockEnd
	}

	return output
}

// SetIR configures the left/right impulse responses. Empty responses fall
// back to a unity impulse.
func (c *RoomConvolver) SetIR(leftIR []float32, rightIR []float32) {
	if len(leftIR) == 0 {
		leftIR = []float32{1.0}
	}
	if len(rightIR) == 0 {
		rightIR = []float32{1.0}
	}

	leftOLA, errL := dspconv.NewStreamingOverlapAdd32(leftIR, c.partSize)
	rightOLA, errR := dspconv.NewStreamingOverlapAdd32(rightIR, c.partSize)
	if errL != nil || errR != nil {
		return
	}
	c.leftOLA = leftOLA
	c.rightOLA = rightOLA
	c.irLen = len(leftIR)
	if len(rightIR) > c.irLen {
		c.irLen = len(rightIR)
	}

	c.wetL = make([]float32, c.partSize)
	c.wetR = make([]float32, c.partSize)
	c.pad = make([]float32, c.partSize)

	c.Reset()
}

// SetIRFromWAV loads a mono or stereo IR from a WAV file, resampling to the
// convolver's rate if necessary.
func (c *RoomConvolver) SetIRFromWAV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return fmt.Errorf("invalid wav buffer: %s", path)
	}

	numCh := buf.Format.NumChannels
	srcRate := buf.Format.SampleRate
	if srcRate <= 0 {
		return fmt.Errorf("invalid wav sample-rate: %d", srcRate)
	}
	frames := len(buf.Data) / numCh
	if frames == 0 {
		return fmt.Errorf("empty wav data: %s", path)
	}

	left := make([]float32, frames)
	right := make([]float32, frames)
	if numCh == 1 {
		for i := range frames {
			v := buf.Data[i]
			left[i] = v
			right[i] = v
		}
	} else {
		for i := range frames {
			left[i] = buf.Data[i*numCh]
			right[i] = buf.Data[i*numCh+1]
		}
	}

	left, err = c.resampleIfNeeded(left, srcRate)
	if err != nil {
		return err
	}
	right, err = c.resampleIfNeeded(right, srcRate)
	if err != nil {
		return err
	}
	c.SetIR(left, right)
	return nil
}

// Reset clears convolver history and overlap buffers.
func (c *RoomConvolver) Reset() {
	if c.leftOLA != nil {
		c.leftOLA.Reset()
	}
	if c.rightOLA != nil {
		c.rightOLA.Reset()
	}
}

func (c *RoomConvolver) resampleIfNeeded(in []float32, inRate int) ([]float32, error) {
	if inRate == c.sampleRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(inRate),
		float64(c.sampleRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}

	in64 := make([]float64, len(in))
	for i, v := range in {
		in64[i] = float64(v)
	}
	out64 := r.Process(in64)
	out := make([]float32, len(out64))
	for i, v := range out64 {
		out[i] = float32(v)
	}
	return out, nil
}
