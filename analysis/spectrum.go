// Package analysis measures rendered audio: averaged magnitude spectra,
// peak location, band levels, and a spectral distance used by the fitting
// tool. Analysis runs in float64 off the render path.
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Spectrum is an averaged magnitude spectrum of a mono signal.
type Spectrum struct {
	SampleRate int
	FFTSize    int
	BinHz      float64
	Mags       []float64 // linear magnitudes, bins 0..FFTSize/2-1
}

// Analyze computes a Hann-windowed, half-overlapped averaged magnitude
// spectrum. Signals shorter than fftSize are zero-padded into one frame.
func Analyze(samples []float64, sampleRate, fftSize int) (*Spectrum, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0, got %d", sampleRate)
	}
	if fftSize < 16 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two >= 16, got %d", fftSize)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}

	hann := make([]float64, fftSize)
	for i := range hann {
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
	}

	nBins := fftSize / 2
	avg := make([]float64, nBins)
	spec := make([]complex128, fftSize/2+1)
	buf := make([]float64, fftSize)
	hop := fftSize / 2

	nFrames := 0
	for pos := 0; pos+fftSize <= len(samples); pos += hop {
		for i := 0; i < fftSize; i++ {
			buf[i] = samples[pos+i] * hann[i]
		}
		plan.Forward(spec, buf)
		for k := 0; k < nBins; k++ {
			avg[k] += cmplx.Abs(spec[k])
		}
		nFrames++
	}
	if nFrames == 0 {
		for i := range buf {
			buf[i] = 0
		}
		for i := 0; i < len(samples) && i < fftSize; i++ {
			buf[i] = samples[i] * hann[i]
		}
		plan.Forward(spec, buf)
		for k := 0; k < nBins; k++ {
			avg[k] = cmplx.Abs(spec[k])
		}
		nFrames = 1
	}

	scale := 1.0 / float64(nFrames)
	for k := range avg {
		avg[k] *= scale
	}

	return &Spectrum{
		SampleRate: sampleRate,
		FFTSize:    fftSize,
		BinHz:      float64(sampleRate) / float64(fftSize),
		Mags:       avg,
	}, nil
}

// PeakNear finds the strongest bin within spanHz of centerHz and returns
// its frequency and linear magnitude. Returns zeros when the window falls
// outside the spectrum.
func (s *Spectrum) PeakNear(centerHz, spanHz float64) (float64, float64) {
	minBin := int((centerHz - spanHz) / s.BinHz)
	maxBin := int((centerHz + spanHz) / s.BinHz)
	if minBin < 1 {
		minBin = 1
	}
	if maxBin > len(s.Mags)-1 {
		maxBin = len(s.Mags) - 1
	}
	if minBin > maxBin {
		return 0, 0
	}
	bestBin := minBin
	bestMag := 0.0
	for k := minBin; k <= maxBin; k++ {
		if s.Mags[k] > bestMag {
			bestMag = s.Mags[k]
			bestBin = k
		}
	}
	return float64(bestBin) * s.BinHz, bestMag
}

// BandLevelDB returns the mean magnitude of [loHz,hiHz) in dB relative to
// unit magnitude. Empty bands report -120 dB.
func (s *Spectrum) BandLevelDB(loHz, hiHz float64) float64 {
	loK := int(loHz / s.BinHz)
	hiK := int(hiHz / s.BinHz)
	if loK < 1 {
		loK = 1
	}
	if hiK > len(s.Mags) {
		hiK = len(s.Mags)
	}
	if loK >= hiK {
		return -120.0
	}
	sum := 0.0
	for k := loK; k < hiK; k++ {
		sum += s.Mags[k]
	}
	return linToDB(sum / float64(hiK-loK))
}

// SidebandFrequencies lists the expected FM sideband locations
// carrier ± k*modulator for k in 1..count, dropping non-positive ones.
func SidebandFrequencies(carrierHz, modulatorHz float64, count int) []float64 {
	out := make([]float64, 0, 2*count)
	for k := 1; k <= count; k++ {
		lo := carrierHz - float64(k)*modulatorHz
		hi := carrierHz + float64(k)*modulatorHz
		if lo > 0 {
			out = append(out, lo)
		}
		out = append(out, hi)
	}
	return out
}

// Distance is the RMS difference of the two spectra in dB, computed over
// the bins both spectra share. Lower is more similar.
func Distance(ref, cand *Spectrum) float64 {
	n := len(ref.Mags)
	if len(cand.Mags) < n {
		n = len(cand.Mags)
	}
	if n < 2 {
		return math.Inf(1)
	}
	refPeak := maxMag(ref.Mags[:n])
	candPeak := maxMag(cand.Mags[:n])
	if refPeak <= 0 || candPeak <= 0 {
		return math.Inf(1)
	}
	sum := 0.0
	for k := 1; k < n; k++ {
		r := linToDB(ref.Mags[k] / refPeak)
		c := linToDB(cand.Mags[k] / candPeak)
		d := r - c
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

func maxMag(mags []float64) float64 {
	m := 0.0
	for _, v := range mags {
		if v > m {
			m = v
		}
	}
	return m
}

func linToDB(x float64) float64 {
	if x < 1e-6 {
		x = 1e-6
	}
	return 20.0 * math.Log10(x)
}
