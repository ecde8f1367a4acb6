// Command fm-spectrum prints the averaged magnitude spectrum of a WAV file:
// octave band levels, the strongest peaks, and the expected FM sideband
// locations for a given carrier/modulator pair. With -compare it also
// reports the spectral distance to a second file.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/cwbudde/algo-fm/analysis"
	"github.com/cwbudde/algo-fm/internal/wavio"
)

func main() {
	fftSize := flag.Int("fft-size", 4096, "FFT size (power of two)")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate (input is resampled)")
	peaks := flag.Int("peaks", 8, "Number of strongest peaks to print")
	carrier := flag.Float64("carrier", 0, "Carrier frequency in Hz for sideband report (0 = off)")
	modulator := flag.Float64("modulator", 0, "Modulator frequency in Hz for sideband report")
	sidebands := flag.Int("sidebands", 3, "Sideband orders to report per side")
	comparePath := flag.String("compare", "", "Second WAV file to compare against")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: fm-spectrum [flags] <input.wav>\n")
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	spec, err := loadSpectrum(path, *sampleRate, *fftSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: fft=%d bin=%.2f Hz\n\n", path, spec.FFTSize, spec.BinHz)

	fmt.Println("Band levels:")
	lo := 31.25
	for lo < float64(*sampleRate)/2 {
		hi := lo * 2
		fmt.Printf("  %7.0f - %7.0f Hz  %7.1f dB\n", lo, hi, spec.BandLevelDB(lo, hi))
		lo = hi
	}

	fmt.Printf("\nTop %d peaks:\n", *peaks)
	for _, p := range topPeaks(spec, *peaks) {
		fmt.Printf("  %8.1f Hz  mag %.4g\n", p.freq, p.mag)
	}

	if *carrier > 0 && *modulator > 0 {
		fmt.Printf("\nSidebands for carrier %.1f Hz, modulator %.1f Hz:\n", *carrier, *modulator)
		cf, cm := spec.PeakNear(*carrier, spec.BinHz*4)
		fmt.Printf("  carrier    %8.1f Hz  mag %.4g\n", cf, cm)
		for _, f := range analysis.SidebandFrequencies(*carrier, *modulator, *sidebands) {
			pf, pm := spec.PeakNear(f, spec.BinHz*4)
			fmt.Printf("  %8.1f Hz -> peak %8.1f Hz  mag %.4g\n", f, pf, pm)
		}
	}

	if *comparePath != "" {
		other, err := loadSpectrum(*comparePath, *sampleRate, *fftSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nSpectral distance to %s: %.4f dB RMS\n", *comparePath, analysis.Distance(spec, other))
	}
}

func loadSpectrum(path string, sampleRate, fftSize int) (*analysis.Spectrum, error) {
	samples, rate, err := wavio.ReadMono(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	samples, err = wavio.Resample(samples, rate, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("resampling %q: %w", path, err)
	}
	return analysis.Analyze(samples, sampleRate, fftSize)
}

type peak struct {
	freq float64
	mag  float64
}

// topPeaks returns the strongest local maxima, strongest first.
func topPeaks(s *analysis.Spectrum, n int) []peak {
	found := make([]peak, 0, 64)
	for k := 2; k < len(s.Mags)-1; k++ {
		if s.Mags[k] > s.Mags[k-1] && s.Mags[k] >= s.Mags[k+1] {
			found = append(found, peak{freq: float64(k) * s.BinHz, mag: s.Mags[k]})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].mag > found[j].mag })
	if len(found) > n {
		found = found[:n]
	}
	return found
}
