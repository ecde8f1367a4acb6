// Command fm-match fits a synth patch to a reference recording. It runs a
// mayfly swarm over the selected knob groups, scoring each candidate by the
// spectral distance between its render and the reference, and writes the
// best patch as a preset file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-fm/analysis"
	"github.com/cwbudde/algo-fm/fm"
	"github.com/cwbudde/algo-fm/internal/wavio"
	"github.com/cwbudde/algo-fm/preset"
)

func main() {
	refPath := flag.String("reference", "", "Reference WAV file to match (required)")
	note := flag.Int("note", 69, "MIDI note number rendered for each candidate")
	velocity := flag.Float64("velocity", 0.8, "Render velocity (0.0-1.0)")
	duration := flag.Float64("duration", 2.0, "Candidate render duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff after this many seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Internal render and analysis sample rate")
	fftSize := flag.Int("fft-size", 4096, "FFT size for spectral comparison (power of two)")
	presetPath := flag.String("preset", "", "Starting preset JSON file (optional)")
	algoName := flag.String("algorithm", "", "Algorithm override (two-op-stack, four-op-stack, two-parallel, four-op-feedback)")
	groupsRaw := flag.String("optimize", "ops", "Comma-separated knob groups: ops, envelope, output")
	timeBudget := flag.Float64("time-budget", 120.0, "Wall-clock budget in seconds")
	maxEvals := flag.Int("max-evals", 4000, "Maximum candidate evaluations")
	reportEvery := flag.Int("report-every", 200, "Print progress every N evaluations (0 = off)")
	variant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma, desma, olce, eobbma, gsasma, mpma, aoblmoa")
	pop := flag.Int("mayfly-pop", 12, "Mayfly population size per swarm")
	roundEvals := flag.Int("mayfly-round-evals", 400, "Evaluation budget per mayfly round")
	workers := flag.Int("workers", 0, "Parallel workers (0 = GOMAXPROCS)")
	seed := flag.Int64("seed", 1, "Random seed")
	output := flag.String("output", "matched.json", "Output preset JSON path")
	flag.Parse()

	if *refPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -reference is required\n")
		flag.Usage()
		os.Exit(1)
	}

	groups, err := parseOptimizeGroups(*groupsRaw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	params := fm.NewDefaultParams()
	algo := fm.AlgoTwoOpStack
	if *presetPath != "" {
		params, algo, err = preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
	}
	if *algoName != "" {
		a, err := fm.ParseAlgorithm(*algoName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		algo = a
	}

	ref, refRate, err := wavio.ReadMono(*refPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading reference %q: %v\n", *refPath, err)
		os.Exit(1)
	}
	ref, err = wavio.Resample(ref, refRate, *sampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resampling reference: %v\n", err)
		os.Exit(1)
	}
	refSpectrum, err := analysis.Analyze(ref, *sampleRate, *fftSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing reference: %v\n", err)
		os.Exit(1)
	}

	defs, init := initCandidate(params, groups)
	fmt.Printf("Matching %s: %d knobs, algorithm %s, budget %.0fs / %d evals\n",
		*refPath, len(defs), algo, *timeBudget, *maxEvals)

	result, err := runOptimization(&optimizationConfig{
		refSpectrum:      refSpectrum,
		baseParams:       params,
		algorithm:        algo,
		defs:             defs,
		initCandidate:    init,
		note:             *note,
		velocity:         float32(*velocity),
		sampleRate:       *sampleRate,
		fftSize:          *fftSize,
		duration:         *duration,
		releaseAfter:     *releaseAfter,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		mayflyVariant:    *variant,
		mayflyPop:        *pop,
		mayflyRoundEvals: *roundEvals,
		workers:          *workers,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done: score=%.4f after %d evals in %.1fs\n", result.bestScore, result.evals, result.elapsed)
	for i, d := range defs {
		fmt.Printf("  %-18s %.4f\n", d.Name, result.best.Vals[i])
	}

	name := fmt.Sprintf("matched from %s", *refPath)
	if err := preset.SaveJSON(*output, name, result.bestParams, algo); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing preset %q: %v\n", *output, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *output)
}

// renderCandidate renders a single note for a fixed duration. Candidate
// evaluation uses a fixed length so every score sees the same window.
func renderCandidate(engine *fm.Engine, note int, velocity float32, sampleRate int,
	duration, releaseAfter float64) []float32 {

	const blockSize = 128
	totalFrames := int(float64(sampleRate) * duration)
	if totalFrames < 1 {
		totalFrames = 1
	}
	releaseAtFrame := int(float64(sampleRate) * releaseAfter)
	if releaseAtFrame < 0 {
		releaseAtFrame = 0
	}

	engine.NoteOn(note, velocity)

	samples := make([]float32, 0, totalFrames)
	block := make([]float32, blockSize)
	noteReleased := false
	for rendered := 0; rendered < totalFrames; {
		n := blockSize
		if rendered+n > totalFrames {
			n = totalFrames - rendered
		}
		if !noteReleased && rendered >= releaseAtFrame {
			engine.NoteOff(note)
			noteReleased = true
		}
		engine.Process(block[:n], nil)
		samples = append(samples, block[:n]...)
		rendered += n
	}
	return samples
}
