package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-fm/dsp"
	"github.com/cwbudde/algo-fm/fm"
	"github.com/cwbudde/algo-fm/internal/wavio"
	"github.com/cwbudde/algo-fm/irsynth"
	"github.com/cwbudde/algo-fm/preset"
)

func main() {
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	velocity := flag.Float64("velocity", 0.8, "Note velocity (0.0-1.0)")
	duration := flag.Float64("duration", 2.0, "Duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff after this many seconds")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when block RMS falls below this dBFS (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum render duration in seconds when using -decay-dbfs")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	oversample := flag.Int("oversample", 1, "Render at N x sample rate and band-limit down (1, 2, or 4)")
	voices := flag.Int("voices", 8, "Polyphony (voice pool size)")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	algoName := flag.String("algorithm", "", "Algorithm override (two-op-stack, four-op-stack, two-parallel, four-op-feedback)")
	reverb := flag.Bool("reverb", false, "Apply a synthetic room reverb")
	reverbMix := flag.Float64("reverb-mix", 0.25, "Reverb wet mix (0.0-1.0)")
	irPath := flag.String("ir", "", "Room IR WAV path (implies -reverb)")
	stereoWidth := flag.Float64("stereo-width", 0.0, "Stereo widener amount (0 = mono written as stereo)")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	params := fm.NewDefaultParams()
	algo := fm.AlgoTwoOpStack
	if *presetPath != "" {
		var err error
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
	if *oversample != 1 && *oversample != 2 && *oversample != 4 {
		fmt.Fprintf(os.Stderr, "Error: -oversample must be 1, 2, or 4\n")
		os.Exit(1)
	}

	renderRate := *sampleRate * *oversample
	engine, err := fm.NewEngine(fm.Config{
		SampleRate: renderRate,
		Voices:     *voices,
		Algorithm:  algo,
	}, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendering note %d, velocity %.2f, algorithm %s at %d Hz", *note, *velocity, algo, *sampleRate)
	if *oversample > 1 {
		fmt.Printf(" (%dx oversampled)", *oversample)
	}
	fmt.Println("...")

	mono := renderMono(engine, *note, float32(*velocity), renderRate,
		*duration, *releaseAfter, *decayDBFS, *maxDuration, *decayHoldBlocks)

	if *oversample > 1 {
		mono64 := make([]float64, len(mono))
		for i, v := range mono {
			mono64[i] = float64(v)
		}
		down, err := wavio.Resample(mono64, renderRate, *sampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resampling: %v\n", err)
			os.Exit(1)
		}
		mono = make([]float32, len(down))
		for i, v := range down {
			mono[i] = float32(v)
		}
	}

	useReverb := *reverb || *irPath != ""
	var stereo []float32
	switch {
	case useReverb:
		conv := fm.NewRoomConvolver(*sampleRate, float32(*reverbMix))
		if *irPath != "" {
			if err := conv.SetIRFromWAV(*irPath); err != nil {
				fmt.Fprintf(os.Stderr, "Error loading IR %q: %v\n", *irPath, err)
				os.Exit(1)
			}
		} else {
			cfg := irsynth.DefaultConfig()
			cfg.SampleRate = *sampleRate
			left, right, err := irsynth.GenerateStereo(cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error generating IR: %v\n", err)
				os.Exit(1)
			}
			conv.SetIR(left, right)
		}
		stereo = conv.Process(mono)
	case *stereoWidth > 0:
		widener := dsp.NewStereoWidener(*sampleRate, 12.0, float32(*stereoWidth))
		stereo = make([]float32, len(mono)*2)
		for i, s := range mono {
			l, r := widener.Process(s)
			stereo[i*2] = l
			stereo[i*2+1] = r
		}
	default:
		stereo = make([]float32, len(mono)*2)
		for i, s := range mono {
			stereo[i*2] = s
			stereo[i*2+1] = s
		}
	}

	if err := wavio.WriteStereoInterleaved(*output, stereo, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, len(mono))
}

func renderMono(engine *fm.Engine, note int, velocity float32, sampleRate int,
	duration, releaseAfter, decayDBFS, maxDuration float64, decayHoldBlocks int) []float32 {

	const blockSize = 128
	autoStop := !math.IsInf(decayDBFS, 1)

	totalFrames := int(float64(sampleRate) * duration)
	if totalFrames < 1 {
		totalFrames = 1
	}
	maxFrames := totalFrames
	if autoStop {
		maxFrames = int(float64(sampleRate) * maxDuration)
		if maxFrames < blockSize {
			maxFrames = blockSize
		}
	}
	releaseAtFrame := int(float64(sampleRate) * releaseAfter)
	if releaseAtFrame < 0 {
		releaseAtFrame = 0
	}
	if decayHoldBlocks < 1 {
		decayHoldBlocks = 1
	}
	thresholdLin := math.Pow(10.0, decayDBFS/20.0)

	engine.NoteOn(note, velocity)

	samples := make([]float32, 0, maxFrames)
	block := make([]float32, blockSize)
	noteReleased := false
	belowCount := 0
	framesRendered := 0

	for framesRendered < maxFrames {
		framesToRender := blockSize
		if framesRendered+framesToRender > maxFrames {
			framesToRender = maxFrames - framesRendered
		}

		if !noteReleased && framesRendered >= releaseAtFrame {
			engine.NoteOff(note)
			noteReleased = true
		}

		engine.Process(block[:framesToRender], nil)
		samples = append(samples, block[:framesToRender]...)
		framesRendered += framesToRender

		if autoStop && noteReleased {
			if blockRMS(block[:framesToRender]) < thresholdLin {
				belowCount++
				if belowCount >= decayHoldBlocks {
					break
				}
			} else {
				belowCount = 0
			}
		}
	}
	return samples
}

func blockRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
