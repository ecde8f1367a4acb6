package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/algo-fm/analysis"
	"github.com/cwbudde/algo-fm/fm"
)

type optimizationConfig struct {
	refSpectrum      *analysis.Spectrum
	baseParams       *fm.Params
	algorithm        fm.Algorithm
	defs             []knobDef
	initCandidate    candidate
	note             int
	velocity         float32
	sampleRate       int
	fftSize          int
	duration         float64
	releaseAfter     float64
	seed             int64
	timeBudget       float64
	maxEvals         int
	reportEvery      int
	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
	workers          int
}

type optimizationResult struct {
	best       candidate
	bestScore  float64
	bestParams *fm.Params
	evals      int
	elapsed    float64
}

type optimizationState struct {
	mu         sync.Mutex
	best       candidate
	bestScore  float64
	bestParams *fm.Params
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))
	variant := strings.ToLower(cfg.mayflyVariant)

	best := cloneCandidate(cfg.initCandidate)
	initialScore, initialParams, err := evaluateCandidate(cfg, best)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	fmt.Printf("Start score=%.4f\n", initialScore)

	state := &optimizationState{
		best:       best,
		bestScore:  initialScore,
		bestParams: initialParams,
	}

	var evals int64 = 1
	var rounds int64
	var improves int64

	workers := cfg.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if time.Now().After(deadline) {
					return
				}
				if atomic.LoadInt64(&evals) >= int64(cfg.maxEvals) {
					return
				}

				round := int(atomic.AddInt64(&rounds, 1))
				remaining := cfg.maxEvals - int(atomic.LoadInt64(&evals))
				if remaining <= 0 {
					return
				}
				budget := minInt(cfg.mayflyRoundEvals, remaining)
				iters := maxInt(1, budget/(2*cfg.mayflyPop))

				mayflyConfig, err := newMayflyConfig(variant, cfg.mayflyPop, len(cfg.defs), iters)
				if err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d setup failed: %v\n", round, err)
					return
				}
				mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
				mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
					if time.Now().After(deadline) {
						return currentBestScore(state) + 1.0
					}
					evalNum, ok := reserveEval(&evals, cfg.maxEvals)
					if !ok {
						return currentBestScore(state) + 1.0
					}

					cand := fromNormalized(pos, cfg.defs)
					score, params, err := evaluateCandidate(cfg, cand)
					if err != nil {
						return currentBestScore(state) + 0.8
					}

					state.mu.Lock()
					if score < state.bestScore {
						state.best = cloneCandidate(cand)
						state.bestScore = score
						state.bestParams = params
						n := atomic.AddInt64(&improves, 1)
						fmt.Printf("Improved #%d eval=%d score=%.4f\n", n, evalNum, score)
					}
					bestScore := state.bestScore
					state.mu.Unlock()

					if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
						fmt.Printf("Progress eval=%d/%d elapsed=%.1fs best=%.4f\n",
							evalNum, cfg.maxEvals, time.Since(start).Seconds(), bestScore)
					}
					return score
				}

				if _, err := runMayfly(mayflyConfig); err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
				}
			}
		}()
	}
	wg.Wait()

	state.mu.Lock()
	defer state.mu.Unlock()
	return &optimizationResult{
		best:       cloneCandidate(state.best),
		bestScore:  state.bestScore,
		bestParams: state.bestParams,
		evals:      int(atomic.LoadInt64(&evals)),
		elapsed:    time.Since(start).Seconds(),
	}, nil
}

// evaluateCandidate renders the candidate patch and scores its spectrum
// against the reference. Each call builds its own engine so workers never
// share render state.
func evaluateCandidate(cfg *optimizationConfig, cand candidate) (float64, *fm.Params, error) {
	params := applyCandidate(cfg.baseParams, cfg.defs, cand)
	if err := params.Validate(); err != nil {
		return 0, nil, err
	}

	engine, err := fm.NewEngine(fm.Config{
		SampleRate: cfg.sampleRate,
		Voices:     1,
		Algorithm:  cfg.algorithm,
	}, params)
	if err != nil {
		return 0, nil, err
	}

	mono := renderCandidate(engine, cfg.note, cfg.velocity, cfg.sampleRate,
		cfg.duration, cfg.releaseAfter)

	mono64 := make([]float64, len(mono))
	for i, v := range mono {
		mono64[i] = float64(v)
	}
	spec, err := analysis.Analyze(mono64, cfg.sampleRate, cfg.fftSize)
	if err != nil {
		return 0, nil, err
	}
	return analysis.Distance(cfg.refSpectrum, spec), params, nil
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = maxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func reserveEval(evals *int64, maxEvals int) (int64, bool) {
	for {
		cur := atomic.LoadInt64(evals)
		if cur >= int64(maxEvals) {
			return 0, false
		}
		if atomic.CompareAndSwapInt64(evals, cur, cur+1) {
			return cur + 1, true
		}
	}
}

func currentBestScore(state *optimizationState) float64 {
	state.mu.Lock()
	score := state.bestScore
	state.mu.Unlock()
	return score
}
