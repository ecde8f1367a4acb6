// Command fm-play renders the synth to the default audio output. Without
// -midi it loops a small demo arpeggio; with -midi it reads note events from
// the default MIDI input device.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/rakyll/portmidi"

	"github.com/cwbudde/algo-fm/fm"
	"github.com/cwbudde/algo-fm/preset"
)

func main() {
	sampleRate := flag.Int("sample-rate", 48000, "Playback sample rate in Hz")
	voices := flag.Int("voices", 8, "Polyphony (voice pool size)")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	algoName := flag.String("algorithm", "", "Algorithm override (two-op-stack, four-op-stack, two-parallel, four-op-feedback)")
	useMIDI := flag.Bool("midi", false, "Read notes from the default MIDI input instead of the demo arpeggio")
	tempo := flag.Float64("tempo", 110.0, "Demo arpeggio tempo in BPM")
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

	engine, err := fm.NewEngine(fm.Config{
		SampleRate: *sampleRate,
		Voices:     *voices,
		Algorithm:  algo,
	}, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}

	src := newEngineReader(engine)

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   20 * time.Millisecond,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio output: %v\n", err)
		os.Exit(1)
	}
	<-ready

	player := ctx.NewPlayer(src)
	player.Play()
	defer player.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	if *useMIDI {
		fmt.Printf("Playing from MIDI input, algorithm %s at %d Hz. Ctrl-C to quit.\n", algo, *sampleRate)
		if err := runMIDI(src, stop); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Playing demo arpeggio, algorithm %s at %d Hz. Ctrl-C to quit.\n", algo, *sampleRate)
	runArpeggio(src, *tempo, stop)
}

func runArpeggio(src *engineReader, tempo float64, stop <-chan os.Signal) {
	notes := []int{57, 60, 64, 69, 64, 60}
	beat := time.Duration(float64(time.Minute) / tempo / 2)
	tick := time.NewTicker(beat)
	defer tick.Stop()

	step := 0
	prev := -1
	for {
		select {
		case <-stop:
			if prev >= 0 {
				src.push(fm.NoteOff(prev))
			}
			// Let the release tail play out before tearing the player down.
			time.Sleep(300 * time.Millisecond)
			return
		case <-tick.C:
			if prev >= 0 {
				src.push(fm.NoteOff(prev))
			}
			n := notes[step%len(notes)]
			src.push(fm.NoteOn(n, 0.8))
			prev = n
			step++
		}
	}
}

func runMIDI(src *engineReader, stop <-chan os.Signal) error {
	if err := portmidi.Initialize(); err != nil {
		return fmt.Errorf("portmidi init: %w", err)
	}
	defer portmidi.Terminate()

	id := portmidi.DefaultInputDeviceID()
	if id < 0 {
		return fmt.Errorf("no MIDI input device found")
	}
	info := portmidi.Info(id)
	if info != nil {
		fmt.Printf("MIDI input: %s\n", info.Name)
	}

	stream, err := portmidi.NewInputStream(id, 1024)
	if err != nil {
		return fmt.Errorf("open MIDI input: %w", err)
	}
	defer stream.Close()

	poll := time.NewTicker(2 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case <-stop:
			return nil
		case <-poll.C:
			events, err := stream.Read(1024)
			if err != nil {
				continue
			}
			for _, ev := range events {
				status := ev.Status & 0xF0
				note := int(ev.Data1)
				switch {
				case status == 0x90 && ev.Data2 > 0:
					src.push(fm.NoteOn(note, float32(ev.Data2)/127.0))
				case status == 0x80 || (status == 0x90 && ev.Data2 == 0):
					src.push(fm.NoteOff(note))
				}
			}
		}
	}
}

// engineReader adapts the engine to the io.Reader the audio player pulls
// from. Note events arrive on a buffered channel and are drained at the
// start of each Read, so the audio callback path never blocks on callers.
type engineReader struct {
	engine  *fm.Engine
	pending chan fm.NoteEvent
	events  []fm.NoteEvent
	block   []float32
}

func newEngineReader(engine *fm.Engine) *engineReader {
	return &engineReader{
		engine:  engine,
		pending: make(chan fm.NoteEvent, 256),
		events:  make([]fm.NoteEvent, 0, 256),
		block:   make([]float32, 0, 4096),
	}
}

// push queues a note event for the next audio block. Events are dropped
// when the queue is full rather than blocking the caller.
func (r *engineReader) push(ev fm.NoteEvent) {
	select {
	case r.pending <- ev:
	default:
	}
}

func (r *engineReader) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	if cap(r.block) < frames {
		r.block = make([]float32, frames)
	}
	block := r.block[:frames]

	r.events = r.events[:0]
drain:
	for {
		select {
		case ev := <-r.pending:
			ev.Offset = 0
			r.events = append(r.events, ev)
		default:
			break drain
		}
	}

	r.engine.Process(block, r.events)

	for i, s := range block {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return frames * 4, nil
}
