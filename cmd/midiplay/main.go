// Command midiplay is a thin demonstration CLI: load a Standard MIDI File
// and play it through a chosen backend. Flag parsing and session-manager
// glue are explicitly out of scope for the core engine (spec.md §1); this
// file is the minimal driver that exercises it end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rtl66go/midiengine/pkg/logger"
	"github.com/rtl66go/midiengine/pkg/midi"
	"github.com/rtl66go/midiengine/pkg/rtl"
)

func main() {
	var (
		path       = flag.String("file", "", "path to a .mid file to play")
		backend    = flag.String("backend", "dummy", "backend: dummy, synth")
		soundFont  = flag.String("soundfont", "", "path to a .sf2 file (required for -backend=synth)")
		logLevel   = flag.String("log-level", "info", "debug, info, warn, error")
		bpmOverride = flag.Float64("bpm", 0, "override the file's initial tempo (0 = use file tempo)")
	)
	flag.Parse()

	if err := logger.Init(*logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Get()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: midiplay -file song.mid [-backend dummy|synth] [-soundfont font.sf2]")
		os.Exit(2)
	}

	result, err := midi.ReadFile(*path)
	if err != nil {
		log.Error("failed to read midi file", "path", *path, "error", err)
		os.Exit(1)
	}

	var api rtl.MidiApi
	switch *backend {
	case "synth":
		if *soundFont == "" {
			fmt.Fprintln(os.Stderr, "-backend=synth requires -soundfont")
			os.Exit(2)
		}
		synth, err := rtl.NewSynth(*soundFont)
		if err != nil {
			log.Error("failed to open synth backend", "error", err)
			os.Exit(1)
		}
		api = synth
	default:
		api = rtl.NewDummy()
	}

	cfg := rtl.DefaultConfig()
	player := rtl.NewPlayer(cfg, api, log)
	if err := api.OpenPort(0, "midiplay"); err != nil {
		log.Error("failed to open output port", "backend", api.Name(), "error", err)
		os.Exit(1)
	}
	player.Bus().AddOutput(api, api.Name(), rtl.ClockOff)
	player.Setup(result)

	if *bpmOverride > 0 {
		player.Transport().SetBPM(*bpmOverride)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := player.Launch(ctx); err != nil {
		log.Error("failed to launch player", "error", err)
		os.Exit(1)
	}
	log.Info("playing", "file", *path, "backend", api.Name(), "tracks", result.Tracks.Len())

	<-ctx.Done()
	stop()
	time.Sleep(50 * time.Millisecond) // let the final output slice flush
	if err := player.Finish(); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	for _, msg := range player.Errors() {
		log.Warn("backend error", "message", msg)
	}
}
