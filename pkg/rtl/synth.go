package rtl

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// synthSampleRate is the audio sample rate used for software synthesis,
// matching pkg/engine/midi_player.go's MIDISampleRate.
const synthSampleRate = 44100

var (
	synthAudioCtxOnce sync.Once
	synthAudioCtx     *audio.Context
)

func getSynthAudioContext() *audio.Context {
	synthAudioCtxOnce.Do(func() {
		synthAudioCtx = audio.NewContext(synthSampleRate)
	})
	return synthAudioCtx
}

// synthStream implements io.Reader, rendering audio.Context-consumable PCM
// from the wavetable synthesizer as it receives messages. Grounded on
// pkg/engine/midi_player.go's MIDIStream and pkg/vm/audio/midi.go's
// MIDIStream.
type synthStream struct {
	mu   sync.Mutex
	synt *meltysynth.Synthesizer
}

func (s *synthStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := len(p) / 4
	if samples == 0 {
		return 0, nil
	}
	left := make([]float32, samples)
	right := make([]float32, samples)
	s.synt.Render(left, right)

	for i := 0; i < samples; i++ {
		l := int16(clampF(left[i], -1, 1) * 32767)
		r := int16(clampF(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}
	return len(p), nil
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Synth is a MidiApi backend that needs no native device: SendMessage
// drives an in-process go-meltysynth wavetable synthesizer whose output is
// rendered through ebiten/v2/audio. It exists so the engine is runnable
// (and audible) without real MIDI hardware, sitting behind the exact same
// MidiApi contract as every hardware backend (spec.md §1's synthesis
// non-goal is about the *core*, not this convenience backend).
type Synth struct {
	mu     sync.Mutex
	synt   *meltysynth.Synthesizer
	stream *synthStream
	player *audio.Player
	open   bool
	cb     InputCallback
	q      *inputQueue
}

// NewSynth loads a SoundFont (.sf2) from soundFontPath and builds a
// ready-to-open Synth backend.
func NewSynth(soundFontPath string) (*Synth, error) {
	f, err := os.Open(soundFontPath)
	if err != nil {
		return nil, fmt.Errorf("rtl: open soundfont %s: %w", soundFontPath, err)
	}
	defer f.Close()

	sf, err := meltysynth.NewSoundFont(f)
	if err != nil {
		return nil, fmt.Errorf("rtl: parse soundfont %s: %w", soundFontPath, err)
	}

	settings := meltysynth.NewSynthesizerSettings(synthSampleRate)
	synt, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, fmt.Errorf("rtl: create synthesizer: %w", err)
	}

	return &Synth{synt: synt, stream: &synthStream{synt: synt}, q: newInputQueue(64)}, nil
}

func (s *Synth) Name() string { return "synth" }

func (s *Synth) OpenPort(n int, clientName string) error {
	if n != 0 {
		return ErrInvalidParameter
	}
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
	return nil
}

func (s *Synth) OpenVirtualPort(name string) error { return ErrUnimplemented }

func (s *Synth) ClosePort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		_ = s.player.Close()
		s.player = nil
	}
	s.open = false
	return nil
}

func (s *Synth) SetClientName(name string) error { return nil }
func (s *Synth) SetPortName(name string) error    { return nil }

func (s *Synth) GetPortCount() int { return 1 }
func (s *Synth) GetPortName(n int) (string, error) {
	if n != 0 {
		return "", ErrInvalidParameter
	}
	return "[0] software synth", nil
}

// SendMessage forwards one wire message to the synthesizer, decoding
// channel/command/data exactly as MIDIBridge.Write does in
// pkg/engine/midi_player.go.
func (s *Synth) SendMessage(msg gomidi.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrPortClosed
	}
	bytes := []byte(msg)
	if len(bytes) == 0 {
		return nil
	}
	status := bytes[0]
	var channel, command byte
	if status >= 0x80 && status < 0xF0 {
		channel = status & 0x0F
		command = status & 0xF0
	} else {
		command = status
	}
	var d1, d2 byte
	if len(bytes) > 1 {
		d1 = bytes[1]
	}
	if len(bytes) > 2 {
		d2 = bytes[2]
	}
	s.synt.ProcessMidiMessage(int32(channel), int32(command), int32(d1), int32(d2))
	return nil
}

func (s *Synth) PollForMidi() int { return s.q.len() }

func (s *Synth) GetMidiEvent() (Message, bool) { return s.q.pop() }

func (s *Synth) SetInputCallback(cb InputCallback) {
	s.mu.Lock()
	s.cb = cb
	s.mu.Unlock()
}

func (s *Synth) EngineInitialize() error { return nil }

// Activate starts audio rendering through the shared ebiten audio context.
func (s *Synth) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		return nil
	}
	p, err := getSynthAudioContext().NewPlayer(s.stream)
	if err != nil {
		return fmt.Errorf("rtl: create synth audio player: %w", err)
	}
	p.Play()
	s.player = p
	return nil
}

func (s *Synth) Deactivate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		_ = s.player.Pause()
	}
	return nil
}

func (s *Synth) Disconnect() error { return s.ClosePort() }

var _ io.Reader = (*synthStream)(nil)
