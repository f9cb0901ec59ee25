package rtl

import (
	"github.com/rtl66go/midiengine/pkg/midi"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// JACK is the JACK Audio Connection Kit backend. A real implementation
// writes outgoing events and reads incoming ones from JACK's own process
// callback thread, and propagates PPQN/BPM to JACK's transport timebase
// callback (spec.md §4.7); that client handle is out of scope here
// (spec.md §1), so this type satisfies the MidiApi contract without it.
type JACK struct {
	dummy *Dummy
}

// NewJACK returns a JACK backend, Dummy-equivalent until a native jackd
// client binding is linked in.
func NewJACK() *JACK { return &JACK{dummy: NewDummy()} }

func (j *JACK) Name() string { return "jack" }

func (j *JACK) OpenPort(n int, clientName string) error { return j.dummy.OpenPort(n, clientName) }
func (j *JACK) OpenVirtualPort(name string) error        { return j.dummy.OpenVirtualPort(name) }
func (j *JACK) ClosePort() error                          { return j.dummy.ClosePort() }
func (j *JACK) SetClientName(name string) error           { return j.dummy.SetClientName(name) }
func (j *JACK) SetPortName(name string) error              { return j.dummy.SetPortName(name) }
func (j *JACK) GetPortCount() int                          { return j.dummy.GetPortCount() }
func (j *JACK) GetPortName(n int) (string, error)          { return j.dummy.GetPortName(n) }
func (j *JACK) SendMessage(msg gomidi.Message) error       { return j.dummy.SendMessage(msg) }
func (j *JACK) PollForMidi() int                           { return j.dummy.PollForMidi() }
func (j *JACK) GetMidiEvent() (Message, bool)              { return j.dummy.GetMidiEvent() }
func (j *JACK) SetInputCallback(cb InputCallback)          { j.dummy.SetInputCallback(cb) }
func (j *JACK) EngineInitialize() error                    { return j.dummy.EngineInitialize() }
func (j *JACK) Activate() error                            { return j.dummy.Activate() }
func (j *JACK) Deactivate() error                          { return j.dummy.Deactivate() }
func (j *JACK) Disconnect() error                          { return j.dummy.Disconnect() }

// JackTransportRole selects whether the engine drives JACK's transport
// (master) or follows it (slave), per spec.md §5.
type JackTransportRole int

const (
	JackTransportMaster JackTransportRole = iota
	JackTransportSlave
)

// JackTransport is the scratchpad the output thread consults when
// TransportInfo.Timebase is jack-master or jack-slave: js_current_tick,
// js_jack_stopped, js_init_clock in spec.md §4.9/§5's naming. A real
// implementation fills CurrentTick from JACK's process-thread callback;
// this stub never advances it, so Player falls back to the internal clock
// whenever JACK is selected but no real client is connected (Connected
// stays false).
type JackTransport struct {
	Role          JackTransportRole
	Connected     bool
	CurrentTick   midi.Pulse
	Stopped       bool
	NeedInitClock bool
}

// NewJackTransport returns a disconnected JACK transport scratchpad.
func NewJackTransport(role JackTransportRole) *JackTransport {
	return &JackTransport{Role: role}
}
