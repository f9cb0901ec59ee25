//go:build darwin

package rtl

import gomidi "gitlab.com/gomidi/midi/v2"

// CoreMIDI is the macOS native backend. Per spec.md §4.7, a real
// implementation shares one process-wide MIDIClientRef and converts
// mach-absolute-time timestamps to seconds; that handle is out of scope
// here (spec.md §1), so this type satisfies the MidiApi contract without
// one by delegating every call to Dummy (so GetPortCount reports zero
// ports).
type CoreMIDI struct {
	dummy *Dummy
}

// NewCoreMIDI returns a CoreMIDI backend, Dummy-equivalent until a native
// MIDIClientRef binding is linked in.
func NewCoreMIDI() *CoreMIDI { return &CoreMIDI{dummy: NewDummy()} }

func (c *CoreMIDI) Name() string { return "coremidi" }

func (c *CoreMIDI) OpenPort(n int, clientName string) error { return c.dummy.OpenPort(n, clientName) }
func (c *CoreMIDI) OpenVirtualPort(name string) error        { return c.dummy.OpenVirtualPort(name) }
func (c *CoreMIDI) ClosePort() error                          { return c.dummy.ClosePort() }
func (c *CoreMIDI) SetClientName(name string) error           { return c.dummy.SetClientName(name) }
func (c *CoreMIDI) SetPortName(name string) error              { return c.dummy.SetPortName(name) }
func (c *CoreMIDI) GetPortCount() int                          { return c.dummy.GetPortCount() }
func (c *CoreMIDI) GetPortName(n int) (string, error)          { return c.dummy.GetPortName(n) }
func (c *CoreMIDI) SendMessage(msg gomidi.Message) error       { return c.dummy.SendMessage(msg) }
func (c *CoreMIDI) PollForMidi() int                           { return c.dummy.PollForMidi() }
func (c *CoreMIDI) GetMidiEvent() (Message, bool)              { return c.dummy.GetMidiEvent() }
func (c *CoreMIDI) SetInputCallback(cb InputCallback)          { c.dummy.SetInputCallback(cb) }
func (c *CoreMIDI) EngineInitialize() error                    { return c.dummy.EngineInitialize() }
func (c *CoreMIDI) Activate() error                            { return c.dummy.Activate() }
func (c *CoreMIDI) Deactivate() error                          { return c.dummy.Deactivate() }
func (c *CoreMIDI) Disconnect() error                          { return c.dummy.Disconnect() }
