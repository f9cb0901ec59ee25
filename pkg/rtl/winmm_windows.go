//go:build windows

package rtl

import gomidi "gitlab.com/gomidi/midi/v2"

// WinMM is the Windows native backend. Per spec.md §4.7, a real
// implementation re-queues a midiInAddBuffer SysEx buffer after every
// packet under a critical section; that native queue is out of scope here
// (spec.md §1), so this type satisfies the MidiApi contract without it,
// delegating every call to Dummy (so GetPortCount reports zero ports).
// SendMessage would chunk payloads over 64 KB internally in a real
// binding; WinMM.SendMessage here just calls Dummy.SendMessage, which
// discards the message.
type WinMM struct {
	dummy *Dummy
}

// NewWinMM returns a WinMM backend, Dummy-equivalent until a native
// winmm.dll binding is linked in.
func NewWinMM() *WinMM { return &WinMM{dummy: NewDummy()} }

func (w *WinMM) Name() string { return "winmm" }

func (w *WinMM) OpenPort(n int, clientName string) error { return w.dummy.OpenPort(n, clientName) }
func (w *WinMM) OpenVirtualPort(name string) error        { return w.dummy.OpenVirtualPort(name) }
func (w *WinMM) ClosePort() error                          { return w.dummy.ClosePort() }
func (w *WinMM) SetClientName(name string) error           { return w.dummy.SetClientName(name) }
func (w *WinMM) SetPortName(name string) error              { return w.dummy.SetPortName(name) }
func (w *WinMM) GetPortCount() int                          { return w.dummy.GetPortCount() }
func (w *WinMM) GetPortName(n int) (string, error)          { return w.dummy.GetPortName(n) }
func (w *WinMM) SendMessage(msg gomidi.Message) error       { return w.dummy.SendMessage(msg) }
func (w *WinMM) PollForMidi() int                           { return w.dummy.PollForMidi() }
func (w *WinMM) GetMidiEvent() (Message, bool)              { return w.dummy.GetMidiEvent() }
func (w *WinMM) SetInputCallback(cb InputCallback)          { w.dummy.SetInputCallback(cb) }
func (w *WinMM) EngineInitialize() error                    { return w.dummy.EngineInitialize() }
func (w *WinMM) Activate() error                            { return w.dummy.Activate() }
func (w *WinMM) Deactivate() error                          { return w.dummy.Deactivate() }
func (w *WinMM) Disconnect() error                          { return w.dummy.Disconnect() }
