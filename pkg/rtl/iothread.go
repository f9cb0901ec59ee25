package rtl

import (
	"context"
	"sync"
)

// IoThread owns one long-running worker goroutine — either Player's output
// thread (ticking Track.Play) or its input thread (polling MidiApi) — using
// the same context-cancellation-plus-mutex-guarded-state idiom the teacher
// uses for its MIDI/WAV playback goroutines (pkg/engine/midi_player.go,
// pkg/engine/wav_player.go): a context.Context carries the stop signal, a
// mutex guards the launched/active flags, and a WaitGroup lets Finish block
// until the goroutine has actually returned.
type IoThread struct {
	mu       sync.Mutex
	launched bool
	active   bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewIoThread returns an unlaunched IoThread.
func NewIoThread() *IoThread { return &IoThread{} }

// Launched reports whether Launch has been called and Finish has not yet
// completed.
func (t *IoThread) Launched() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.launched
}

// Active reports whether the worker goroutine is currently running its
// loop body (as opposed to blocked waiting to start, or finished).
func (t *IoThread) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *IoThread) setActive(active bool) {
	t.mu.Lock()
	t.active = active
	t.mu.Unlock()
}

// Launch starts work in its own goroutine, calling work repeatedly until
// ctx is cancelled. work should return promptly once ctx.Err() != nil.
// Launch is a no-op if this IoThread is already launched.
func (t *IoThread) Launch(ctx context.Context, work func(ctx context.Context)) {
	t.mu.Lock()
	if t.launched {
		t.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.launched = true
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.setActive(true)
		defer t.setActive(false)
		work(runCtx)
	}()
}

// Finish signals the worker to stop and blocks until it has returned. It
// is safe to call more than once and safe to call on a never-launched
// IoThread.
func (t *IoThread) Finish() {
	t.mu.Lock()
	if !t.launched {
		t.mu.Unlock()
		return
	}
	cancel := t.cancel
	t.mu.Unlock()

	cancel()
	t.wg.Wait()

	t.mu.Lock()
	t.launched = false
	t.mu.Unlock()
}
