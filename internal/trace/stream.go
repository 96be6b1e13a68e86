package trace

import (
	"bufio"
	"fmt"
	"io"
	"sync"
)

// StreamTracer writes events to a writer as they arrive, one line per event.
type StreamTracer struct {
	mu    sync.Mutex
	w     *bufio.Writer
	level Level
	close io.Closer // nil, если закрывать нечего (stderr)
}

// NewStreamTracer wraps w with the given verbosity level. If w is also an
// io.Closer it will be closed by Close.
func NewStreamTracer(w io.Writer, level Level) *StreamTracer {
	t := &StreamTracer{
		w:     bufio.NewWriter(w),
		level: level,
	}
	if c, ok := w.(io.Closer); ok {
		t.close = c
	}
	return t
}

// Emit writes the event immediately.
func (t *StreamTracer) Emit(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "%s [%s] %s: %s\n",
		ev.Time.Format("15:04:05.000"), ev.Level, ev.Name, ev.Msg)
}

// Flush writes out buffered events.
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Flush()
}

// Close flushes and closes the underlying writer when it is closable.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if t.close != nil {
		return t.close.Close()
	}
	return nil
}

// Level returns the configured verbosity.
func (t *StreamTracer) Level() Level { return t.level }

// Enabled reports whether any events will be emitted.
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
