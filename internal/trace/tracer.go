package trace

import (
	"fmt"
	"time"
)

// Event is one trace record.
type Event struct {
	Time  time.Time
	Level Level
	Name  string // subsystem name: "decode", "build", "index", "run"
	Msg   string
}

// Tracer is the ambient logging contract for the pipeline. Emit must be
// goroutine-safe.
type Tracer interface {
	Emit(ev Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// Pointf emits a formatted event if the tracer level admits it.
func Pointf(t Tracer, lvl Level, name, format string, args ...any) {
	if t == nil || !t.Enabled() || t.Level() < lvl {
		return
	}
	t.Emit(Event{
		Time:  time.Now(),
		Level: lvl,
		Name:  name,
		Msg:   fmt.Sprintf(format, args...),
	})
}

// Anomalyf reports a degraded-but-continuing condition (unknown severity,
// malformed record). Always LevelError.
func Anomalyf(t Tracer, name, format string, args ...any) {
	Pointf(t, LevelError, name, format, args...)
}
