package pipeline

import "rustmsg/internal/diag"

// Status captures what happened to one stream record.
type Status string

const (
	// StatusInserted means the record became a tree in the index.
	StatusInserted Status = "inserted"
	// StatusFiltered means the record was legitimately dropped (artifact
	// notification, no addressable location, suppressed warning).
	StatusFiltered Status = "filtered"
	// StatusError means the record could not be decoded.
	StatusError Status = "error"
	// StatusDone is the final event of a run (File empty).
	StatusDone Status = "done"
)

// Event reports progress for one record, or for the whole run when File is
// empty.
type Event struct {
	File     string
	Severity diag.Severity
	Status   Status
	Err      error
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}
