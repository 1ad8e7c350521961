package driver

import "time"

// Stage describes where a file is in the lint pipeline.
type Stage string

const (
	StageLoad  Stage = "load"
	StageLex   Stage = "lex"
	StageParse Stage = "parse"
	StageCops  Stage = "cops"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is being processed.
	StatusWorking Status = "working"
	// StatusDone indicates the file is finished.
	StatusDone Status = "done"
	// StatusError indicates the file could not be loaded or linted.
	StatusError Status = "error"
)

// Event reports progress for a file (or for the whole run when File is empty).
type Event struct {
	File     string
	Stage    Stage
	Status   Status
	Err      error
	Elapsed  time.Duration
	Offenses int
	Cached   bool
}

// ProgressSink consumes progress events. OnEvent is called from worker
// goroutines and must be safe for concurrent use.
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

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
