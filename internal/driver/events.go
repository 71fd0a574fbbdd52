package driver

import "time"

// Stage identifies one phase of the explain pipeline.
type Stage string

const (
	// StageLoad covers reading and decoding the bundle TOML.
	StageLoad Stage = "load"
	// StageGraph covers assembling the inference and its constraint graph.
	StageGraph Stage = "graph"
	// StageExplain covers blame search and diagnostic construction for
	// the bundle's violations.
	StageExplain Stage = "explain"
	// StageRender covers formatting the merged diagnostics. The command
	// layer emits it; Explain itself does not render.
	StageRender Stage = "render"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the bundle is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates the stage is in progress.
	StatusWorking Status = "working"
	// StatusDone indicates the stage finished cleanly.
	StatusDone Status = "done"
	// StatusError indicates the stage failed.
	StatusError Status = "error"
)

// Event reports progress for one bundle as it moves through the
// pipeline.
type Event struct {
	Path    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Directory runs emit from
// multiple goroutines, so implementations must be safe for concurrent
// use.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel. The send blocks; the
// consumer is expected to drain until the producer is done.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// emit sends an event when a sink is configured.
func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
