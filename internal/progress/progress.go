// Package progress carries pipeline progress events from the driver to
// whatever renders them.
package progress

import "time"

// Stage is one step of an analysis run.
type Stage string

const (
	StageParse     Stage = "parse"
	StageClassify  Stage = "classify"
	StageCorrelate Stage = "correlate"
	StageRemediate Stage = "remediate"
	StageReport    Stage = "report"
)

// Stages lists the stages in pipeline order.
func Stages() []Stage {
	return []Stage{StageParse, StageClassify, StageCorrelate, StageRemediate, StageReport}
}

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Event reports progress for one unit (a log source or a source file),
// or for the whole stage when Unit is empty.
type Event struct {
	Unit    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
	// Count is stage specific: issues found, groups built, edits made.
	Count int
}

// Sink consumes progress events. Implementations must be safe for
// concurrent use; parser and remediation workers report directly.
type Sink interface {
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

// Func adapts a function to Sink.
type Func func(Event)

func (f Func) OnEvent(evt Event) {
	if f != nil {
		f(evt)
	}
}

// Discard drops every event.
var Discard Sink = Func(nil)
