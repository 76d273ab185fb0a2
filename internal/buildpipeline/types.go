// Package buildpipeline orchestrates the external tool pipeline that turns
// emitted IR into a native artifact.
package buildpipeline

import (
	"fmt"
	"time"
)

// Stage describes one pipeline phase.
type Stage string

const (
	// StageEmit lowers the typed tree to textual IR.
	StageEmit Stage = "emit"
	// StageAssemble turns textual IR into bitcode.
	StageAssemble Stage = "assemble"
	// StageRuntime compiles and links the runtime support unit.
	StageRuntime Stage = "runtime"
	// StageOptimize runs the external optimizer.
	StageOptimize Stage = "optimize"
	// StageDisasm renders optimized IR back to text for inspection.
	StageDisasm Stage = "disasm"
	// StageCodegen generates target assembly.
	StageCodegen Stage = "codegen"
	// StageLink links the final executable.
	StageLink Stage = "link"
	// StageObject assembles a relocatable object.
	StageObject Stage = "object"
	// StageRun executes the produced binary.
	StageRun Stage = "run"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the stage is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the stage is running.
	StatusWorking Status = "working"
	// StatusDone indicates the stage finished.
	StatusDone Status = "done"
	// StatusError indicates the stage failed.
	StatusError Status = "error"
)

// Event reports stage progress.
type Event struct {
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel, typically consumed by a
// terminal UI. The channel should be buffered; sends block otherwise.
type ChannelSink struct {
	Ch chan<- Event
}

// OnEvent implements ProgressSink.
func (s ChannelSink) OnEvent(ev Event) {
	s.Ch <- ev
}

// StageError wraps a failure with the stage it happened in. A failing stage
// halts every later stage, so the surfaced error is always the first one.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Timings holds per-stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] = dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	return t.stages[stage]
}

// Sum adds up the recorded durations of the given stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	var sum time.Duration
	for _, stage := range stages {
		sum += t.stages[stage]
	}
	return sum
}

// Total sums every recorded stage duration.
func (t Timings) Total() time.Duration {
	var sum time.Duration
	for _, d := range t.stages {
		sum += d
	}
	return sum
}
