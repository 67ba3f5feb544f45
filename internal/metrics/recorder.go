// Package metrics records build observations. Components take a Recorder and
// default to NoopRecorder, so metrics stay optional without nil checks.
package metrics

import "time"

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome Outcome)
	AddFilesWritten(n int)
	AddFilesUnchanged(n int)
}

type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(Outcome)                    {}
func (NoopRecorder) AddFilesWritten(int)                        {}
func (NoopRecorder) AddFilesUnchanged(int)                      {}
