package session

import (
	"context"
	"fmt"
	"sync"

	"evoke/analysis"
	"evoke/log"
	"evoke/recorder"
)

// EventSink receives session events for display. Calls arrive from
// controller goroutines and must not block.
type EventSink interface {
	StateChanged(state State)
	WelcomeReady(text string)
	AnalysisReady(result *analysis.Result)
	AnalysisFailed(err error)
	Warning(msg string)
}

type noopSink struct{}

func (noopSink) StateChanged(State)             {}
func (noopSink) WelcomeReady(string)            {}
func (noopSink) AnalysisReady(*analysis.Result) {}
func (noopSink) AnalysisFailed(error)           {}
func (noopSink) Warning(string)                 {}

// Controller owns the recorder and analysis client for one session
// loop. It holds the latest artifact, result, and failure; none of
// them are ever mutated after being stored.
type Controller struct {
	rec    *recorder.Recorder
	client analysis.Client
	sink   EventSink

	mu       sync.Mutex
	state    State
	artifact *recorder.Artifact
	result   *analysis.Result
	lastErr  error

	// gen invalidates in-flight analysis deliveries after Reset or
	// Close: a stale result must land harmlessly.
	gen    int
	closed bool
}

func New(rec *recorder.Recorder, client analysis.Client, sink EventSink) *Controller {
	if sink == nil {
		sink = noopSink{}
	}
	return &Controller{
		rec:    rec,
		client: client,
		sink:   sink,
		state:  StateIdle,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Artifact returns the held audio artifact, nil when none survives.
func (c *Controller) Artifact() *recorder.Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artifact
}

// Result returns the last completed analysis, nil before the first.
func (c *Controller) Result() *analysis.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Err returns the failure shown in the error state.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// FetchWelcome starts the best-effort welcome sub-flow. It never
// blocks recording controls and never surfaces an error: the client
// substitutes the fixed fallback on any failure.
func (c *Controller) FetchWelcome(ctx context.Context) {
	go func() {
		text := c.client.WelcomeMessage(ctx)
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if !closed {
			c.sink.WelcomeReady(text)
		}
	}()
}

// StartRecording moves idle -> recording. Capture failures leave the
// session idle and usable; the warning reaches the user.
func (c *Controller) StartRecording() {
	if !c.transition(EventStart) {
		return
	}
	if err := c.rec.Start(); err != nil {
		log.Errorf("recording start: %v", err)
		c.revert(StateIdle)
		c.sink.Warning(fmt.Sprintf("Could not start recording: %v", err))
		return
	}
	log.Info("recording_start")
}

// StopRecording finalizes the artifact and moves recording -> stopped.
func (c *Controller) StopRecording() {
	if !c.transition(EventStop) {
		return
	}
	art, err := c.rec.Stop()
	if err != nil {
		log.Errorf("recording stop: %v", err)
		c.revert(StateIdle)
		c.sink.Warning(fmt.Sprintf("Could not finalize recording: %v", err))
		return
	}
	c.mu.Lock()
	c.artifact = art
	c.mu.Unlock()
	log.Info("recording_stop")
}

// Submit sends the held artifact for audio analysis. The artifact is
// always finalized and the device released before this transition can
// fire, so no backend call overlaps an open microphone stream.
func (c *Controller) Submit(ctx context.Context) {
	c.mu.Lock()
	art := c.artifact
	c.mu.Unlock()
	if art == nil {
		c.sink.Warning("No recording to analyze")
		return
	}
	if !c.transition(EventSubmit) {
		return
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	go func() {
		result, err := c.client.AnalyzeInterview(ctx, art.Data, art.MIME)
		c.finish(gen, result, err)
	}()
}

// AnalyzeText analyzes pasted transcript text, bypassing recording.
func (c *Controller) AnalyzeText(ctx context.Context, text string) {
	if !c.transition(EventAnalyzeText) {
		return
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	go func() {
		result, err := c.client.AnalyzeTranscript(ctx, text)
		c.finish(gen, result, err)
	}()
}

// Cancel discards the in-progress recording or held artifact and
// releases the device. Valid from recording and stopped.
func (c *Controller) Cancel() {
	if !c.transition(EventCancel) {
		return
	}
	c.rec.Cancel()
	c.mu.Lock()
	c.artifact = nil
	c.mu.Unlock()
	log.Info("recording_cancel")
}

// Retry leaves the error state: back to stopped when the artifact
// survived the failure, otherwise back to idle.
func (c *Controller) Retry() {
	c.mu.Lock()
	hasArtifact := c.artifact != nil
	c.mu.Unlock()
	if hasArtifact {
		c.transition(EventRetry)
	} else {
		c.transition(EventReset)
	}
}

// Reset starts a fresh session from result or error. Any in-flight
// analysis delivery is discarded on arrival.
func (c *Controller) Reset() {
	if !c.transition(EventReset) {
		return
	}
	c.mu.Lock()
	c.gen++
	c.artifact = nil
	c.result = nil
	c.lastErr = nil
	c.mu.Unlock()
}

// Close tears the session down: device released, pending deliveries
// discarded, sink silenced.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.gen++
	c.mu.Unlock()
	c.rec.Cancel()
}

// finish lands an analysis outcome, unless the session moved on.
func (c *Controller) finish(gen int, result *analysis.Result, err error) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	event := EventSucceed
	if err != nil {
		event = EventFail
	}
	next, terr := Transition(c.state, event)
	if terr != nil {
		c.mu.Unlock()
		return
	}
	c.state = next
	if err != nil {
		c.lastErr = err
	} else {
		c.result = result
	}
	c.mu.Unlock()

	c.sink.StateChanged(next)
	if err != nil {
		log.Errorf("analysis failed: %v", err)
		c.sink.AnalysisFailed(err)
	} else {
		log.Info("analysis_complete")
		c.sink.AnalysisReady(result)
	}
}

// transition applies one event, reporting the new state to the sink.
// Invalid moves are logged and ignored: the UI may race user input.
func (c *Controller) transition(event Event) bool {
	c.mu.Lock()
	next, err := Transition(c.state, event)
	if err != nil {
		c.mu.Unlock()
		log.Warnf("%v", err)
		return false
	}
	c.state = next
	c.mu.Unlock()
	c.sink.StateChanged(next)
	return true
}

// revert forces the state back after a side effect failed.
func (c *Controller) revert(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.sink.StateChanged(state)
}
