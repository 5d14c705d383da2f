// Package session sequences one interview session: record, stop,
// analyze, display.
package session

import "fmt"

type State string

type Event string

const (
	// StateIdle accepts a new recording or pasted transcript text.
	StateIdle State = "idle"
	// StateRecording has an open microphone stream.
	StateRecording State = "recording"
	// StateStopped holds a finalized audio artifact awaiting submission.
	StateStopped State = "stopped"
	// StateAnalyzing has an audio analysis call in flight.
	StateAnalyzing State = "analyzing"
	// StateAnalyzingText has a text analysis call in flight.
	StateAnalyzingText State = "analyzing_text"
	// StateResult displays a completed analysis until a new session starts.
	StateResult State = "result"
	// StateError displays a typed analysis failure with a retry option.
	StateError State = "error"
)

const (
	EventStart       Event = "start"
	EventStop        Event = "stop"
	EventSubmit      Event = "submit"
	EventAnalyzeText Event = "analyze_text"
	EventSucceed     Event = "succeed"
	EventFail        Event = "fail"
	EventCancel      Event = "cancel"
	EventRetry       Event = "retry"
	EventReset       Event = "reset"
)

// Transition returns the state that follows event, or an error when
// the move is invalid. It is pure: side effects live in Controller.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateRecording, nil
		case EventAnalyzeText:
			return StateAnalyzingText, nil
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateStopped, nil
		case EventCancel:
			return StateIdle, nil
		}
	case StateStopped:
		switch event {
		case EventSubmit:
			return StateAnalyzing, nil
		case EventCancel:
			return StateIdle, nil
		}
	case StateAnalyzing, StateAnalyzingText:
		switch event {
		case EventSucceed:
			return StateResult, nil
		case EventFail:
			return StateError, nil
		}
	case StateResult:
		switch event {
		case EventReset:
			return StateIdle, nil
		}
	case StateError:
		switch event {
		// Retry re-enters stopped so a held artifact can be
		// resubmitted without re-recording.
		case EventRetry:
			return StateStopped, nil
		case EventReset:
			return StateIdle, nil
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
	return current, fmt.Errorf("invalid transition: %s --(%s)--> ?", current, event)
}
