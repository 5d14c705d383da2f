// Package analysis formats interview material into prompts, calls the
// generative-language backend, and validates the structured result.
package analysis

import "context"

// Client is the analysis backend seen by the session layer. Exactly
// one backend call per entry point; no streaming.
type Client interface {
	// WelcomeMessage is best-effort: any failure yields DefaultWelcome.
	WelcomeMessage(ctx context.Context) string

	// AnalyzeTranscript analyzes pasted or pre-transcribed text.
	AnalyzeTranscript(ctx context.Context, text string) (*Result, error)

	// AnalyzeInterview analyzes an encoded audio payload. mime must be
	// the media type the encoder actually produced.
	AnalyzeInterview(ctx context.Context, audio []byte, mime string) (*Result, error)
}
