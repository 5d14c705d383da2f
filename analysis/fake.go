package analysis

import (
	"context"
	"sync"
)

// Fake is a scriptable Client for tests: fixed welcome text, one
// result or error for both analysis variants, and a record of what it
// was asked to analyze.
type Fake struct {
	Welcome string
	Result  *Result
	Err     error

	// Gate, when non-nil, blocks analysis calls until closed so tests
	// can observe the in-flight state.
	Gate chan struct{}

	mu       sync.Mutex
	LastText string
	LastMIME string
	LastSize int
	Calls    int
}

func (f *Fake) WelcomeMessage(_ context.Context) string {
	if f.Welcome == "" {
		return DefaultWelcome
	}
	return f.Welcome
}

func (f *Fake) AnalyzeTranscript(ctx context.Context, text string) (*Result, error) {
	f.mu.Lock()
	f.LastText = text
	f.Calls++
	f.mu.Unlock()
	return f.finish(ctx)
}

func (f *Fake) AnalyzeInterview(ctx context.Context, audio []byte, mime string) (*Result, error) {
	f.mu.Lock()
	f.LastMIME = mime
	f.LastSize = len(audio)
	f.Calls++
	f.mu.Unlock()
	return f.finish(ctx)
}

func (f *Fake) finish(ctx context.Context) (*Result, error) {
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	r := f.Result
	if r == nil {
		r = &Result{}
	}
	r.normalize()
	return r, nil
}
