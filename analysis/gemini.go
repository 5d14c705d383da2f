package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel  = "gemini-2.5-flash"
)

// Gemini talks to the generative-language REST API. The credential is
// resolved from GEMINI_API_KEY at call time: a missing key is a
// configuration error of the call, not of startup.
type Gemini struct {
	client  *TracedClient
	baseURL string
	model   string
}

func NewGemini(model string) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	g := &Gemini{
		client:  NewTracedClient(),
		baseURL: geminiBaseURL,
		model:   model,
	}
	go g.client.WarmConnection(geminiBaseURL)
	return g
}

func (g *Gemini) Name() string  { return "gemini" }
func (g *Gemini) Model() string { return g.model }

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Ping verifies the credential and backend reachability without
// spending a generation. Preflight checks use it.
func (g *Gemini) Ping(ctx context.Context) error {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY not set", ErrBackendUnavailable)
	}

	url := fmt.Sprintf("%s/models/%s", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: API error %d: %s", ErrBackendUnavailable, resp.StatusCode, string(resp.Body))
	}
	return nil
}

func (g *Gemini) WelcomeMessage(ctx context.Context) string {
	text, _, err := g.generate(ctx, []part{{Text: welcomePrompt}}, false)
	if err != nil || strings.TrimSpace(text) == "" {
		return DefaultWelcome
	}
	return strings.TrimSpace(text)
}

func (g *Gemini) AnalyzeTranscript(ctx context.Context, text string) (*Result, error) {
	return g.analyze(ctx, []part{{Text: transcriptPrompt(text)}})
}

func (g *Gemini) AnalyzeInterview(ctx context.Context, audio []byte, mime string) (*Result, error) {
	parts := []part{
		{Text: interviewPrompt()},
		{InlineData: &inlineData{
			MIMEType: mime,
			Data:     base64.StdEncoding.EncodeToString(audio),
		}},
	}
	return g.analyze(ctx, parts)
}

func (g *Gemini) analyze(ctx context.Context, parts []part) (*Result, error) {
	text, metrics, err := g.generate(ctx, parts, true)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: model returned empty text", ErrBackendEmpty)
	}
	result, err := decodeResult(text)
	if err != nil {
		return nil, err
	}
	result.Metrics = metrics
	return result, nil
}

// generate performs one generateContent call and returns the
// concatenated text of the first candidate. strictJSON requests
// machine-parseable output; the welcome variant leaves it off.
func (g *Gemini) generate(ctx context.Context, parts []part, strictJSON bool) (string, *NetworkMetrics, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", nil, fmt.Errorf("%w: GEMINI_API_KEY not set", ErrBackendUnavailable)
	}

	reqBody := generateRequest{Contents: []content{{Parts: parts}}}
	if strictJSON {
		reqBody.GenerationConfig = &generationConfig{ResponseMIMEType: "application/json"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("%w: API error %d: %s", ErrBackendUnavailable, resp.StatusCode, string(resp.Body))
	}

	var gResp generateResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return "", nil, fmt.Errorf("%w: response parse error: %v", ErrBackendUnavailable, err)
	}

	var sb strings.Builder
	if len(gResp.Candidates) > 0 {
		for _, p := range gResp.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	return sb.String(), resp.Metrics, nil
}
