package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// geminiReply wraps model text in the generateContent response shape.
func geminiReply(text string) string {
	resp := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
	out, _ := json.Marshal(resp)
	return string(out)
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Gemini{
		client:  NewTracedClient(),
		baseURL: srv.URL,
		model:   "gemini-test",
	}
}

const scenarioPayload = `{
  "transcriptSegments": [{"speaker": "Participant", "text": "I walked into the room and suddenly felt a tightness in my chest.", "timestamp": "00:00"}],
  "summary": "A sudden bodily tightness on entering a room.",
  "diachronicStructure": [{"phase": "Entering", "description": "Walking into the room.", "timestampEstimate": "00:00"}],
  "synchronicStructure": [{"modality": "Kinesthetic", "description": "tightness", "submodality": "intensity"}],
  "satellites": [],
  "suggestions": ["Where exactly in your chest does the tightness begin?", "What happens just before it appears?"]
}`

func TestAnalyzeTranscript(t *testing.T) {
	var gotBody []byte
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("missing api key header")
		}
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, geminiReply(scenarioPayload))
	})

	text := "I walked into the room and suddenly felt a tightness in my chest."
	result, err := g.AnalyzeTranscript(context.Background(), text)
	if err != nil {
		t.Fatalf("AnalyzeTranscript: %v", err)
	}

	// Strict JSON mode and verbatim transcript must be on the wire.
	body := string(gotBody)
	if !strings.Contains(body, `"responseMimeType":"application/json"`) {
		t.Error("request did not ask for strict JSON output")
	}
	if !strings.Contains(body, "tightness in my chest") {
		t.Error("transcript text not embedded in prompt")
	}

	if len(result.TranscriptSegments) != 1 {
		t.Fatalf("segments = %d, want 1", len(result.TranscriptSegments))
	}
	if result.Summary == "" {
		t.Error("summary should be non-empty")
	}
	if len(result.DiachronicStructure) != 1 {
		t.Errorf("phases = %d, want 1", len(result.DiachronicStructure))
	}
	if len(result.SynchronicStructure) != 1 || result.SynchronicStructure[0].Modality != "Kinesthetic" {
		t.Errorf("synchronic = %+v, want one Kinesthetic entry", result.SynchronicStructure)
	}
	if len(result.Satellites) != 0 || result.Satellites == nil {
		t.Errorf("satellites = %v, want empty non-nil", result.Satellites)
	}
	if len(result.Suggestions) != 2 {
		t.Errorf("suggestions = %d, want 2", len(result.Suggestions))
	}
}

func TestAnalyzeInterviewInlinesAudio(t *testing.T) {
	audio := []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x01, 0x02}
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Contents []struct {
				Parts []struct {
					Text       string `json:"text"`
					InlineData *struct {
						MIMEType string `json:"mime_type"`
						Data     string `json:"data"`
					} `json:"inline_data"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("request decode: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[1].InlineData == nil {
			t.Fatalf("expected prompt part + inline audio part, got %d parts", len(parts))
		}
		if parts[1].InlineData.MIMEType != "audio/wav" {
			t.Errorf("mime = %q, want audio/wav", parts[1].InlineData.MIMEType)
		}
		decoded, err := base64.StdEncoding.DecodeString(parts[1].InlineData.Data)
		if err != nil || string(decoded) != string(audio) {
			t.Error("inline audio did not survive base64 round trip")
		}
		io.WriteString(w, geminiReply(scenarioPayload))
	})

	if _, err := g.AnalyzeInterview(context.Background(), audio, "audio/wav"); err != nil {
		t.Fatalf("AnalyzeInterview: %v", err)
	}
}

func TestAnalyzeInterviewEmptyResponse(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, geminiReply(""))
	})
	_, err := g.AnalyzeInterview(context.Background(), []byte{1}, "audio/wav")
	if !errors.Is(err, ErrBackendEmpty) {
		t.Errorf("error = %v, want ErrBackendEmpty", err)
	}
}

func TestAnalyzeMalformedResponse(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, geminiReply("here is your analysis: it was nice"))
	})
	_, err := g.AnalyzeTranscript(context.Background(), "some text")
	if !errors.Is(err, ErrMalformedResult) {
		t.Errorf("error = %v, want ErrMalformedResult", err)
	}
}

func TestAnalyzeBackendError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	_, err := g.AnalyzeTranscript(context.Background(), "some text")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("error = %v, want ErrBackendUnavailable", err)
	}
}

func TestAnalyzeMissingCredential(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, geminiReply(scenarioPayload))
	})
	t.Setenv("GEMINI_API_KEY", "")
	_, err := g.AnalyzeTranscript(context.Background(), "some text")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("error = %v, want ErrBackendUnavailable", err)
	}
}

func TestWelcomeMessage(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "responseMimeType") {
			t.Error("welcome call must not request strict JSON")
		}
		io.WriteString(w, geminiReply("  Welcome to the interview.  "))
	})
	if got := g.WelcomeMessage(context.Background()); got != "Welcome to the interview." {
		t.Errorf("WelcomeMessage = %q", got)
	}
}

func TestWelcomeMessageFallsBack(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		g := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		if got := g.WelcomeMessage(context.Background()); got != DefaultWelcome {
			t.Errorf("WelcomeMessage = %q, want fallback", got)
		}
	})
	t.Run("empty text", func(t *testing.T) {
		g := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, geminiReply(""))
		})
		if got := g.WelcomeMessage(context.Background()); got != DefaultWelcome {
			t.Errorf("WelcomeMessage = %q, want fallback", got)
		}
	})
	t.Run("missing credential", func(t *testing.T) {
		g := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, geminiReply("hi"))
		})
		t.Setenv("GEMINI_API_KEY", "")
		if got := g.WelcomeMessage(context.Background()); got != DefaultWelcome {
			t.Errorf("WelcomeMessage = %q, want fallback", got)
		}
	})
}

func TestPing(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("missing api key header")
		}
		io.WriteString(w, `{"name": "models/gemini-test"}`)
	})
	if err := g.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestPingUnauthorized(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid key", http.StatusForbidden)
	})
	if err := g.Ping(context.Background()); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("error = %v, want ErrBackendUnavailable", err)
	}
}
