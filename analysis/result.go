package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Placeholders the backend is instructed to use when diarization
// cannot identify a speaker or a timestamp.
const (
	DefaultSpeaker   = "Participant"
	DefaultTimestamp = "00:00"
)

// Segment is one diarized utterance of the interview transcript.
type Segment struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Phase is one step of the diachronic (temporal) unfolding.
type Phase struct {
	Phase             string `json:"phase"`
	Description       string `json:"description"`
	TimestampEstimate string `json:"timestampEstimate"`
}

// Modality is one synchronic (sensory) entry for a key moment.
type Modality struct {
	Modality    string `json:"modality"`
	Description string `json:"description"`
	Submodality string `json:"submodality"`
}

// Result is the structured phenomenological analysis. Every container
// is non-nil after decoding; segment and phase order is preserved as
// produced by the backend.
type Result struct {
	TranscriptSegments  []Segment  `json:"transcriptSegments"`
	Summary             string     `json:"summary"`
	DiachronicStructure []Phase    `json:"diachronicStructure"`
	SynchronicStructure []Modality `json:"synchronicStructure"`
	Satellites          []string   `json:"satellites"`
	Suggestions         []string   `json:"suggestions"`

	Metrics *NetworkMetrics `json:"-"`
}

// decodeResult parses backend text into a Result. Models occasionally
// wrap strict-JSON output in a markdown fence anyway, so fences are
// stripped before decoding. Shape mismatches come back as
// ErrMalformedResult; missing fields degrade to empty containers.
func decodeResult(text string) (*Result, error) {
	cleaned := stripFences(strings.TrimSpace(text))

	// `null`, bare strings and numbers all unmarshal into a struct
	// without error; only a JSON object is an analysis.
	if !strings.HasPrefix(cleaned, "{") {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedResult)
	}

	var r Result
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	r.normalize()
	return &r, nil
}

func (r *Result) normalize() {
	if r.TranscriptSegments == nil {
		r.TranscriptSegments = []Segment{}
	}
	if r.DiachronicStructure == nil {
		r.DiachronicStructure = []Phase{}
	}
	if r.SynchronicStructure == nil {
		r.SynchronicStructure = []Modality{}
	}
	if r.Satellites == nil {
		r.Satellites = []string{}
	}
	if r.Suggestions == nil {
		r.Suggestions = []string{}
	}
	for i := range r.TranscriptSegments {
		if strings.TrimSpace(r.TranscriptSegments[i].Speaker) == "" {
			r.TranscriptSegments[i].Speaker = DefaultSpeaker
		}
		if strings.TrimSpace(r.TranscriptSegments[i].Timestamp) == "" {
			r.TranscriptSegments[i].Timestamp = DefaultTimestamp
		}
	}
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// Drop the opening fence line (``` or ```json) and a trailing fence.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
