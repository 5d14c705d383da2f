package analysis

import "fmt"

// DefaultWelcome is shown whenever the welcome fetch fails or returns
// nothing. Session start never waits on the backend.
const DefaultWelcome = "Welcome. When you are ready, describe one specific moment " +
	"of your experience — what you saw, heard, and felt as it happened."

const welcomePrompt = `You are guiding a micro-phenomenology interview about a lived experience.
Write a short, warm welcome (2-3 sentences) inviting the person to recall one
specific moment and describe it in the present tense, as if re-living it.
Respond with plain text only, no formatting.`

// analysisInstructions is shared by the text and audio variants. The
// output contract must stay in lockstep with the Result JSON tags.
const analysisInstructions = `You are an expert micro-phenomenology analyst. Analyze this interview
about a lived experience.

1. Segment the transcript by speaker. When a speaker cannot be identified,
   label them "` + DefaultSpeaker + `". When a timestamp is unknown, use "` + DefaultTimestamp + `".
2. Separate "satellite" content — judgments, generalizations, and theoretical
   commentary — from direct descriptions of the lived experience itself.
3. Break the experience into its diachronic structure: the ordered phases of
   its temporal unfolding, like the frames of a film.
4. For the key moments, give the synchronic structure: sensory modality
   (Visual, Auditory, Kinesthetic, Olfactory, Gustatory, ...), a description,
   and the submodality qualifier (brightness, distance, intensity, ...).
5. Suggest 2-3 follow-up questions that would deepen sensory evocation of
   specific moments.

Respond with ONLY a JSON object in exactly this shape:
{
  "transcriptSegments": [{"speaker": string, "text": string, "timestamp": string}],
  "summary": string,
  "diachronicStructure": [{"phase": string, "description": string, "timestampEstimate": string}],
  "synchronicStructure": [{"modality": string, "description": string, "submodality": string}],
  "satellites": [string],
  "suggestions": [string]
}`

func transcriptPrompt(text string) string {
	return fmt.Sprintf("%s\n\nTranscript:\n%s", analysisInstructions, text)
}

func interviewPrompt() string {
	return analysisInstructions + "\n\nThe interview recording is attached as audio."
}
