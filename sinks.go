package main

import (
	"evoke/analysis"
	"evoke/log"
	"evoke/session"
)

// uiSink forwards session events to the TUI as Bubble Tea messages and
// writes the per-analysis log entries.
type uiSink struct {
	model string
	ctrl  *session.Controller
}

func (s *uiSink) StateChanged(state session.State) {
	tuiSend(StateMsg{State: state})
}

func (s *uiSink) WelcomeReady(text string) {
	tuiSend(WelcomeMsg{Text: text})
}

func (s *uiSink) AnalysisReady(result *analysis.Result) {
	analysisCount.Add(1)

	if m := result.Metrics; m != nil {
		entry := log.Metrics{
			DNSTimeMs:   float64(m.DNS.Milliseconds()),
			TLSTimeMs:   float64(m.TLS.Milliseconds()),
			TTFBMs:      float64(m.TTFB.Milliseconds()),
			TotalTimeMs: float64(m.Total.Milliseconds()),
		}
		mime := "text/plain"
		if art := s.ctrl.Artifact(); art != nil {
			entry.AudioLengthS = float64(art.Seconds)
			entry.PayloadKB = float64(len(art.Data)) / 1024
			entry.EncodeTimeMs = float64(art.EncodeTime.Milliseconds())
			mime = art.MIME
		}
		log.AnalysisMetrics(entry, s.model, mime, m.ConnReused, m.TLSProtocol)
	}
	log.AnalysisSummary(result.Summary)

	tuiSend(ResultMsg{Result: result})
}

func (s *uiSink) AnalysisFailed(err error) {
	tuiSend(AnalysisErrMsg{Err: err})
}

func (s *uiSink) Warning(msg string) {
	tuiSend(WarningMsg{Text: msg})
}

// meterSink forwards recording progress from the capture goroutines.
type meterSink struct{}

func (meterSink) RecordingTick(seconds int) {
	tuiSend(RecordingTickMsg{Seconds: seconds})
}

func (meterSink) AudioLevel(rms float64) {
	tuiSend(AudioLevelMsg{Level: rms})
}

func (meterSink) NoVoiceWarning(active bool) {
	tuiSend(NoVoiceMsg{Active: active})
}
