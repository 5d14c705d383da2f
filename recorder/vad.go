package recorder

import (
	"sync"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"evoke/encoder"
)

const (
	vadMode       = 3
	vadFrameMs    = 20
	vadFrameBytes = encoder.SampleRate * vadFrameMs / 1000 * 2 // 640 bytes

	// At least 10% speech frames in a tick window counts as speaking.
	speechMinRatio = 0.10
)

// vadMonitor accumulates voice-activity decisions between ticks so the
// recorder can warn when an interview has gone quiet.
type vadMonitor struct {
	vad *webrtcvad.VAD

	mu           sync.Mutex
	buf          []byte
	totalFrames  int
	speechFrames int
}

// newVADMonitor returns nil when the detector cannot be initialized;
// the recorder then skips silence warnings.
func newVADMonitor() *vadMonitor {
	v, err := webrtcvad.New()
	if err != nil {
		return nil
	}
	if err := v.SetMode(vadMode); err != nil {
		return nil
	}
	return &vadMonitor{vad: v}
}

func (m *vadMonitor) Process(data []byte) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buf = append(m.buf, data...)
	for len(m.buf) >= vadFrameBytes {
		frame := m.buf[:vadFrameBytes]
		m.buf = m.buf[vadFrameBytes:]

		active, err := m.vad.Process(encoder.SampleRate, frame)
		if err != nil {
			continue
		}
		m.totalFrames++
		if active {
			m.speechFrames++
		}
	}
}

// HadSpeech reports whether enough speech landed since the last call
// and resets the window.
func (m *vadMonitor) HadSpeech() bool {
	if m == nil {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	total, speech := m.totalFrames, m.speechFrames
	m.totalFrames, m.speechFrames = 0, 0
	if total == 0 {
		return false
	}
	return float64(speech)/float64(total) >= speechMinRatio
}
