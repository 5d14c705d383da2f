package recorder

import (
	"sync"
	"testing"
	"time"

	"evoke/audio"
	"evoke/encoder"
)

type recordingSink struct {
	mu     sync.Mutex
	ticks  []int
	levels []float64
}

func (s *recordingSink) RecordingTick(seconds int) {
	s.mu.Lock()
	s.ticks = append(s.ticks, seconds)
	s.mu.Unlock()
}

func (s *recordingSink) AudioLevel(rms float64) {
	s.mu.Lock()
	s.levels = append(s.levels, rms)
	s.mu.Unlock()
}

func (s *recordingSink) NoVoiceWarning(bool) {}

func newFakeDevice(t *testing.T, pcmBytes int) *audio.FakeCapture {
	t.Helper()
	ctx := audio.NewFakeContext(make([]byte, pcmBytes))
	dev, err := ctx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: encoder.SampleRate, Channels: encoder.Channels,
	})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	return dev.(*audio.FakeCapture)
}

func TestStartStopProducesArtifact(t *testing.T) {
	dev := newFakeDevice(t, encoder.BlockSize*2)
	sink := &recordingSink{}
	rec := New(dev, "wav", sink)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !rec.Recording() {
		t.Error("Recording() should be true after Start")
	}

	art, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if art == nil {
		t.Fatal("Stop returned nil artifact after recording")
	}
	if art.MIME != "audio/wav" {
		t.Errorf("MIME = %q, want audio/wav", art.MIME)
	}
	if len(art.Data) < 44 || string(art.Data[:4]) != "RIFF" {
		t.Error("artifact is not a WAV payload")
	}
	// Sub-second take: valid artifact, zero whole seconds.
	if art.Seconds != 0 {
		t.Errorf("Seconds = %d, want 0", art.Seconds)
	}
	if art.EncodeTime <= 0 {
		t.Errorf("EncodeTime = %v, want > 0 after encoding blocks", art.EncodeTime)
	}

	if dev.Running() {
		t.Error("device still running after Stop")
	}
	if dev.HasCallback() {
		t.Error("callback still installed after Stop")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.levels) == 0 {
		t.Error("no audio levels observed during capture")
	}
}

func TestStopWhileIdleIsNoop(t *testing.T) {
	rec := New(newFakeDevice(t, 0), "wav", nil)
	art, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop while idle: %v", err)
	}
	if art != nil {
		t.Errorf("Stop while idle returned artifact %+v", art)
	}
}

func TestCancelReleasesDevice(t *testing.T) {
	dev := newFakeDevice(t, encoder.BlockSize)
	rec := New(dev, "wav", nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec.Cancel()

	if rec.Recording() {
		t.Error("still recording after Cancel")
	}
	if dev.Running() || dev.HasCallback() {
		t.Error("device not released after Cancel")
	}

	// Cancel while idle is safe.
	rec.Cancel()
}

func TestStartWhileRecordingFails(t *testing.T) {
	rec := New(newFakeDevice(t, 0), "wav", nil)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rec.Cancel()

	if err := rec.Start(); err == nil {
		t.Error("second Start should fail while recording")
	}
}

func TestStartDeviceFailureLeavesIdle(t *testing.T) {
	ctx := audio.NewFakeContext(nil)
	ctx.StartErr = audio.ErrPermissionDenied
	dev, err := ctx.NewCapture(nil, audio.CaptureConfig{})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}

	rec := New(dev, "wav", nil)
	if err := rec.Start(); err == nil {
		t.Fatal("Start should propagate device failure")
	}
	if rec.Recording() {
		t.Error("recorder should stay idle after failed Start")
	}
	if dev.(*audio.FakeCapture).HasCallback() {
		t.Error("callback not cleared after failed Start")
	}
}

func TestFlacArtifact(t *testing.T) {
	rec := New(newFakeDevice(t, encoder.BlockSize*2), "flac", nil)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	art, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if art.MIME != "audio/flac" {
		t.Errorf("MIME = %q, want audio/flac", art.MIME)
	}
	if len(art.Data) < 4 || string(art.Data[:4]) != "fLaC" {
		t.Error("artifact is not a FLAC payload")
	}
}

func TestElapsedTracksTake(t *testing.T) {
	rec := New(newFakeDevice(t, 0), "wav", nil)
	if got := rec.Elapsed(); got != 0 {
		t.Errorf("Elapsed while idle = %d, want 0", got)
	}

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(1300 * time.Millisecond)
	if got := rec.Elapsed(); got < 1 {
		t.Errorf("Elapsed after >1s of recording = %d, want >= 1", got)
	}

	rec.Cancel()
	if got := rec.Elapsed(); got != 0 {
		t.Errorf("Elapsed after Cancel = %d, want 0", got)
	}
}

func TestUnknownFormat(t *testing.T) {
	rec := New(newFakeDevice(t, 0), "ogg", nil)
	if err := rec.Start(); err == nil {
		t.Error("expected error for unknown format")
	}
}
