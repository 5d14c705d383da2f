package audio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestIsBluetooth(t *testing.T) {
	for _, tt := range []struct {
		name string
		want bool
	}{
		{"AirPods Pro", true},
		{"Sony WH-1000XM5", true},
		{"Jabra Elite 75t (Bluetooth)", true},
		{"Built-in Audio Analog Stereo", false},
		{"USB Condenser Microphone", false},
	} {
		if got := IsBluetooth(tt.name); got != tt.want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFakeCaptureDeliversPayloadAndReleases(t *testing.T) {
	pcm := make([]byte, fakeFrameSize*fakeBytesPerFrame*3)
	ctx := NewFakeContext(pcm)
	dev, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	fake := dev.(*FakeCapture)

	var received atomic.Uint64
	dev.SetCallback(func(data []byte, _ uint32) {
		received.Add(uint64(len(data)))
	})

	if err := dev.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !fake.Running() {
		t.Error("device should report running after Start")
	}

	dev.Stop()
	dev.ClearCallback()

	if fake.Running() {
		t.Error("device still running after Stop")
	}
	if fake.HasCallback() {
		t.Error("callback still installed after ClearCallback")
	}
	if received.Load() < uint64(len(pcm)) {
		t.Errorf("received %d bytes, want at least %d", received.Load(), len(pcm))
	}
}

func TestFakeContextFromWAVStripsHeader(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	wav := append(make([]byte, WAVHeaderSize), pcm...)

	path := filepath.Join(t.TempDir(), "take.wav")
	if err := os.WriteFile(path, wav, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, err := NewFakeContextFromWAV(path)
	if err != nil {
		t.Fatalf("NewFakeContextFromWAV: %v", err)
	}
	dev, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}

	var got []byte
	dev.SetCallback(func(data []byte, _ uint32) {
		got = append(got, data...)
	})
	if err := dev.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	dev.Stop()

	if !bytes.Equal(got, pcm) {
		t.Errorf("replayed PCM = % x, want % x", got, pcm)
	}

	if _, err := NewFakeContextFromWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFakeCaptureStartError(t *testing.T) {
	ctx := NewFakeContext(nil)
	ctx.StartErr = ErrPermissionDenied
	dev, err := ctx.NewCapture(nil, CaptureConfig{})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	if err := dev.Start(); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Start error = %v, want ErrPermissionDenied", err)
	}
	// Stop before a successful Start must be a no-op.
	dev.Stop()
}
