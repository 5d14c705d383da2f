// Package recorder turns one microphone take into an encoded,
// immutable audio artifact.
package recorder

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"time"

	"evoke/audio"
	"evoke/encoder"
)

// Artifact is the finalized recording: one encoded payload, the media
// type the encoder actually produced, and whole seconds of audio.
// EncodeTime is the CPU time the encoder spent on the take's blocks.
type Artifact struct {
	Data       []byte
	MIME       string
	Seconds    int
	EncodeTime time.Duration
}

// Sink receives best-effort observations while a take is running. All
// methods are called from recorder goroutines and must not block.
type Sink interface {
	RecordingTick(seconds int)
	AudioLevel(rms float64)
	NoVoiceWarning(active bool)
}

type noopSink struct{}

func (noopSink) RecordingTick(int)   {}
func (noopSink) AudioLevel(float64)  {}
func (noopSink) NoVoiceWarning(bool) {}

// Recorder owns the capture device for the duration of one take.
// Every exit path (Stop, Cancel, teardown) stops the device and clears
// the data callback; a leaked handle locks the microphone for the next
// session.
type Recorder struct {
	device audio.CaptureDevice
	format string
	sink   Sink

	mu   sync.Mutex
	take *take
}

type take struct {
	enc encoder.Encoder
	vad *vadMonitor

	bufMu     sync.Mutex
	sampleBuf []int16

	blockChan  chan []int16
	encodeDone chan struct{}
	stopTick   chan struct{}
	tickDone   chan struct{}

	secMu   sync.Mutex
	seconds int
}

func New(device audio.CaptureDevice, format string, sink Sink) *Recorder {
	if sink == nil {
		sink = noopSink{}
	}
	return &Recorder{device: device, format: format, sink: sink}
}

// Recording reports whether a take is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.take != nil
}

// Elapsed returns whole seconds recorded in the current take.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	tk := r.take
	r.mu.Unlock()
	if tk == nil {
		return 0
	}
	tk.secMu.Lock()
	defer tk.secMu.Unlock()
	return tk.seconds
}

// Start opens the device and begins buffering and encoding audio.
// Device failures surface as audio.ErrPermissionDenied or
// audio.ErrDeviceUnavailable and leave the recorder idle.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.take != nil {
		return errors.New("already recording")
	}

	enc, err := encoder.New(r.format)
	if err != nil {
		return err
	}

	tk := &take{
		enc:        enc,
		vad:        newVADMonitor(), // nil when VAD is unavailable
		blockChan:  make(chan []int16, 64),
		encodeDone: make(chan struct{}),
		stopTick:   make(chan struct{}),
		tickDone:   make(chan struct{}),
	}

	go func() {
		defer close(tk.encodeDone)
		for block := range tk.blockChan {
			start := time.Now()
			tk.enc.EncodeBlock(block)
			tk.enc.AddEncodeTime(time.Since(start))
		}
	}()

	r.device.SetCallback(func(data []byte, _ uint32) {
		tk.feed(data)
		if len(data) > 1 {
			r.sink.AudioLevel(rmsLevel(data))
			tk.vad.Process(data)
		}
	})

	if err := r.device.Start(); err != nil {
		r.device.ClearCallback()
		close(tk.blockChan)
		<-tk.encodeDone
		return err
	}

	go r.runTicker(tk)

	r.take = tk
	return nil
}

// runTicker drives the 1-second duration counter and the no-voice
// warning while the take is active.
func (r *Recorder) runTicker(tk *take) {
	defer close(tk.tickDone)

	const silenceWarnAfter = 8 // seconds without detected speech
	silentFor := 0
	warned := false

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-tk.stopTick:
			return
		case <-ticker.C:
			tk.secMu.Lock()
			tk.seconds++
			s := tk.seconds
			tk.secMu.Unlock()
			r.sink.RecordingTick(s)

			if tk.vad == nil {
				continue
			}
			if tk.vad.HadSpeech() {
				silentFor = 0
				if warned {
					warned = false
					r.sink.NoVoiceWarning(false)
				}
			} else {
				silentFor++
				if silentFor >= silenceWarnAfter && !warned {
					warned = true
					r.sink.NoVoiceWarning(true)
				}
			}
		}
	}
}

// feed converts little-endian PCM bytes into full encoder blocks.
func (tk *take) feed(pcm []byte) {
	tk.bufMu.Lock()
	for i := 0; i+1 < len(pcm); i += 2 {
		tk.sampleBuf = append(tk.sampleBuf, int16(binary.LittleEndian.Uint16(pcm[i:])))
	}
	var blocks [][]int16
	for len(tk.sampleBuf) >= encoder.BlockSize {
		block := make([]int16, encoder.BlockSize)
		copy(block, tk.sampleBuf[:encoder.BlockSize])
		tk.sampleBuf = tk.sampleBuf[encoder.BlockSize:]
		blocks = append(blocks, block)
	}
	tk.bufMu.Unlock()

	for _, block := range blocks {
		tk.blockChan <- block
	}
}

// Stop finalizes the take into an Artifact and releases the device.
// Stop while idle is a no-op returning nil.
func (r *Recorder) Stop() (*Artifact, error) {
	tk := r.release()
	if tk == nil {
		return nil, nil
	}

	if err := tk.enc.Close(); err != nil {
		return nil, err
	}

	data := tk.enc.Bytes()
	payload := make([]byte, len(data))
	copy(payload, data)

	return &Artifact{
		Data:       payload,
		MIME:       tk.enc.MIME(),
		Seconds:    int(tk.enc.TotalFrames() / encoder.SampleRate),
		EncodeTime: tk.enc.EncodeTime(),
	}, nil
}

// Cancel discards the in-progress take. The device is released either
// way; it is safe to call when idle.
func (r *Recorder) Cancel() {
	tk := r.release()
	if tk != nil {
		tk.enc.Close()
	}
}

// release tears down the active take: device stopped, callback
// cleared, ticker stopped, encode pipeline drained.
func (r *Recorder) release() *take {
	r.mu.Lock()
	tk := r.take
	r.take = nil
	r.mu.Unlock()

	if tk == nil {
		return nil
	}

	r.device.Stop()
	r.device.ClearCallback()

	close(tk.stopTick)
	<-tk.tickDone

	tk.bufMu.Lock()
	if len(tk.sampleBuf) > 0 {
		partial := make([]int16, len(tk.sampleBuf))
		copy(partial, tk.sampleBuf)
		tk.sampleBuf = nil
		tk.blockChan <- partial
	}
	tk.bufMu.Unlock()

	close(tk.blockChan)
	<-tk.encodeDone
	return tk
}

func rmsLevel(data []byte) float64 {
	var sumSquares float64
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(len(data)/2))
}
