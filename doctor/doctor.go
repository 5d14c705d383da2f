// Package doctor runs interactive preflight checks: credential,
// audio stack, microphone capture, and backend reachability.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"evoke/analysis"
	"evoke/audio"
	"evoke/clipboard"
	"evoke/encoder"
	"evoke/recorder"
	"evoke/shutdown"
)

// Run executes the diagnostic checks and returns an exit code
// (0=all pass, 1=any fail).
func Run(model string) int {
	resetTerminal()
	go func() {
		<-shutdown.Signals()
		fmt.Fprintln(os.Stderr, "\nInterrupted")
		resetTerminal()
		os.Exit(1)
	}()

	fmt.Println("evoke doctor - interactive system diagnostics")
	fmt.Println("=============================================")

	allPass := true

	if !checkCredential() {
		allPass = false
	}

	ctx, ok := checkAudioStack()
	if !ok {
		allPass = false
	}
	if ctx != nil {
		defer ctx.Close()
		if !checkMicrophone(ctx) {
			allPass = false
		}
	}

	if !checkClipboard() {
		allPass = false
	}

	if allPass && !checkBackend(model) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkCredential() bool {
	fmt.Println()
	fmt.Println("[1/5] Credential")

	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Println("  FAIL: GEMINI_API_KEY not set")
		fmt.Println("  Get a key at https://aistudio.google.com/apikey and export it")
		return false
	}
	fmt.Println("  PASS: GEMINI_API_KEY is set")
	return true
}

func checkAudioStack() (audio.Context, bool) {
	fmt.Println()
	fmt.Println("[2/5] Audio system")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return nil, false
	}

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		ctx.Close()
		return nil, false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		ctx.Close()
		return nil, false
	}

	fmt.Printf("  PASS: %d capture device(s)\n", len(devices))
	for _, d := range devices {
		tag := ""
		if audio.IsBluetooth(d.Name) {
			tag = "  [bluetooth: may capture at reduced quality]"
		}
		fmt.Printf("    - %s%s\n", d.Name, tag)
	}
	return ctx, true
}

type dotSink struct{}

func (dotSink) RecordingTick(int)   { fmt.Print(".") }
func (dotSink) AudioLevel(float64)  {}
func (dotSink) NoVoiceWarning(bool) {}

func checkMicrophone(ctx audio.Context) bool {
	fmt.Println()
	fmt.Println("[3/5] Microphone capture")

	device, err := ctx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		fmt.Printf("  FAIL: cannot open default device: %v\n", err)
		return false
	}
	defer device.Close()

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Press Enter and speak for 3 seconds...")
	reader.ReadString('\n')

	rec := recorder.New(device, "wav", dotSink{})
	if err := rec.Start(); err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}
	fmt.Print("  Recording")
	for rec.Elapsed() < 3 {
		time.Sleep(200 * time.Millisecond)
	}

	art, err := rec.Stop()
	fmt.Println()
	if err != nil {
		fmt.Printf("  FAIL: could not finalize recording: %v\n", err)
		return false
	}
	if art == nil || len(art.Data) <= audio.WAVHeaderSize {
		fmt.Println("  FAIL: no audio captured")
		return false
	}

	fmt.Printf("  PASS: captured %.1f KB (%d s)\n", float64(len(art.Data))/1024, art.Seconds)
	return true
}

// checkClipboard verifies a write/read roundtrip. Clipboard tools can
// hang when no compositor is reachable, so the roundtrip runs behind a
// timeout.
func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[4/5] Clipboard")

	marker := fmt.Sprintf("evoke-doctor-%d", time.Now().UnixNano())

	done := make(chan error, 1)
	go func() {
		if err := clipboard.Copy(marker); err != nil {
			done <- fmt.Errorf("write failed: %w", err)
			return
		}
		got, err := clipboard.Read()
		if err != nil {
			done <- fmt.Errorf("read failed: %w", err)
			return
		}
		if got != marker {
			done <- fmt.Errorf("mismatch: wrote %q, read %q", marker, got)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			fmt.Printf("  FAIL: %v\n", err)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (no compositor accessible?)")
		return false
	}
}

func checkBackend(model string) bool {
	fmt.Println()
	fmt.Println("[5/5] Backend reachability")

	client := analysis.NewGemini(model)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: model %s reachable\n", client.Model())
	return true
}
