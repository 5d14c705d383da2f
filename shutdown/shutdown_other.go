//go:build !windows

// Package shutdown delivers OS termination signals for graceful exit.
package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

// Signals returns a channel that receives interrupt and termination
// signals.
func Signals() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}
