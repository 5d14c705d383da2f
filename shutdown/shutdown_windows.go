//go:build windows

// Package shutdown delivers OS termination signals for graceful exit.
package shutdown

import (
	"os"
	"os/signal"
)

// Signals returns a channel that receives interrupt signals. SIGTERM
// does not exist on Windows.
func Signals() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch
}
