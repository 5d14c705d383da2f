//go:build windows

package doctor

// resetTerminal is a no-op on Windows; the console does not carry
// stty-style raw-mode state between processes.
func resetTerminal() {
}
