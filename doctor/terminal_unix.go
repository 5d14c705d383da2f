//go:build !windows

package doctor

import "os/exec"

// resetTerminal undoes any raw-mode state a crashed prior run may have
// left behind.
func resetTerminal() {
	exec.Command("stty", "sane").Run()
}
