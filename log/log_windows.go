//go:build windows

package log

import (
	"os"
	"path/filepath"
)

// getDefaultDir places logs under %LOCALAPPDATA%\evoke\logs, falling
// back to the conventional AppData\Local path when the variable is
// unset.
func getDefaultDir() (string, error) {
	if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
		return filepath.Join(dir, "evoke", "logs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "AppData", "Local", "evoke", "logs"), nil
}
