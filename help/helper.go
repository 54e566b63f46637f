// Package help holds small filesystem helpers shared by config and main.
package help

import (
	"os"
	"os/user"
	"path/filepath"
)

// HomeDir returns the user's home directory, or "." when none can be found.
func HomeDir() string {
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return h
	}
	if u, err := user.Current(); err == nil && u.HomeDir != "" {
		return u.HomeDir
	}
	return "."
}

// DataPath returns name inside the per-user sentinel directory.
func DataPath(name string) string {
	return filepath.Join(HomeDir(), ".sentinel", name)
}
