// Package binary locates external helper programs.
package binary

import (
	"os/exec"
)

// Available checks if a binary is available in the system PATH.
func Available(binName string) (string, bool) {
	path, err := exec.LookPath(binName)

	return path, err == nil
}

// AllAvailable reports whether every named binary is in the system PATH.
func AllAvailable(binNames ...string) bool {
	for _, binName := range binNames {
		if _, found := Available(binName); !found {
			return false
		}
	}

	return true
}
