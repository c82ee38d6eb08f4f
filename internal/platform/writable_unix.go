//go:build unix

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func checkDirWritable(dir string) error {
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("directory %s is not writable: %w", dir, err)
	}
	return nil
}
