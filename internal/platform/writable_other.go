//go:build !unix

package platform

import (
	"fmt"
	"os"
)

func checkDirWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".datakit-probe-*")
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return nil
}
