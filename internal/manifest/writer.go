package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/mlexercises/datakit/internal/platform"
)

// FileMode is the permission set given to every written manifest.
const FileMode os.FileMode = 0644

// Write creates (or truncates) a manifest file with one row per line and
// mode FileMode.
// Rows whose path contains the delimiter or a line break are rejected
// before the file is touched, since the format has no quoting.
func Write(path string, rows []Row, delim Delimiter) error {
	if err := CheckRows(rows, delim); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return writeErr(path, err)
	}

	w := bufio.NewWriter(f)
	for _, r := range rows {
		w.WriteString(r.Path)
		w.WriteByte(byte(delim))
		w.WriteString(strconv.Itoa(r.Label))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return writeErr(path, err)
	}
	if err := f.Close(); err != nil {
		return writeErr(path, err)
	}
	if err := platform.Chmod(path, FileMode); err != nil {
		return writeErr(path, err)
	}
	return nil
}

// CheckRows reports the first row whose path cannot be stored with delim.
func CheckRows(rows []Row, delim Delimiter) error {
	for i, r := range rows {
		if strings.IndexByte(r.Path, byte(delim)) >= 0 || strings.ContainsAny(r.Path, "\r\n") {
			return fmt.Errorf("%w: row %d path %q contains the %s delimiter or a line break", ErrUnsupportedPath, i+1, r.Path, delim)
		}
	}
	return nil
}

func writeErr(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %s: %v", ErrWritePermission, path, err)
	}
	return fmt.Errorf("writing manifest %s: %w", path, err)
}
