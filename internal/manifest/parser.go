package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Parse reads a manifest file, choosing the delimiter from its extension,
// and verifies that every referenced image exists.
func Parse(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return ParseWithDelimiter(path, delimiters[format])
}

// ParseWithDelimiter reads a manifest file using an explicit delimiter,
// regardless of the file extension. Either every row parses and every image
// exists, or an error is returned and no rows are.
func ParseWithDelimiter(path string, delim Delimiter) (*Manifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	m, lines, err := parseRows(path, data, delim)
	if err != nil {
		return nil, err
	}

	for i, p := range m.Paths {
		if err := checkImage(p); err != nil {
			return nil, &MissingImageError{File: path, Path: p, Line: lines[i], Err: err}
		}
	}

	return m, nil
}

// parseRows splits data into rows. It returns the manifest plus the 1-based
// source line of each row; blank lines are skipped but still counted.
func parseRows(file string, data []byte, delim Delimiter) (*Manifest, []int, error) {
	m := &Manifest{}
	var lines []int

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		row, err := parseRow(line, delim)
		if err != nil {
			return nil, nil, &MalformedRowError{File: file, Line: lineNo, Reason: err.Error()}
		}
		m.Paths = append(m.Paths, row.Path)
		m.Labels = append(m.Labels, row.Label)
		lines = append(lines, lineNo)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, nil, &MalformedRowError{File: file, Line: lineNo + 1, Reason: "line exceeds 1 MiB"}
		}
		return nil, nil, fmt.Errorf("reading manifest %s: %w", file, err)
	}

	return m, lines, nil
}

// parseRow splits a line on the first delimiter into path and label.
func parseRow(line string, delim Delimiter) (Row, error) {
	idx := strings.IndexByte(line, byte(delim))
	if idx < 0 {
		return Row{}, fmt.Errorf("expected path and label separated by %s", delim)
	}

	path, rawLabel := line[:idx], strings.TrimSpace(line[idx+1:])
	if path == "" {
		return Row{}, errors.New("empty path")
	}
	if rawLabel == "" {
		return Row{}, errors.New("empty label")
	}

	label, err := strconv.Atoi(rawLabel)
	if err != nil {
		return Row{}, fmt.Errorf("label %q is not an integer", rawLabel)
	}
	return Row{Path: path, Label: label}, nil
}

// checkImage verifies path is a regular file that can be opened for reading.
func checkImage(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return errors.New("not a regular file")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
