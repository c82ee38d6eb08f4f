package manifest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Format identifies a manifest flavor by its file extension (without the dot).
type Format string

// Supported formats.
const (
	FormatTXT Format = "txt"
	FormatCSV Format = "csv"
	FormatTSV Format = "tsv"
)

// Delimiter separates the path and label fields of a row.
type Delimiter byte

// String renders the delimiter for messages; whitespace is spelled out.
func (d Delimiter) String() string {
	switch d {
	case ' ':
		return "space"
	case '\t':
		return "tab"
	default:
		return string(rune(d))
	}
}

var delimiters = map[Format]Delimiter{
	FormatTXT: ' ',
	FormatCSV: ',',
	FormatTSV: '\t',
}

// ValidFormats lists the supported formats in a stable order.
var ValidFormats = []Format{FormatTXT, FormatCSV, FormatTSV}

// DelimiterFor returns the delimiter associated with a format.
func DelimiterFor(f Format) (Delimiter, error) {
	d, ok := delimiters[Format(strings.ToLower(string(f)))]
	if !ok {
		return 0, fmt.Errorf("%w: %q (supported: txt, csv, tsv)", ErrUnsupportedFormat, string(f))
	}
	return d, nil
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	f := Format(strings.ToLower(ext))
	if _, ok := delimiters[f]; !ok {
		return "", fmt.Errorf("%w: file %s has extension %q (supported: .txt, .csv, .tsv)", ErrUnsupportedFormat, path, filepath.Ext(path))
	}
	return f, nil
}

// ParseDelimiter converts a user-supplied delimiter string into a Delimiter.
// Besides single characters it accepts the names "space", "comma" and "tab"
// and the escape `\t`.
func ParseDelimiter(s string) (Delimiter, error) {
	switch strings.ToLower(s) {
	case "space":
		return ' ', nil
	case "comma":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	if len(s) != 1 || s[0] == '\n' || s[0] == '\r' {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return Delimiter(s[0]), nil
}

// Row is one path/label record.
type Row struct {
	Path  string
	Label int
}

// Manifest holds parsed rows as parallel sequences.
type Manifest struct {
	Paths  []string
	Labels []int
}

// Len returns the number of rows.
func (m *Manifest) Len() int { return len(m.Paths) }

// Rows returns the manifest as a slice of rows.
func (m *Manifest) Rows() []Row {
	rows := make([]Row, len(m.Paths))
	for i := range m.Paths {
		rows[i] = Row{Path: m.Paths[i], Label: m.Labels[i]}
	}
	return rows
}

// LabelCount is the number of rows carrying one label.
type LabelCount struct {
	Label int
	Count int
}

// Summary returns per-label row counts ordered by label.
func (m *Manifest) Summary() []LabelCount {
	counts := make(map[int]int)
	for _, l := range m.Labels {
		counts[l]++
	}
	out := make([]LabelCount, 0, len(counts))
	for l, c := range counts {
		out = append(out, LabelCount{Label: l, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
