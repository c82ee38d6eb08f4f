package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testdataDir = "testdata"

func testPath(name string) string {
	return filepath.Join(testdataDir, name)
}

func TestParse_ByExtension(t *testing.T) {
	wantPaths := []string{
		"testdata/images/sah_001.png",
		"testdata/images/sdh_001.png",
		"testdata/images/sdh_002.png",
	}
	wantLabels := []int{0, 1, 1}

	for _, file := range []string{"valid.txt", "valid.csv", "valid.tsv"} {
		t.Run(file, func(t *testing.T) {
			m, err := Parse(testPath(file))
			if err != nil {
				t.Fatalf("Parse(%s) error: %v", file, err)
			}
			if !reflect.DeepEqual(m.Paths, wantPaths) {
				t.Errorf("Paths = %v, want %v", m.Paths, wantPaths)
			}
			if !reflect.DeepEqual(m.Labels, wantLabels) {
				t.Errorf("Labels = %v, want %v", m.Labels, wantLabels)
			}
		})
	}
}

func TestParse_RelativePaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"img1.png", "img2.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "list.csv"), []byte("img1.png,0\nimg2.png,1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	m, err := Parse("list.csv")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !reflect.DeepEqual(m.Paths, []string{"img1.png", "img2.png"}) {
		t.Errorf("Paths = %v", m.Paths)
	}
	if !reflect.DeepEqual(m.Labels, []int{0, 1}) {
		t.Errorf("Labels = %v", m.Labels)
	}
}

func TestParse_TxtUsesSpace(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.png")
	if err := os.WriteFile(img, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	// A comma-separated row in a .txt file has no space, so it is malformed.
	list := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(list, []byte(img+",0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Parse(list)
	if !errors.Is(err, ErrMalformedRow) {
		t.Fatalf("expected ErrMalformedRow, got %v", err)
	}

	if err := os.WriteFile(list, []byte(img+" 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := Parse(list)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if m.Labels[0] != 3 {
		t.Errorf("Labels[0] = %d, want 3", m.Labels[0])
	}
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, err := Parse(testPath("semicolon.lst"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseWithDelimiter_Override(t *testing.T) {
	m, err := ParseWithDelimiter(testPath("semicolon.lst"), ';')
	if err != nil {
		t.Fatalf("ParseWithDelimiter error: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if m.Labels[1] != 1 {
		t.Errorf("Labels[1] = %d, want 1", m.Labels[1])
	}
}

func TestParse_MissingImage(t *testing.T) {
	_, err := Parse(testPath("missing-image.csv"))
	if err == nil {
		t.Fatal("expected error for missing image, got nil")
	}

	var missing *MissingImageError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingImageError, got %T: %v", err, err)
	}
	if missing.Line != 3 {
		t.Errorf("Line = %d, want 3", missing.Line)
	}
	if missing.Path != "testdata/images/missing.png" {
		t.Errorf("Path = %q", missing.Path)
	}
	if !errors.Is(err, ErrMissingImage) {
		t.Error("expected errors.Is(err, ErrMissingImage)")
	}
}

func TestParse_DirectoryIsNotAnImage(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "list.tsv")
	if err := os.WriteFile(list, []byte(dir+"\t0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Parse(list)
	if !errors.Is(err, ErrMissingImage) {
		t.Fatalf("expected ErrMissingImage, got %v", err)
	}
}

func TestParse_MalformedRows(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.png")
	if err := os.WriteFile(img, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		content string
		line    int
	}{
		{"no delimiter", img + "\n", 1},
		{"non integer label", img + ",0\n" + img + ",cat\n", 2},
		{"empty label", img + ",\n", 1},
		{"empty path", ",1\n", 1},
		{"float label", img + ",1.5\n", 1},
		{"comma inside path", filepath.Join(dir, "a,b.png") + ",0\n", 1},
		{"blank lines counted", "\n\n" + img + "\n", 3},
		{"line over 1 MiB", img + ",0\n" + strings.Repeat("x", 1<<20+1) + ",0\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := filepath.Join(dir, "list.csv")
			if err := os.WriteFile(list, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Parse(list)
			var malformed *MalformedRowError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected *MalformedRowError, got %T: %v", err, err)
			}
			if malformed.Line != tt.line {
				t.Errorf("Line = %d, want %d", malformed.Line, tt.line)
			}
		})
	}
}

func TestParse_BadLabelFixture(t *testing.T) {
	_, err := Parse(testPath("bad-label.csv"))
	if !errors.Is(err, ErrMalformedRow) {
		t.Fatalf("expected ErrMalformedRow, got %v", err)
	}
}

func TestParse_CRLFAndLabelWhitespace(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.png")
	if err := os.WriteFile(img, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	list := filepath.Join(dir, "list.csv")
	if err := os.WriteFile(list, []byte(img+", 1\r\n"+img+",0\r\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Parse(list)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !reflect.DeepEqual(m.Labels, []int{1, 0}) {
		t.Errorf("Labels = %v, want [1 0]", m.Labels)
	}
	if m.Paths[0] != img {
		t.Errorf("Paths[0] = %q, want %q", m.Paths[0], img)
	}
}

func TestParse_EmptyFile(t *testing.T) {
	list := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(list, nil, 0644); err != nil {
		t.Fatal(err)
	}
	m, err := Parse(list)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestParse_FileNotFound(t *testing.T) {
	_, err := Parse(testPath("nonexistent.csv"))
	if err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	m := &Manifest{
		Paths:  []string{"a", "b", "c", "d"},
		Labels: []int{2, 0, 2, 2},
	}
	got := m.Summary()
	want := []LabelCount{{Label: 0, Count: 1}, {Label: 2, Count: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Summary() = %v, want %v", got, want)
	}
}
