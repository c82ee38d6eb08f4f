package generator

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/mlexercises/datakit/internal/kfold"
	"github.com/mlexercises/datakit/internal/manifest"
)

// makeDataset creates data/<class>/<class>_<i>.png for each class.
func makeDataset(t *testing.T, counts map[string]int) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "data")
	for class, n := range counts {
		dir := filepath.Join(root, class)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < n; i++ {
			p := filepath.Join(dir, fmt.Sprintf("%s_%02d.png", class, i))
			if err := os.WriteFile(p, []byte("img"), 0644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return root
}

func TestGenerate_CatDogFiveFolds(t *testing.T) {
	data := makeDataset(t, map[string]int{"cat": 10, "dog": 10})
	out := t.TempDir()

	files, err := Generate(data, out, Options{Format: manifest.FormatTXT, Folds: 5})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(files) != 5 {
		t.Fatalf("got %d folds, want 5", len(files))
	}

	entries, _ := os.ReadDir(out)
	if len(entries) != 10 {
		t.Errorf("out dir has %d files, want 10", len(entries))
	}

	for i, f := range files {
		if filepath.Base(f.Train) != fmt.Sprintf("train_split_%d.txt", i) {
			t.Errorf("train file = %s", f.Train)
		}
		if filepath.Base(f.Test) != fmt.Sprintf("test_split_%d.txt", i) {
			t.Errorf("test file = %s", f.Test)
		}

		test, err := manifest.Parse(f.Test)
		if err != nil {
			t.Fatalf("Parse(%s): %v", f.Test, err)
		}
		if test.Len() != 4 {
			t.Errorf("fold %d: test rows = %d, want 4", i, test.Len())
		}
		counts := map[int]int{}
		for _, l := range test.Labels {
			counts[l]++
		}
		if counts[0] != 2 || counts[1] != 2 {
			t.Errorf("fold %d: test label counts = %v, want 2 cat + 2 dog", i, counts)
		}

		train, err := manifest.Parse(f.Train)
		if err != nil {
			t.Fatalf("Parse(%s): %v", f.Train, err)
		}
		if train.Len() != 16 {
			t.Errorf("fold %d: train rows = %d, want 16", i, train.Len())
		}
	}
}

func TestGenerate_LabelsFollowSortedFolders(t *testing.T) {
	data := makeDataset(t, map[string]int{"sdh": 3, "sah": 3})
	out := t.TempDir()

	files, err := Generate(data, out, Options{Format: manifest.FormatCSV, Folds: 3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	m, err := manifest.Parse(files[0].Test)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range m.Paths {
		class := filepath.Base(filepath.Dir(p))
		want := map[string]int{"sah": 0, "sdh": 1}[class]
		if m.Labels[i] != want {
			t.Errorf("%s: label = %d, want %d", p, m.Labels[i], want)
		}
		if !filepath.IsAbs(p) {
			t.Errorf("path %s is not absolute", p)
		}
	}
}

func TestGenerate_PartitionAndRoundTrip(t *testing.T) {
	data := makeDataset(t, map[string]int{"a": 7, "b": 5, "c": 4})
	out := t.TempDir()

	files, err := Generate(data, out, Options{Format: manifest.FormatTSV, Folds: 4})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	all := map[string]int{}
	for _, f := range files {
		test, err := manifest.Parse(f.Test)
		if err != nil {
			t.Fatal(err)
		}
		train, err := manifest.Parse(f.Train)
		if err != nil {
			t.Fatal(err)
		}
		inTest := map[string]bool{}
		for _, p := range test.Paths {
			all[p]++
			inTest[p] = true
		}
		for _, p := range train.Paths {
			if inTest[p] {
				t.Errorf("%s in both train and test of %s", p, f.Test)
			}
		}
		if train.Len()+test.Len() != 16 {
			t.Errorf("train+test = %d, want 16", train.Len()+test.Len())
		}
	}
	if len(all) != 16 {
		t.Errorf("union of test sets has %d items, want 16", len(all))
	}
	for p, n := range all {
		if n != 1 {
			t.Errorf("%s appears in %d test sets", p, n)
		}
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	data := makeDataset(t, map[string]int{"cat": 6, "dog": 9})
	out := t.TempDir()

	first, err := Generate(data, out, Options{Folds: 3})
	if err != nil {
		t.Fatal(err)
	}
	snapshot := map[string][]byte{}
	for _, f := range first {
		for _, p := range []string{f.Train, f.Test} {
			b, _ := os.ReadFile(p)
			snapshot[p] = b
		}
	}

	if _, err := Generate(data, out, Options{Folds: 3}); err != nil {
		t.Fatal(err)
	}
	for p, want := range snapshot {
		got, _ := os.ReadFile(p)
		if !bytes.Equal(got, want) {
			t.Errorf("%s changed between runs", p)
		}
	}
}

func TestGenerate_DelimiterOverride(t *testing.T) {
	data := makeDataset(t, map[string]int{"cat": 2, "dog": 2})
	out := t.TempDir()

	files, err := Generate(data, out, Options{Format: manifest.FormatTXT, Folds: 2, Delimiter: ','})
	if err != nil {
		t.Fatal(err)
	}
	m, err := manifest.ParseWithDelimiter(files[0].Train, ',')
	if err != nil {
		t.Fatalf("ParseWithDelimiter: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("rows = %d, want 2", m.Len())
	}
}

func TestGenerate_SkipsHiddenAndNested(t *testing.T) {
	data := makeDataset(t, map[string]int{"cat": 2, "dog": 2})
	os.WriteFile(filepath.Join(data, "cat", ".DS_Store"), []byte("x"), 0644)
	os.MkdirAll(filepath.Join(data, "cat", "nested"), 0755)
	os.WriteFile(filepath.Join(data, "cat", "nested", "deep.png"), []byte("x"), 0644)
	os.MkdirAll(filepath.Join(data, ".cache"), 0755)
	os.WriteFile(filepath.Join(data, "README.md"), []byte("x"), 0644)

	classes, err := ScanClasses(data)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, c := range classes {
		names = append(names, c.Name)
		if len(c.Files) != 2 {
			t.Errorf("class %s has %d files, want 2", c.Name, len(c.Files))
		}
	}
	if strings.Join(names, ",") != "cat,dog" {
		t.Errorf("classes = %v, want [cat dog]", names)
	}
}

func TestGenerate_Errors(t *testing.T) {
	data := makeDataset(t, map[string]int{"cat": 10, "dog": 3})
	file := filepath.Join(t.TempDir(), "plain.txt")
	os.WriteFile(file, []byte("x"), 0644)

	tests := []struct {
		name string
		data string
		out  string
		opts Options
		want error
	}{
		{"missing data dir", filepath.Join(t.TempDir(), "nope"), t.TempDir(), Options{}, ErrInvalidDirectory},
		{"data dir is a file", file, t.TempDir(), Options{}, ErrInvalidDirectory},
		{"unsupported format", data, t.TempDir(), Options{Format: "json", Folds: 3}, manifest.ErrUnsupportedFormat},
		{"class smaller than k", data, t.TempDir(), Options{Folds: 5}, kfold.ErrInsufficientSamples},
		{"missing out dir", data, filepath.Join(t.TempDir(), "nope"), Options{Folds: 3}, manifest.ErrWritePermission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.data, tt.out, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGenerate_UnstorablePathWritesNothing(t *testing.T) {
	data := makeDataset(t, map[string]int{"cat": 4, "dog": 5})
	if err := os.WriteFile(filepath.Join(data, "cat", "a a.png"), []byte("img"), 0644); err != nil {
		t.Fatal(err)
	}
	out := t.TempDir()

	_, err := Generate(data, out, Options{Format: manifest.FormatTXT, Folds: 5})
	if !errors.Is(err, manifest.ErrUnsupportedPath) {
		t.Fatalf("expected ErrUnsupportedPath, got %v", err)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("expected no files written, found %d", len(entries))
	}

	// The same layout is fine when the delimiter cannot appear in a path.
	if _, err := Generate(data, out, Options{Format: manifest.FormatCSV, Folds: 5}); err != nil {
		t.Fatalf("csv Generate: %v", err)
	}
}

func TestGenerate_ReadOnlyOutDir(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	data := makeDataset(t, map[string]int{"cat": 2, "dog": 2})
	out := filepath.Join(t.TempDir(), "ro")
	if err := os.MkdirAll(out, 0555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(out, 0755) })

	_, err := Generate(data, out, Options{Folds: 2})
	if !errors.Is(err, manifest.ErrWritePermission) {
		t.Fatalf("expected ErrWritePermission, got %v", err)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("expected no files written, found %d", len(entries))
	}
}

func TestScanClasses_Order(t *testing.T) {
	data := makeDataset(t, map[string]int{"zebra": 1, "ant": 1, "moth": 1})
	classes, err := ScanClasses(data)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for i, c := range classes {
		if c.Label != i {
			t.Errorf("class %s label = %d, want %d", c.Name, c.Label, i)
		}
		got = append(got, c.Name)
	}
	if !sort.StringsAreSorted(got) {
		t.Errorf("classes not sorted: %v", got)
	}
}
