// Package generator turns a directory of class folders into stratified
// k-fold train/test manifests.
//
// Expected layout:
//
//	data_dir/
//	  cat/
//	    cat_img0.png
//	    cat_img1.png
//	  dog/
//	    dog_img0.png
//
// Class folders are sorted by name and numbered from 0; every file directly
// inside a folder carries that folder's number as its label.
package generator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mlexercises/datakit/internal/kfold"
	"github.com/mlexercises/datakit/internal/manifest"
	"github.com/mlexercises/datakit/internal/platform"
)

// ErrInvalidDirectory is returned when the data directory is missing or not a directory.
var ErrInvalidDirectory = errors.New("invalid data directory")

// Defaults applied to zero-valued options.
const (
	DefaultFormat = manifest.FormatTXT
	DefaultFolds  = 5
)

// Options configures a generation run.
type Options struct {
	Format    manifest.Format    // output extension; default txt
	Folds     int                // number of folds; default 5
	Delimiter manifest.Delimiter // overrides the format's delimiter when non-zero
	Shuffle   bool
	Seed      uint64
}

// FoldFiles are the two manifests written for one fold.
type FoldFiles struct {
	Train string
	Test  string
}

// Class is one class folder and the files it contributes.
type Class struct {
	Name  string
	Label int
	Files []string
}

// Generate scans dataDir, splits its files into opts.Folds stratified folds and
// writes train_split_{i}.{ext} and test_split_{i}.{ext} into outDir. Output is
// byte-identical across runs with the same inputs and options.
func Generate(dataDir, outDir string, opts Options) ([]FoldFiles, error) {
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}
	if opts.Folds == 0 {
		opts.Folds = DefaultFolds
	}

	classes, err := ScanClasses(dataDir)
	if err != nil {
		return nil, err
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim, err = manifest.DelimiterFor(opts.Format)
		if err != nil {
			return nil, fmt.Errorf("cannot write manifests as %q: %w", opts.Format, err)
		}
	} else if _, err := manifest.DelimiterFor(opts.Format); err != nil {
		return nil, fmt.Errorf("cannot write manifests as %q: %w", opts.Format, err)
	}

	rows := collect(classes)
	labels := make([]int, len(rows))
	for i, r := range rows {
		labels[i] = r.Label
	}

	// Rejected before any fold file is created.
	if err := manifest.CheckRows(rows, delim); err != nil {
		return nil, err
	}

	folds, err := kfold.Stratified(labels, opts.Folds, kfold.Options{Shuffle: opts.Shuffle, Seed: opts.Seed})
	if err != nil {
		return nil, fmt.Errorf("splitting %s: %w", dataDir, err)
	}

	if err := platform.CheckWritable(outDir); err != nil {
		return nil, fmt.Errorf("%w: %v", manifest.ErrWritePermission, err)
	}

	ext := strings.ToLower(string(opts.Format))
	out := make([]FoldFiles, 0, len(folds))
	for i, fold := range folds {
		files := FoldFiles{
			Train: filepath.Join(outDir, fmt.Sprintf("train_split_%d.%s", i, ext)),
			Test:  filepath.Join(outDir, fmt.Sprintf("test_split_%d.%s", i, ext)),
		}
		if err := manifest.Write(files.Train, pick(rows, fold.Train), delim); err != nil {
			return nil, err
		}
		if err := manifest.Write(files.Test, pick(rows, fold.Test), delim); err != nil {
			return nil, err
		}
		out = append(out, files)
	}
	return out, nil
}

// ScanClasses lists the class folders of dataDir in label order. Hidden
// entries are ignored; nested directories inside a class folder are not
// descended into.
func ScanClasses(dataDir string) ([]Class, error) {
	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDirectory, dataDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidDirectory, dataDir)
	}

	root, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dataDir, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidDirectory, dataDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	classes := make([]Class, 0, len(names))
	for label, name := range names {
		files, err := listFiles(filepath.Join(root, name))
		if err != nil {
			return nil, err
		}
		classes = append(classes, Class{Name: name, Label: label, Files: files})
	}
	return classes, nil
}

// listFiles returns the sorted regular files directly inside dir.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading class folder %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || !e.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// collect concatenates per-class rows in label order.
func collect(classes []Class) []manifest.Row {
	var rows []manifest.Row
	for _, c := range classes {
		for _, f := range c.Files {
			rows = append(rows, manifest.Row{Path: f, Label: c.Label})
		}
	}
	return rows
}

func pick(rows []manifest.Row, idx []int) []manifest.Row {
	out := make([]manifest.Row, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}
