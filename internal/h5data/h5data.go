// Package h5data loads the cat/non-cat logistic regression dataset, which
// ships as two HDF5 files with a fixed set of named arrays:
//
//	train_catvnoncat.h5: train_set_x (m,h,w,c uint8), train_set_y (m), list_classes
//	test_catvnoncat.h5:  test_set_x, test_set_y, list_classes
//
// The layout is consumed as-is; this package does not define it.
package h5data

import (
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/hdf5"
)

// Paths locates the two container files. It replaces directory constants
// derived from the install location.
type Paths struct {
	TrainFile string
	TestFile  string
	// ClassNames is used when list_classes cannot be decoded as strings.
	ClassNames []string
}

// DefaultPaths returns the conventional layout under baseDir:
// <baseDir>/datasets/cat-noncat-dataset/{train,test}_catvnoncat.h5.
func DefaultPaths(baseDir string) Paths {
	dir := filepath.Join(baseDir, "datasets", "cat-noncat-dataset")
	return Paths{
		TrainFile:  filepath.Join(dir, "train_catvnoncat.h5"),
		TestFile:   filepath.Join(dir, "test_catvnoncat.h5"),
		ClassNames: []string{"non-cat", "cat"},
	}
}

// Images is a stack of m images stored row-major as (m, h, w, c).
type Images struct {
	Dims []uint
	Data []uint8
}

// Count returns the number of images (the first dimension).
func (im Images) Count() int {
	if len(im.Dims) == 0 {
		return 0
	}
	return int(im.Dims[0])
}

// Features returns the number of values per image.
func (im Images) Features() int {
	if im.Count() == 0 {
		return 0
	}
	return len(im.Data) / im.Count()
}

// CatDataset holds both splits.
type CatDataset struct {
	TrainX  Images
	TrainY  []int64
	TestX   Images
	TestY   []int64
	Classes []string
}

// Load reads both container files.
func Load(p Paths) (*CatDataset, error) {
	train, err := hdf5.OpenFile(p.TrainFile, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", p.TrainFile, err)
	}
	defer train.Close()

	test, err := hdf5.OpenFile(p.TestFile, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", p.TestFile, err)
	}
	defer test.Close()

	ds := &CatDataset{}
	if ds.TrainX, err = readImages(train, "train_set_x"); err != nil {
		return nil, fmt.Errorf("%s: %w", p.TrainFile, err)
	}
	if ds.TrainY, err = readLabels(train, "train_set_y"); err != nil {
		return nil, fmt.Errorf("%s: %w", p.TrainFile, err)
	}
	if ds.TestX, err = readImages(test, "test_set_x"); err != nil {
		return nil, fmt.Errorf("%s: %w", p.TestFile, err)
	}
	if ds.TestY, err = readLabels(test, "test_set_y"); err != nil {
		return nil, fmt.Errorf("%s: %w", p.TestFile, err)
	}
	if ds.Classes, err = readClasses(test, p.ClassNames); err != nil {
		return nil, fmt.Errorf("%s: %w", p.TestFile, err)
	}

	if ds.TrainX.Count() != len(ds.TrainY) {
		return nil, fmt.Errorf("train_set_x has %d images but train_set_y has %d labels", ds.TrainX.Count(), len(ds.TrainY))
	}
	if ds.TestX.Count() != len(ds.TestY) {
		return nil, fmt.Errorf("test_set_x has %d images but test_set_y has %d labels", ds.TestX.Count(), len(ds.TestY))
	}
	return ds, nil
}

func readImages(f *hdf5.File, name string) (Images, error) {
	dset, err := f.OpenDataset(name)
	if err != nil {
		return Images{}, fmt.Errorf("opening dataset %s: %w", name, err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()

	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return Images{}, fmt.Errorf("reading dims of %s: %w", name, err)
	}
	data := make([]uint8, space.SimpleExtentNPoints())
	if err := dset.Read(&data); err != nil {
		return Images{}, fmt.Errorf("reading %s: %w", name, err)
	}
	return Images{Dims: dims, Data: data}, nil
}

func readLabels(f *hdf5.File, name string) ([]int64, error) {
	dset, err := f.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", name, err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()

	labels := make([]int64, space.SimpleExtentNPoints())
	if err := dset.Read(&labels); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return labels, nil
}

// readClasses decodes list_classes. Fixed-length byte strings cannot be
// converted by the HDF5 library into Go strings, so when decoding fails the
// configured names are used provided their count matches the stored extent.
func readClasses(f *hdf5.File, fallback []string) ([]string, error) {
	dset, err := f.OpenDataset("list_classes")
	if err != nil {
		return nil, fmt.Errorf("opening dataset list_classes: %w", err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	n := space.SimpleExtentNPoints()

	names := make([]string, n)
	if err := dset.Read(&names); err == nil {
		for i := range names {
			names[i] = strings.TrimRight(names[i], "\x00 ")
		}
		return names, nil
	}

	if len(fallback) != n {
		return nil, fmt.Errorf("list_classes holds %d entries that could not be decoded and %d fallback names were configured", n, len(fallback))
	}
	return append([]string(nil), fallback...), nil
}

// Flatten reshapes images into a (features, m) matrix with values scaled
// to [0,1], one column per image.
func Flatten(im Images) *mat.Dense {
	m, n := im.Count(), im.Features()
	if m == 0 || n == 0 {
		return nil
	}
	out := mat.NewDense(n, m, nil)
	for j := 0; j < m; j++ {
		row := im.Data[j*n : (j+1)*n]
		for i, v := range row {
			out.Set(i, j, float64(v)/255)
		}
	}
	return out
}

// LabelRow returns labels reshaped to (1, m).
func LabelRow(labels []int64) *mat.Dense {
	if len(labels) == 0 {
		return nil
	}
	data := make([]float64, len(labels))
	for i, l := range labels {
		data[i] = float64(l)
	}
	return mat.NewDense(1, len(labels), data)
}
