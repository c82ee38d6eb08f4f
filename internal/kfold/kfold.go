// Package kfold computes stratified k-fold splits over integer labels.
//
// The allocation follows scikit-learn's StratifiedKFold: classes are numbered
// by first appearance, each class is spread over the folds so that every
// fold's class proportions approximate those of the whole collection, and
// fold sizes differ by at most one per class.
package kfold

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
)

var (
	ErrInvalidFoldCount    = errors.New("fold count must be at least 2")
	ErrInsufficientSamples = errors.New("insufficient samples for stratified split")
)

// InsufficientSamplesError names the class that cannot populate every fold.
type InsufficientSamplesError struct {
	Label int
	Count int
	Folds int
}

func (e *InsufficientSamplesError) Error() string {
	return fmt.Sprintf("class %d has %d member(s), need at least %d for %d folds", e.Label, e.Count, e.Folds, e.Folds)
}

func (e *InsufficientSamplesError) Unwrap() error { return ErrInsufficientSamples }

// Options tune the split. The zero value assigns class members to folds in
// input order, which makes the split fully deterministic.
type Options struct {
	Shuffle bool
	Seed    uint64
}

// Fold holds ascending index sets into the labels passed to Stratified.
type Fold struct {
	Train []int
	Test  []int
}

// Stratified splits labels into k folds. Every index lands in exactly one
// test set and Train is always the complement of Test.
func Stratified(labels []int, k int, opts Options) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidFoldCount, k)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no samples to split", ErrInsufficientSamples)
	}

	classes, encoded := encode(labels)
	counts := make([]int, len(classes))
	for _, c := range encoded {
		counts[c]++
	}
	for c, n := range counts {
		if n < k {
			return nil, &InsufficientSamplesError{Label: classes[c], Count: n, Folds: k}
		}
	}

	alloc := allocate(encoded, len(classes), k)

	var rng *rand.Rand
	if opts.Shuffle {
		rng = rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	}

	// Per class, the fold sequence 0..0,1..1,... is handed out to the class
	// members in index order.
	testFold := make([]int, len(labels))
	for c := range classes {
		seq := make([]int, 0, counts[c])
		for fold := 0; fold < k; fold++ {
			for j := 0; j < alloc[fold][c]; j++ {
				seq = append(seq, fold)
			}
		}
		if rng != nil {
			rng.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })
		}
		next := 0
		for i, ec := range encoded {
			if ec == c {
				testFold[i] = seq[next]
				next++
			}
		}
	}

	folds := make([]Fold, k)
	for i, f := range testFold {
		folds[f].Test = append(folds[f].Test, i)
		for other := range folds {
			if other != f {
				folds[other].Train = append(folds[other].Train, i)
			}
		}
	}
	return folds, nil
}

// encode maps labels to dense class indices numbered in order of first
// appearance.
func encode(labels []int) ([]int, []int) {
	index := make(map[int]int)
	var classes []int
	encoded := make([]int, len(labels))
	for i, l := range labels {
		c, ok := index[l]
		if !ok {
			c = len(classes)
			index[l] = c
			classes = append(classes, l)
		}
		encoded[i] = c
	}
	return classes, encoded
}

// allocate returns alloc[fold][class]: how many members of each class go to
// each fold's test set, taken from a round-robin walk over sorted labels.
func allocate(encoded []int, nClasses, k int) [][]int {
	sorted := append([]int(nil), encoded...)
	sort.Ints(sorted)

	alloc := make([][]int, k)
	for fold := range alloc {
		alloc[fold] = make([]int, nClasses)
	}
	for i, c := range sorted {
		alloc[i%k][c]++
	}
	return alloc
}
