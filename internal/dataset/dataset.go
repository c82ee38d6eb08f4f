// Package dataset exposes a parsed path/label manifest as an indexed
// collection of decoded image tensors. It backs the brain hemorrhage
// classifier, whose manifests list subdural and subarachnoid scans.
package dataset

import (
	"fmt"
	"os"

	"github.com/mlexercises/datakit/internal/manifest"
	"github.com/mlexercises/datakit/internal/tensor"
)

// Config controls manifest parsing and the image transform.
type Config struct {
	Transform tensor.Transform
	// Delimiter overrides the delimiter implied by the manifest extension.
	Delimiter manifest.Delimiter
}

// Sample is one decoded item.
type Sample struct {
	Path   string
	Label  int
	Tensor *tensor.Tensor
}

// Dataset is an immutable view over a manifest; Get decodes lazily.
type Dataset struct {
	manifest  *manifest.Manifest
	transform tensor.Transform
}

// Open parses the manifest at path and prepares the transform.
func Open(path string, cfg Config) (*Dataset, error) {
	if err := cfg.Transform.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("image-label file %s cannot be found: %w", path, err)
	}

	var (
		m   *manifest.Manifest
		err error
	)
	if cfg.Delimiter != 0 {
		m, err = manifest.ParseWithDelimiter(path, cfg.Delimiter)
	} else {
		m, err = manifest.Parse(path)
	}
	if err != nil {
		return nil, err
	}

	return &Dataset{manifest: m, transform: cfg.Transform}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return d.manifest.Len() }

// Get decodes sample i.
func (d *Dataset) Get(i int) (Sample, error) {
	if i < 0 || i >= d.Len() {
		return Sample{}, fmt.Errorf("index %d out of range [0,%d)", i, d.Len())
	}
	path := d.manifest.Paths[i]
	t, err := d.transform.Apply(path)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Path: path, Label: d.manifest.Labels[i], Tensor: t}, nil
}

// Classes returns per-label sample counts.
func (d *Dataset) Classes() []manifest.LabelCount {
	return d.manifest.Summary()
}
