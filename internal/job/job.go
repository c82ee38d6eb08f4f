// Package job loads YAML job files that describe a reproducible datakit
// run: either a k-fold manifest generation or a preprocessing pass. Job
// files are checked against an embedded JSON schema and must declare a
// version compatible with this release of the format.
package job

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

// Kinds of jobs.
const (
	KindKFold      = "kfold"
	KindPreprocess = "preprocess"
)

// SupportedVersions is the range of job file versions this build reads.
const SupportedVersions = "^1"

// Job is a parsed job file.
type Job struct {
	Version     string          `yaml:"version" json:"version"`
	Name        string          `yaml:"name,omitempty" json:"name,omitempty"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Kind        string          `yaml:"kind" json:"kind"`
	KFold       *KFoldSpec      `yaml:"kfold,omitempty" json:"kfold,omitempty"`
	Preprocess  *PreprocessSpec `yaml:"preprocess,omitempty" json:"preprocess,omitempty"`
}

// KFoldSpec mirrors the generate command's inputs.
type KFoldSpec struct {
	DataDir      string `yaml:"data_dir" json:"data_dir"`
	OutDir       string `yaml:"out_dir" json:"out_dir"`
	Format       string `yaml:"format,omitempty" json:"format,omitempty"`
	Folds        int    `yaml:"folds,omitempty" json:"folds,omitempty"`
	Delimiter    string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	Shuffle      bool   `yaml:"shuffle,omitempty" json:"shuffle,omitempty"`
	Seed         uint64 `yaml:"seed,omitempty" json:"seed,omitempty"`
	CreateOutDir bool   `yaml:"create_out_dir,omitempty" json:"create_out_dir,omitempty"`
}

// PreprocessSpec mirrors the preprocess command's inputs.
type PreprocessSpec struct {
	Filter  string  `yaml:"filter" json:"filter"`
	Inputs  string  `yaml:"inputs" json:"inputs"` // glob pattern
	OutDir  string  `yaml:"out_dir" json:"out_dir"`
	Workers int     `yaml:"workers,omitempty" json:"workers,omitempty"`
	Sigma   float64 `yaml:"sigma,omitempty" json:"sigma,omitempty"`
	Percent float64 `yaml:"percent,omitempty" json:"percent,omitempty"`
}

// InvalidJobError lists the schema violations of a job file.
type InvalidJobError struct {
	Path   string
	Issues []ValidationIssue
}

func (e *InvalidJobError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return printer.Sprintf("job %s has %d validation issue(s): %s", e.Path, len(e.Issues), strings.Join(parts, "; "))
}

// Load reads, validates and parses a job file. Relative directories in the
// job are resolved against the job file's own directory.
func Load(path string) (*Job, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating job %s: %w", path, err)
	}
	if !result.Valid {
		return nil, &InvalidJobError{Path: path, Issues: result.Issues}
	}

	var j Job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parsing job %s: %w", path, err)
	}

	if err := CheckVersion(j.Version); err != nil {
		return nil, fmt.Errorf("job %s: %w", path, err)
	}

	j.resolve(filepath.Dir(path))
	return &j, nil
}

// CheckVersion reports whether a job file version is readable by this build.
func CheckVersion(version string) error {
	v, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return fmt.Errorf("parsing job version %q: %w", version, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return fmt.Errorf("parsing supported range: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("job version %s is not supported (want %s)", v, SupportedVersions)
	}
	return nil
}

func (j *Job) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	if j.KFold != nil {
		j.KFold.DataDir = abs(j.KFold.DataDir)
		j.KFold.OutDir = abs(j.KFold.OutDir)
	}
	if j.Preprocess != nil {
		j.Preprocess.Inputs = abs(j.Preprocess.Inputs)
		j.Preprocess.OutDir = abs(j.Preprocess.OutDir)
	}
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
