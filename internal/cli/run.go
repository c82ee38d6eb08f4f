package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mlexercises/datakit/internal/config"
	"github.com/mlexercises/datakit/internal/generator"
	"github.com/mlexercises/datakit/internal/job"
	"github.com/mlexercises/datakit/internal/manifest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runSets   []string
	runDryRun bool
)

var runCmd = &cobra.Command{
	Use:   "run <job.yaml>",
	Short: "Run a job file",
	Long: `Execute a YAML job file describing a k-fold generation or a preprocessing
pass. The job is validated against the job schema before anything runs.

Job fields can be overridden with --set key=value, for example
--set seed=7 --set folds=10.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVar(&runSets, "set", nil, "Override a job field as key=value (can be specified multiple times)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Validate and print the resolved job without running it")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	overrides, err := parseSetArgs(runSets)
	if err != nil {
		return err
	}

	j, err := job.Load(args[0])
	if err != nil {
		return err
	}
	if err := applyOverrides(j, overrides); err != nil {
		return err
	}

	logger.Info("running job", zap.String("file", args[0]), zap.String("name", j.Name), zap.String("kind", j.Kind))

	out := cmd.OutOrStdout()
	if runDryRun {
		fmt.Fprintf(out, "job %s (%s) is valid\n", jobName(j, args[0]), j.Kind)
		switch j.Kind {
		case job.KindKFold:
			fmt.Fprintf(out, "  %+v\n", *j.KFold)
		case job.KindPreprocess:
			fmt.Fprintf(out, "  %+v\n", *j.Preprocess)
		}
		return nil
	}

	switch j.Kind {
	case job.KindKFold:
		return runKFoldJob(cmd, j.KFold)
	case job.KindPreprocess:
		return runPreprocessJob(cmd, j.Preprocess)
	default:
		return fmt.Errorf("job kind %q cannot be run", j.Kind)
	}
}

func runKFoldJob(cmd *cobra.Command, kf *job.KFoldSpec) error {
	opts, err := kfoldJobOptions(kf, config.Current())
	if err != nil {
		return err
	}
	if kf.CreateOutDir {
		if err := os.MkdirAll(kf.OutDir, 0755); err != nil {
			return fmt.Errorf("creating output directory %s: %w", kf.OutDir, err)
		}
	}

	files, err := generator.Generate(kf.DataDir, kf.OutDir, opts)
	if err != nil {
		return err
	}
	for i, f := range files {
		fmt.Fprintf(cmd.OutOrStdout(), "fold %d\n  train: %s\n  test:  %s\n", i, f.Train, f.Test)
	}
	return nil
}

// kfoldJobOptions fills format and folds missing from the job from config,
// the same way the generate command does.
func kfoldJobOptions(kf *job.KFoldSpec, s config.Settings) (generator.Options, error) {
	opts := generator.Options{
		Format:  manifest.Format(strings.ToLower(s.Format)),
		Folds:   s.Folds,
		Shuffle: kf.Shuffle,
		Seed:    kf.Seed,
	}
	if kf.Format != "" {
		opts.Format = manifest.Format(strings.ToLower(kf.Format))
	}
	if kf.Folds != 0 {
		opts.Folds = kf.Folds
	}
	if kf.Delimiter != "" {
		d, err := manifest.ParseDelimiter(kf.Delimiter)
		if err != nil {
			return opts, err
		}
		opts.Delimiter = d
	}
	return opts, nil
}

func runPreprocessJob(cmd *cobra.Command, pp *job.PreprocessSpec) error {
	inputs, err := expandInputs([]string{pp.Inputs})
	if err != nil {
		return err
	}
	workers := pp.Workers
	if workers == 0 {
		workers = config.Current().Workers
	}
	stats, err := applyFilter(cmd.Context(), filterRun{
		Filter:  pp.Filter,
		Inputs:  inputs,
		OutDir:  pp.OutDir,
		Workers: workers,
		Sigma:   pp.Sigma,
		Percent: pp.Percent,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d images written to %s\n", stats.Processed, pp.OutDir)
	return nil
}

func jobName(j *job.Job, path string) string {
	if j.Name != "" {
		return j.Name
	}
	return path
}

// parseSetArgs parses key=value pairs from --set flags into a map.
func parseSetArgs(sets []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, s := range sets {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid override %q: expected key=value", s)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			return nil, fmt.Errorf("invalid override %q: key cannot be empty", s)
		}
		result[key] = value
	}
	return result, nil
}

// applyOverrides writes --set values into the job block that matches its kind.
func applyOverrides(j *job.Job, overrides map[string]string) error {
	for key, value := range overrides {
		var err error
		switch {
		case j.KFold != nil:
			err = overrideKFold(j.KFold, key, value)
		case j.Preprocess != nil:
			err = overridePreprocess(j.Preprocess, key, value)
		}
		if err != nil {
			return fmt.Errorf("override %s=%s: %w", key, value, err)
		}
	}
	return nil
}

func overrideKFold(s *job.KFoldSpec, key, value string) error {
	var err error
	switch key {
	case "data_dir":
		s.DataDir = value
	case "out_dir":
		s.OutDir = value
	case "format":
		s.Format = value
	case "delimiter":
		s.Delimiter = value
	case "folds":
		s.Folds, err = strconv.Atoi(value)
		if err == nil && s.Folds < 2 {
			err = fmt.Errorf("folds must be at least 2")
		}
	case "shuffle":
		s.Shuffle, err = strconv.ParseBool(value)
	case "seed":
		s.Seed, err = strconv.ParseUint(value, 10, 64)
	case "create_out_dir":
		s.CreateOutDir, err = strconv.ParseBool(value)
	default:
		err = fmt.Errorf("unknown kfold field %q", key)
	}
	return err
}

func overridePreprocess(s *job.PreprocessSpec, key, value string) error {
	var err error
	switch key {
	case "filter":
		s.Filter = value
	case "inputs":
		s.Inputs = value
	case "out_dir":
		s.OutDir = value
	case "workers":
		s.Workers, err = strconv.Atoi(value)
	case "sigma":
		s.Sigma, err = strconv.ParseFloat(value, 64)
	case "percent":
		s.Percent, err = strconv.ParseFloat(value, 64)
	default:
		err = fmt.Errorf("unknown preprocess field %q", key)
	}
	return err
}
