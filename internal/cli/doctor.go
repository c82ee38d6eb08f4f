package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mlexercises/datakit/internal/config"
	"github.com/mlexercises/datakit/internal/generator"
	"github.com/mlexercises/datakit/internal/job"
	"github.com/mlexercises/datakit/internal/manifest"
	"github.com/mlexercises/datakit/internal/platform"
	"github.com/spf13/cobra"
)

var (
	checkConfig  bool
	checkData    string
	checkOut     string
	checkJob     string
	checkFormats bool
)

func init() {
	doctorCmd.Flags().BoolVar(&checkConfig, "check-config", false, "Show the resolved configuration")
	doctorCmd.Flags().StringVar(&checkData, "check-data", "", "Verify a folder-per-class data directory")
	doctorCmd.Flags().StringVar(&checkOut, "check-out", "", "Verify that an output directory is writable")
	doctorCmd.Flags().StringVar(&checkJob, "check-job", "", "Validate a job file at the given path")
	doctorCmd.Flags().BoolVar(&checkFormats, "check-formats", false, "List supported manifest formats")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for datakit inputs and settings",
	Long:  `Run diagnostic checks on the configuration, data directories and job files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		anyFlag := checkConfig || checkData != "" || checkOut != "" || checkJob != "" || checkFormats

		// If no specific flag, run all checks against the configured data_dir.
		if !anyFlag {
			runAllChecks(out)
			return nil
		}

		if checkConfig {
			runConfigCheck(out)
		}
		if checkFormats {
			runFormatsCheck(out)
		}
		if checkData != "" {
			if err := runDataCheck(out, checkData); err != nil {
				return err
			}
		}
		if checkOut != "" {
			if err := runOutCheck(out, checkOut); err != nil {
				return err
			}
		}
		if checkJob != "" {
			if err := runJobCheck(out, checkJob); err != nil {
				return err
			}
		}
		return nil
	},
}

func runAllChecks(out io.Writer) {
	runConfigCheck(out)
	runFormatsCheck(out)
	dataDir := config.Current().DataDir
	if err := runDataCheck(out, dataDir); err != nil {
		fmt.Fprintf(out, "[WARN] Data check failed: %v\n", err)
	}
}

func runConfigCheck(out io.Writer) {
	fmt.Fprintln(out, "Config check:")
	path := config.FilePath()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(out, "  [INFO] %s not found, using defaults\n", path)
	} else {
		fmt.Fprintf(out, "  [ OK ] %s\n", path)
	}
	s := config.Current()
	fmt.Fprintf(out, "  data_dir=%s workers=%d folds=%d format=%s log.level=%s log.format=%s\n",
		s.DataDir, s.Workers, s.Folds, s.Format, s.LogLevel, s.LogFormat)
	if _, err := manifest.DelimiterFor(manifest.Format(s.Format)); err != nil {
		fmt.Fprintf(out, "  [FAIL] format: %v\n", err)
	}
	if s.Folds < 2 {
		fmt.Fprintf(out, "  [FAIL] folds must be at least 2, got %d\n", s.Folds)
	}
}

func runFormatsCheck(out io.Writer) {
	fmt.Fprintln(out, "Formats:")
	for _, f := range manifest.ValidFormats {
		d, _ := manifest.DelimiterFor(f)
		fmt.Fprintf(out, "  .%s  delimiter=%s\n", f, d)
	}
}

func runDataCheck(out io.Writer, dir string) error {
	fmt.Fprintf(out, "Data check: %s\n", dir)
	classes, err := generator.ScanClasses(dir)
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return err
	}
	if len(classes) == 0 {
		fmt.Fprintln(out, "  [WARN] no class folders found")
		return nil
	}

	folds := config.Current().Folds
	for _, c := range classes {
		status := "[ OK ]"
		if len(c.Files) < folds {
			status = "[WARN]"
		}
		fmt.Fprintf(out, "  %s label %d %s: %d files\n", status, c.Label, c.Name, len(c.Files))
	}
	return nil
}

func runOutCheck(out io.Writer, dir string) error {
	fmt.Fprintf(out, "Output check: %s\n", dir)
	if err := platform.CheckWritable(dir); err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return fmt.Errorf("%w: %v", manifest.ErrWritePermission, err)
	}
	fmt.Fprintln(out, "  [ OK ] writable")
	return nil
}

func runJobCheck(out io.Writer, path string) error {
	fmt.Fprintf(out, "Job validation: %s\n", path)

	result, err := job.ValidateFile(path)
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return fmt.Errorf("job validation failed: %w", err)
	}

	if result.Valid {
		j, err := job.Load(path)
		if err != nil {
			fmt.Fprintf(out, "  [FAIL] %v\n", err)
			return err
		}
		fmt.Fprintf(out, "  [ OK ] Valid %s job: %s (v%s)\n", j.Kind, jobName(j, path), j.Version)
		return nil
	}

	fmt.Fprintf(out, "  [FAIL] %d validation issue(s):\n", len(result.Issues))
	for _, issue := range result.Issues {
		fmt.Fprintf(out, "    - %s\n", issue)
	}
	return fmt.Errorf("job %s has %d validation issue(s)", path, len(result.Issues))
}
