package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/mlexercises/datakit/internal/config"
	"github.com/mlexercises/datakit/internal/generator"
	"github.com/mlexercises/datakit/internal/manifest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	genFormat    string
	genFolds     int
	genDelimiter string
	genShuffle   bool
	genSeed      uint64
	genMkdir     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <data-dir> <out-dir>",
	Short: "Write stratified k-fold train/test manifests",
	Long: `Scan a folder-per-class data directory and write one train and one test
manifest per fold into the output directory.

Class folders are sorted by name and labeled from 0. Every fold keeps the
class proportions of the whole collection, and output is identical across
runs with the same inputs.

When no data directory is given, the data_dir config value is used.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genFormat, "format", "", "Manifest format: txt, csv, tsv (default from config)")
	generateCmd.Flags().IntVarP(&genFolds, "folds", "k", 0, "Number of folds (default from config)")
	generateCmd.Flags().StringVar(&genDelimiter, "delimiter", "", "Override the delimiter implied by the format")
	generateCmd.Flags().BoolVar(&genShuffle, "shuffle", false, "Shuffle each class before assigning folds")
	generateCmd.Flags().Uint64Var(&genSeed, "seed", 0, "Seed for --shuffle")
	generateCmd.Flags().BoolVar(&genMkdir, "mkdir", false, "Create the output directory if it does not exist")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	dataDir, outDir := resolveGenerateArgs(args, config.Current().DataDir)

	opts, err := generateOptions(config.Current())
	if err != nil {
		return err
	}

	if genMkdir {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("creating output directory %s: %w", outDir, err)
		}
	}

	logger.Info("generating folds",
		zap.String("data_dir", dataDir),
		zap.String("out_dir", outDir),
		zap.String("format", string(opts.Format)),
		zap.Int("folds", opts.Folds),
		zap.Bool("shuffle", opts.Shuffle))

	files, err := generator.Generate(dataDir, outDir, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, f := range files {
		fmt.Fprintf(out, "fold %d\n  train: %s\n  test:  %s\n", i, f.Train, f.Test)
	}
	logger.Info("folds written", zap.Int("count", len(files)))
	return nil
}

// resolveGenerateArgs maps one or two positional args to data and output
// directories. A single arg is the output directory.
func resolveGenerateArgs(args []string, defaultDataDir string) (dataDir, outDir string) {
	if len(args) == 1 {
		return defaultDataDir, args[0]
	}
	return args[0], args[1]
}

// generateOptions merges command flags over config settings.
func generateOptions(s config.Settings) (generator.Options, error) {
	opts := generator.Options{
		Format:  manifest.Format(strings.ToLower(s.Format)),
		Folds:   s.Folds,
		Shuffle: genShuffle,
		Seed:    genSeed,
	}
	if genFormat != "" {
		opts.Format = manifest.Format(strings.ToLower(genFormat))
	}
	if genFolds != 0 {
		opts.Folds = genFolds
	}
	if genDelimiter != "" {
		d, err := manifest.ParseDelimiter(genDelimiter)
		if err != nil {
			return opts, err
		}
		opts.Delimiter = d
	}
	return opts, nil
}
