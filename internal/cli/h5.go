package cli

import (
	"fmt"
	"io"

	"github.com/mlexercises/datakit/internal/config"
	"github.com/mlexercises/datakit/internal/h5data"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

var (
	h5Dir   string
	h5Train string
	h5Test  string
)

func init() {
	h5InfoCmd.Flags().StringVar(&h5Dir, "dir", "", "Base directory holding datasets/cat-noncat-dataset (default: data_dir from config)")
	h5InfoCmd.Flags().StringVar(&h5Train, "train", "", "Training container file")
	h5InfoCmd.Flags().StringVar(&h5Test, "test", "", "Test container file")
	h5Cmd.AddCommand(h5InfoCmd)
	rootCmd.AddCommand(h5Cmd)
}

var h5Cmd = &cobra.Command{
	Use:   "h5",
	Short: "Work with the cat/non-cat HDF5 dataset",
}

var h5InfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Load the HDF5 containers and print their shapes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		base := h5Dir
		if base == "" {
			base = config.Current().DataDir
		}
		paths := h5data.DefaultPaths(base)
		if h5Train != "" {
			paths.TrainFile = h5Train
		}
		if h5Test != "" {
			paths.TestFile = h5Test
		}

		logger.Debug("loading containers", zap.String("train", paths.TrainFile), zap.String("test", paths.TestFile))
		ds, err := h5data.Load(paths)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "classes: %v\n", ds.Classes)
		printSplit(out, "train", ds.TrainX, ds.TrainY)
		printSplit(out, "test", ds.TestX, ds.TestY)
		return nil
	},
}

func printSplit(w io.Writer, name string, x h5data.Images, y []int64) {
	var rows, cols int
	if flat := h5data.Flatten(x); flat != nil {
		rows, cols = flat.Dims()
	}
	var pos float64
	if labels := h5data.LabelRow(y); labels != nil {
		pos = mat.Sum(labels)
	}
	fmt.Fprintf(w, "%s: %d images %v, flattened %dx%d, positives %.0f\n", name, x.Count(), x.Dims, rows, cols, pos)
}
