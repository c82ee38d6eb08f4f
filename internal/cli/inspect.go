package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/mlexercises/datakit/internal/dataset"
	"github.com/mlexercises/datakit/internal/manifest"
	"github.com/mlexercises/datakit/internal/tensor"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	inspectDelimiter string
	inspectDecode    int
	inspectSize      int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <manifest>",
	Short: "Validate a manifest and summarize its labels",
	Long: `Parse a path/label manifest, verify that every listed image exists, and
print the number of rows per label.

With --decode N the first N samples are also decoded into tensors to check
that the images are readable.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectDelimiter, "delimiter", "", "Override the delimiter implied by the file extension")
	inspectCmd.Flags().IntVar(&inspectDecode, "decode", 0, "Decode the first N samples")
	inspectCmd.Flags().IntVar(&inspectSize, "size", 224, "Square output size used with --decode")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg := dataset.Config{Transform: tensor.DefaultTransform(inspectSize)}
	if inspectDelimiter != "" {
		d, err := manifest.ParseDelimiter(inspectDelimiter)
		if err != nil {
			return err
		}
		cfg.Delimiter = d
	}

	ds, err := dataset.Open(args[0], cfg)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	out := cmd.OutOrStdout()
	p.Fprintf(out, "%s: %d rows\n", args[0], ds.Len())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tCOUNT")
	for _, c := range ds.Classes() {
		p.Fprintf(w, "%d\t%d\n", c.Label, c.Count)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	n := min(inspectDecode, ds.Len())
	for i := range n {
		s, err := ds.Get(i)
		if err != nil {
			return err
		}
		logger.Debug("decoded sample", zap.String("path", s.Path), zap.Int("label", s.Label))
		fmt.Fprintf(out, "  [%d] %s label=%d shape=%v\n", i, s.Path, s.Label, s.Tensor.Shape)
	}
	return nil
}
