package preprocess

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Default filter strengths: a Gaussian blur with sigma 5 and a contrast
// boost that doubles the distance of every pixel from mid-gray (imaging
// maps +50% to a factor of 2; +100% is a hard threshold).
const (
	DefaultBlurSigma       = 5.0
	DefaultContrastPercent = 50.0
)

// Blur writes a Gaussian-blurred copy of each input into OutDir.
type Blur struct {
	Sigma  float64
	OutDir string
}

// Task returns the per-file blur task.
func (b Blur) Task() Task {
	sigma := b.Sigma
	if sigma <= 0 {
		sigma = DefaultBlurSigma
	}
	return func(ctx context.Context, input string) error {
		img, err := imaging.Open(input)
		if err != nil {
			return fmt.Errorf("opening image: %w", err)
		}
		return save(imaging.Blur(img, sigma), b.OutDir, input)
	}
}

// Contrast writes a contrast-adjusted copy of each input into OutDir.
// Percent ranges from -100 to 100.
type Contrast struct {
	Percent float64
	OutDir  string
}

// Task returns the per-file contrast task.
func (c Contrast) Task() Task {
	pct := c.Percent
	if pct == 0 {
		pct = DefaultContrastPercent
	}
	return func(ctx context.Context, input string) error {
		img, err := imaging.Open(input)
		if err != nil {
			return fmt.Errorf("opening image: %w", err)
		}
		return save(imaging.AdjustContrast(img, pct), c.OutDir, input)
	}
}

// OutputPath returns where a filter writes the result for input.
func OutputPath(outDir, input string) string {
	return filepath.Join(outDir, filepath.Base(input))
}

func save(img image.Image, outDir, input string) error {
	out := OutputPath(outDir, input)
	if err := imaging.Save(img, out); err != nil {
		return fmt.Errorf("saving %s: %w", out, err)
	}
	return nil
}
