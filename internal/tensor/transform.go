package tensor

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// Transform resizes, center-crops, grayscales and normalizes an image.
type Transform struct {
	Size     int     // output height and width
	Channels int     // grayscale is replicated into this many channels; default 3
	Mean     float32 // subtracted after scaling to [0,1]
	Std      float32 // divisor after mean subtraction; must be non-zero
}

// DefaultTransform matches the brain hemorrhage classifier input: 3-channel
// grayscale normalized with mean 0.5 and std 0.5.
func DefaultTransform(size int) Transform {
	return Transform{Size: size, Channels: 3, Mean: 0.5, Std: 0.5}
}

// Validate checks the transform parameters.
func (t Transform) Validate() error {
	if t.Size <= 0 {
		return fmt.Errorf("transform size must be positive, got %d", t.Size)
	}
	if t.Channels < 0 {
		return fmt.Errorf("transform channels must not be negative, got %d", t.Channels)
	}
	if t.Std == 0 {
		return errors.New("transform std must be non-zero")
	}
	return nil
}

// Apply decodes the image at path and returns a (Channels, Size, Size) tensor.
func (t Transform) Apply(path string) (*Tensor, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if src.Bounds().Empty() {
		return nil, &DecodeError{Path: path, Err: errors.New("empty image")}
	}

	return t.FromImage(src), nil
}

// FromImage runs the transform on an already decoded image.
func (t Transform) FromImage(src image.Image) *Tensor {
	channels := t.Channels
	if channels == 0 {
		channels = 3
	}

	cropped := centerCrop(resizeShorter(src, t.Size), t.Size)

	out := New(channels, t.Size, t.Size)
	b := cropped.Bounds()
	for y := 0; y < t.Size; y++ {
		for x := 0; x < t.Size; x++ {
			r, g, bl, _ := cropped.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// ITU-R 601-2 luma on 8-bit channels.
			gray := (299*float32(r>>8) + 587*float32(g>>8) + 114*float32(bl>>8)) / 1000
			v := (gray/255 - t.Mean) / t.Std
			for c := 0; c < channels; c++ {
				out.Set(c, y, x, v)
			}
		}
	}
	return out
}

// resizeShorter scales src so that its shorter side equals size, keeping
// the aspect ratio.
func resizeShorter(src image.Image, size int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	nw, nh := size, size
	if w < h {
		nh = size * h / w
	} else if h < w {
		nw = size * w / h
	}
	if nw == w && nh == h {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.BiLinear.Scale(dst, dst.Rect, src, b, draw.Src, nil)
	return dst
}

// centerCrop cuts a size x size square out of the middle of src.
func centerCrop(src image.Image, size int) image.Image {
	b := src.Bounds()
	left := b.Min.X + (b.Dx()-size+1)/2
	top := b.Min.Y + (b.Dy()-size+1)/2

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Rect, src, image.Pt(left, top), draw.Src)
	return dst
}
