// Package tensor decodes image files into fixed-size, normalized CHW
// float32 tensors ready to feed a classifier.
package tensor

import (
	"errors"
	"fmt"
)

// ErrDecode marks failures to turn an image file into a tensor.
var ErrDecode = errors.New("decode error")

// DecodeError wraps the cause of a failed decode with the offending path.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// Tensor is a dense channel-major (C, H, W) array.
type Tensor struct {
	Shape [3]int
	Data  []float32
}

// New allocates a zeroed tensor of the given shape.
func New(c, h, w int) *Tensor {
	return &Tensor{Shape: [3]int{c, h, w}, Data: make([]float32, c*h*w)}
}

// At returns the element at channel c, row y, column x.
func (t *Tensor) At(c, y, x int) float32 {
	return t.Data[(c*t.Shape[1]+y)*t.Shape[2]+x]
}

// Set stores v at channel c, row y, column x.
func (t *Tensor) Set(c, y, x int, v float32) {
	t.Data[(c*t.Shape[1]+y)*t.Shape[2]+x] = v
}

// Len returns the number of elements.
func (t *Tensor) Len() int { return len(t.Data) }
