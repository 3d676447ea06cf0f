package morph

import (
	"cmp"
	"fmt"
	"slices"
)

// Image is a dense N-dimensional grid of ordered scalar pixels.
//
// Pixels are stored in Pix with axis 0 varying fastest. The engine treats
// marker and mask images as read-only; only outputs it allocated, or that the
// caller handed to Filter.RunInto, are written.
type Image[T cmp.Ordered] struct {
	// Pix holds the pixel values in row-major order (axis 0 fastest).
	Pix []T

	region Region
	stride []int
}

// NewImage allocates a zero-filled image covering region.
func NewImage[T cmp.Ordered](region Region) *Image[T] {
	region = NewRegion(region.Index, region.Size)
	for d, s := range region.Size {
		region.Size[d] = max(s, 0)
	}
	return &Image[T]{
		Pix:    make([]T, region.NumPixels()),
		region: region,
		stride: strides(region),
	}
}

// FromSlice wraps pix as an image over region without copying.
// It returns ErrBufferSize when len(pix) does not match the region.
func FromSlice[T cmp.Ordered](region Region, pix []T) (*Image[T], error) {
	if len(pix) != region.NumPixels() {
		return nil, fmt.Errorf("%w: region %s needs %d pixels, got %d",
			ErrBufferSize, region, region.NumPixels(), len(pix))
	}
	region = NewRegion(region.Index, region.Size)
	return &Image[T]{Pix: pix, region: region, stride: strides(region)}, nil
}

func strides(r Region) []int {
	s := make([]int, r.Dim())
	step := 1
	for d := range s {
		s[d] = step
		step *= max(r.Size[d], 0)
	}
	return s
}

// Region returns a copy of the image's domain.
func (im *Image[T]) Region() Region {
	return NewRegion(im.region.Index, im.region.Size)
}

// Dim returns the image dimensionality.
func (im *Image[T]) Dim() int {
	return im.region.Dim()
}

// offset maps an absolute index to a position in Pix.
func (im *Image[T]) offset(idx []int) int {
	off := 0
	for d, v := range idx {
		off += (v - im.region.Index[d]) * im.stride[d]
	}
	return off
}

// At returns the pixel at idx. idx must lie inside the image region.
func (im *Image[T]) At(idx ...int) T {
	return im.Pix[im.offset(idx)]
}

// Set stores v at idx. idx must lie inside the image region.
func (im *Image[T]) Set(v T, idx ...int) {
	im.Pix[im.offset(idx)] = v
}

// Fill sets every pixel to v.
func (im *Image[T]) Fill(v T) {
	for i := range im.Pix {
		im.Pix[i] = v
	}
}

// Clone returns a deep copy.
func (im *Image[T]) Clone() *Image[T] {
	return &Image[T]{
		Pix:    slices.Clone(im.Pix),
		region: im.Region(),
		stride: slices.Clone(im.stride),
	}
}

// SubImage copies the pixels of r (clipped to the image) into a new image.
func (im *Image[T]) SubImage(r Region) *Image[T] {
	r = r.Crop(im.region)
	out := NewImage[T](r)
	copyRegion(out, im, r)
	return out
}

// copyRegion copies r from src to dst; both must contain r.
func copyRegion[T cmp.Ordered](dst, src *Image[T], r Region) {
	if r.Empty() {
		return
	}
	row := r.Size[0]
	forEachRow(r, func(idx []int) {
		d, s := dst.offset(idx), src.offset(idx)
		copy(dst.Pix[d:d+row], src.Pix[s:s+row])
	})
}

// forEachRow calls fn with the starting index of every axis-0 row of r.
// The slice passed to fn is reused between calls.
func forEachRow(r Region, fn func(idx []int)) {
	if r.Empty() {
		return
	}
	idx := slices.Clone(r.Index)
	n := r.Dim()
	for {
		fn(idx)
		d := 1
		for ; d < n; d++ {
			idx[d]++
			if idx[d] < r.Upper(d) {
				break
			}
			idx[d] = r.Index[d]
		}
		if d == n {
			return
		}
	}
}

// Equal reports whether a and b share a region and hold identical pixels.
// NaN pixels compare equal to each other.
func Equal[T cmp.Ordered](a, b *Image[T]) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.region.Equal(b.region) && slices.EqualFunc(a.Pix, b.Pix, func(x, y T) bool {
		return cmp.Compare(x, y) == 0
	})
}
