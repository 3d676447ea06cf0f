package morph

import (
	"fmt"
	"slices"
)

// Region is an axis-aligned box in an N-dimensional integer index space.
//
// Index holds the lowest corner (inclusive) and Size the extent along each
// axis, so axis d covers [Index[d], Index[d]+Size[d]). Axis 0 varies fastest
// in memory. The zero Region has dimension 0; Filter treats it as "the whole
// domain".
//
// Region values are not mutated by any method; every operation returns a
// fresh copy.
type Region struct {
	Index []int
	Size  []int
}

// NewRegion returns a region with the given corner and extent.
// Both slices are copied. Missing trailing entries of size are treated as 0.
func NewRegion(index, size []int) Region {
	r := Region{
		Index: slices.Clone(index),
		Size:  make([]int, len(index)),
	}
	copy(r.Size, size)
	return r
}

// RegionOfSize returns a region anchored at the origin with the given extent.
func RegionOfSize(size ...int) Region {
	return Region{
		Index: make([]int, len(size)),
		Size:  slices.Clone(size),
	}
}

// Dim returns the number of axes.
func (r Region) Dim() int {
	return len(r.Index)
}

// Upper returns the exclusive upper bound along axis d.
func (r Region) Upper(d int) int {
	return r.Index[d] + r.Size[d]
}

// Empty reports whether the region holds no pixels.
func (r Region) Empty() bool {
	if r.Dim() == 0 {
		return true
	}
	for _, s := range r.Size {
		if s <= 0 {
			return true
		}
	}
	return false
}

// NumPixels returns the number of indices inside the region.
func (r Region) NumPixels() int {
	if r.Empty() {
		return 0
	}
	n := 1
	for _, s := range r.Size {
		n *= s
	}
	return n
}

// Contains reports whether idx lies inside the region.
func (r Region) Contains(idx []int) bool {
	if len(idx) != r.Dim() {
		return false
	}
	for d, v := range idx {
		if v < r.Index[d] || v >= r.Upper(d) {
			return false
		}
	}
	return true
}

// ContainsRegion reports whether o lies entirely inside r.
// An empty o of matching dimension is contained in any region.
func (r Region) ContainsRegion(o Region) bool {
	if o.Dim() != r.Dim() {
		return false
	}
	if o.Empty() {
		return true
	}
	for d := range r.Index {
		if o.Index[d] < r.Index[d] || o.Upper(d) > r.Upper(d) {
			return false
		}
	}
	return true
}

// Intersect returns the overlap of r and o. Regions of different dimension
// do not overlap; the result then has r's dimension and zero size.
func (r Region) Intersect(o Region) Region {
	out := Region{Index: slices.Clone(r.Index), Size: make([]int, r.Dim())}
	if o.Dim() != r.Dim() {
		return out
	}
	for d := range r.Index {
		lo := max(r.Index[d], o.Index[d])
		hi := min(r.Upper(d), o.Upper(d))
		out.Index[d] = lo
		out.Size[d] = max(hi-lo, 0)
	}
	return out
}

// Crop clips r to the bounds of domain. It is Intersect under the name the
// region-planning code uses.
func (r Region) Crop(domain Region) Region {
	return r.Intersect(domain)
}

// Dilate grows the region by radius[d] on both sides of axis d.
// A short radius slice leaves the remaining axes untouched.
func (r Region) Dilate(radius []int) Region {
	out := NewRegion(r.Index, r.Size)
	for d := 0; d < r.Dim() && d < len(radius); d++ {
		out.Index[d] -= radius[d]
		out.Size[d] += 2 * radius[d]
	}
	return out
}

// Equal reports whether both regions describe the same box.
func (r Region) Equal(o Region) bool {
	return slices.Equal(r.Index, o.Index) && slices.Equal(r.Size, o.Size)
}

// Split cuts the region into at most n disjoint slabs along axis, which
// together cover r exactly. Slab extents differ by at most one. Fewer than
// n slabs are returned when the axis is shorter than n.
func (r Region) Split(axis, n int) []Region {
	if r.Empty() || axis < 0 || axis >= r.Dim() {
		return nil
	}
	extent := r.Size[axis]
	n = max(min(n, extent), 1)

	parts := make([]Region, 0, n)
	base, extra := extent/n, extent%n
	start := r.Index[axis]
	for i := range n {
		size := base
		if i < extra {
			size++
		}
		p := NewRegion(r.Index, r.Size)
		p.Index[axis] = start
		p.Size[axis] = size
		parts = append(parts, p)
		start += size
	}
	return parts
}

// String formats the region as "[i0 i1 ...]+[s0 s1 ...]".
func (r Region) String() string {
	return fmt.Sprintf("%v+%v", r.Index, r.Size)
}
