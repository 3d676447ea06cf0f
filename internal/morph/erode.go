package morph

import (
	"cmp"
)

// neighborhood is the structuring element bound to one marker buffer:
// the unit offsets plus their linear distance inside that buffer's Pix.
type neighborhood struct {
	offsets [][]int
	delta   []int
}

func newNeighborhood[T cmp.Ordered](offsets [][]int, marker *Image[T]) neighborhood {
	nb := neighborhood{offsets: offsets, delta: make([]int, len(offsets))}
	for j, o := range offsets {
		for d, v := range o {
			nb.delta[j] += v * marker.stride[d]
		}
	}
	return nb
}

// tileStats summarizes how a tile's output relates to its marker.
type tileStats struct {
	// changed is set when some output pixel differs from the marker pixel.
	changed bool
	// rose is set when some output pixel is greater than the marker pixel.
	rose bool
}

// erodeTile writes max(erode(marker), mask) for every index of tile into out.
//
// The erosion minimum runs over the pixel itself and every neighbor given by
// nb that falls inside avail; neighbors outside avail are skipped, which is
// the same as padding the marker with +infinity. marker must cover avail, and
// mask and out must cover tile.
func erodeTile[T cmp.Ordered](out, marker, mask *Image[T], tile, avail Region, nb neighborhood) tileStats {
	var st tileStats
	if tile.Empty() {
		return st
	}

	n := tile.Dim()
	lo0, hi0 := avail.Index[0], avail.Upper(0)
	x0, x1 := tile.Index[0], tile.Upper(0)
	usable := make([]bool, len(nb.offsets))

	forEachRow(tile, func(idx []int) {
		// Offsets leaving avail on an axis other than 0 are out for the whole row.
		for j, o := range nb.offsets {
			usable[j] = true
			for d := 1; d < n; d++ {
				v := idx[d] + o[d]
				if v < avail.Index[d] || v >= avail.Upper(d) {
					usable[j] = false
					break
				}
			}
		}

		mOff, kOff, oOff := marker.offset(idx), mask.offset(idx), out.offset(idx)
		for x := x0; x < x1; x++ {
			center := marker.Pix[mOff]
			v := center
			for j, o := range nb.offsets {
				if !usable[j] {
					continue
				}
				if nx := x + o[0]; nx < lo0 || nx >= hi0 {
					continue
				}
				if w := marker.Pix[mOff+nb.delta[j]]; w < v {
					v = w
				}
			}
			if g := mask.Pix[kOff]; g > v {
				v = g
			}
			out.Pix[oOff] = v

			// cmp.Compare treats NaN as equal to itself, so a NaN pixel
			// does not count as a change on every pass.
			if c := cmp.Compare(v, center); c != 0 {
				st.changed = true
				if c > 0 {
					st.rose = true
				}
			}
			mOff++
			kOff++
			oOff++
		}
	})
	return st
}
