package morph

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// image1D builds a 1-D image from literal values.
func image1D(t *testing.T, vals ...uint8) *Image[uint8] {
	t.Helper()
	im, err := FromSlice(RegionOfSize(len(vals)), vals)
	require.NoError(t, err)
	return im
}

// image2D builds a 2-D image from rows (rows[y][x]).
func image2D(t *testing.T, rows [][]uint8) *Image[uint8] {
	t.Helper()
	h, w := len(rows), len(rows[0])
	im := NewImage[uint8](RegionOfSize(w, h))
	for y, row := range rows {
		require.Len(t, row, w, "ragged row %d", y)
		for x, v := range row {
			im.Set(v, x, y)
		}
	}
	return im
}

// randomPair returns a marker/mask pair over region with marker >= mask.
func randomPair(seed int64, region Region) (marker, mask *Image[uint8]) {
	rng := rand.New(rand.NewSource(seed))
	marker = NewImage[uint8](region)
	mask = NewImage[uint8](region)
	for i := range mask.Pix {
		g := uint8(rng.Intn(150))
		mask.Pix[i] = g
		marker.Pix[i] = g + uint8(rng.Intn(100))
	}
	return marker, mask
}

// referencePass is a direct, index-by-index geodesic erosion used to check
// the tiled implementation.
func referencePass(marker, mask *Image[uint8], region Region, conn Connectivity) *Image[uint8] {
	domain := marker.Region()
	out := NewImage[uint8](region)
	offsets := Offsets(conn, domain.Dim())
	forEachIndex(region, func(idx []int) {
		v := marker.At(idx...)
		nbr := make([]int, len(idx))
		for _, o := range offsets {
			for d := range idx {
				nbr[d] = idx[d] + o[d]
			}
			if domain.Contains(nbr) {
				v = min(v, marker.At(nbr...))
			}
		}
		out.Set(max(v, mask.At(idx...)), idx...)
	})
	return out
}

// forEachIndex visits every index of r.
func forEachIndex(r Region, fn func(idx []int)) {
	forEachRow(r, func(row []int) {
		idx := append([]int(nil), row...)
		for x := r.Index[0]; x < r.Upper(0); x++ {
			idx[0] = x
			fn(idx)
		}
	})
}

// requireDominates asserts hi >= lo at every pixel.
func requireDominates(t *testing.T, hi, lo *Image[uint8], msg string) {
	t.Helper()
	require.True(t, hi.Region().Equal(lo.Region()), "%s: regions differ", msg)
	for i := range hi.Pix {
		require.GreaterOrEqual(t, hi.Pix[i], lo.Pix[i], "%s: pixel %d", msg, i)
	}
}
