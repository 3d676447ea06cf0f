package detection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/morph-tools-mcp/internal/morph"
)

// gridVolume builds a 2-D volume from rows (rows[y][x]).
func gridVolume(t *testing.T, rows [][]uint8) *morph.Image[uint8] {
	t.Helper()
	w := len(rows[0])
	vol := morph.NewImage[uint8](morph.RegionOfSize(w, len(rows)))
	for y, row := range rows {
		require.Len(t, row, w)
		for x, v := range row {
			vol.Set(v, x, y)
		}
	}
	return vol
}

func lineVolume(t *testing.T, vals ...uint8) *morph.Image[uint8] {
	t.Helper()
	vol, err := morph.FromSlice(morph.RegionOfSize(len(vals)), vals)
	require.NoError(t, err)
	return vol
}

// ringImage is a 7x7 image: background 100, a closed ring of 200 on the
// square (1,1)-(5,5) and a dark interior of 20.
func ringImage(t *testing.T) *morph.Image[uint8] {
	return gridVolume(t, [][]uint8{
		{100, 100, 100, 100, 100, 100, 100},
		{100, 200, 200, 200, 200, 200, 100},
		{100, 200, 20, 20, 20, 200, 100},
		{100, 200, 20, 20, 20, 200, 100},
		{100, 200, 20, 20, 20, 200, 100},
		{100, 200, 200, 200, 200, 200, 100},
		{100, 100, 100, 100, 100, 100, 100},
	})
}

func TestFillHoles_ClosedRing(t *testing.T) {
	for _, conn := range []morph.Connectivity{morph.Face, morph.Full} {
		t.Run(conn.String(), func(t *testing.T) {
			vol := ringImage(t)
			res, err := FillHoles(context.Background(), vol, Options{Connectivity: conn})
			require.NoError(t, err)

			for y := 2; y <= 4; y++ {
				for x := 2; x <= 4; x++ {
					assert.Equal(t, uint8(200), res.Output.At(x, y), "interior (%d,%d)", x, y)
				}
			}
			assert.Equal(t, uint8(100), res.Output.At(0, 0))
			assert.Equal(t, uint8(200), res.Output.At(1, 1))
			assert.Equal(t, uint8(20), vol.At(3, 3), "input is not modified")
		})
	}
}

func TestFillHoles_GapInRing(t *testing.T) {
	vol := ringImage(t)
	vol.Set(100, 3, 1)

	res, err := FillHoles(context.Background(), vol, Options{})
	require.NoError(t, err)
	assert.Equal(t, uint8(100), res.Output.At(3, 3), "the interior drains through the gap")
}

func TestFillHoles_DiagonalLeak(t *testing.T) {
	vol := ringImage(t)
	vol.Set(100, 1, 1)

	face, err := FillHoles(context.Background(), vol, Options{Connectivity: morph.Face})
	require.NoError(t, err)
	assert.Equal(t, uint8(200), face.Output.At(2, 2), "a corner gap does not leak under face connectivity")

	full, err := FillHoles(context.Background(), vol, Options{Connectivity: morph.Full})
	require.NoError(t, err)
	assert.Equal(t, uint8(100), full.Output.At(2, 2), "a corner gap leaks under full connectivity")
}

func TestFillHoles_Volume3D(t *testing.T) {
	// A hollow 5x5x5 cube: walls of 180 around a 3x3x3 core of 0.
	vol := morph.NewImage[uint8](morph.RegionOfSize(5, 5, 5))
	vol.Fill(180)
	for z := 1; z <= 3; z++ {
		for y := 1; y <= 3; y++ {
			for x := 1; x <= 3; x++ {
				vol.Set(0, x, y, z)
			}
		}
	}

	res, err := FillHoles(context.Background(), vol, Options{Workers: 2})
	require.NoError(t, err)
	for _, v := range res.Output.Pix {
		require.Equal(t, uint8(180), v)
	}
}

func TestFillHoles_NilVolume(t *testing.T) {
	_, err := FillHoles(context.Background(), nil, Options{})
	assert.ErrorIs(t, err, morph.ErrNilImage)
}

func TestHMinima(t *testing.T) {
	vol := lineVolume(t, 50, 10, 50, 40, 50)

	res, err := HMinima(context.Background(), vol, 20, Options{})
	require.NoError(t, err)
	assert.Equal(t, []uint8{50, 30, 50, 50, 50}, res.Output.Pix)
}

func TestHMinima_ZeroIsIdentity(t *testing.T) {
	vol := lineVolume(t, 9, 1, 7, 3)

	res, err := HMinima(context.Background(), vol, 0, Options{})
	require.NoError(t, err)
	assert.Equal(t, vol.Pix, res.Output.Pix)
	assert.Equal(t, 1, res.Iterations)
}

func TestHMinima_Saturates(t *testing.T) {
	vol := lineVolume(t, 250, 240, 250)

	res, err := HMinima(context.Background(), vol, 100, Options{})
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 255, 255}, res.Output.Pix, "raised levels clip at 255")
}

func TestRegionalMinima(t *testing.T) {
	tests := []struct {
		name string
		in   []uint8
		want []uint8
	}{
		{"two pits", []uint8{50, 10, 50, 40, 50}, []uint8{0, 255, 0, 255, 0}},
		{"plateau", []uint8{5, 5, 9, 3}, []uint8{255, 255, 0, 255}},
		{"ramp", []uint8{1, 2, 3, 4}, []uint8{255, 0, 0, 0}},
		{"flat", []uint8{7, 7, 7}, []uint8{255, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := RegionalMinima(context.Background(), lineVolume(t, tt.in...), Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Pix)
		})
	}
}

func TestRegionalMinima_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := RegionalMinima(ctx, lineVolume(t, 3, 1, 3), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBorderMask(t *testing.T) {
	got := borderMask(morph.RegionOfSize(4, 3))
	want := []bool{
		true, true, true, true,
		true, false, false, true,
		true, true, true, true,
	}
	assert.Equal(t, want, got)
}

func TestAddSat(t *testing.T) {
	assert.Equal(t, uint8(30), addSat(10, 20))
	assert.Equal(t, uint8(255), addSat(200, 100))
	assert.Equal(t, uint8(255), addSat(255, 0))
}
