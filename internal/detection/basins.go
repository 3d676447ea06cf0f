package detection

import (
	"context"
	"fmt"
	"sort"

	"github.com/ironsheep/morph-tools-mcp/internal/morph"
)

// Bounds is a bounding box in pixel coordinates. (X1, Y1) is inclusive and
// (X2, Y2) exclusive, as in image.Rectangle.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Basin is one connected regional minimum of an image.
type Basin struct {
	// Bounds encloses every pixel of the minimum.
	Bounds Bounds `json:"bounds"`

	// Center is the integer centroid of the minimum's pixels.
	Center Point `json:"center"`

	// Area is the number of pixels in the minimum.
	Area int `json:"area"`

	// Level is the gray level of the minimum.
	Level uint8 `json:"level"`

	// SpillLevel is the level the basin fills to before it drains to the
	// image border.
	SpillLevel uint8 `json:"spill_level"`

	// Depth is SpillLevel - Level; zero for minima that drain directly.
	Depth int `json:"depth"`
}

// BasinsResult contains the basins found in an image.
type BasinsResult struct {
	// Basins is sorted by depth, then area (largest first).
	Basins []Basin `json:"basins"`

	// Count is the number of basins reported.
	Count int `json:"count"`

	// Iterations is the total number of erosion passes used.
	Iterations int `json:"iterations"`
}

// DetectBasins labels the regional minima of a 2-D volume and measures how
// deep each one is below its spill level.
//
// Minima are grouped with the same connectivity the reconstructions use
// (4-neighborhood for face, 8 for full). Basins with fewer than minArea
// pixels are dropped.
//
// # Algorithm
//
//  1. Regional minima: reconstruct vol+1 over vol; pixels that stay raised
//     belong to a minimum
//  2. Spill levels: fill holes, which raises each basin to the lowest wall
//     between it and the border
//  3. Labelling: flood-fill connected minimum pixels and collect their
//     bounds, centroid and levels
func DetectBasins(ctx context.Context, vol *morph.Image[uint8], minArea int, opts Options) (*BasinsResult, error) {
	if vol == nil {
		return nil, morph.ErrNilImage
	}
	if vol.Dim() != 2 {
		return nil, fmt.Errorf("%w: basins need a 2-D image, got %d-D", morph.ErrDimensionMismatch, vol.Dim())
	}

	minima, minIter, err := RegionalMinima(ctx, vol, opts)
	if err != nil {
		return nil, err
	}
	filled, err := FillHoles(ctx, vol, opts)
	if err != nil {
		return nil, err
	}

	r := vol.Region()
	width, height := r.Size[0], r.Size[1]
	visited := make([]bool, len(vol.Pix))
	basins := make([]Basin, 0)

	for i, v := range minima.Pix {
		if v == 0 || visited[i] {
			continue
		}
		pixels := floodFill(minima.Pix, visited, i%width, i/width, width, height, opts.Connectivity)
		if len(pixels) < minArea {
			continue
		}
		basins = append(basins, measureBasin(pixels, vol, filled.Output, width, r.Index[0], r.Index[1]))
	}

	sort.Slice(basins, func(i, j int) bool {
		if basins[i].Depth != basins[j].Depth {
			return basins[i].Depth > basins[j].Depth
		}
		return basins[i].Area > basins[j].Area
	})

	return &BasinsResult{
		Basins:     basins,
		Count:      len(basins),
		Iterations: minIter + filled.Iterations,
	}, nil
}

// floodFill collects the connected set pixels around (startX, startY).
//
// Uses an explicit stack rather than recursion so large plateaus cannot
// overflow the goroutine stack. Coordinates are relative to the volume
// origin.
func floodFill(set []uint8, visited []bool, startX, startY, width, height int, conn morph.Connectivity) []Point {
	var pixels []Point
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		i := p.Y*width + p.X
		if visited[i] || set[i] == 0 {
			continue
		}
		visited[i] = true
		pixels = append(pixels, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if conn == morph.Face && dx != 0 && dy != 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return pixels
}

func measureBasin(pixels []Point, vol, filled *morph.Image[uint8], width, ox, oy int) Basin {
	first := pixels[0]
	minX, minY, maxX, maxY := first.X, first.Y, first.X, first.Y
	var sumX, sumY int
	for _, p := range pixels {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		sumX += p.X
		sumY += p.Y
	}

	// A regional minimum is a plateau, so any of its pixels gives both levels.
	i := first.Y*width + first.X
	level, spill := vol.Pix[i], filled.Pix[i]

	return Basin{
		Bounds: Bounds{
			X1: minX + ox,
			Y1: minY + oy,
			X2: maxX + 1 + ox,
			Y2: maxY + 1 + oy,
		},
		Center: Point{
			X: sumX/len(pixels) + ox,
			Y: sumY/len(pixels) + oy,
		},
		Area:       len(pixels),
		Level:      level,
		SpillLevel: spill,
		Depth:      int(spill) - int(level),
	}
}
