package detection

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ironsheep/morph-tools-mcp/internal/morph"
)

// Options configures the reconstructions run by the detectors.
// The zero value uses face connectivity on GOMAXPROCS workers.
type Options struct {
	Connectivity  morph.Connectivity
	Workers       int
	MaxIterations int
	Logger        *log.Logger
}

func (o Options) filter() *morph.Filter[uint8] {
	f := morph.NewFilter[uint8]()
	f.Connectivity = o.Connectivity
	f.Workers = o.Workers
	f.MaxIterations = o.MaxIterations
	f.Logger = o.Logger
	return f
}

func (o Options) reconstruct(ctx context.Context, marker, mask *morph.Image[uint8]) (*morph.Result[uint8], error) {
	return o.filter().Run(ctx, marker, mask, morph.Region{})
}

// FillHoles fills every basin of vol that cannot drain to the image border.
//
// The marker is vol on the border and 255 elsewhere; reconstructing it by
// erosion over vol lowers each pixel to the lowest level from which the
// border can be reached, so enclosed dark regions rise to the level of
// their surrounding wall.
func FillHoles(ctx context.Context, vol *morph.Image[uint8], opts Options) (*morph.Result[uint8], error) {
	if vol == nil {
		return nil, morph.ErrNilImage
	}
	marker := vol.Clone()
	border := borderMask(vol.Region())
	for i := range marker.Pix {
		if !border[i] {
			marker.Pix[i] = 255
		}
	}
	res, err := opts.reconstruct(ctx, marker, vol)
	if err != nil {
		return nil, fmt.Errorf("failed to fill holes: %w", err)
	}
	return res, nil
}

// HMinima suppresses every regional minimum of vol shallower than h.
// Minima at least h deep remain, raised by h.
func HMinima(ctx context.Context, vol *morph.Image[uint8], h uint8, opts Options) (*morph.Result[uint8], error) {
	if vol == nil {
		return nil, morph.ErrNilImage
	}
	marker := vol.Clone()
	for i, v := range marker.Pix {
		marker.Pix[i] = addSat(v, h)
	}
	res, err := opts.reconstruct(ctx, marker, vol)
	if err != nil {
		return nil, fmt.Errorf("failed to compute h-minima: %w", err)
	}
	return res, nil
}

// RegionalMinima returns a binary volume that is 255 on every pixel of a
// regional minimum of vol (a connected plateau with no lower neighbor) and 0
// elsewhere. Plateaus at level 255 are never reported.
func RegionalMinima(ctx context.Context, vol *morph.Image[uint8], opts Options) (*morph.Image[uint8], int, error) {
	res, err := HMinima(ctx, vol, 1, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find regional minima: %w", err)
	}
	out := res.Output
	for i, v := range vol.Pix {
		if out.Pix[i] > v {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}
	return out, res.Iterations, nil
}

// borderMask flags every pixel of r lying on the first or last slice of
// some axis.
func borderMask(r morph.Region) []bool {
	n := r.NumPixels()
	border := make([]bool, n)
	for i := range n {
		rem := i
		for _, size := range r.Size {
			c := rem % size
			rem /= size
			if c == 0 || c == size-1 {
				border[i] = true
				break
			}
		}
	}
	return border
}

func addSat(v, h uint8) uint8 {
	if s := int(v) + int(h); s < 255 {
		return uint8(s)
	}
	return 255
}
