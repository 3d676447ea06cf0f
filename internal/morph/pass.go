package morph

import (
	"cmp"
	"fmt"

	"github.com/ironsheep/morph-tools-mcp/internal/parallel"
)

// passStats aggregates the tile statistics of one pass.
type passStats struct {
	tileStats
	tiles int
}

// partition splits region into at most workers disjoint tiles covering it.
//
// Tiles are slabs along the slowest-varying axis that is long enough to give
// every worker a slab; when no axis is, the longest axis is used.
func partition(region Region, workers int) []Region {
	if region.Empty() {
		return nil
	}
	workers = max(workers, 1)

	axis := -1
	for d := region.Dim() - 1; d >= 0; d-- {
		if region.Size[d] >= workers {
			axis = d
			break
		}
	}
	if axis < 0 {
		axis = region.Dim() - 1
		for d := region.Dim() - 1; d >= 0; d-- {
			if region.Size[d] > region.Size[axis] {
				axis = d
			}
		}
	}
	return region.Split(axis, workers)
}

// runPass computes one geodesic erosion of marker over region into out.
//
// Each tile task reads marker inside avail and mask inside its own tile, and
// writes only its own tile of out, so the tasks share no mutable state; the
// pool's join is the only synchronization.
func runPass[T cmp.Ordered](pool *parallel.Pool, out, marker, mask *Image[T], region, avail Region, offsets [][]int) passStats {
	tiles := partition(region, pool.Workers())
	nb := newNeighborhood(offsets, marker)

	stats := make([]tileStats, len(tiles))
	work := make([]func(), len(tiles))
	for i, tile := range tiles {
		work[i] = func() {
			stats[i] = erodeTile(out, marker, mask, tile, avail, nb)
		}
	}
	pool.ExecuteAll(work)

	ps := passStats{tiles: len(tiles)}
	for _, st := range stats {
		ps.changed = ps.changed || st.changed
		ps.rose = ps.rose || st.rose
	}
	return ps
}

// RunOnePass computes one geodesic erosion, max(erode(marker), mask), over
// outputRegion using workers goroutines (0 means GOMAXPROCS).
//
// outputRegion is clipped to the marker domain; a zero Region selects the
// whole domain. The returned image covers exactly the clipped region.
func RunOnePass[T cmp.Ordered](marker, mask *Image[T], outputRegion Region, conn Connectivity, workers int) (*Image[T], error) {
	if err := validateInputs(marker, mask, outputRegion, conn, SingleIteration); err != nil {
		return nil, err
	}
	plan := PlanInputRegion(outputRegion, marker.Region(), conn, SingleIteration)
	out := NewImage[T](plan.Output)
	if plan.Output.Empty() {
		return out, nil
	}

	pool := parallel.NewPool(workers)
	defer pool.Close()
	runPass(pool, out, marker, mask, plan.Output, plan.Marker, Offsets(conn, marker.Dim()))
	return out, nil
}

// validateInputs rejects configurations the algorithm has no meaning for.
func validateInputs[T cmp.Ordered](marker, mask *Image[T], requested Region, conn Connectivity, mode RunMode) error {
	if marker == nil || mask == nil {
		return ErrNilImage
	}
	if !conn.valid() {
		return fmt.Errorf("%w: %d", ErrBadConnectivity, int(conn))
	}
	if !mode.valid() {
		return fmt.Errorf("%w: %d", ErrBadRunMode, int(mode))
	}
	if marker.Dim() != mask.Dim() {
		return fmt.Errorf("%w: marker is %d-D, mask is %d-D", ErrDimensionMismatch, marker.Dim(), mask.Dim())
	}
	if !marker.region.Equal(mask.region) {
		return fmt.Errorf("%w: marker %s, mask %s", ErrDomainMismatch, marker.region, mask.region)
	}
	if marker.region.Empty() {
		return ErrEmptyDomain
	}
	if requested.Dim() != 0 && requested.Dim() != marker.Dim() {
		return fmt.Errorf("%w: requested region is %d-D, images are %d-D", ErrDimensionMismatch, requested.Dim(), marker.Dim())
	}
	return nil
}
