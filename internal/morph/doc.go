// Package morph implements grayscale geodesic erosion and reconstruction by
// erosion over N-dimensional images.
//
// A geodesic erosion erodes a marker image with the elementary structuring
// element (the pixel and its Face or Full neighbors) and clamps the result
// from below with a mask image: out = max(erode(marker), mask). Iterating
// it until nothing changes is reconstruction by erosion.
//
// # Components
//
//   - Region and Image: N-dimensional boxes and dense pixel grids (axis 0 fastest).
//   - Offsets / HaloRadius: the structuring element for a Connectivity.
//   - PlanInputRegion: which parts of marker and mask a run must read.
//   - RunOnePass: one geodesic erosion, tiled across a worker pool.
//   - Filter: drives passes once or to a fixed point and counts iterations.
//
// # Boundary policy
//
// Neighbors outside the image are skipped when taking the erosion minimum.
// This is equivalent to padding the marker with +infinity.
//
// # Concurrency
//
// Each pass splits its output region into disjoint slabs, one per worker,
// and joins before returning. Marker and mask are only read; the output is
// written by exactly one task per pixel. Iterations run strictly one after
// another, and context cancellation is honored between them only, so every
// image the package hands out is a complete pass.
//
// # Errors
//
//   - ErrDimensionMismatch, ErrDomainMismatch, ErrEmptyDomain: rejected before any pass runs.
//   - ErrOutputRegion, ErrAliasedOutput: caller-supplied output buffer cannot be used.
//   - ErrNotConverged, ErrInvariant: internal failures; with marker >= mask they indicate a bug.
package morph
