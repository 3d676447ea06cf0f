// Package detection builds image analyses on top of reconstruction by
// erosion.
//
// Every detector constructs a marker from its input, reconstructs it by
// erosion under the input as mask, and reads the answer off the difference:
//
//   - FillHoles: marker pinned to the input on the border, 255 inside.
//     Enclosed dark regions rise to the level of their surrounding wall.
//   - HMinima: marker is the input plus h. Minima shallower than h vanish.
//   - RegionalMinima: HMinima with h = 1, thresholded to a binary map.
//   - DetectBasins: labels the regional minima of a 2-D image and reports
//     their bounds, area and depth below the spill level.
//
// FillHoles, HMinima and RegionalMinima accept volumes of any dimension.
//
// # Coordinate System
//
// Basin coordinates are image coordinates: origin at the top-left, X
// increasing rightward, Y increasing downward. Bounds use an inclusive
// top-left and an exclusive bottom-right corner.
package detection
