// Package imaging moves pixels between image files and the volumes the
// morphology engine works on.
//
// It decodes files (PNG, JPEG, GIF, BMP) through a shared ImageCache, reduces
// color images to one 8-bit channel with ToVolume, renders results back to
// grayscale PNG with EncodePNG or SaveVolume, and summarizes what a filter
// changed with CompareVolumes.
//
// # Coordinate System
//
// Volumes keep image coordinates: pixel (x, y) is volume index (x, y), with
// x along axis 0. A volume built from an image whose bounds do not start at
// (0,0) has a region that does not start at the origin either.
//
// # Channels
//
// ToVolume selects the scalar per pixel:
//   - luma: weighted RGB luminance
//   - lightness: CIE L*, scaled to 0-255
//   - value: HSV value, max(R, G, B)
//   - red, green, blue, alpha: the straight (non-premultiplied) component
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The conversion functions are
// stateless.
package imaging
