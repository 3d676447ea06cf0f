package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/morph-tools-mcp/internal/morph"
)

// EncodedImage contains a PNG rendering of a volume.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG renders a 2-D volume as a base64 PNG.
//
// A non-empty roi restricts the rendering to that rectangle, given in the
// volume's own coordinates; it must overlap the volume.
func EncodePNG(vol *morph.Image[uint8], roi image.Rectangle) (*EncodedImage, error) {
	g, err := FromVolume(vol)
	if err != nil {
		return nil, err
	}

	var img image.Image = g
	if !roi.Empty() {
		clip := roi.Intersect(g.Bounds())
		if clip.Empty() {
			return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
				roi.Min.X, roi.Min.Y, roi.Max.X, roi.Max.Y,
				g.Rect.Min.X, g.Rect.Min.Y, g.Rect.Max.X, g.Rect.Max.Y)
		}
		img = imaging.Crop(g, clip)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SaveVolume writes a 2-D volume to path as a grayscale PNG.
func SaveVolume(path string, vol *morph.Image[uint8]) error {
	g, err := FromVolume(vol)
	if err != nil {
		return err
	}
	if err := imgio.Save(path, g, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
