package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/morph-tools-mcp/internal/morph"
)

func rampVolume(w, h int) *morph.Image[uint8] {
	vol := morph.NewImage[uint8](morph.RegionOfSize(w, h))
	for i := range vol.Pix {
		vol.Pix[i] = uint8(i)
	}
	return vol
}

func decodeResult(t *testing.T, res *EncodedImage) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestEncodePNG(t *testing.T) {
	vol := rampVolume(8, 4)

	res, err := EncodePNG(vol, image.Rectangle{})
	require.NoError(t, err)
	assert.Equal(t, 8, res.Width)
	assert.Equal(t, 4, res.Height)
	assert.Equal(t, "image/png", res.MimeType)

	img := decodeResult(t, res)
	back, err := ToVolume(img, ChannelLuma)
	require.NoError(t, err)
	assert.Equal(t, vol.Pix, back.Pix)
}

func TestEncodePNG_ROI(t *testing.T) {
	vol := rampVolume(8, 4)

	res, err := EncodePNG(vol, image.Rect(2, 1, 5, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Width)
	assert.Equal(t, 2, res.Height)

	img := decodeResult(t, res)
	back, err := ToVolume(img, ChannelRed)
	require.NoError(t, err)
	assert.Equal(t, vol.At(2, 1), back.At(0, 0))
	assert.Equal(t, vol.At(4, 2), back.At(2, 1))
}

func TestEncodePNG_ROIClipped(t *testing.T) {
	res, err := EncodePNG(rampVolume(8, 4), image.Rect(6, 2, 20, 20))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Width)
	assert.Equal(t, 2, res.Height)

	_, err = EncodePNG(rampVolume(8, 4), image.Rect(10, 10, 12, 12))
	assert.Error(t, err)
}

func TestEncodePNG_Rejects3D(t *testing.T) {
	_, err := EncodePNG(morph.NewImage[uint8](morph.RegionOfSize(2, 2, 2)), image.Rectangle{})
	assert.ErrorIs(t, err, morph.ErrDimensionMismatch)
}

func TestSaveVolume(t *testing.T) {
	vol := rampVolume(6, 5)
	path := filepath.Join(t.TempDir(), "out.png")

	require.NoError(t, SaveVolume(path, vol))

	img, err := NewImageCache(0).Load(path)
	require.NoError(t, err)
	back, err := ToVolume(img, ChannelLuma)
	require.NoError(t, err)
	assert.Equal(t, vol.Pix, back.Pix)
}
