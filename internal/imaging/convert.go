package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/morph-tools-mcp/internal/morph"
)

// Channel selects which scalar is extracted from each pixel when an image is
// turned into a volume.
type Channel string

const (
	// ChannelLuma is the weighted RGB luminance.
	ChannelLuma Channel = "luma"
	// ChannelLightness is CIE L* scaled to 0-255.
	ChannelLightness Channel = "lightness"
	// ChannelValue is the HSV value (max of R, G and B).
	ChannelValue Channel = "value"
	ChannelRed   Channel = "red"
	ChannelGreen Channel = "green"
	ChannelBlue  Channel = "blue"
	ChannelAlpha Channel = "alpha"
)

// Channels lists every supported channel name.
var Channels = []Channel{
	ChannelLuma, ChannelLightness, ChannelValue,
	ChannelRed, ChannelGreen, ChannelBlue, ChannelAlpha,
}

// ParseChannel returns the channel named s. An empty string selects luma.
func ParseChannel(s string) (Channel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ChannelLuma, nil
	}
	for _, c := range Channels {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown channel: %s", s)
}

// ToVolume converts img into a 2-D volume of 8-bit samples taken from
// channel. The volume's region mirrors img.Bounds(), so pixel (x, y) of the
// image is volume index (x, y).
//
// Grayscale images are copied as-is whatever the channel, except alpha,
// which is then fully opaque.
func ToVolume(img image.Image, channel Channel) (*morph.Image[uint8], error) {
	b := img.Bounds()
	vol := morph.NewImage[uint8](RegionFromRect(b))
	if b.Empty() {
		return vol, nil
	}

	if g, ok := img.(*image.Gray); ok && channel != ChannelAlpha {
		copyGray(vol, g)
		return vol, nil
	}

	switch channel {
	case ChannelLuma:
		copyLuma(vol, effect.Grayscale(img))
	case ChannelLightness:
		sampleEach(vol, img, func(c color.Color) uint8 {
			cf, ok := colorful.MakeColor(c)
			if !ok {
				return 0
			}
			l, _, _ := cf.Lab()
			return unitToByte(l)
		})
	case ChannelValue:
		sampleEach(vol, img, func(c color.Color) uint8 {
			cf, ok := colorful.MakeColor(c)
			if !ok {
				return 0
			}
			_, _, v := cf.Hsv()
			return unitToByte(v)
		})
	case ChannelRed, ChannelGreen, ChannelBlue, ChannelAlpha:
		sampleEach(vol, img, func(c color.Color) uint8 {
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			switch channel {
			case ChannelRed:
				return n.R
			case ChannelGreen:
				return n.G
			case ChannelBlue:
				return n.B
			default:
				return n.A
			}
		})
	default:
		return nil, fmt.Errorf("unknown channel: %s", channel)
	}
	return vol, nil
}

// FromVolume renders a 2-D volume as a grayscale image whose bounds match
// the volume's region.
func FromVolume(vol *morph.Image[uint8]) (*image.Gray, error) {
	if vol == nil {
		return nil, morph.ErrNilImage
	}
	if vol.Dim() != 2 {
		return nil, fmt.Errorf("%w: cannot render a %d-D volume as an image", morph.ErrDimensionMismatch, vol.Dim())
	}
	r := vol.Region()
	g := image.NewGray(image.Rect(r.Index[0], r.Index[1], r.Upper(0), r.Upper(1)))
	copy(g.Pix, vol.Pix)
	return g, nil
}

// RegionFromRect converts an image rectangle to the equivalent 2-D region.
func RegionFromRect(r image.Rectangle) morph.Region {
	return morph.NewRegion([]int{r.Min.X, r.Min.Y}, []int{r.Dx(), r.Dy()})
}

// RectFromRegion converts a 2-D region back to an image rectangle.
func RectFromRegion(r morph.Region) image.Rectangle {
	if r.Dim() != 2 {
		return image.Rectangle{}
	}
	return image.Rect(r.Index[0], r.Index[1], r.Upper(0), r.Upper(1))
}

// copyGray copies g row by row into vol. Both cover the same number of rows
// and columns; g's own origin is ignored.
func copyGray(vol *morph.Image[uint8], g *image.Gray) {
	r := vol.Region()
	w, h := r.Size[0], r.Size[1]
	for y := range h {
		copy(vol.Pix[y*w:(y+1)*w], g.Pix[y*g.Stride:y*g.Stride+w])
	}
}

// copyLuma copies the red sample of each pixel of gray, an RGBA image whose
// color components are equal, row by row into vol.
func copyLuma(vol *morph.Image[uint8], gray *image.RGBA) {
	r := vol.Region()
	w, h := r.Size[0], r.Size[1]
	for y := range h {
		src := gray.Pix[y*gray.Stride:]
		dst := vol.Pix[y*w : (y+1)*w]
		for x := range dst {
			dst[x] = src[4*x]
		}
	}
}

func sampleEach(vol *morph.Image[uint8], img image.Image, fn func(color.Color) uint8) {
	b := img.Bounds()
	w := b.Dx()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := (y - b.Min.Y) * w
		for x := b.Min.X; x < b.Max.X; x++ {
			vol.Pix[row+x-b.Min.X] = fn(img.At(x, y))
		}
	}
}

func unitToByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
