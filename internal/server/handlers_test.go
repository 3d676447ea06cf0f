package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/morph-tools-mcp/internal/detection"
	"github.com/ironsheep/morph-tools-mcp/internal/imaging"
)

// writeGray writes a grayscale PNG whose pixel (x, y) is fn(x, y).
func writeGray(t *testing.T, name string, width, height int, fn func(x, y int) uint8) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Pix[y*img.Stride+x] = fn(x, y)
		}
	}

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// writeRow writes a one-pixel-high grayscale PNG.
func writeRow(t *testing.T, name string, values ...uint8) string {
	t.Helper()
	return writeGray(t, name, len(values), 1, func(x, _ int) uint8 { return values[x] })
}

func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	require.NoError(t, err)

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	require.NotNil(t, resp)
	return resp
}

// decodeContent unmarshals the text payload of a successful tools/call.
func decodeContent(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok, "result should be a map")
	content, ok := result["content"].([]map[string]interface{})
	require.True(t, ok, "content should be a slice of maps")
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0]["type"])

	text, ok := content[0]["text"].(string)
	require.True(t, ok, "text should be a string")
	require.NoError(t, json.Unmarshal([]byte(text), v))
}

func decodePNG(t *testing.T, enc *imaging.EncodedImage) image.Image {
	t.Helper()
	require.NotNil(t, enc)
	assert.Equal(t, "image/png", enc.MimeType)

	data, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, enc.Width, img.Bounds().Dx())
	assert.Equal(t, enc.Height, img.Bounds().Dy())
	return img
}

// grayAt reads a pixel relative to the image origin. Cropped renderings
// come back as NRGBA with equal color components.
func grayAt(img image.Image, x, y int) uint8 {
	b := img.Bounds()
	return color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
}

func rowValues(img image.Image) []uint8 {
	out := make([]uint8, 0, img.Bounds().Dx())
	for x := 0; x < img.Bounds().Dx(); x++ {
		out = append(out, grayAt(img, x, 0))
	}
	return out
}

func requireToolError(t *testing.T, resp *MCPResponse, code int) {
	t.Helper()
	require.NotNil(t, resp.Error, "expected an error response")
	assert.Equal(t, code, resp.Error.Code)
	assert.Equal(t, "Tool execution failed", resp.Error.Message)
	assert.NotEmpty(t, resp.Error.Data)
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer(t)
	path := writeGray(t, "load.png", 100, 80, func(_, _ int) uint8 { return 128 })

	var info imaging.ImageInfo
	decodeContent(t, callTool(t, s, "image_load", map[string]interface{}{"path": path}), &info)

	assert.Equal(t, 100, info.Width)
	assert.Equal(t, 80, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.True(t, info.Grayscale)
	assert.Equal(t, 1, s.cache.Len())
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := newTestServer(t)
	path := writeGray(t, "dims.png", 200, 150, func(_, _ int) uint8 { return 0 })

	var dims imaging.DimensionsResult
	decodeContent(t, callTool(t, s, "image_dimensions", map[string]interface{}{"path": path}), &dims)
	assert.Equal(t, 200, dims.Width)
	assert.Equal(t, 150, dims.Height)
}

func TestHandleToolsCall_GeodesicErode(t *testing.T) {
	s := newTestServer(t)
	marker := writeRow(t, "marker.png", 9, 9, 9, 9, 0)
	mask := writeRow(t, "mask.png", 3, 3, 3, 3, 0)

	var res MorphResult
	decodeContent(t, callTool(t, s, "morph_geodesic_erode", map[string]interface{}{
		"marker_path": marker,
		"mask_path":   mask,
	}), &res)

	assert.Equal(t, "single", res.Mode)
	assert.Equal(t, "face", res.Connectivity)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, detection.Bounds{X1: 0, Y1: 0, X2: 5, Y2: 1}, res.Region)
	assert.Equal(t, []uint8{9, 9, 9, 3, 0}, rowValues(decodePNG(t, res.Image)))

	require.NotNil(t, res.Changes)
	assert.Equal(t, 1, res.Changes.ChangedPixels)
	assert.Equal(t, 6, res.Changes.MaxDelta)
}

func TestHandleToolsCall_GeodesicErodeRegion(t *testing.T) {
	s := newTestServer(t)
	marker := writeRow(t, "marker.png", 9, 9, 9, 9, 0)
	mask := writeRow(t, "mask.png", 3, 3, 3, 3, 0)

	var res MorphResult
	decodeContent(t, callTool(t, s, "morph_geodesic_erode", map[string]interface{}{
		"marker_path": marker,
		"mask_path":   mask,
		"x1":          2, "y1": 0, "x2": 5, "y2": 1,
	}), &res)

	assert.Equal(t, detection.Bounds{X1: 2, Y1: 0, X2: 5, Y2: 1}, res.Region)
	img := decodePNG(t, res.Image)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, []uint8{9, 3, 0}, rowValues(img))
}

func TestHandleToolsCall_GeodesicErodeConverge(t *testing.T) {
	s := newTestServer(t)
	marker := writeRow(t, "marker.png", 9, 9, 9, 9, 0)
	mask := writeRow(t, "mask.png", 3, 3, 3, 3, 0)

	var res MorphResult
	decodeContent(t, callTool(t, s, "morph_geodesic_erode", map[string]interface{}{
		"marker_path": marker,
		"mask_path":   mask,
		"mode":        "converge",
	}), &res)

	assert.Equal(t, "converge", res.Mode)
	assert.Equal(t, 5, res.Iterations)
	assert.Equal(t, []uint8{3, 3, 3, 3, 0}, rowValues(decodePNG(t, res.Image)))
}

func TestHandleToolsCall_Reconstruct(t *testing.T) {
	s := newTestServer(t)
	marker := writeRow(t, "marker.png", 9, 9, 9, 9, 0)
	mask := writeRow(t, "mask.png", 3, 3, 3, 3, 0)

	t.Run("whole image", func(t *testing.T) {
		var res MorphResult
		decodeContent(t, callTool(t, s, "morph_reconstruct", map[string]interface{}{
			"marker_path":  marker,
			"mask_path":    mask,
			"connectivity": "full",
		}), &res)

		assert.Equal(t, "converge", res.Mode)
		assert.Equal(t, "full", res.Connectivity)
		assert.Equal(t, 5, res.Iterations)
		assert.Equal(t, 4, res.Changes.ChangedPixels)
		assert.Equal(t, []uint8{3, 3, 3, 3, 0}, rowValues(decodePNG(t, res.Image)))
	})

	t.Run("cropped", func(t *testing.T) {
		var res MorphResult
		decodeContent(t, callTool(t, s, "morph_reconstruct", map[string]interface{}{
			"marker_path": marker,
			"mask_path":   mask,
			"x1":          3, "y1": 0, "x2": 5, "y2": 1,
		}), &res)

		// The whole image is still computed.
		assert.Equal(t, detection.Bounds{X1: 0, Y1: 0, X2: 5, Y2: 1}, res.Region)
		assert.Equal(t, []uint8{3, 0}, rowValues(decodePNG(t, res.Image)))
	})

	t.Run("iteration cap", func(t *testing.T) {
		resp := callTool(t, s, "morph_reconstruct", map[string]interface{}{
			"marker_path":    marker,
			"mask_path":      mask,
			"max_iterations": 2,
		})
		requireToolError(t, resp, codeToolFailed)
		assert.Contains(t, resp.Error.Data, "no fixed point")
	})
}

func TestHandleToolsCall_FillHoles(t *testing.T) {
	s := newTestServer(t)
	// A 200 wall around a single dark pixel.
	path := writeGray(t, "ring.png", 5, 5, func(x, y int) uint8 {
		if x == 2 && y == 2 {
			return 0
		}
		return 200
	})

	var res MorphResult
	decodeContent(t, callTool(t, s, "morph_fill_holes", map[string]interface{}{"path": path}), &res)

	assert.Equal(t, "fill_holes", res.Mode)
	assert.Positive(t, res.Iterations)
	assert.Equal(t, 1, res.Changes.ChangedPixels)
	assert.Equal(t, 200, res.Changes.MaxDelta)

	img := decodePNG(t, res.Image)
	assert.Equal(t, uint8(200), grayAt(img, 2, 2))
}

func TestHandleToolsCall_HMinima(t *testing.T) {
	s := newTestServer(t)
	path := writeRow(t, "row.png", 50, 30, 50, 50, 50)

	var res MorphResult
	decodeContent(t, callTool(t, s, "morph_h_minima", map[string]interface{}{"path": path, "h": 10}), &res)
	assert.Equal(t, "h_minima", res.Mode)
	assert.Equal(t, []uint8{50, 40, 50, 50, 50}, rowValues(decodePNG(t, res.Image)))

	requireToolError(t, callTool(t, s, "morph_h_minima", map[string]interface{}{"path": path, "h": 300}), codeInvalidParams)
}

func TestHandleToolsCall_RegionalMinima(t *testing.T) {
	s := newTestServer(t)
	path := writeRow(t, "row.png", 50, 30, 50, 50, 50)

	var res MinimaResult
	decodeContent(t, callTool(t, s, "morph_regional_minima", map[string]interface{}{"path": path}), &res)
	assert.Equal(t, 1, res.MinimaPixels)
	assert.Equal(t, []uint8{0, 255, 0, 0, 0}, rowValues(decodePNG(t, res.Image)))
}

func TestHandleToolsCall_DetectBasins(t *testing.T) {
	s := newTestServer(t)
	path := writeGray(t, "basin.png", 7, 7, func(x, y int) uint8 {
		if x >= 2 && x < 5 && y >= 2 && y < 5 {
			return 50
		}
		return 200
	})

	var res detection.BasinsResult
	decodeContent(t, callTool(t, s, "morph_detect_basins", map[string]interface{}{"path": path}), &res)
	require.Equal(t, 1, res.Count)

	b := res.Basins[0]
	assert.Equal(t, detection.Bounds{X1: 2, Y1: 2, X2: 5, Y2: 5}, b.Bounds)
	assert.Equal(t, detection.Point{X: 3, Y: 3}, b.Center)
	assert.Equal(t, 9, b.Area)
	assert.Equal(t, 150, b.Depth)

	decodeContent(t, callTool(t, s, "morph_detect_basins", map[string]interface{}{"path": path, "min_area": 10}), &res)
	assert.Equal(t, 0, res.Count)
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := newTestServer(t)
	row := writeRow(t, "row.png", 1, 2, 3)
	wide := writeRow(t, "wide.png", 1, 2, 3, 4)

	tests := []struct {
		name string
		tool string
		args map[string]interface{}
		code int
	}{
		{"unknown tool", "image_crop", map[string]interface{}{"path": row}, codeInvalidParams},
		{"missing path", "morph_fill_holes", map[string]interface{}{}, codeInvalidParams},
		{"missing file", "image_load", map[string]interface{}{"path": "/nonexistent/file.png"}, codeInvalidParams},
		{"bad channel", "morph_fill_holes", map[string]interface{}{"path": row, "channel": "cyan"}, codeInvalidParams},
		{"bad connectivity", "morph_fill_holes", map[string]interface{}{"path": row, "connectivity": "hex"}, codeInvalidParams},
		{"bad mode", "morph_geodesic_erode", map[string]interface{}{"marker_path": row, "mask_path": row, "mode": "twice"}, codeInvalidParams},
		{"inverted region", "morph_fill_holes", map[string]interface{}{"path": row, "x1": 2, "y1": 0, "x2": 1, "y2": 1}, codeInvalidParams},
		{"region outside", "morph_fill_holes", map[string]interface{}{"path": row, "x1": 10, "y1": 10, "x2": 12, "y2": 12}, codeInvalidParams},
		{"size mismatch", "morph_reconstruct", map[string]interface{}{"marker_path": wide, "mask_path": row}, codeToolFailed},
		{"negative min area", "morph_detect_basins", map[string]interface{}{"path": row, "min_area": -1}, codeInvalidParams},
		{"wrong argument type", "image_load", map[string]interface{}{"path": 12}, codeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireToolError(t, callTool(t, s, tt.tool, tt.args), tt.code)
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
	assert.Equal(t, "Invalid params", resp.Error.Message)
}

func TestExecuteTool_Cancelled(t *testing.T) {
	s := newTestServer(t)
	marker := writeRow(t, "marker.png", 9, 9, 9, 9, 0)
	mask := writeRow(t, "mask.png", 3, 3, 3, 3, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	args, err := json.Marshal(map[string]string{"marker_path": marker, "mask_path": mask})
	require.NoError(t, err)
	_, err = s.executeTool(ctx, "morph_reconstruct", args)
	require.ErrorIs(t, err, context.Canceled)
}

func TestToolResponse_UnmarshalableResult(t *testing.T) {
	s := newTestServer(t)

	resp := s.toolResponse(3, map[string]float64{"mean": math.NaN()})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeToolFailed, resp.Error.Code)
	assert.Contains(t, resp.Error.Data, "failed to marshal result")
	assert.Nil(t, resp.Result)

	resp = s.toolResponse(4, map[string]int{"count": 2})
	var got map[string]int
	decodeContent(t, resp, &got)
	assert.Equal(t, 2, got["count"])
}

func TestBadArgs(t *testing.T) {
	err := badArgs(os.ErrNotExist)
	assert.ErrorIs(t, err, ErrInvalidArguments)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, os.ErrNotExist.Error(), err.Error())

	assert.ErrorIs(t, badArgsf("x must be %d", 1), ErrInvalidArguments)
}
