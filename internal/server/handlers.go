package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/morph-tools-mcp/internal/detection"
	"github.com/ironsheep/morph-tools-mcp/internal/imaging"
	"github.com/ironsheep/morph-tools-mcp/internal/morph"
)

var (
	// ErrUnknownTool is returned for a tool name the server does not offer.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArguments marks errors caused by the caller's arguments,
	// including paths that cannot be loaded.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// argError tags err as an argument error while keeping it unwrappable.
type argError struct{ err error }

func (e *argError) Error() string        { return e.err.Error() }
func (e *argError) Unwrap() error        { return e.err }
func (e *argError) Is(target error) bool { return target == ErrInvalidArguments }

func badArgs(err error) error {
	return &argError{err: err}
}

func badArgsf(format string, a ...interface{}) error {
	return &argError{err: fmt.Errorf(format, a...)}
}

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "morph_reconstruct").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument errors return code -32602; every other tool failure returns -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		code := codeToolFailed
		if errors.Is(err, ErrInvalidArguments) || errors.Is(err, ErrUnknownTool) {
			code = codeInvalidParams
		}
		return s.errorResponse(req.ID, code, "Tool execution failed", err.Error())
	}

	return s.toolResponse(req.ID, result)
}

// toolResponse wraps result as MCP text content. A result that cannot be
// marshalled is reported as a tool failure.
func (s *Server) toolResponse(id interface{}, result interface{}) *MCPResponse {
	text, err := marshalResult(result)
	if err != nil {
		s.logger.Error("failed to marshal tool result", "err", err)
		return s.errorResponse(id, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": text,
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
// Both transports call it.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	start := time.Now()

	var (
		result interface{}
		err    error
	)
	switch name {
	// Basic Image Information
	case "image_load":
		result, err = s.handleImageLoad(args)
	case "image_dimensions":
		result, err = s.handleImageDimensions(args)

	// Geodesic Erosion
	case "morph_geodesic_erode":
		result, err = s.handleGeodesicErode(ctx, args)
	case "morph_reconstruct":
		result, err = s.handleReconstruct(ctx, args)

	// Applications
	case "morph_fill_holes":
		result, err = s.handleFillHoles(ctx, args)
	case "morph_h_minima":
		result, err = s.handleHMinima(ctx, args)
	case "morph_regional_minima":
		result, err = s.handleRegionalMinima(ctx, args)
	case "morph_detect_basins":
		result, err = s.handleDetectBasins(ctx, args)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if err != nil {
		s.logger.Warn("tool failed", "tool", name, "err", err)
		return nil, err
	}
	s.logger.Debug("tool finished", "tool", name, "duration", time.Since(start))
	return result, nil
}

// marshalResult converts a tool result to a pretty-printed JSON string.
func marshalResult(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(b), nil
}

// decodeArgs unmarshals tool arguments; absent arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return badArgs(err)
	}
	return nil
}

// === Shared argument handling ===

type roiArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// rect returns the requested rectangle, or an empty one when none was given.
func (r roiArgs) rect() (image.Rectangle, error) {
	if r == (roiArgs{}) {
		return image.Rectangle{}, nil
	}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return image.Rectangle{}, badArgsf("invalid region: x1 must be < x2, y1 must be < y2")
	}
	return image.Rectangle{Min: image.Pt(r.X1, r.Y1), Max: image.Pt(r.X2, r.Y2)}, nil
}

func (s *Server) loadVolume(path, channel string) (*morph.Image[uint8], error) {
	if path == "" {
		return nil, badArgsf("path is required")
	}
	ch, err := imaging.ParseChannel(channel)
	if err != nil {
		return nil, badArgs(err)
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, badArgs(err)
	}
	return imaging.ToVolume(img, ch)
}

func (s *Server) connectivity(name string) (morph.Connectivity, error) {
	if name == "" {
		return s.cfg.ConnectivityValue(), nil
	}
	c, err := morph.ParseConnectivity(name)
	if err != nil {
		return 0, badArgs(err)
	}
	return c, nil
}

func (s *Server) newFilter(conn morph.Connectivity, mode morph.RunMode, maxIterations int) *morph.Filter[uint8] {
	f := morph.NewFilter[uint8]()
	f.Connectivity = conn
	f.Mode = mode
	f.Workers = s.cfg.Workers
	f.MaxIterations = s.cfg.MaxIterations
	if maxIterations > 0 {
		f.MaxIterations = maxIterations
	}
	f.Logger = s.logger
	return f
}

func (s *Server) detectOptions(conn morph.Connectivity) detection.Options {
	return detection.Options{
		Connectivity:  conn,
		Workers:       s.cfg.Workers,
		MaxIterations: s.cfg.MaxIterations,
		Logger:        s.logger,
	}
}

// encode renders vol, cropped to roi when roi is not empty.
func encode(vol *morph.Image[uint8], roi image.Rectangle) (*imaging.EncodedImage, error) {
	bounds := imaging.RectFromRegion(vol.Region())
	if !roi.Empty() && roi.Intersect(bounds).Empty() {
		return nil, badArgsf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			roi.Min.X, roi.Min.Y, roi.Max.X, roi.Max.Y,
			bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	return imaging.EncodePNG(vol, roi)
}

func toBounds(r morph.Region) detection.Bounds {
	rect := imaging.RectFromRegion(r)
	return detection.Bounds{X1: rect.Min.X, Y1: rect.Min.Y, X2: rect.Max.X, Y2: rect.Max.Y}
}

func elapsedMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, badArgsf("path is required")
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, badArgs(err)
	}
	return info, nil
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, badArgsf("path is required")
	}
	dims, err := imaging.GetDimensions(s.cache, a.Path)
	if err != nil {
		return nil, badArgs(err)
	}
	return dims, nil
}

// === Geodesic Erosion Handlers ===

// MorphResult is returned by the erosion and reconstruction tools.
type MorphResult struct {
	Mode         string                `json:"mode"`
	Connectivity string                `json:"connectivity"`
	Iterations   int                   `json:"iterations"`
	Region       detection.Bounds      `json:"region"`
	Changes      *imaging.ChangeStats  `json:"changes"`
	ElapsedMS    float64               `json:"elapsed_ms"`
	Image        *imaging.EncodedImage `json:"image"`
}

type morphArgs struct {
	MarkerPath    string `json:"marker_path"`
	MaskPath      string `json:"mask_path"`
	Channel       string `json:"channel"`
	Connectivity  string `json:"connectivity"`
	Mode          string `json:"mode"`
	MaxIterations int    `json:"max_iterations"`
	roiArgs
}

func (s *Server) handleGeodesicErode(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a morphArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	mode := morph.SingleIteration
	if a.Mode != "" {
		m, err := morph.ParseRunMode(a.Mode)
		if err != nil {
			return nil, badArgs(err)
		}
		mode = m
	}
	return s.runMorph(ctx, a, mode)
}

func (s *Server) handleReconstruct(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a morphArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.MaxIterations < 0 {
		return nil, badArgsf("max_iterations must be >= 0")
	}
	return s.runMorph(ctx, a, morph.ToConvergence)
}

// runMorph loads marker and mask and runs the filter. For a single pass the
// rectangle selects the computed region; to convergence the whole image is
// always computed and the rectangle only crops the returned PNG.
func (s *Server) runMorph(ctx context.Context, a morphArgs, mode morph.RunMode) (*MorphResult, error) {
	conn, err := s.connectivity(a.Connectivity)
	if err != nil {
		return nil, err
	}
	roi, err := a.rect()
	if err != nil {
		return nil, err
	}
	marker, err := s.loadVolume(a.MarkerPath, a.Channel)
	if err != nil {
		return nil, err
	}
	mask, err := s.loadVolume(a.MaskPath, a.Channel)
	if err != nil {
		return nil, err
	}

	requested, crop := morph.Region{}, roi
	if mode == morph.SingleIteration && !roi.Empty() {
		requested, crop = imaging.RegionFromRect(roi), image.Rectangle{}
	}

	f := s.newFilter(conn, mode, a.MaxIterations)
	res, err := f.Run(ctx, marker, mask, requested)
	if err != nil {
		return nil, err
	}
	if res.Plan.Output.Empty() {
		return nil, badArgsf("region (%d,%d)-(%d,%d) does not overlap the image", roi.Min.X, roi.Min.Y, roi.Max.X, roi.Max.Y)
	}

	changes, err := imaging.CompareVolumes(marker.SubImage(res.Plan.Output), res.Output)
	if err != nil {
		return nil, err
	}
	img, err := encode(res.Output, crop)
	if err != nil {
		return nil, err
	}

	return &MorphResult{
		Mode:         mode.String(),
		Connectivity: conn.String(),
		Iterations:   res.Iterations,
		Region:       toBounds(res.Plan.Output),
		Changes:      changes,
		ElapsedMS:    elapsedMS(res.Elapsed),
		Image:        img,
	}, nil
}

// === Application Handlers ===

type detectArgs struct {
	Path         string `json:"path"`
	Channel      string `json:"channel"`
	Connectivity string `json:"connectivity"`
	H            int    `json:"h"`
	MinArea      int    `json:"min_area"`
	roiArgs
}

func (s *Server) loadDetectArgs(args json.RawMessage) (detectArgs, *morph.Image[uint8], morph.Connectivity, error) {
	var a detectArgs
	if err := decodeArgs(args, &a); err != nil {
		return a, nil, 0, err
	}
	conn, err := s.connectivity(a.Connectivity)
	if err != nil {
		return a, nil, 0, err
	}
	vol, err := s.loadVolume(a.Path, a.Channel)
	if err != nil {
		return a, nil, 0, err
	}
	return a, vol, conn, nil
}

func (s *Server) handleFillHoles(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, vol, conn, err := s.loadDetectArgs(args)
	if err != nil {
		return nil, err
	}
	roi, err := a.rect()
	if err != nil {
		return nil, err
	}

	res, err := detection.FillHoles(ctx, vol, s.detectOptions(conn))
	if err != nil {
		return nil, err
	}
	return s.filterResult("fill_holes", conn, vol, res, roi)
}

func (s *Server) handleHMinima(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, vol, conn, err := s.loadDetectArgs(args)
	if err != nil {
		return nil, err
	}
	if a.H < 0 || a.H > 255 {
		return nil, badArgsf("h must be between 0 and 255, got %d", a.H)
	}

	res, err := detection.HMinima(ctx, vol, uint8(a.H), s.detectOptions(conn))
	if err != nil {
		return nil, err
	}
	return s.filterResult("h_minima", conn, vol, res, image.Rectangle{})
}

func (s *Server) filterResult(mode string, conn morph.Connectivity, in *morph.Image[uint8], res *morph.Result[uint8], roi image.Rectangle) (*MorphResult, error) {
	changes, err := imaging.CompareVolumes(in, res.Output)
	if err != nil {
		return nil, err
	}
	img, err := encode(res.Output, roi)
	if err != nil {
		return nil, err
	}
	return &MorphResult{
		Mode:         mode,
		Connectivity: conn.String(),
		Iterations:   res.Iterations,
		Region:       toBounds(res.Plan.Output),
		Changes:      changes,
		ElapsedMS:    elapsedMS(res.Elapsed),
		Image:        img,
	}, nil
}

// MinimaResult is returned by morph_regional_minima.
type MinimaResult struct {
	Connectivity string                `json:"connectivity"`
	Iterations   int                   `json:"iterations"`
	MinimaPixels int                   `json:"minima_pixels"`
	Image        *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleRegionalMinima(ctx context.Context, args json.RawMessage) (interface{}, error) {
	_, vol, conn, err := s.loadDetectArgs(args)
	if err != nil {
		return nil, err
	}

	minima, iterations, err := detection.RegionalMinima(ctx, vol, s.detectOptions(conn))
	if err != nil {
		return nil, err
	}
	count := 0
	for _, v := range minima.Pix {
		if v != 0 {
			count++
		}
	}
	img, err := encode(minima, image.Rectangle{})
	if err != nil {
		return nil, err
	}
	return &MinimaResult{
		Connectivity: conn.String(),
		Iterations:   iterations,
		MinimaPixels: count,
		Image:        img,
	}, nil
}

func (s *Server) handleDetectBasins(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, vol, conn, err := s.loadDetectArgs(args)
	if err != nil {
		return nil, err
	}
	if a.MinArea < 0 {
		return nil, badArgsf("min_area must be >= 0, got %d", a.MinArea)
	}
	if a.MinArea == 0 {
		a.MinArea = 1
	}
	return detection.DetectBasins(ctx, vol, a.MinArea, s.detectOptions(conn))
}
