// Package server exposes the morphology tools over MCP (JSON-RPC 2.0 on
// stdio) and over a small HTTP API.
//
// # Protocol
//
// On stdio the server reads one JSON-RPC request per line and writes one
// response per line. Supported methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Geodesic Erosion:
//   - morph_geodesic_erode: One pass (or, with mode=converge, a full
//     reconstruction) of a marker image under a mask image
//   - morph_reconstruct: Reconstruction by erosion to a fixed point
//
// Applications:
//   - morph_fill_holes: Fill dark regions not connected to the border
//   - morph_h_minima: Suppress minima shallower than h
//   - morph_regional_minima: Binary map of regional minima
//   - morph_detect_basins: Locate and measure filled depressions
//
// Images are read once per path and kept in an ImageCache; every tool works
// on a single 8-bit channel selected by the "channel" argument.
//
// # HTTP
//
// Router serves the same tools:
//
//	GET  /healthz            status and version
//	GET  /v1/tools           tool definitions
//	POST /v1/tools/{name}    run a tool; the body holds its arguments
//
// Argument errors map to 400, unknown tools to 404, morphology
// configuration errors to 422 and everything else to 500.
//
// # Error Handling
//
// Tool errors in tools/call use JSON-RPC code -32602 when the arguments are
// at fault and -32000 otherwise; the message is in the error data field.
package server
