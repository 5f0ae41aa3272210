// Package server exposes the color extraction cache to clients.
//
// Two front ends share one Server and one cache:
//
//   - HTTP: Handler and ListenAndServe serve GET /color and GET /stats.
//   - MCP: Run and Serve speak JSON-RPC 2.0 over stdio for MCP clients.
//
// # Protocol
//
// The MCP server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - color_fetch: Extract the primary/secondary color pair for a URL
//   - color_cache_evict: Drop one cached result
//   - color_cache_stats: Report cache counters
//
// # HTTP
//
//	GET /color?url=<image url>&strategy=median_cut|named_palette&normalize=<0..1>
//
// strategy defaults to median_cut and normalize is optional. The response
// body is the extraction result:
//
//	{"primary":{"r":..,"g":..,"b":..},"secondary":{"r":..,"g":..,"b":..},"averageBrightness":..}
//
// # Error Handling
//
// Bad input (missing url, unknown strategy, normalize outside [0, 1]) is a
// ValidationError. It is rejected before the cache is consulted and reported
// as HTTP 400 or JSON-RPC code -32602. Image problems are not errors at this
// layer: the cache answers them with the white-on-white fallback result.
package server
