// Package imaging turns remote image URLs into pixel grids for the color
// extraction strategies.
//
// The package has two halves: HTTPSource, which validates, downloads, and
// decodes an image, and PixelGrid, the read-only pixel view every strategy
// consumes. Decoded images of any color model are normalized to NRGBA with
// their origin at (0,0).
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Thread Safety
//
// HTTPSource is safe for concurrent use. A Grid is immutable after
// construction and can be read from any number of goroutines.
//
// # Error Handling
//
// Fetch failures are classified into three sentinel errors:
//   - ErrSizeExceeded: payload at or above the configured limit (10 MiB by default)
//   - ErrUnreachableSource: bad URL, transport failure, or non-200 status
//   - ErrUndecodableImage: payload is not a supported image
//
// Use errors.Is to test for them; the wrapped message carries the detail.
//
// # Supported Formats
//
// PNG, JPEG, and GIF from the standard library; BMP, TIFF, and WebP from
// golang.org/x/image; AVIF from github.com/gen2brain/avif.
package imaging
