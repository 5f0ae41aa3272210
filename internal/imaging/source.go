package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"net/http"
	"net/url"
	"time"

	_ "github.com/gen2brain/avif" // Register AVIF format decoder
	_ "golang.org/x/image/bmp"    // Register BMP format decoder
	_ "golang.org/x/image/tiff"   // Register TIFF format decoder
	_ "golang.org/x/image/webp"   // Register WebP format decoder
)

// DefaultMaxImageBytes is the largest payload the source accepts (10 MiB).
const DefaultMaxImageBytes int64 = 10 << 20

// DefaultFetchTimeout bounds a single probe+download when the caller does not
// supply its own http.Client.
const DefaultFetchTimeout = 15 * time.Second

// Source errors. Every error returned by HTTPSource.Fetch wraps exactly one of
// these, so callers can classify failures with errors.Is.
var (
	// ErrSizeExceeded means the pre-flight probe or the download itself
	// reported a payload at or above the size limit.
	ErrSizeExceeded = errors.New("image size exceeds limit")

	// ErrUnreachableSource means the URL is invalid, the request failed, or
	// the server answered with a status other than 200 OK.
	ErrUnreachableSource = errors.New("image source unreachable")

	// ErrUndecodableImage means the payload is not an image in any
	// registered format.
	ErrUndecodableImage = errors.New("image could not be decoded")
)

// HTTPSource validates and downloads remote images and decodes them into
// pixel grids.
//
// HTTPSource is safe for concurrent use by multiple goroutines; it holds no
// mutable state beyond the shared http.Client.
//
// # Validation
//
// Fetch performs three checks in order:
//
//  1. A HEAD probe. A Content-Length at or above MaxBytes fails with
//     ErrSizeExceeded. Unknown lengths and HEAD-hostile servers pass.
//  2. A GET whose status must be 200 OK, else ErrUnreachableSource.
//     The body is read up to MaxBytes; a longer body fails with
//     ErrSizeExceeded.
//  3. Decoding with the registered formats (PNG, JPEG, GIF, BMP, TIFF,
//     WebP, AVIF), else ErrUndecodableImage.
type HTTPSource struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPSource creates an image source.
//
// Parameters:
//   - client: HTTP client used for both requests. If nil, a client with
//     DefaultFetchTimeout is used. The client's timeout is the only deadline
//     applied to a fetch.
//   - maxBytes: size limit in bytes. Values <= 0 select DefaultMaxImageBytes.
func NewHTTPSource(client *http.Client, maxBytes int64) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &HTTPSource{client: client, maxBytes: maxBytes}
}

// Fetch validates rawURL, downloads it, and decodes the payload.
//
// Returns:
//   - PixelGrid: The decoded image.
//   - error: Non-nil on any failure; wraps ErrSizeExceeded,
//     ErrUnreachableSource, or ErrUndecodableImage.
func (s *HTTPSource) Fetch(ctx context.Context, rawURL string) (PixelGrid, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url: %v", ErrUnreachableSource, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: unsupported url %q", ErrUnreachableSource, rawURL)
	}

	if err := s.probeSize(ctx, u); err != nil {
		return nil, err
	}

	data, err := s.download(ctx, u)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodableImage, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrUndecodableImage)
	}

	return NewGrid(img), nil
}

// probeSize issues a HEAD request and rejects payloads that announce a
// Content-Length at or above the limit.
func (s *HTTPSource) probeSize(ctx context.Context, u *url.URL) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachableSource, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: size probe failed: %v", ErrUnreachableSource, err)
	}
	resp.Body.Close()

	if resp.ContentLength >= s.maxBytes {
		return fmt.Errorf("%w: content length %d >= %d bytes", ErrSizeExceeded, resp.ContentLength, s.maxBytes)
	}
	return nil
}

func (s *HTTPSource) download(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachableSource, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachableSource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnreachableSource, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUnreachableSource, err)
	}
	if int64(len(data)) >= s.maxBytes {
		return nil, fmt.Errorf("%w: body reached %d bytes", ErrSizeExceeded, s.maxBytes)
	}

	return data, nil
}
