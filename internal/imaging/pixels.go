package imaging

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/colorfetch/internal/colormath"
)

// opaqueThreshold is the alpha value below which a pixel is treated as
// transparent by consumers that honor Opaque.
const opaqueThreshold = 125

// PixelGrid is a read-only view of decoded pixel data.
//
// Coordinates are 0-based with the origin at the top-left corner:
//   - Valid X range: 0 to Width()-1
//   - Valid Y range: 0 to Height()-1
type PixelGrid interface {
	Width() int
	Height() int
	At(x, y int) colormath.RGB
}

// Grid is the PixelGrid produced by the image source. It is backed by an
// *image.NRGBA whose bounds start at (0,0).
type Grid struct {
	img *image.NRGBA
}

// NewGrid converts any decoded image into a Grid.
//
// The image is copied into non-premultiplied RGBA form with its bounds moved
// to the origin, so paletted, YCbCr, and 16-bit images all read the same way.
func NewGrid(img image.Image) *Grid {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Bounds().Min == (image.Point{}) {
		return &Grid{img: nrgba}
	}
	return &Grid{img: imaging.Clone(img)}
}

// Width returns the grid width in pixels.
func (g *Grid) Width() int { return g.img.Bounds().Dx() }

// Height returns the grid height in pixels.
func (g *Grid) Height() int { return g.img.Bounds().Dy() }

// At returns the color of pixel (x, y) without alpha.
func (g *Grid) At(x, y int) colormath.RGB {
	offset := g.img.PixOffset(x, y)
	pix := g.img.Pix[offset : offset+3 : offset+3]
	return colormath.RGB{R: pix[0], G: pix[1], B: pix[2]}
}

// Opaque reports whether pixel (x, y) is opaque enough to count as color.
func (g *Grid) Opaque(x, y int) bool {
	return g.img.Pix[g.img.PixOffset(x, y)+3] >= opaqueThreshold
}

// Image exposes the backing image for collaborators that operate on
// image.Image directly. Callers must not modify it.
func (g *Grid) Image() image.Image {
	return g.img
}

// ToImage returns grid as an image.Image, reusing the backing image when grid
// has one and copying pixel by pixel otherwise.
func ToImage(grid PixelGrid) image.Image {
	if backed, ok := grid.(interface{ Image() image.Image }); ok {
		return backed.Image()
	}
	img := image.NewNRGBA(image.Rect(0, 0, grid.Width(), grid.Height()))
	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			c := grid.At(x, y)
			offset := img.PixOffset(x, y)
			img.Pix[offset] = c.R
			img.Pix[offset+1] = c.G
			img.Pix[offset+2] = c.B
			img.Pix[offset+3] = 0xff
		}
	}
	return img
}
