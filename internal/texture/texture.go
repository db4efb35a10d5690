// Package texture provides source image decoding into RGBA8 textures.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration

	_ "golang.org/x/image/bmp"  // BMP decoder registration
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration
	"go.uber.org/zap"

	"github.com/Faultbox/cubemodel/internal/logger"
	"github.com/Faultbox/cubemodel/pkg/resource"
)

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Texture is a decoded image in non-premultiplied RGBA8.
// Pix holds Width*Height*4 bytes, row-major, no padding.
type Texture struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a transparent texture.
func New(width, height int) *Texture {
	return &Texture{Width: width, Height: height, Pix: make([]byte, width*height*4)}
}

// Edge returns the larger dimension, the texture's size class.
func (t *Texture) Edge() int {
	return max(t.Width, t.Height)
}

// IsSquare reports whether width equals height.
func (t *Texture) IsSquare() bool {
	return t.Width == t.Height
}

// Valid reports whether the pixel buffer matches the dimensions.
func (t *Texture) Valid() bool {
	return t.Width > 0 && t.Height > 0 && len(t.Pix) == t.Width*t.Height*4
}

// Image wraps the pixel buffer as an *image.NRGBA without copying.
func (t *Texture) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    t.Pix,
		Stride: t.Width * 4,
		Rect:   image.Rect(0, 0, t.Width, t.Height),
	}
}

// FromImage converts any image to a texture. Images without an alpha
// channel come out opaque.
func FromImage(img image.Image) *Texture {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	// Row copy keeps NRGBA sources exact; the generic path goes through
	// premultiplied colour and can round translucent channels.
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[i:i+b.Dx()*4])
		}
	} else {
		xdraw.Copy(dst, image.Point{}, img, b, xdraw.Src, nil)
	}
	return &Texture{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

// Decode decodes PNG, JPEG, GIF, BMP, TIFF or WebP data. With enforceSquare
// a non-square image is cropped to its top-left min(w,h) square, which drops
// animation frames stacked below the base tile. The crop keeps the full
// min(w,h) edge; no trailing row or column is dropped.
func Decode(data []byte, enforceSquare bool) (*Texture, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	if enforceSquare {
		img = cropSquare(img)
	}

	logger.Debug("decoded texture",
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	return FromImage(img), nil
}

// Load reads and decodes the texture stored at id's storage path.
func Load(loader resource.Loader, id resource.Identifier, enforceSquare bool) (*Texture, error) {
	data, err := loader.Load(id.StoragePath())
	if err != nil {
		return nil, fmt.Errorf("loading texture %s: %w", id, err)
	}
	tex, err := Decode(data, enforceSquare)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", id, err)
	}
	return tex, nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func cropSquare(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() == b.Dy() {
		return img
	}
	edge := min(b.Dx(), b.Dy())
	r := image.Rect(b.Min.X, b.Min.Y, b.Min.X+edge, b.Min.Y+edge)

	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, edge, edge))
	xdraw.Copy(dst, image.Point{}, img, r, xdraw.Src, nil)
	return dst
}
