package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/kolesa-team/go-webp/webp"
	xdraw "golang.org/x/image/draw"
)

// Decode turns a data URI into a decoded image. JPEG, PNG and WebP decoders
// are registered.
func Decode(uri string) (image.Image, error) {
	_, data, err := DecodeDataURI(uri)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode image: %w", err)
	}
	return img, nil
}

// CoverSquare scales src so its shorter side fills a size×size square and
// crops the overflow symmetrically from both sides ("cover" fit).
func CoverSquare(src image.Image, size int) *image.RGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Crop the source rectangle to the centered square of the shorter side,
	// then let the scaler map it onto the full destination.
	crop := bounds
	if w > h {
		offset := (w - h) / 2
		crop = image.Rect(bounds.Min.X+offset, bounds.Min.Y, bounds.Min.X+offset+h, bounds.Max.Y)
	} else if h > w {
		offset := (h - w) / 2
		crop = image.Rect(bounds.Min.X, bounds.Min.Y+offset, bounds.Max.X, bounds.Min.Y+offset+w)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst
}
