package booth

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"photobooth/internal/imaging"
)

const mirrorQuality = 80

// MirrorComposite builds the local mirror effect: the original image on the
// left half of a canvas twice its width, a horizontally flipped copy on the
// right. The composite is encoded lossily as WebP and returned as a data URI.
// No network dependency, no retries.
func MirrorComposite(input string) (string, error) {
	src, err := imaging.Decode(input)
	if err != nil {
		return "", err
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, 2*w, h))

	draw.Draw(dst, image.Rect(0, 0, w, h), src, bounds.Min, draw.Src)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(w+x, y, src.At(bounds.Min.X+(w-1-x), bounds.Min.Y+y))
		}
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, mirrorQuality)
	if err != nil {
		return "", fmt.Errorf("booth: webp encoder options: %w", err)
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, dst, options); err != nil {
		return "", fmt.Errorf("booth: encode mirror composite: %w", err)
	}

	return imaging.EncodeDataURI("image/webp", buf.Bytes()), nil
}
