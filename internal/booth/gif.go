package booth

import (
	"bytes"
	"context"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"

	"github.com/google/uuid"

	"photobooth/internal/imaging"
	"photobooth/internal/infra"
)

const (
	gifFrameSize = 512

	// GIF delays are in hundredths of a second. The input frame is a quick
	// "before" flash, the output frame lingers.
	gifInputDelay  = 33 // ≈333ms
	gifOutputDelay = 83 // ≈833ms
)

// BuildGif assembles the booth GIF from every ready photo, in collection
// order: each photo contributes its input frame then its output frame, cover-
// cropped to a 512px square and quantized to 256 colors. Busy photos and
// video photos contribute nothing.
//
// One build runs at a time; a second call while a build is in progress is
// rejected with ErrGifBuildInProgress. Build failures are logged, not
// returned, and leave no result. The resulting file path is exposed through
// the store's GIF state; a rebuild deletes the previous result file.
func (s *Session) BuildGif(ctx context.Context) error {
	prev, err := s.store.BeginGif()
	if err != nil {
		return err
	}
	if prev != "" {
		removeFile(prev, s.logger)
	}

	resultPath := ""
	defer func() { s.store.EndGif(resultPath) }()

	anim := &gif.GIF{}
	for _, p := range s.store.Photos() {
		if p.IsBusy || p.IsVideo {
			continue
		}
		input, ok := s.store.Input(p.ID)
		if !ok {
			continue
		}
		output, ok := s.store.Output(p.ID)
		if !ok {
			continue
		}
		if err := appendGifFrame(anim, input, gifInputDelay); err != nil {
			s.logger.Error().Err(err).Str("photo", p.ID.String()).Msg("booth: gif input frame failed")
			return nil
		}
		if err := appendGifFrame(anim, output.URI, gifOutputDelay); err != nil {
			s.logger.Error().Err(err).Str("photo", p.ID.String()).Msg("booth: gif output frame failed")
			return nil
		}
	}

	if len(anim.Image) == 0 {
		s.logger.Warn().Msg("booth: no ready photos, gif skipped")
		return nil
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		s.logger.Error().Err(err).Msg("booth: gif encode failed")
		return nil
	}

	path, err := s.files.SaveArtifact(ctx, "gif", uuid.New(), "gif", buf.Bytes())
	if err != nil {
		s.logger.Error().Err(err).Msg("booth: save gif failed")
		return nil
	}

	s.logger.Info().Int("frames", len(anim.Image)).Str("path", path).Msg("booth: gif assembled")
	resultPath = path
	return nil
}

// appendGifFrame normalizes one data-URI frame to the booth square and
// appends it to the stream with the given delay.
func appendGifFrame(anim *gif.GIF, uri string, delay int) error {
	img, err := imaging.Decode(uri)
	if err != nil {
		return err
	}
	square := imaging.CoverSquare(img, gifFrameSize)

	paletted := image.NewPaletted(square.Bounds(), palette.Plan9)
	draw.FloydSteinberg.Draw(paletted, square.Bounds(), square, image.Point{})

	anim.Image = append(anim.Image, paletted)
	anim.Delay = append(anim.Delay, delay)
	return nil
}

func removeFile(path string, logger *infra.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Str("path", path).Msg("booth: remove file failed")
	}
}
