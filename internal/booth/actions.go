package booth

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"photobooth/internal/genai"
	"photobooth/internal/imaging"
	"photobooth/internal/infra"
	"photobooth/internal/mode"
	"photobooth/internal/storage"
)

// Generator is the slice of the generation client the orchestrator needs.
// A zero-value result with a nil error means the request was cancelled by the
// caller and must be treated as a no-op, not a failure.
type Generator interface {
	GenerateImage(ctx context.Context, req genai.ImageRequest) (string, error)
	GenerateVideo(ctx context.Context, req genai.VideoRequest) (*genai.Artifact, error)
}

// Session orchestrates the booth: it moves captured images through the
// generation client, keeps the Store consistent around every async boundary,
// and saves finished artifacts through the file store.
type Session struct {
	store  *Store
	gen    Generator
	files  *storage.FileStore
	logger *infra.Logger

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup
}

func NewSession(store *Store, gen Generator, files *storage.FileStore, logger *infra.Logger) *Session {
	return &Session{
		store:   store,
		gen:     gen,
		files:   files,
		logger:  logger,
		cancels: make(map[uuid.UUID]context.CancelFunc),
	}
}

// Store exposes the underlying state for renderers.
func (s *Session) Store() *Store {
	return s.store
}

// SetMode selects the active mode by key.
func (s *Session) SetMode(key string) error {
	md, err := mode.Lookup(key)
	if err != nil {
		return err
	}
	s.store.SetMode(md)
	return nil
}

// SetCustomPrompt updates the prompt used when the custom mode is active.
func (s *Session) SetCustomPrompt(text string) {
	s.store.SetCustomPrompt(text)
}

// CapturePhoto registers a captured image under the active mode.
//
// Local modes transform on-device and insert a finished photo. Networked
// modes insert a busy placeholder immediately and generate in the background;
// use Wait to join outstanding generations. A photo that fails generation is
// removed entirely, leaving no trace in the collection.
func (s *Session) CapturePhoto(ctx context.Context, input string) (uuid.UUID, error) {
	id := uuid.New()
	md := s.store.Mode()

	if md.IsLocal {
		out, err := MirrorComposite(input)
		if err != nil {
			return uuid.Nil, err
		}
		output := Output{URI: out, MIME: imaging.MIMEType(out)}
		s.store.AddReady(Photo{ID: id, Mode: md.Key}, input, output)
		s.saveDownload(ctx, md.Key, id, output)
		return id, nil
	}

	prompt := md.Prompt
	if md.Key == mode.KeyCustom {
		prompt = s.store.CustomPrompt()
	}

	// Placeholder first so the renderer shows the busy tile right away.
	s.store.AddBusy(Photo{ID: id, Mode: md.Key, IsVideo: md.IsVideo}, input)

	genCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancels[id] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.dropCancel(id)
		s.generate(genCtx, id, md, prompt, input)
	}()

	return id, nil
}

// DeletePhoto removes a photo and purges its image data. Deleting a busy
// photo cancels its outstanding generation; cancellation always implies
// removal, so no orphaned placeholder survives. Idempotent.
func (s *Session) DeletePhoto(id uuid.UUID) {
	s.mu.Lock()
	cancel, ok := s.cancels[id]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	s.store.Remove(id)
}

// Wait blocks until every outstanding generation has settled.
func (s *Session) Wait() {
	s.wg.Wait()
}

// DismissGif drops the current GIF result and deletes its file.
func (s *Session) DismissGif() {
	if path := s.store.Gif().ResultPath; path != "" {
		removeFile(path, s.logger)
	}
	s.store.DismissGif()
}

func (s *Session) generate(ctx context.Context, id uuid.UUID, md mode.Mode, prompt, input string) {
	if md.IsVideo {
		s.generateVideo(ctx, id, md, prompt, input)
		return
	}

	uri, err := s.gen.GenerateImage(ctx, genai.ImageRequest{Prompt: prompt, InputImage: input})
	if err != nil {
		s.logger.Error().Err(err).Str("mode", md.Key).Str("photo", id.String()).Msg("booth: image generation failed")
		s.store.Remove(id)
		return
	}
	if uri == "" {
		// Cancelled, or resolved with nothing usable. Either way the photo
		// must not linger; Remove is idempotent when deletion already ran.
		s.store.Remove(id)
		return
	}

	output := Output{URI: uri, MIME: imaging.MIMEType(uri)}
	if !s.store.Complete(id, output) {
		// Deleted while the result was in flight.
		return
	}
	s.saveDownload(ctx, md.Key, id, output)
}

func (s *Session) generateVideo(ctx context.Context, id uuid.UUID, md mode.Mode, prompt, input string) {
	art, err := s.gen.GenerateVideo(ctx, genai.VideoRequest{Prompt: prompt, InputImage: input})
	if err != nil {
		s.logger.Error().Err(err).Str("mode", md.Key).Str("photo", id.String()).Msg("booth: video generation failed")
		s.store.Remove(id)
		return
	}
	if art == nil {
		s.store.Remove(id)
		return
	}

	path, err := s.files.SaveArtifact(ctx, md.Key, id, "mp4", art.Data)
	if err != nil {
		s.logger.Error().Err(err).Str("photo", id.String()).Msg("booth: save video failed")
		s.store.Remove(id)
		return
	}
	if !s.store.Complete(id, Output{URI: path, MIME: art.MIME}) {
		removeFile(path, s.logger)
	}
}

// saveDownload writes the artifact bytes under the download naming
// convention. A save failure is logged only; the photo keeps its output.
func (s *Session) saveDownload(ctx context.Context, modeKey string, id uuid.UUID, output Output) {
	_, data, err := imaging.DecodeDataURI(output.URI)
	if err != nil {
		s.logger.Error().Err(err).Str("photo", id.String()).Msg("booth: decode output for download failed")
		return
	}
	ext := "png"
	if output.MIME == "image/webp" {
		ext = "webp"
	}
	path, err := s.files.SaveArtifact(ctx, modeKey, id, ext, data)
	if err != nil {
		s.logger.Error().Err(err).Str("photo", id.String()).Msg("booth: save download failed")
		return
	}
	s.logger.Info().Str("photo", id.String()).Str("path", path).Msg("booth: saved artifact")
}

// dropCancel releases a settled generation's cancel entry. The CancelFunc is
// invoked so the child context is freed immediately rather than living until
// the parent ends.
func (s *Session) dropCancel(id uuid.UUID) {
	s.mu.Lock()
	cancel, ok := s.cancels[id]
	delete(s.cancels, id)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}
