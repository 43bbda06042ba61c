package booth

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"photobooth/internal/genai"
	"photobooth/internal/imaging"
	"photobooth/internal/infra"
	"photobooth/internal/mode"
	"photobooth/internal/storage"
)

// fakeGenerator scripts the generation client's three outcomes.
type fakeGenerator struct {
	mu       sync.Mutex
	requests []genai.ImageRequest
	lastCtx  context.Context

	imageResult string
	imageErr    error
	blockOnCtx  bool // wait for cancellation, then report clean abandonment

	videoResult *genai.Artifact
	videoErr    error
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, req genai.ImageRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.lastCtx = ctx
	f.mu.Unlock()
	if f.blockOnCtx {
		<-ctx.Done()
		return "", nil
	}
	return f.imageResult, f.imageErr
}

func (f *fakeGenerator) GenerateVideo(ctx context.Context, req genai.VideoRequest) (*genai.Artifact, error) {
	return f.videoResult, f.videoErr
}

func testLogger() *infra.Logger {
	discard := zerolog.New(io.Discard)
	l := infra.Logger(discard)
	return &l
}

func testSession(t *testing.T, gen Generator) *Session {
	t.Helper()
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return NewSession(NewStore(), gen, files, testLogger())
}

// pngDataURI renders a solid-color PNG as a data URI.
func pngDataURI(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return imaging.EncodeDataURI("image/png", buf.Bytes())
}

func TestCaptureCustomPromptSuccess(t *testing.T) {
	result := pngDataURI(t, 8, 8, color.RGBA{R: 255, A: 255})
	gen := &fakeGenerator{imageResult: result}
	session := testSession(t, gen)

	if err := session.SetMode(mode.KeyCustom); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	session.SetCustomPrompt("turn into a painting")

	input := pngDataURI(t, 8, 8, color.RGBA{B: 255, A: 255})
	id, err := session.CapturePhoto(context.Background(), input)
	if err != nil {
		t.Fatalf("CapturePhoto: %v", err)
	}
	session.Wait()

	if len(gen.requests) != 1 {
		t.Fatalf("expected one generation request, got %d", len(gen.requests))
	}
	if gen.requests[0].Prompt != "turn into a painting" {
		t.Fatalf("prompt mismatch: %s", gen.requests[0].Prompt)
	}
	if gen.requests[0].InputImage != input {
		t.Fatalf("input image mismatch")
	}

	photos := session.Store().Photos()
	if len(photos) != 1 || photos[0].ID != id || photos[0].IsBusy || photos[0].Mode != mode.KeyCustom {
		t.Fatalf("unexpected photo state: %+v", photos)
	}
	out, ok := session.Store().Output(id)
	if !ok || out.URI != result {
		t.Fatalf("output mismatch: %+v", out)
	}
}

func TestCaptureShowsBusyPlaceholderImmediately(t *testing.T) {
	gen := &fakeGenerator{blockOnCtx: true}
	session := testSession(t, gen)
	if err := session.SetMode("cartoon"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	id, err := session.CapturePhoto(context.Background(), pngDataURI(t, 4, 4, color.White))
	if err != nil {
		t.Fatalf("CapturePhoto: %v", err)
	}

	photos := session.Store().Photos()
	if len(photos) != 1 || !photos[0].IsBusy {
		t.Fatalf("expected a busy placeholder, got %+v", photos)
	}
	if _, ok := session.Store().Output(id); ok {
		t.Fatalf("busy photo must not have an output")
	}

	session.DeletePhoto(id)
	session.Wait()
}

func TestFailedGenerationLeavesNoTrace(t *testing.T) {
	gen := &fakeGenerator{imageErr: errors.New("model is tired")}
	session := testSession(t, gen)
	if err := session.SetMode("cartoon"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	id, err := session.CapturePhoto(context.Background(), pngDataURI(t, 4, 4, color.White))
	if err != nil {
		t.Fatalf("CapturePhoto: %v", err)
	}
	session.Wait()

	if got := session.Store().Photos(); len(got) != 0 {
		t.Fatalf("failed photo must disappear, got %+v", got)
	}
	if _, ok := session.Store().Input(id); ok {
		t.Fatalf("failed photo's input must be purged")
	}
}

func TestEmptyResultIsRolledBack(t *testing.T) {
	gen := &fakeGenerator{imageResult: ""}
	session := testSession(t, gen)
	if err := session.SetMode("cartoon"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	id, err := session.CapturePhoto(context.Background(), pngDataURI(t, 4, 4, color.White))
	if err != nil {
		t.Fatalf("CapturePhoto: %v", err)
	}
	session.Wait()

	if got := session.Store().Photos(); len(got) != 0 {
		t.Fatalf("empty result must remove the photo, got %+v", got)
	}
	if _, ok := session.Store().Input(id); ok {
		t.Fatalf("input must be purged")
	}
}

func TestSettledGenerationReleasesItsContext(t *testing.T) {
	gen := &fakeGenerator{imageResult: pngDataURI(t, 4, 4, color.Black)}
	session := testSession(t, gen)
	if err := session.SetMode("cartoon"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	if _, err := session.CapturePhoto(context.Background(), pngDataURI(t, 4, 4, color.White)); err != nil {
		t.Fatalf("CapturePhoto: %v", err)
	}
	session.Wait()

	// The per-photo context must not outlive the generation it guarded.
	gen.mu.Lock()
	genCtx := gen.lastCtx
	gen.mu.Unlock()
	if genCtx == nil {
		t.Fatalf("generator never called")
	}
	if !errors.Is(genCtx.Err(), context.Canceled) {
		t.Fatalf("expected the per-photo context to be released, got %v", genCtx.Err())
	}
}

func TestDeleteWhileBusyCancelsAndRemoves(t *testing.T) {
	gen := &fakeGenerator{blockOnCtx: true}
	session := testSession(t, gen)
	if err := session.SetMode("cartoon"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	id, err := session.CapturePhoto(context.Background(), pngDataURI(t, 4, 4, color.White))
	if err != nil {
		t.Fatalf("CapturePhoto: %v", err)
	}

	session.DeletePhoto(id)
	session.Wait() // returns only because DeletePhoto cancelled the request

	if got := session.Store().Photos(); len(got) != 0 {
		t.Fatalf("deleted photo must not linger, got %+v", got)
	}
	if _, ok := session.Store().Input(id); ok {
		t.Fatalf("deleted photo's input must be purged")
	}

	// Idempotent.
	session.DeletePhoto(id)
}

func TestVideoSuccessSavesFile(t *testing.T) {
	gen := &fakeGenerator{videoResult: &genai.Artifact{MIME: "video/mp4", Data: []byte("clip")}}
	session := testSession(t, gen)
	if err := session.SetMode("motion"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	id, err := session.CapturePhoto(context.Background(), pngDataURI(t, 4, 4, color.White))
	if err != nil {
		t.Fatalf("CapturePhoto: %v", err)
	}
	session.Wait()

	photos := session.Store().Photos()
	if len(photos) != 1 || photos[0].IsBusy || !photos[0].IsVideo {
		t.Fatalf("unexpected photo state: %+v", photos)
	}
	out, ok := session.Store().Output(id)
	if !ok {
		t.Fatalf("video photo must have an output")
	}
	if out.MIME != "video/mp4" || out.URI == "" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestCaptureLocalMirrorMode(t *testing.T) {
	gen := &fakeGenerator{}
	session := testSession(t, gen)
	if err := session.SetMode("mirror"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	id, err := session.CapturePhoto(context.Background(), pngDataURI(t, 50, 50, color.RGBA{R: 180, A: 255}))
	if err != nil {
		t.Fatalf("CapturePhoto: %v", err)
	}
	session.Wait()

	if len(gen.requests) != 0 {
		t.Fatalf("local mode must not call the generation client")
	}
	photos := session.Store().Photos()
	if len(photos) != 1 || photos[0].IsBusy {
		t.Fatalf("local capture should insert a ready photo: %+v", photos)
	}
	out, ok := session.Store().Output(id)
	if !ok || out.MIME != "image/webp" {
		t.Fatalf("unexpected output: %+v", out)
	}
	img, err := imaging.Decode(out.URI)
	if err != nil {
		t.Fatalf("decode composite: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Fatalf("composite is %dx%d, want 100x50", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestUnknownModeRejected(t *testing.T) {
	session := testSession(t, &fakeGenerator{})
	if err := session.SetMode("does-not-exist"); !errors.Is(err, mode.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}
