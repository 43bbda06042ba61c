package booth

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"photobooth/internal/mode"
)

var ErrGifBuildInProgress = errors.New("booth: gif build already in progress")

// Photo is one entry in the booth's ordered collection. The raw captured
// input and the generated output live in side tables keyed by ID so deleting
// a photo can purge everything it owns.
type Photo struct {
	ID      uuid.UUID
	Mode    string
	IsBusy  bool
	IsVideo bool
}

// Output is a generated artifact reference: a data URI for stills, a saved
// file path for videos.
type Output struct {
	URI  string
	MIME string
}

// GifState tracks the single in-flight GIF build and its last result.
type GifState struct {
	InProgress bool
	ResultPath string
}

// Store holds all booth state: the newest-first photo list, the input/output
// side tables, the selected mode, the custom prompt and the GIF build state.
// Every transition is a named method under one mutex, so invariants hold at
// each unlock (a busy photo never has an output, a removed photo leaves no
// orphaned image data).
type Store struct {
	mu           sync.Mutex
	photos       []Photo
	inputs       map[uuid.UUID]string
	outputs      map[uuid.UUID]Output
	mode         mode.Mode
	customPrompt string
	gif          GifState
}

func NewStore() *Store {
	return &Store{
		inputs:  make(map[uuid.UUID]string),
		outputs: make(map[uuid.UUID]Output),
		mode:    mode.Default(),
	}
}

// SetMode selects the active mode.
func (s *Store) SetMode(m mode.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// Mode returns the active mode.
func (s *Store) Mode() mode.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetCustomPrompt updates the prompt used by the custom mode.
func (s *Store) SetCustomPrompt(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customPrompt = text
}

// CustomPrompt returns the user-supplied prompt.
func (s *Store) CustomPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customPrompt
}

// AddBusy inserts a busy placeholder at the front of the collection and
// records its captured input.
func (s *Store) AddBusy(p Photo, input string) {
	p.IsBusy = true
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos = append([]Photo{p}, s.photos...)
	s.inputs[p.ID] = input
}

// AddReady inserts a finished photo at the front of the collection with its
// input and output in one step. Used by local modes, which never go busy.
func (s *Store) AddReady(p Photo, input string, output Output) {
	p.IsBusy = false
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos = append([]Photo{p}, s.photos...)
	s.inputs[p.ID] = input
	s.outputs[p.ID] = output
}

// Complete records a generation result: the output entry is created and the
// busy flag cleared in the same critical section. Reports false when the
// photo is no longer in the collection (deleted while in flight), in which
// case nothing is stored.
func (s *Store) Complete(id uuid.UUID, output Output) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.photos {
		if s.photos[i].ID == id {
			s.photos[i].IsBusy = false
			s.outputs[id] = output
			return true
		}
	}
	return false
}

// Remove deletes a photo and both side-table entries. Idempotent.
func (s *Store) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.photos {
		if s.photos[i].ID == id {
			s.photos = append(s.photos[:i], s.photos[i+1:]...)
			break
		}
	}
	delete(s.inputs, id)
	delete(s.outputs, id)
}

// Photos returns a copy of the collection, newest first.
func (s *Store) Photos() []Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Photo, len(s.photos))
	copy(out, s.photos)
	return out
}

// Input returns the captured input for a photo.
func (s *Store) Input(id uuid.UUID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.inputs[id]
	return in, ok
}

// Output returns the generated output for a photo.
func (s *Store) Output(id uuid.UUID) (Output, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.outputs[id]
	return out, ok
}

// BeginGif claims the single GIF build slot and invalidates the previous
// result, returning the path it replaced so the caller can delete the stale
// file. A second build while one is running is rejected, not queued.
func (s *Store) BeginGif() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gif.InProgress {
		return "", ErrGifBuildInProgress
	}
	prev := s.gif.ResultPath
	s.gif = GifState{InProgress: true}
	return prev, nil
}

// EndGif releases the build slot. An empty path means the build failed and no
// result is exposed.
func (s *Store) EndGif(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gif = GifState{ResultPath: path}
}

// Gif returns the current GIF build state.
func (s *Store) Gif() GifState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gif
}

// DismissGif drops the current result reference.
func (s *Store) DismissGif() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gif.ResultPath = ""
}
