package mode

import "errors"

// Mode describes a named transformation applied to a captured photo: a fixed
// prompt plus flags controlling how the result is produced. Local modes run
// entirely on-device; video modes produce a short clip instead of a still.
type Mode struct {
	Key     string
	Name    string
	Emoji   string
	Prompt  string
	IsLocal bool
	IsVideo bool
}

// KeyCustom is the one mode whose prompt is supplied by the user at runtime
// rather than taken from the registry.
const KeyCustom = "custom"

var ErrUnknownMode = errors.New("mode: unknown mode key")

var registry = []Mode{
	{Key: "renaissance", Name: "Renaissance", Emoji: "🎨", Prompt: "Make the person in the photo look like a Renaissance oil painting, ornate frame, dramatic lighting."},
	{Key: "cartoon", Name: "Cartoon", Emoji: "😃", Prompt: "Transform the person in the photo into a colorful Saturday-morning cartoon character with bold outlines."},
	{Key: "statue", Name: "Statue", Emoji: "🏛️", Prompt: "Turn the person in the photo into a classical marble statue on a museum pedestal."},
	{Key: "eighties", Name: "80s", Emoji: "✨", Prompt: "Give the photo a 1980s studio portrait look: laser grid background, neon colors, feathered hair."},
	{Key: "anime", Name: "Anime", Emoji: "🌸", Prompt: "Redraw the person in the photo in a hand-painted anime style with soft cel shading."},
	{Key: "psychedelic", Name: "Psychedelic", Emoji: "🌈", Prompt: "Repaint the photo as a 1960s psychedelic concert poster with swirling, saturated colors."},
	{Key: "eightbit", Name: "8-bit", Emoji: "🕹️", Prompt: "Convert the photo into chunky 8-bit pixel art from a retro video game."},
	{Key: "beard", Name: "Big Beard", Emoji: "🧔", Prompt: "Give the person in the photo an enormous, luxurious beard. Keep everything else unchanged."},
	{Key: "comic", Name: "Comic Book", Emoji: "💥", Prompt: "Redraw the photo as a comic book panel with halftone dots, ink outlines and a dramatic caption box."},
	{Key: "old", Name: "Old", Emoji: "👵", Prompt: "Age the person in the photo by fifty years. Keep the setting and clothing recognizable."},
	{Key: "motion", Name: "Motion", Emoji: "🎥", Prompt: "Bring this photo to life with subtle, natural motion.", IsVideo: true},
	{Key: "mirror", Name: "Mirror", Emoji: "🪞", Prompt: "", IsLocal: true},
	{Key: KeyCustom, Name: "Custom", Emoji: "✏️", Prompt: ""},
}

var byKey = func() map[string]Mode {
	m := make(map[string]Mode, len(registry))
	for _, md := range registry {
		m[md.Key] = md
	}
	return m
}()

// All returns the registry in display order. The returned slice is a copy.
func All() []Mode {
	out := make([]Mode, len(registry))
	copy(out, registry)
	return out
}

// Lookup resolves a mode key.
func Lookup(key string) (Mode, error) {
	md, ok := byKey[key]
	if !ok {
		return Mode{}, ErrUnknownMode
	}
	return md, nil
}

// Default returns the mode selected at startup.
func Default() Mode {
	return registry[0]
}
