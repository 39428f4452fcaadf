package animation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const assetExt = ".json"

// asset is the on-disk animation record.
type asset struct {
	Frames       []Frame `json:"frames"`
	Framerate    int     `json:"framerate"`
	Sound        string  `json:"sound"`
	Loops        *int    `json:"loops"`
	RepeatOnLoop bool    `json:"repeatOnLoop"`
}

// Loader reads animation assets from a directory and validates them
// against the strip's pixel count.
type Loader struct {
	animationDir string
	soundDir     string
	pixels       int
}

// NewLoader creates a loader for the given directories.
func NewLoader(animationDir, soundDir string, pixels int) *Loader {
	return &Loader{
		animationDir: animationDir,
		soundDir:     soundDir,
		pixels:       pixels,
	}
}

// Pixels returns the frame width every asset must match.
func (l *Loader) Pixels() int {
	return l.pixels
}

// AnimationDir returns the directory assets are loaded from.
func (l *Loader) AnimationDir() string {
	return l.animationDir
}

// SoundDir returns the directory sound references resolve against.
func (l *Loader) SoundDir() string {
	return l.soundDir
}

// Normalize strips the asset extension so "test.json" and "test" name the
// same animation.
func Normalize(name string) string {
	return strings.TrimSuffix(strings.TrimSpace(name), assetExt)
}

// path returns the asset path for name, or false when name is not a plain
// file name.
func (l *Loader) path(name string) (string, bool) {
	base := Normalize(name)
	if base == "" || base == "." || base == ".." || base != filepath.Base(base) {
		return "", false
	}
	return filepath.Join(l.animationDir, base+assetExt), true
}

// Exists reports whether an asset file for name is present.
func (l *Loader) Exists(name string) bool {
	p, ok := l.path(name)
	if !ok {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Load reads and validates the named asset.
func (l *Loader) Load(name string) (*Definition, error) {
	normalized := Normalize(name)
	p, ok := l.path(name)
	if !ok {
		return nil, notFound(normalized, nil)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(normalized, nil)
		}
		return nil, invalid(normalized, "failed to read animation file", err)
	}

	var a asset
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, invalid(normalized, "malformed animation file", err)
	}

	return l.build(normalized, &a)
}

func (l *Loader) build(name string, a *asset) (*Definition, error) {
	if a.Framerate <= 0 {
		return nil, invalid(name, fmt.Sprintf("framerate must be positive, got %d", a.Framerate), nil)
	}

	loops := Infinite
	if a.Loops != nil {
		loops = *a.Loops
	}
	if loops < Infinite {
		return nil, invalid(name, fmt.Sprintf("loops must be -1 or greater, got %d", loops), nil)
	}

	if len(a.Frames) == 0 && loops != 0 {
		return nil, invalid(name, "animation has no frames", nil)
	}
	for i, f := range a.Frames {
		if len(f) != l.pixels {
			return nil, invalid(name, fmt.Sprintf("frame %d has %d pixels, strip has %d", i, len(f), l.pixels), nil)
		}
	}

	if a.Sound != "" {
		if a.Sound != filepath.Base(a.Sound) {
			return nil, invalid(name, fmt.Sprintf("sound %q must be a file name", a.Sound), nil)
		}
		info, err := os.Stat(filepath.Join(l.soundDir, a.Sound))
		if err != nil || !info.Mode().IsRegular() {
			return nil, invalid(name, fmt.Sprintf("sound file not found: %s", a.Sound), err)
		}
	}

	return &Definition{
		Name:              name,
		Frames:            a.Frames,
		Interval:          intervalFor(a.Framerate),
		Loops:             loops,
		RepeatAudioOnLoop: a.RepeatOnLoop,
		Sound:             a.Sound,
	}, nil
}

// List returns the names of all animation assets, sorted.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.animationDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read animation directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != assetExt {
			continue
		}
		names = append(names, Normalize(e.Name()))
	}
	sort.Strings(names)
	return names, nil
}

// Sounds returns the file names in the sound directory, sorted.
func (l *Loader) Sounds() ([]string, error) {
	entries, err := os.ReadDir(l.soundDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sound directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// SoundExists reports whether name is a file in the sound directory.
func (l *Loader) SoundExists(name string) bool {
	if name == "" || name != filepath.Base(name) {
		return false
	}
	info, err := os.Stat(filepath.Join(l.soundDir, name))
	return err == nil && info.Mode().IsRegular()
}
