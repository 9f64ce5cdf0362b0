// Package sound maps sound references to playable media paths.
package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ringdown/chimed/internal/item"
)

// Builtin sounds shipped with the daemon, keyed by short name.
var builtins = map[string]string{
	"birds":    "birds.mp3",
	"ringtone": "ringtone.mp3",
	"chime":    "chime.mp3",
	"beep":     "beep.mp3",
}

// Per-kind defaults used when an item carries no sound reference.
var kindDefaults = map[item.Kind]string{
	item.KindAlarm:    "birds",
	item.KindReminder: "ringtone",
}

// Library resolves sound references against a media directory.
type Library struct {
	dir string
}

// NewLibrary returns a library rooted at dir. The directory does not have to
// exist yet; missing files surface at resolve time.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Resolve turns a sound reference into an absolute media path. An empty ref
// falls back to the kind's default. A ref naming a builtin wins over a file
// of the same name; anything else is treated as a filename under the library
// directory.
func (l *Library) Resolve(kind item.Kind, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = kindDefaults[kind]
	}
	if file, ok := builtins[strings.ToLower(ref)]; ok {
		return filepath.Join(l.dir, file), nil
	}

	path := filepath.Join(l.dir, filepath.Base(ref))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("sound %q not found: %w", ref, err)
	}
	return path, nil
}

// ResolveOrDefault resolves ref and falls back to the kind default when the
// ref names a missing file. The returned path may still point at a missing
// builtin; playback failures are handled downstream.
func (l *Library) ResolveOrDefault(kind item.Kind, ref string) string {
	if path, err := l.Resolve(kind, ref); err == nil {
		return path
	}
	path, _ := l.Resolve(kind, "")
	return path
}

// Names lists the builtin sound names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
