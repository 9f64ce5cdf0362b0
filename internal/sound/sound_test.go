package sound

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ringdown/chimed/internal/item"
)

func TestResolveDefaults(t *testing.T) {
	lib := NewLibrary("/media")

	tests := []struct {
		kind item.Kind
		want string
	}{
		{item.KindAlarm, "birds.mp3"},
		{item.KindReminder, "ringtone.mp3"},
	}
	for _, tt := range tests {
		got, err := lib.Resolve(tt.kind, "")
		if err != nil {
			t.Fatalf("Resolve(%s, \"\") error = %v", tt.kind, err)
		}
		if filepath.Base(got) != tt.want {
			t.Errorf("Resolve(%s, \"\") = %q, want file %q", tt.kind, got, tt.want)
		}
	}
}

func TestResolveBuiltinByName(t *testing.T) {
	lib := NewLibrary("/media")

	got, err := lib.Resolve(item.KindReminder, "Chime")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if filepath.Base(got) != "chime.mp3" {
		t.Errorf("Resolve() = %q, want chime.mp3", got)
	}
}

func TestResolveCustomFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "gong.wav"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	lib := NewLibrary(dir)

	got, err := lib.Resolve(item.KindAlarm, "gong.wav")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != filepath.Join(dir, "gong.wav") {
		t.Errorf("Resolve() = %q", got)
	}

	// Path components are stripped so refs cannot escape the library.
	got, err = lib.Resolve(item.KindAlarm, "../../../gong.wav")
	if err != nil {
		t.Fatalf("Resolve() with path error = %v", err)
	}
	if got != filepath.Join(dir, "gong.wav") {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestResolveMissingFile(t *testing.T) {
	lib := NewLibrary(t.TempDir())

	if _, err := lib.Resolve(item.KindAlarm, "nope.mp3"); err == nil {
		t.Fatal("Resolve() accepted missing file")
	}

	// ResolveOrDefault falls back to the kind default instead.
	got := lib.ResolveOrDefault(item.KindAlarm, "nope.mp3")
	if !strings.HasSuffix(got, "birds.mp3") {
		t.Errorf("ResolveOrDefault() = %q, want birds.mp3 fallback", got)
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) == 0 {
		t.Fatal("Names() empty")
	}
	for i := 1; i < len(names); i++ {
		if names[i] < names[i-1] {
			t.Errorf("Names() not sorted: %v", names)
		}
	}
}
