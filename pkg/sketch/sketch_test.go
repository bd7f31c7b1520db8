package sketch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blink", "blink.ino")

	s, err := New(path, "void setup() {}\nvoid loop() {}\n")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Source != s.Source {
		t.Errorf("loaded source = %q, want %q", loaded.Source, s.Source)
	}
	if !filepath.IsAbs(loaded.Path) {
		t.Errorf("Path not absolute: %q", loaded.Path)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servo.ino")

	s, err := New(path, "#include <Servo.h>\n")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	s.SetSource("#include <Servo.h>\nServo s;\n")
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".sketch-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Source != s.Source {
		t.Errorf("second save not visible: %q", loaded.Source)
	}
}

func TestName(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "weather_station", "weather_station.ino"), "")
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Name(); got != "weather_station" {
		t.Errorf("Name() = %q, want %q", got, "weather_station")
	}
}
