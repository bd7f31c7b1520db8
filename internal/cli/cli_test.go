package cli

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/sketchforge/sketchforge/pkg/config"
)

func TestRootCommandStructure(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	if root.Use != "sketchforge" {
		t.Errorf("root.Use = %q, want %q", root.Use, "sketchforge")
	}

	want := []string{"generate", "build", "upload", "monitor", "wiring", "boards", "project", "serve", "cache", "config", "completion"}
	have := make(map[string]bool)
	for _, cmd := range root.Commands() {
		have[cmd.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Blink an LED every second", "blink_an_led_every_second"},
		{"  Read a DHT22 sensor!  ", "read_a_dht22_sensor"},
		{"---", ""},
		{"Servo @ 90°", "servo_90"},
		{strings.Repeat("a", 100), strings.Repeat("a", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := slugify(tt.in); got != tt.want {
				t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultSketchPath(t *testing.T) {
	got := defaultSketchPath("/tmp/sketches", "Blink an LED")
	want := filepath.Join("/tmp/sketches", "blink_an_led", "blink_an_led.ino")
	if got != want {
		t.Errorf("defaultSketchPath() = %q, want %q", got, want)
	}

	// Empty request still yields a valid sketch directory.
	got = defaultSketchPath("/tmp/sketches", "!!!")
	want = filepath.Join("/tmp/sketches", "sketch", "sketch.ino")
	if got != want {
		t.Errorf("defaultSketchPath() = %q, want %q", got, want)
	}
}

func TestPickBudget(t *testing.T) {
	if got := pickBudget(3, 7); got != 3 {
		t.Errorf("pickBudget(3, 7) = %d, want 3 (flag wins)", got)
	}
	if got := pickBudget(0, 7); got != 7 {
		t.Errorf("pickBudget(0, 7) = %d, want 7 (config fallback)", got)
	}
}

func TestLastLines(t *testing.T) {
	in := "one\ntwo\nthree\nfour\n"
	if got := lastLines(in, 2); got != "three\nfour" {
		t.Errorf("lastLines() = %q, want %q", got, "three\nfour")
	}
	if got := lastLines("single", 5); got != "single" {
		t.Errorf("lastLines() = %q, want %q", got, "single")
	}
}

func TestResolveTargetArgs(t *testing.T) {
	path, board, err := resolveTarget(context.Background(), []string{"blink/blink.ino"}, "", "", "Arduino Uno")
	if err != nil {
		t.Fatalf("resolveTarget() error = %v", err)
	}
	if path != "blink/blink.ino" {
		t.Errorf("path = %q, want %q", path, "blink/blink.ino")
	}
	if board != "Arduino Uno" {
		t.Errorf("board = %q, want default %q", board, "Arduino Uno")
	}

	_, board, err = resolveTarget(context.Background(), []string{"x.ino"}, "", "Arduino Nano", "Arduino Uno")
	if err != nil {
		t.Fatalf("resolveTarget() error = %v", err)
	}
	if board != "Arduino Nano" {
		t.Errorf("board = %q, want flag override %q", board, "Arduino Nano")
	}
}

func TestResolveTargetRequiresInput(t *testing.T) {
	_, _, err := resolveTarget(context.Background(), nil, "", "", "Arduino Uno")
	if err == nil {
		t.Fatal("resolveTarget() with no args and no project should error")
	}
}

func TestResolveBoardConfigExtras(t *testing.T) {
	cfg := config.Default()
	cfg.Boards = []config.BoardConfig{
		{Name: "Bench Mega", FQBN: "arduino:avr:mega"},
		{Name: "Arduino Uno", FQBN: "vendor:avr:custom_uno"},
		{Name: "incomplete"},
	}

	profile, err := resolveBoard(cfg, "Bench Mega")
	if err != nil {
		t.Fatalf("resolveBoard() error = %v", err)
	}
	if profile.FQBN != "arduino:avr:mega" {
		t.Errorf("FQBN = %q, want %q", profile.FQBN, "arduino:avr:mega")
	}

	// A config entry with a built-in name replaces the built-in profile.
	profile, err = resolveBoard(cfg, "Arduino Uno")
	if err != nil {
		t.Fatalf("resolveBoard() error = %v", err)
	}
	if profile.FQBN != "vendor:avr:custom_uno" {
		t.Errorf("FQBN = %q, want config override %q", profile.FQBN, "vendor:avr:custom_uno")
	}

	// Entries missing an FQBN are ignored, not registered half-formed.
	if _, err := resolveBoard(cfg, "incomplete"); err == nil {
		t.Error("resolveBoard() should reject a board defined without an FQBN")
	}
}

func TestRootCommandAttachesContextLogger(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	root.SetContext(context.Background())
	if err := root.PersistentPreRunE(root, nil); err != nil {
		t.Fatalf("PersistentPreRunE() error = %v", err)
	}

	if got := loggerFromContext(root.Context()); got != c.Logger {
		t.Error("command context should carry the CLI logger")
	}
}
