package forge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sketchforge/sketchforge/pkg/oracle"
	"github.com/sketchforge/sketchforge/pkg/toolchain"
)

func TestGenerateWritesSanitizedSketch(t *testing.T) {
	ora := oracle.Func(func(ctx context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "Arduino Uno") {
			t.Errorf("prompt missing board name: %q", prompt)
		}
		return "```cpp\n// blink\nvoid setup() {}\nvoid loop() {}\n```", nil
	})
	runner := NewRunner(ora, &toolchain.Fake{}, &stubResolver{}, nil)

	path := filepath.Join(t.TempDir(), "blink", "blink.ino")
	sk, err := runner.Generate(context.Background(), "blink an LED", "Arduino Uno", path)
	if err != nil {
		t.Fatal(err)
	}

	want := "void setup() {}\nvoid loop() {}"
	if sk.Source != want {
		t.Errorf("Source = %q, want %q", sk.Source, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != want {
		t.Errorf("on-disk = %q, want %q", data, want)
	}
}

func TestGenerateRejectsAllCommentReply(t *testing.T) {
	ora := oracle.Func(func(ctx context.Context, prompt string) (string, error) {
		return "```\n// nothing here\n```", nil
	})
	runner := NewRunner(ora, &toolchain.Fake{}, &stubResolver{}, nil)

	_, err := runner.Generate(context.Background(), "blink", "Arduino Uno", filepath.Join(t.TempDir(), "x.ino"))
	if err == nil {
		t.Fatal("empty-after-sanitization reply accepted")
	}
}
