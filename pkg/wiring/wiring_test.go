package wiring

import (
	"context"
	"strings"
	"testing"

	"github.com/sketchforge/sketchforge/pkg/oracle"
)

const servoReply = `
[Board Pin] | [Component] | [Component Pin/Terminal] | [Purpose/Signal]
------------|-------------|--------------------------|-----------------
D9 | Servo | Signal (orange) | PWM control
5V | Servo | VCC (red) | Power
GND | Servo | GND (brown) | Ground
Note: use an external supply for more than one servo.
`

func TestParse(t *testing.T) {
	d := Parse(servoReply, "Arduino Uno")

	if len(d.Connections) != 3 {
		t.Fatalf("connections = %d, want 3: %+v", len(d.Connections), d.Connections)
	}
	first := d.Connections[0]
	if first.BoardPin != "D9" || first.Component != "Servo" || first.Terminal != "Signal (orange)" || first.Purpose != "PWM control" {
		t.Errorf("first connection = %+v", first)
	}
	if len(d.Notes) != 1 || !strings.Contains(d.Notes[0], "external supply") {
		t.Errorf("notes = %v", d.Notes)
	}
	if comps := d.Components(); len(comps) != 1 || comps[0] != "Servo" {
		t.Errorf("components = %v", comps)
	}
}

func TestParseRowWithoutPurpose(t *testing.T) {
	d := Parse("A0 | LDR | leg 1", "Arduino Uno")
	if len(d.Connections) != 1 {
		t.Fatalf("connections = %d", len(d.Connections))
	}
	if d.Connections[0].Purpose != "" {
		t.Errorf("Purpose = %q", d.Connections[0].Purpose)
	}
}

func TestSuggest(t *testing.T) {
	ora := oracle.Func(func(ctx context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "wiring") {
			t.Errorf("unexpected prompt: %q", prompt)
		}
		return servoReply, nil
	})

	d, err := Suggest(context.Background(), ora, "#include <Servo.h>", "Arduino Uno")
	if err != nil {
		t.Fatal(err)
	}
	if d.Board != "Arduino Uno" {
		t.Errorf("Board = %q", d.Board)
	}
}

func TestSuggestRejectsProseOnlyReply(t *testing.T) {
	ora := oracle.Func(func(ctx context.Context, prompt string) (string, error) {
		return "This sketch uses no external hardware.", nil
	})
	if _, err := Suggest(context.Background(), ora, "void loop() {}", "Arduino Uno"); err == nil {
		t.Fatal("prose-only reply accepted")
	}
}

func TestToDOT(t *testing.T) {
	d := Parse(servoReply, "Arduino Uno")
	dot := ToDOT(d)

	for _, want := range []string{"graph wiring {", "rankdir=LR", "Arduino Uno", "<D9> D9", `"Servo"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	// Undirected edges with port references.
	if !strings.Contains(dot, `board:"D9" -- "Servo"`) {
		t.Errorf("DOT missing edge:\n%s", dot)
	}
}
