package oracle

import (
	"context"
	"reflect"
	"testing"
)

func TestParseLibraryList(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "plain names",
			text: "Servo\nAdafruit GFX Library\n",
			want: []string{"Servo", "Adafruit GFX Library"},
		},
		{
			name: "bulleted and numbered markers",
			text: "- Servo\n* LiquidCrystal\n1. Wire",
			want: []string{"Servo", "LiquidCrystal", "Wire"},
		},
		{
			name: "trailing digits preserved",
			text: "- DHT22\n- PCF8574",
			want: []string{"DHT22", "PCF8574"},
		},
		{
			name: "duplicates suppressed first seen order",
			text: "Servo\nWire\nServo\nWire",
			want: []string{"Servo", "Wire"},
		},
		{
			name: "blank lines and whitespace",
			text: "\n  Servo  \n\n\t\n",
			want: []string{"Servo"},
		},
		{
			name: "empty response",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLibraryList(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLibraryList() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFuncAdapter(t *testing.T) {
	o := Func(func(_ context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	})
	got, err := o.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "echo: hi" {
		t.Errorf("Generate() = %q, want %q", got, "echo: hi")
	}
}
