package animation

import (
	"encoding/json"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		input   string
		want    Color
		wantErr bool
	}{
		{"#ff0000", Color{255, 0, 0}, false},
		{"00ff7f", Color{0, 255, 127}, false},
		{"255,0,0", Color{255, 0, 0}, false},
		{"[1, 2, 3]", Color{1, 2, 3}, false},
		{"#ff00", Color{}, true},
		{"300,0,0", Color{}, true},
		{"red", Color{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestColor_UnmarshalJSON(t *testing.T) {
	var c Color
	if err := json.Unmarshal([]byte(`[10, 20, 30]`), &c); err != nil {
		t.Fatalf("Unmarshal array error = %v", err)
	}
	if c != (Color{10, 20, 30}) {
		t.Errorf("Unmarshal array = %v", c)
	}

	if err := json.Unmarshal([]byte(`"#0a141e"`), &c); err != nil {
		t.Fatalf("Unmarshal hex error = %v", err)
	}
	if c != (Color{10, 20, 30}) {
		t.Errorf("Unmarshal hex = %v", c)
	}

	for _, bad := range []string{`[1, 2]`, `[1, 2, 3, 4]`, `[-1, 0, 0]`, `"nope"`, `{}`} {
		if err := json.Unmarshal([]byte(bad), &c); err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", bad)
		}
	}
}

func TestColor_RGB(t *testing.T) {
	if got := (Color{0x12, 0x34, 0x56}).RGB(); got != 0x123456 {
		t.Errorf("RGB() = %#x, want 0x123456", got)
	}
}

func TestMorse(t *testing.T) {
	red := Color{255, 0, 0}
	def, err := Morse("ET", red, 3)
	if err != nil {
		t.Fatalf("Morse() error = %v", err)
	}

	// tape: 3 off, E(. + gap) = 2, T(- + gap) = 3, 3 off => 11 pixels, 8 windows
	if len(def.Frames) != 8 {
		t.Fatalf("len(Frames) = %d, want 8", len(def.Frames))
	}
	for _, f := range def.Frames {
		if len(f) != 3 {
			t.Fatalf("frame width = %d, want 3", len(f))
		}
	}
	// The first window is fully dark, the fourth starts on the E dot.
	if def.Frames[0][0] != Off || def.Frames[3][0] != red {
		t.Errorf("unexpected frames: %v", def.Frames)
	}
	if def.Name != "morseCode : et" {
		t.Errorf("Name = %q", def.Name)
	}

	if _, err := Morse("sos!", red, 3); err == nil {
		t.Error("Morse() with unsupported character succeeded")
	}
	if _, err := Morse("   ", red, 3); err == nil {
		t.Error("Morse() with blank message succeeded")
	}
}
