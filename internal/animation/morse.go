package animation

import (
	"fmt"
	"strings"
	"time"
)

const morseFramerate = 10

var morseCode = map[rune]string{
	'a': ".-", 'b': "-...", 'c': "-.-.", 'd': "-..", 'e': ".", 'f': "..-.",
	'g': "--.", 'h': "....", 'i': "..", 'j': ".---", 'k': "-.-", 'l': ".-..",
	'm': "--", 'n': "-.", 'o': "---", 'p': ".--.", 'q': "--.-", 'r': ".-.",
	's': "...", 't': "-", 'u': "..-", 'v': "...-", 'w': ".--", 'x': "-..-",
	'y': "-.--", 'z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
	' ': "  ",
}

// Morse builds an animation that scrolls text across the strip in morse
// code: a dot lights one pixel, a dash two, each followed by one dark
// pixel. The message enters and leaves the strip fully dark.
func Morse(text string, c Color, pixels int) (*Definition, error) {
	text = strings.ToLower(text)
	if strings.TrimSpace(text) == "" {
		return nil, invalid("morse", "message is empty", nil)
	}

	tape := make([]Color, pixels, pixels*2+len(text)*8)
	for _, r := range text {
		code, ok := morseCode[r]
		if !ok {
			return nil, invalid("morse", fmt.Sprintf("character %q has no morse code", r), nil)
		}
		for _, symbol := range code {
			switch symbol {
			case '.':
				tape = append(tape, c)
			case '-':
				tape = append(tape, c, c)
			}
			tape = append(tape, Off)
		}
	}
	tape = append(tape, make([]Color, pixels)...)

	frames := make([]Frame, 0, len(tape)-pixels)
	for start := 0; start+pixels <= len(tape)-1; start++ {
		frame := make(Frame, pixels)
		copy(frame, tape[start:start+pixels])
		frames = append(frames, frame)
	}

	return &Definition{
		Name:     "morseCode : " + text,
		Frames:   frames,
		Interval: time.Second / morseFramerate,
		Loops:    Infinite,
	}, nil
}
