package animation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Color is a single pixel value in R, G, B order.
type Color [3]uint8

// Off is the color of an unlit pixel.
var Off = Color{0, 0, 0}

// RGB packs the color as 0x00RRGGBB, the layout the strip drivers expect.
func (c Color) RGB() uint32 {
	return uint32(c[0])<<16 | uint32(c[1])<<8 | uint32(c[2])
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// UnmarshalJSON accepts either [r, g, b] or "#rrggbb".
func (c *Color) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseColor(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var parts []int
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("color must be [r, g, b]: %w", err)
	}
	if len(parts) != 3 {
		return fmt.Errorf("color must have 3 components, got %d", len(parts))
	}
	for i, p := range parts {
		if p < 0 || p > 255 {
			return fmt.Errorf("color component %d out of range: %d", i, p)
		}
		c[i] = uint8(p)
	}
	return nil
}

// MarshalJSON writes the color as [r, g, b].
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal([]int{int(c[0]), int(c[1]), int(c[2])})
}

// ParseColor parses "#rrggbb", "rrggbb" or "r,g,b".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		fields := strings.Split(strings.Trim(s, "[]()"), ",")
		if len(fields) != 3 {
			return Color{}, fmt.Errorf("color %q must have 3 components", s)
		}
		var c Color
		for i, f := range fields {
			v, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil || v < 0 || v > 255 {
				return Color{}, fmt.Errorf("color %q has invalid component %q", s, f)
			}
			c[i] = uint8(v)
		}
		return c, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("color %q is not #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q is not #rrggbb: %w", s, err)
	}
	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}
