package strip

import "github.com/smazurov/canister/internal/animation"

// Gamma applies gamma correction: output = (input * input) / 255.
func Gamma(v uint8) uint8 {
	return uint8((uint16(v) * uint16(v)) / 255)
}

// correction maps asset colors to what is sent to the LEDs.
type correction struct {
	gamma bool
	// scale is the global brightness, 255 = unchanged. Drivers with
	// hardware brightness leave it at 255.
	scale uint8
}

func newCorrection(opts Options) correction {
	return correction{gamma: opts.Gamma, scale: uint8(opts.Brightness)}
}

func (c correction) apply(col animation.Color) animation.Color {
	out := col
	for i, v := range col {
		if c.gamma {
			v = Gamma(v)
		}
		if c.scale != 255 {
			v = uint8(uint16(v) * uint16(c.scale) / 255)
		}
		out[i] = v
	}
	return out
}
