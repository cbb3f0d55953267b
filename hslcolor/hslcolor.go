// Package hslcolor converts 8-bit RGB pixels to and from the HSL color space.
//
// Lightness is the key the rest of the pipeline orders pixels by. Conversions are
// done by go-colorful; the way back to 8 bits truncates instead of rounding.
package hslcolor

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// truncGuard absorbs floating point noise before truncation, so a channel
// that should be exactly k/255 is not truncated to k-1.
const truncGuard = 1e-9

// RGB is an opaque 8-bit-per-channel pixel.
type RGB struct {
	R, G, B uint8
}

// HSL holds hue in degrees [0, 360), saturation and lightness in [0, 1].
type HSL struct {
	H float64 // hue
	S float64 // saturation
	L float64 // lightness, the ordering key
}

var (
	Model    = color.ModelFunc(rgbConvert)
	HSLModel = color.ModelFunc(hslConvert)
)

func rgbConvert(c color.Color) color.Color {
	switch hc := c.(type) {
	case RGB:
		return c
	case HSL:
		return ToRGB(hc)
	}

	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: nc.R, G: nc.G, B: nc.B}
}

func hslConvert(c color.Color) color.Color {
	if _, ok := c.(HSL); ok {
		return c
	}
	return ToHSL(rgbConvert(c).(RGB))
}

func (c RGB) RGBA() (uint32, uint32, uint32, uint32) {
	r, g, b := uint32(c.R), uint32(c.G), uint32(c.B)
	return r | r<<8, g | g<<8, b | b<<8, 0xffff
}

// NRGBA returns the pixel as an opaque color.NRGBA.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

func (c RGB) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

func (hc HSL) RGBA() (uint32, uint32, uint32, uint32) {
	return ToRGB(hc).RGBA()
}

// ToHSL converts an RGB pixel to HSL. It is total over the 8-bit domain.
func ToHSL(c RGB) HSL {
	h, s, l := c.colorful().Hsl()
	return HSL{H: h, S: s, L: l}
}

// ToRGB converts an HSL pixel back to RGB, truncating fractional channels.
func ToRGB(hc HSL) RGB {
	col := colorful.Hsl(hc.H, hc.S, hc.L)
	return RGB{
		R: truncate(col.R),
		G: truncate(col.G),
		B: truncate(col.B),
	}
}

// Lightness returns only the L component of ToHSL(c).
func Lightness(c RGB) float64 {
	lo := min(c.R, c.G, c.B)
	hi := max(c.R, c.G, c.B)
	return (float64(lo)/255 + float64(hi)/255) / 2
}

func truncate(v float64) uint8 {
	return uint8(max(0, min(255, v*255+truncGuard)))
}
