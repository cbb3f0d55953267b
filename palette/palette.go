package palette

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"gradientgen/hslcolor"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoImage      = errors.New("no image")
	ErrNaNLightness = errors.New("lightness is not a number")
)

// Palette is every pixel of a source image, ordered from darkest to lightest
// by HSL lightness. It is not deduplicated.
type Palette []hslcolor.RGB

// Stats summarises the lightness distribution of a palette.
type Stats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
}

// Build walks img in row-major order and returns its pixels sorted by
// ascending lightness. Pixels of equal lightness keep their row-major order.
// An empty image yields an empty palette.
func Build(img image.Image) (Palette, error) {
	if img == nil {
		return nil, ErrNoImage
	}

	src := flatten(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	pixels := make([]hslcolor.HSL, 0, w*h)
	keys := make([]float64, 0, w*h)
	for y := range h {
		off := y * src.Stride
		for x := range w {
			i := off + x*4
			hc := hslcolor.ToHSL(hslcolor.RGB{R: src.Pix[i], G: src.Pix[i+1], B: src.Pix[i+2]})
			pixels = append(pixels, hc)
			keys = append(keys, hc.L)
		}
	}

	inds, err := sortKeys(keys, w)
	if err != nil {
		return nil, err
	}

	pal := make(Palette, len(inds))
	for i, j := range inds {
		pal[i] = hslcolor.ToRGB(pixels[j])
	}

	return pal, nil
}

// sortKeys returns the indices of keys in ascending, stable order. keys are
// lightness values of a row-major grid w pixels wide and are sorted in place.
func sortKeys(keys []float64, w int) ([]int, error) {
	// floats.ArgsortStable compares with <, which is not a total order once NaN shows up.
	for i, l := range keys {
		if math.IsNaN(l) {
			return nil, fmt.Errorf("%w: pixel %d (%d,%d)", ErrNaNLightness, i, i%w, i/w)
		}
	}

	inds := make([]int, len(keys))
	floats.ArgsortStable(keys, inds)
	return inds, nil
}

// flatten returns img as a zero-origin, non-premultiplied image so that
// translucent pixels keep their color channels once alpha is dropped.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if nimg, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return nimg
	}

	dest := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dest, dest.Bounds(), img, b.Min, draw.Src)
	return dest
}

// Lightness returns the lightness of every palette entry, in palette order.
func (p Palette) Lightness() []float64 {
	res := make([]float64, len(p))
	for i, c := range p {
		res[i] = hslcolor.Lightness(c)
	}
	return res
}

// IsSorted reports whether lightness never decreases along the palette.
func (p Palette) IsSorted() bool {
	for i := 1; i < len(p); i++ {
		if hslcolor.Lightness(p[i-1]) > hslcolor.Lightness(p[i]) {
			return false
		}
	}
	return true
}

func (p Palette) Stats() Stats {
	if len(p) == 0 {
		return Stats{}
	}

	l := p.Lightness()
	slices.Sort(l)
	s := Stats{
		Count:  len(l),
		Min:    floats.Min(l),
		Max:    floats.Max(l),
		Median: stat.Quantile(0.5, stat.Empirical, l, nil),
	}
	if len(l) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(l, nil)
	} else {
		s.Mean = l[0]
	}
	return s
}

// Colors returns the palette as a color.Palette of opaque colors.
func (p Palette) Colors() color.Palette {
	res := make(color.Palette, len(p))
	for i, c := range p {
		res[i] = c
	}
	return res
}

// FromColors lays the colors out as a len(pal)x1 image, in order.
func FromColors(pal color.Palette) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, len(pal), 1))
	for x, c := range pal {
		img.SetNRGBA(x, 0, hslcolor.Model.Convert(c).(hslcolor.RGB).NRGBA())
	}
	return img
}
