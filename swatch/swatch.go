// Package swatch reduces an image to a handful of representative colors,
// ordered darkest first by the same lightness key as the full palette.
package swatch

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"gradientgen/gradient"
	"gradientgen/hslcolor"
	"gradientgen/palette"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"golang.org/x/image/draw"
)

type Method string

const (
	// MethodBands picks the colors of a k band gradient.
	MethodBands Method = "bands"
	// MethodDominant picks the most dominant colors.
	MethodDominant Method = "dominant"
	// MethodKMeans picks k-means cluster centers.
	MethodKMeans Method = "kmeans"
)

// maxSamples keeps k-means tractable on large images.
const maxSamples = 12000

var ErrUnknownMethod = errors.New("unknown swatch method")

// Extract returns at most k colors of img chosen by method, darkest first.
func Extract(img image.Image, k int, method Method) ([]hslcolor.RGB, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, gradient.ErrNoSourceImage
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d colors", gradient.ErrInvalidDimension, k)
	}

	var (
		cols []hslcolor.RGB
		err  error
	)
	switch method {
	case MethodBands:
		cols, err = bands(img, k)
	case MethodDominant:
		cols = dominant(img, k)
	case MethodKMeans:
		cols, err = kmeansCenters(img, k)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if err != nil {
		return nil, err
	}

	SortByLightness(cols)
	return cols, nil
}

// SortByLightness orders colors from darkest to lightest, keeping the order of
// equally light colors.
func SortByLightness(cols []hslcolor.RGB) {
	slices.SortStableFunc(cols, func(a, b hslcolor.RGB) int {
		return cmp.Compare(hslcolor.Lightness(a), hslcolor.Lightness(b))
	})
}

func bands(img image.Image, k int) ([]hslcolor.RGB, error) {
	pal, err := palette.Build(img)
	if err != nil {
		return nil, err
	}

	strip, err := gradient.Resample(pal, len(pal), 1, k)
	if err != nil {
		return nil, err
	}

	res := make([]hslcolor.RGB, k)
	for y := range res {
		c := strip.RGBAAt(0, y)
		res[y] = hslcolor.RGB{R: c.R, G: c.G, B: c.B}
	}
	return res, nil
}

func dominant(img image.Image, k int) []hslcolor.RGB {
	found := dominantcolor.FindWeight(img, k)

	res := make([]hslcolor.RGB, 0, len(found))
	for _, c := range found {
		res = append(res, hslcolor.RGB{R: c.RGBA.R, G: c.RGBA.G, B: c.RGBA.B})
	}
	return res
}

func kmeansCenters(img image.Image, k int) ([]hslcolor.RGB, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255,
				float64(c.G) / 255,
				float64(c.B) / 255,
			})
		}
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, min(k, len(dataset)))
	if err != nil {
		return nil, fmt.Errorf("could not partition colors: %w", err)
	}

	res := make([]hslcolor.RGB, 0, len(cc))
	for _, c := range cc {
		// Centers are recomputed from the members: the partitioner skips the
		// last recenter once assignments stop changing.
		center, err := c.Observations.Center()
		if err != nil {
			continue
		}
		r, g, bl := colorful.Color{R: center[0], G: center[1], B: center[2]}.Clamped().RGB255()
		res = append(res, hslcolor.RGB{R: r, G: g, B: bl})
	}
	return res, nil
}

// Strip renders cols side by side as tile x tile squares.
func Strip(cols []hslcolor.RGB, tile int) *image.RGBA {
	if tile <= 0 {
		tile = 64
	}

	img := image.NewRGBA(image.Rect(0, 0, tile*len(cols), tile))
	for i, c := range cols {
		x0 := i * tile
		for y := range tile {
			for x := x0; x < x0+tile; x++ {
				img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
			}
		}
	}
	return img
}

// Apply redraws img using only cols, optionally with Floyd-Steinberg error
// diffusion. cols must not be empty. The result has a zero origin.
func Apply(img image.Image, cols []hslcolor.RGB, dither bool) *image.Paletted {
	pal := make(color.Palette, len(cols))
	for i, c := range cols {
		pal[i] = c
	}

	sr := img.Bounds()
	dr := image.Rect(0, 0, sr.Dx(), sr.Dy())
	dest := image.NewPaletted(dr, pal)

	if dither {
		draw.FloydSteinberg.Draw(dest, dr, img, sr.Min)
	} else {
		draw.Draw(dest, dr, img, sr.Min, draw.Src)
	}
	return dest
}
