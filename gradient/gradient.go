// Package gradient turns a lightness-sorted palette into a banded gradient
// image, and composes the whole pipeline behind Generate.
package gradient

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"gradientgen/palette"
)

// MaxDimension is the largest accepted output width or height.
const MaxDimension = 1<<16 - 1

var (
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrIndexOutOfRange  = errors.New("palette index out of range")
	ErrNoSourceImage    = errors.New("no source image")
)

// Mapping selects how an output row is mapped to a palette index.
type Mapping int

const (
	// MappingReference computes (sourcePixelCount / height) * y, dividing
	// first. Rows past the source pixel count have no palette entry.
	MappingReference Mapping = iota
	// MappingProportional computes sourcePixelCount * y / height.
	MappingProportional
)

func (m Mapping) String() string {
	switch m {
	case MappingProportional:
		return "proportional"
	default:
		return "reference"
	}
}

// ParseMapping is the inverse of Mapping.String.
func ParseMapping(s string) (Mapping, error) {
	switch s {
	case "", "reference":
		return MappingReference, nil
	case "proportional":
		return MappingProportional, nil
	}
	return MappingReference, fmt.Errorf("unknown mapping %q", s)
}

// Generator runs the palette and resampling stages. The zero value uses
// MappingReference and does not log. A Generator keeps no state between calls.
type Generator struct {
	Mapping Mapping
	Logger  *slog.Logger
}

var defaultGenerator Generator

// Generate builds the palette of img and resamples it onto a width x height
// canvas using the reference mapping.
func Generate(img image.Image, width, height int) (*image.RGBA, error) {
	return defaultGenerator.Generate(img, width, height)
}

func (g *Generator) Generate(img image.Image, width, height int) (*image.RGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNoSourceImage
	}
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}

	logger := g.logger()
	b := img.Bounds()

	pal, err := palette.Build(img)
	if err != nil {
		return nil, fmt.Errorf("could not build palette: %w", err)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		st := pal.Stats()
		logger.Debug("palette built", "width", b.Dx(), "height", b.Dy(), "colors", len(pal),
			"min", st.Min, "max", st.Max, "mean", st.Mean, "stddev", st.StdDev, "median", st.Median)
	}

	res, err := g.Resample(pal, b.Dx()*b.Dy(), width, height)
	if err != nil {
		return nil, err
	}
	logger.Debug("gradient resampled", "width", width, "height", height, "mapping", g.Mapping)

	return res, nil
}

// Resample uses the reference mapping; see Generator.Resample.
func Resample(p palette.Palette, sourcePixelCount, width, height int) (*image.RGBA, error) {
	return defaultGenerator.Resample(p, sourcePixelCount, width, height)
}

// Resample paints every output row with the single palette entry its mapping
// selects. All rows are validated before the output is allocated.
func (g *Generator) Resample(p palette.Palette, sourcePixelCount, width, height int) (*image.RGBA, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	if sourcePixelCount < 0 {
		return nil, fmt.Errorf("%w: negative source pixel count %d", ErrIndexOutOfRange, sourcePixelCount)
	}

	rows := make([]int, height)
	for y := range rows {
		idx, err := g.index(sourcePixelCount, height, y)
		if err != nil {
			return nil, err
		}
		if idx >= len(p) {
			return nil, fmt.Errorf("%w: row %d maps to index %d, palette has %d colors",
				ErrIndexOutOfRange, y, idx, len(p))
		}
		rows[y] = idx
	}

	res := image.NewRGBA(image.Rect(0, 0, width, height))
	for y, idx := range rows {
		c := p[idx]
		row := res.Pix[y*res.Stride : y*res.Stride+width*4]
		for x := 0; x < len(row); x += 4 {
			row[x] = c.R
			row[x+1] = c.G
			row[x+2] = c.B
			row[x+3] = 0xff
		}
	}

	return res, nil
}

func (g *Generator) index(sourcePixelCount, height, y int) (int, error) {
	switch g.Mapping {
	case MappingProportional:
		return int(int64(sourcePixelCount) * int64(y) / int64(height)), nil
	default:
		if y >= sourcePixelCount {
			return 0, fmt.Errorf("%w: row %d of %d, source has %d pixels",
				ErrIndexOutOfRange, y, height, sourcePixelCount)
		}
		return sourcePixelCount / height * y, nil
	}
}

func checkDimensions(width, height int) error {
	switch {
	case width <= 0 || width > MaxDimension:
		return fmt.Errorf("%w: width %d", ErrInvalidDimension, width)
	case height <= 0 || height > MaxDimension:
		return fmt.Errorf("%w: height %d", ErrInvalidDimension, height)
	}
	return nil
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return g.Logger
}
