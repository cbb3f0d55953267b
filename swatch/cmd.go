package swatch

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gradientgen/gradient"
	"gradientgen/hslcolor"
	"gradientgen/imgio"
	"gradientgen/palette"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Input  string `help:"Source image, or RIFF PAL file" required:"" type:"existingfile"`
	Output string `help:"Destination. A .pal extension writes a RIFF palette, anything else an image strip" required:""`
	Colors int    `help:"Number of colors to extract" default:"8"`
	Method string `help:"Extraction method" enum:"bands,dominant,kmeans" default:"bands"`
	Tile   int    `help:"Side of each color square in image output" default:"64"`
	Force  bool   `help:"Overwrite an existing output file" default:"false"`

	Preview string `help:"Also write the source redrawn with the extracted colors to this image" group:"preview"`
	Dither  bool   `help:"Dither the preview" default:"false" group:"preview"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	var err error
	if c.Input, err = filepath.Abs(c.Input); err != nil {
		return fmt.Errorf("invalid input path: %w", err)
	}
	if c.Output, err = filepath.Abs(c.Output); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	if !isPal(c.Output) {
		if _, err := imgio.FormatFromPath(c.Output); err != nil {
			return err
		}
	}

	if c.Preview != "" {
		if c.Preview, err = filepath.Abs(c.Preview); err != nil {
			return fmt.Errorf("invalid preview path: %w", err)
		}
		if _, err := imgio.FormatFromPath(c.Preview); err != nil {
			return err
		}
	}

	switch {
	case c.Colors < 1 || c.Colors > palette.MaxColors:
		return fmt.Errorf("invalid color count: %d", c.Colors)
	case c.Tile < 1 || c.Tile > gradient.MaxDimension/c.Colors:
		return fmt.Errorf("%w: tile size %d for %d colors", gradient.ErrInvalidDimension, c.Tile, c.Colors)
	}
	return nil
}

func (c *CLICmd) Run(logger *slog.Logger) error {
	logger = logger.With("file", c.Input, "method", c.Method)

	img, _, err := imgio.Load(c.Input)
	if err != nil {
		return err
	}

	cols, err := Extract(img, c.Colors, Method(c.Method))
	if err != nil {
		return fmt.Errorf("could not extract colors: %w", err)
	}
	if len(cols) == 0 {
		return fmt.Errorf("no colors extracted from %q", c.Input)
	}
	logger.Info("extracted", "colors", len(cols))

	if err := os.MkdirAll(filepath.Dir(c.Output), 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", filepath.Dir(c.Output), err)
	}

	if isPal(c.Output) {
		err = c.writePal(cols)
	} else {
		err = imgio.Save(Strip(cols, c.Tile), c.Output, "auto", c.Force)
	}
	if err != nil {
		return err
	}

	logger.Info("saved", "output", c.Output)

	if c.Preview != "" {
		logger.Info("applying palette", "colors", len(cols), "dither", c.Dither)
		if err := imgio.Save(Apply(img, cols, c.Dither), c.Preview, "auto", c.Force); err != nil {
			return err
		}
		logger.Info("saved", "preview", c.Preview)
	}
	return nil
}

func (c *CLICmd) writePal(cols []hslcolor.RGB) (err error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !c.Force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(c.Output, flags, 0o644)
	if err != nil {
		return fmt.Errorf("could not create palette %q: %w", c.Output, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("could not close palette %q: %w", c.Output, closeErr)
		}
	}()

	pal := make(color.Palette, len(cols))
	for i, col := range cols {
		pal[i] = col
	}
	if _, err := palette.WriteTo(f, []color.Palette{pal}); err != nil {
		return fmt.Errorf("could not write palette %q: %w", c.Output, err)
	}
	return nil
}

func isPal(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pal")
}
