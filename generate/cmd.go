// Package generate implements the single image gradient command.
package generate

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"gradientgen/gradient"
	"gradientgen/imgio"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Input   string `help:"Source image, or RIFF PAL file" required:"" type:"existingfile"`
	Output  string `help:"Destination image" required:""`
	Width   int    `help:"Output width. Defaults to the source width"`
	Height  int    `help:"Output height. Defaults to the source height"`
	Mapping string `help:"Row to palette index mapping" enum:"reference,proportional" default:"reference"`
	Format  string `help:"Output format. 'auto' derives it from the output extension" enum:"auto,png,jpeg,gif,bmp,tiff" default:"auto"`
	Force   bool   `help:"Overwrite an existing output file" default:"false"`

	mapping gradient.Mapping `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	var err error
	if c.Input, err = filepath.Abs(c.Input); err != nil {
		return fmt.Errorf("invalid input path: %w", err)
	}
	if c.Output, err = filepath.Abs(c.Output); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	if c.Format == "auto" {
		if _, err := imgio.FormatFromPath(c.Output); err != nil {
			return err
		}
	}

	switch {
	case c.Width < 0 || c.Width > gradient.MaxDimension:
		return fmt.Errorf("%w: width %d", gradient.ErrInvalidDimension, c.Width)
	case c.Height < 0 || c.Height > gradient.MaxDimension:
		return fmt.Errorf("%w: height %d", gradient.ErrInvalidDimension, c.Height)
	}

	c.mapping, err = gradient.ParseMapping(c.Mapping)
	return err
}

func (c *CLICmd) Run(logger *slog.Logger) error {
	logger = logger.With("file", c.Input)

	img, imgType, err := imgio.Load(c.Input)
	if err != nil {
		return err
	}

	logger.Info("generating", "type", imgType, "mapping", c.mapping)

	out, err := c.render(logger, img)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.Output), 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", filepath.Dir(c.Output), err)
	}
	if err := imgio.Save(out, c.Output, c.Format, c.Force); err != nil {
		return err
	}

	logger.Info("saved", "output", c.Output)
	return nil
}

// render runs one Generate call, sizing the output like the source unless
// explicit dimensions were given.
func (c *CLICmd) render(logger *slog.Logger, img image.Image) (*image.RGBA, error) {
	width, height := c.Width, c.Height
	if img != nil {
		b := img.Bounds()
		if width == 0 {
			width = b.Dx()
		}
		if height == 0 {
			height = b.Dy()
		}
	}

	g := gradient.Generator{Mapping: c.mapping, Logger: logger}
	return g.Generate(img, width, height)
}
