// Package batch generates a gradient for every image of a folder.
package batch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"gradientgen/gradient"
	"gradientgen/imgio"
	"gradientgen/parallel"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Scan    string `help:"Source folder to scan" default:"."`
	Dest    string `help:"Destination folder for gradients. Relative to scan dir if not absolute" default:"gradients"`
	Width   int    `help:"Output width" default:"5000"`
	Height  int    `help:"Output height" default:"5000"`
	Mapping string `help:"Row to palette index mapping" enum:"reference,proportional" default:"reference"`
	Format  string `help:"Output format" enum:"png,jpeg,gif,bmp,tiff" default:"png"`
	Workers int    `help:"Number of parallel workers. Defaults to the number of CPUs" default:"0"`
	Force   bool   `help:"Overwrite existing gradients" default:"false"`

	mapping gradient.Mapping `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	switch {
	case c.Width < 1 || c.Width > gradient.MaxDimension:
		return fmt.Errorf("%w: width %d", gradient.ErrInvalidDimension, c.Width)
	case c.Height < 1 || c.Height > gradient.MaxDimension:
		return fmt.Errorf("%w: height %d", gradient.ErrInvalidDimension, c.Height)
	case c.Workers < 0:
		return fmt.Errorf("invalid worker count: %d", c.Workers)
	}

	c.mapping, err = gradient.ParseMapping(c.Mapping)
	return err
}

func (c *CLICmd) Run(logger *slog.Logger) error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	pool := parallel.Start(c.Workers)
	logger.Info("scanning", "dir", c.Scan, "dest", c.Dest, "workers", pool.Workers())

	var processedCount, errCount atomic.Uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		fileName := file.Name()
		pool.Go(func() error {
			filePath := filepath.Join(c.Scan, fileName)
			fileLog := logger.With("file", filePath)

			if err := c.process(fileLog, filePath); err != nil {
				errCount.Add(1)
				fileLog.Error("could not generate gradient", "error", err)
				return fmt.Errorf("%s: %w", fileName, err)
			}
			processedCount.Add(1)
			return nil
		})
	}

	err = pool.Wait()

	processed := processedCount.Load()
	errors := errCount.Load()
	logger.Info("stats", "processed", processed, "errors", errors,
		"total", processed+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d files: %w", errors, err)
	}
	return nil
}

func (c *CLICmd) process(logger *slog.Logger, filePath string) error {
	img, _, err := imgio.Load(filePath)
	if err != nil {
		return err
	}

	g := gradient.Generator{Mapping: c.mapping, Logger: logger}
	out, err := g.Generate(img, c.Width, c.Height)
	if err != nil {
		return err
	}

	return imgio.Save(out, c.destPath(filePath), c.Format, c.Force)
}

func (c *CLICmd) destPath(filePath string) string {
	name := filepath.Base(filePath)
	name = name[:len(name)-len(filepath.Ext(name))]
	return filepath.Join(c.Dest, name+imgio.Ext(c.Format))
}
