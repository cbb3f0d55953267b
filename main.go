package main

import (
	"log/slog"
	"os"

	"gradientgen/batch"
	"gradientgen/generate"
	"gradientgen/swatch"

	"github.com/alecthomas/kong"
)

var cli struct {
	LogLevel string `help:"Log level" enum:"debug,info,warn,error" default:"info" env:"GRADIENTGEN_LOG_LEVEL"`

	Generate generate.CLICmd `cmd:"" help:"Render the lightness gradient of one image"`
	Batch    batch.CLICmd    `cmd:"" help:"Render gradients for every image in a folder"`
	Swatch   swatch.CLICmd   `cmd:"" help:"Extract a few representative colors of an image"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("gradientgen"),
		kong.Description("Lightness sorted gradients from images."),
		kong.UsageOnError(),
	)

	var level slog.Level
	if err := level.UnmarshalText([]byte(cli.LogLevel)); err != nil {
		ctx.FatalIfErrorf(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx.FatalIfErrorf(ctx.Run(logger))
}
