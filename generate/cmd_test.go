package generate

import (
	"errors"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"
	"testing"

	"gradientgen/gradient"
	"gradientgen/imgio"
)

func writeSource(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := range 2 {
		for x := range 4 {
			v := uint8((y*4 + x) * 30)
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	if err := imgio.Save(img, path, "auto", false); err != nil {
		t.Fatal(err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	writeSource(t, src)

	cmd := CLICmd{
		Input:   src,
		Output:  filepath.Join(dir, "out", "gradient.bmp"),
		Height:  4,
		Mapping: "reference",
		Format:  "auto",
	}
	if err := cmd.Validate(nil); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(slog.New(slog.DiscardHandler)); err != nil {
		t.Fatal(err)
	}

	out, imgType, err := imgio.Load(cmd.Output)
	if err != nil {
		t.Fatal(err)
	}
	if imgType != "bmp" {
		t.Errorf("type = %q, want bmp", imgType)
	}
	if b := out.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Fatalf("bounds = %v, want 4x4", b)
	}
	// Rows map to indices 0, 2, 4 and 6 of the sorted grays.
	for y, want := range []uint8{0, 60, 120, 180} {
		c := color.NRGBAModel.Convert(out.At(3, y)).(color.NRGBA)
		if c.R != want || c.G != want || c.B != want {
			t.Errorf("row %d = %v, want gray %d", y, c, want)
		}
	}

	// A second run must not clobber the first one.
	if err := cmd.Run(slog.New(slog.DiscardHandler)); !errors.Is(err, imgio.ErrExists) {
		t.Errorf("Run error = %v, want %v", err, imgio.ErrExists)
	}
	cmd.Force = true
	if err := cmd.Run(slog.New(slog.DiscardHandler)); err != nil {
		t.Errorf("Run with force: %v", err)
	}
}

func TestRunTallerThanSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	writeSource(t, src)

	cmd := CLICmd{
		Input:   src,
		Output:  filepath.Join(dir, "out.png"),
		Height:  9,
		Mapping: "reference",
		Format:  "auto",
	}
	if err := cmd.Validate(nil); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(slog.New(slog.DiscardHandler)); !errors.Is(err, gradient.ErrIndexOutOfRange) {
		t.Errorf("Run error = %v, want %v", err, gradient.ErrIndexOutOfRange)
	}

	cmd.Mapping = "proportional"
	if err := cmd.Validate(nil); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(slog.New(slog.DiscardHandler)); err != nil {
		t.Errorf("Run with proportional mapping: %v", err)
	}
}

func TestRenderEmptySource(t *testing.T) {
	tests := []struct {
		name string
		cmd  CLICmd
		img  image.Image
	}{
		{name: "zero width source", img: image.NewRGBA(image.Rect(0, 0, 0, 3))},
		{name: "zero height source", img: image.NewRGBA(image.Rect(0, 0, 3, 0))},
		{name: "explicit dimensions", cmd: CLICmd{Width: 4, Height: 4}, img: image.NewRGBA(image.Rect(2, 2, 2, 2))},
		{name: "nil source", img: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cmd.render(slog.New(slog.DiscardHandler), tt.img); !errors.Is(err, gradient.ErrNoSourceImage) {
				t.Errorf("render error = %v, want %v", err, gradient.ErrNoSourceImage)
			}
		})
	}
}

func TestRenderDefaultsToSourceSize(t *testing.T) {
	src := image.NewRGBA(image.Rect(1, 1, 4, 3))

	out, err := (&CLICmd{}).render(slog.New(slog.DiscardHandler), src)
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("bounds = %v, want 3x2", b)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cmd  CLICmd
	}{
		{name: "negative width", cmd: CLICmd{Output: "a.png", Width: -1, Format: "auto"}},
		{name: "huge height", cmd: CLICmd{Output: "a.png", Height: gradient.MaxDimension + 1, Format: "auto"}},
		{name: "unknown extension", cmd: CLICmd{Output: "a.xyz", Format: "auto"}},
		{name: "unknown mapping", cmd: CLICmd{Output: "a.png", Format: "auto", Mapping: "sideways"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.Input = "src.png"
			if err := tt.cmd.Validate(nil); err == nil {
				t.Error("Validate succeeded")
			}
		})
	}
}
