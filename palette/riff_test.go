package palette

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/color"
	"io"
	"testing"
)

func TestWriteReadRIFF(t *testing.T) {
	pals := []color.Palette{
		{color.RGBA{1, 2, 3, 255}, color.RGBA{250, 128, 0, 255}},
		{color.NRGBA{9, 8, 7, 0x80}},
	}

	var buf bytes.Buffer
	n, err := WriteTo(&buf, pals)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo returned %d, wrote %d bytes", n, buf.Len())
	}
	// RIFF size excludes the 8 byte RIFF header.
	if size := binary.LittleEndian.Uint32(buf.Bytes()[4:8]); int(size) != buf.Len()-8 {
		t.Errorf("RIFF size = %d, want %d", size, buf.Len()-8)
	}

	got, err := ReadFrom(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}

	want := []color.Palette{
		{color.RGBA{1, 2, 3, 255}, color.RGBA{250, 128, 0, 255}},
		{color.RGBA{9, 8, 7, 255}},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d palettes, want %d", len(got), len(want))
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			t.Fatalf("palette %d has %d colors, want %d", i, len(got[i]), len(want[i]))
		}
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("palette %d color %d = %v, want %v", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestWriteTooManyColors(t *testing.T) {
	pal := make(color.Palette, 1<<16)
	for i := range pal {
		pal[i] = color.Black
	}

	_, err := WriteTo(io.Discard, []color.Palette{pal})
	if !errors.Is(err, ErrTooManyColors) {
		t.Errorf("WriteTo error = %v, want %v", err, ErrTooManyColors)
	}
}

func TestReadWrongForm(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(4))
	buf.WriteString("WAVE")

	if _, err := ReadFrom(&buf); err == nil {
		t.Error("ReadFrom accepted a WAVE stream")
	}
}

func TestReadBadVersion(t *testing.T) {
	var buf bytes.Buffer
	if _, err := WriteTo(&buf, []color.Palette{{color.White}}); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	b[20], b[21] = 0x00, 0x01 // palVersion follows the RIFF header, form type and chunk header

	if _, err := ReadFrom(bytes.NewReader(b)); err == nil {
		t.Error("ReadFrom accepted an unknown palette version")
	}
}
