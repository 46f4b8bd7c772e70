package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/erazemk/packtrack/internal/apperr"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func encodePNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, solid(w, h, color.RGBA{0, 0, 255, 255}))
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg output, got %s", format)
	}
	return cfg.Width, cfg.Height
}

func TestNormalizeJPEG(t *testing.T) {
	out, err := New(Options{}).Normalize(encodeJPEG(100, 100))
	if err != nil {
		t.Fatalf("Normalize JPEG: %v", err)
	}
	if w, h := decodedSize(t, out); w != 100 || h != 100 {
		t.Errorf("expected 100x100, got %dx%d", w, h)
	}
}

func TestNormalizePNGBecomesJPEG(t *testing.T) {
	out, err := New(Options{}).Normalize(encodePNG(100, 50))
	if err != nil {
		t.Fatalf("Normalize PNG: %v", err)
	}
	if w, h := decodedSize(t, out); w != 100 || h != 50 {
		t.Errorf("expected 100x50, got %dx%d", w, h)
	}
}

func TestNormalizeDownscales(t *testing.T) {
	n := New(Options{MaxDimension: 64})

	out, err := n.Normalize(encodePNG(256, 128))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if w, h := decodedSize(t, out); w != 64 || h != 32 {
		t.Errorf("expected 64x32, got %dx%d", w, h)
	}

	out, err = n.Normalize(encodeJPEG(100, 400))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if w, h := decodedSize(t, out); w != 16 || h != 64 {
		t.Errorf("expected 16x64, got %dx%d", w, h)
	}
}

func TestNormalizeRejectsOtherFormats(t *testing.T) {
	n := New(Options{})

	for _, data := range [][]byte{
		[]byte("this is not an image"),
		[]byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"),
		{},
	} {
		if _, err := n.Normalize(data); !apperr.Is(err, apperr.Validation) {
			t.Errorf("expected validation error, got %v", err)
		}
	}
}

func TestNormalizeAll(t *testing.T) {
	n := New(Options{})

	out, err := n.NormalizeAll([][]byte{encodeJPEG(10, 10), encodePNG(10, 10)})
	if err != nil {
		t.Fatalf("NormalizeAll: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected 2 images, got %d", len(out))
	}

	if _, err := n.NormalizeAll([][]byte{encodeJPEG(10, 10), []byte("junk")}); err == nil {
		t.Error("expected error for junk payload")
	}
}
