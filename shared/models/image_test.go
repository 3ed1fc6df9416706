package models

import (
	"math/rand"
	"testing"
)

func TestImageDataPNGRoundTrip(t *testing.T) {
	width, height := 4, 3
	pixels := make([]byte, width*height*4)
	r := rand.New(rand.NewSource(1))
	r.Read(pixels)
	// Fully opaque, so NRGBA normalization can't alter color channels.
	for i := 3; i < len(pixels); i += 4 {
		pixels[i] = 255
	}

	img := ImageData{Width: width, Height: height, Pixels: pixels}
	png, err := img.ToPNG()
	if err != nil {
		t.Fatalf("ToPNG: %v", err)
	}

	got, err := ImageDataFromPNG(png)
	if err != nil {
		t.Fatalf("ImageDataFromPNG: %v", err)
	}
	if got.Width != img.Width || got.Height != img.Height {
		t.Fatalf("dimensions mismatch: got %dx%d, want %dx%d", got.Width, got.Height, img.Width, img.Height)
	}
	for i := range pixels {
		if got.Pixels[i] != pixels[i] {
			t.Fatalf("pixel byte %d mismatch: got %d, want %d", i, got.Pixels[i], pixels[i])
		}
	}
}

func TestToPNGRejectsMismatchedBuffer(t *testing.T) {
	img := ImageData{Width: 2, Height: 2, Pixels: []byte{1, 2, 3}}
	if _, err := img.ToPNG(); err == nil {
		t.Fatalf("expected error for undersized pixel buffer")
	}
}
