package models

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// ImageData is the transport-only representation of a clipboard image: raw
// RGBA pixels plus dimensions. It never reaches the index or the blob
// store in this form — only PNG-encoded bytes do. The hub's upload path
// stores the uploaded PNG bytes as received and does not decode them into
// an ImageData; this type carries the RGBA <-> PNG round trip on its own,
// exercised by tests independently of any HTTP request.
//
// WHY image/png from the standard library: no third-party PNG codec is
// available to this project. The closest candidates
// (sergeymakinen/go-bmp, sergeymakinen/go-ico, jackmordaunt/icns,
// nfnt/resize) convert between BMP/ICO/ICNS tray-icon formats and never
// touch PNG, so they cannot serve this concern — see DESIGN.md.
type ImageData struct {
	Width  int
	Height int
	Pixels []byte // 4 bytes (RGBA) per pixel, row-major
}

// ToPNG encodes the image as PNG bytes.
func (d ImageData) ToPNG() ([]byte, error) {
	if len(d.Pixels) != d.Width*d.Height*4 {
		return nil, fmt.Errorf("image data: pixel buffer length %d does not match %dx%d RGBA", len(d.Pixels), d.Width, d.Height)
	}
	img := image.NewNRGBA(image.Rect(0, 0, d.Width, d.Height))
	copy(img.Pix, d.Pixels)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("image data: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ImageDataFromPNG decodes PNG bytes into an ImageData, normalizing to NRGBA
// so the round trip `FromPNG(ToPNG(img)) == img` holds for any valid RGBA
// source image regardless of the PNG color model the encoder picked.
func ImageDataFromPNG(pngBytes []byte) (ImageData, error) {
	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return ImageData{}, fmt.Errorf("image data: decode png: %w", err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nrgba.Set(x, y, color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}
	return ImageData{Width: w, Height: h, Pixels: nrgba.Pix}, nil
}
