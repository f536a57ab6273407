// Package imaging decodes uploads, resizes them for detection and re-encodes results.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	_ "image/gif"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmpty    = errors.New("empty image payload")
	ErrTooLarge = errors.New("image dimensions exceed limit")
)

const (
	jpegQuality = 90

	// DefaultMaxPixels applies when Decode is given a non-positive limit.
	DefaultMaxPixels = 50_000_000
)

// Decode returns the image and the registered format name ("jpeg", "png", "gif", "webp", "bmp", "tiff").
// The header is checked first so images declaring more than maxPixels pixels are
// rejected before any pixel buffer is allocated.
func Decode(data []byte, maxPixels int64) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("decode image: empty dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width) > maxPixels/int64(cfg.Height) {
		return nil, "", fmt.Errorf("%w: %dx%d > %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("decode image: empty bounds %v", b)
	}
	return img, format, nil
}

func ContentType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}

// Encode writes img in format when an encoder exists for it and falls back to PNG
// otherwise. It returns the content type actually written.
func Encode(w io.Writer, img image.Image, format string) (string, error) {
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case "bmp":
		err = bmp.Encode(w, img)
	case "tiff":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		format = "png"
		err = png.Encode(w, img)
	}
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", format, err)
	}
	return ContentType(format), nil
}

// Fit downscales img so neither side exceeds maxDim, keeping the aspect ratio.
// It returns the image and the factor applied (1 when untouched).
func Fit(img image.Image, maxDim int) (image.Image, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img, 1
	}
	scale := math.Min(float64(maxDim)/float64(w), float64(maxDim)/float64(h))
	dw := max(1, int(math.Round(float64(w)*scale)))
	dh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst, scale
}

// ToRGBA copies img into a fresh RGBA canvas whose origin is (0,0).
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
