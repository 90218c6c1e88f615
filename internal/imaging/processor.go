// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging normalizes uploaded cover images: it decodes them,
// applies EXIF orientation, and produces resized variants ready to be
// written to object storage.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// VariantConfig describes a resized image variant.
type VariantConfig struct {
	Width   int
	Height  int
	Quality int
	Crop    bool
}

// CoverVariants are the variants produced for book covers (portrait).
var CoverVariants = map[string]VariantConfig{
	"cover": {Width: 600, Height: 900, Quality: 90, Crop: true},
	"thumb": {Width: 240, Height: 360, Quality: 85, Crop: true},
}

// FeaturedVariants are the variants produced for blog featured images
// (landscape, sized for cards and social previews).
var FeaturedVariants = map[string]VariantConfig{
	"featured": {Width: 1200, Height: 630, Quality: 85, Crop: true},
	"thumb":    {Width: 480, Height: 252, Quality: 85, Crop: true},
}

// Image is a decoded, orientation-corrected image.
type Image struct {
	img    image.Image
	format string
}

// Width returns the image width in pixels.
func (im *Image) Width() int { return im.img.Bounds().Dx() }

// Height returns the image height in pixels.
func (im *Image) Height() int { return im.img.Bounds().Dy() }

// MimeType returns the MIME type of the original format.
func (im *Image) MimeType() string {
	switch im.format {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// Process decodes an uploaded image and applies its EXIF orientation.
// TIFF input is rejected (CVE-2023-36308 in disintegration/imaging).
func Process(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	orientation := readExifOrientation(bytes.NewReader(data))
	img = applyOrientation(img, orientation)

	return &Image{img: img, format: format}, nil
}

// Encode re-encodes the image in its original format. Encoding strips
// EXIF metadata; WebP input is written as JPEG since pure Go has no
// WebP encoder.
func (im *Image) Encode(quality int) ([]byte, error) {
	return encodeImage(im.img, im.format, quality)
}

// Variant produces a resized variant as JPEG bytes and returns the
// final dimensions. Crop fills the exact target size from the center;
// otherwise the image is fit within the bounds preserving aspect ratio.
// Returns nil data when the source is already smaller than the target
// and no crop is requested.
func (im *Image) Variant(cfg VariantConfig) ([]byte, int, int, error) {
	srcWidth := im.Width()
	srcHeight := im.Height()

	if srcWidth <= cfg.Width && srcHeight <= cfg.Height && !cfg.Crop {
		return nil, 0, 0, nil
	}

	var resized image.Image
	if cfg.Crop {
		resized = imaging.Fill(im.img, cfg.Width, cfg.Height, imaging.Center, imaging.Lanczos)
	} else {
		resized = imaging.Fit(im.img, cfg.Width, cfg.Height, imaging.Lanczos)
	}

	bounds := resized.Bounds()
	data, err := encodeImage(resized, "jpeg", cfg.Quality)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode variant: %w", err)
	}

	return data, bounds.Dx(), bounds.Dy(), nil
}

// Variants produces every variant in configs, keyed by variant name.
// Variants skipped because the source is too small are omitted.
func (im *Image) Variants(configs map[string]VariantConfig) (map[string][]byte, error) {
	results := make(map[string][]byte, len(configs))
	for name, cfg := range configs {
		data, _, _, err := im.Variant(cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if data != nil {
			results[name] = data
		}
	}
	return results, nil
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
// Orientation values:
// 1: Normal
// 2: Flip horizontal
// 3: Rotate 180°
// 4: Flip vertical
// 5: Rotate 90° CW + flip horizontal
// 6: Rotate 90° CW
// 7: Rotate 90° CCW + flip horizontal
// 8: Rotate 90° CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage encodes an image to bytes with the specified format and quality.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		// JPEG, and WebP re-encoded as JPEG
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}
