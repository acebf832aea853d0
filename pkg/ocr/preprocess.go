// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// PreprocessOptions controls image preparation before recognition.
type PreprocessOptions struct {
	Grayscale bool
	Contrast  float64 // -1..1; 0 leaves contrast unchanged
	Threshold int     // 1..255 binarises the image; 0 disables
}

// Enabled reports whether any transformation is requested.
func (o PreprocessOptions) Enabled() bool {
	return o.Grayscale || o.Contrast != 0 || o.Threshold > 0
}

// Preprocess decodes data, applies EXIF orientation and the requested
// adjustments, and re-encodes the result as PNG.
func Preprocess(data []byte, opts PreprocessOptions) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = Apply(img, opts)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Apply runs the adjustments of opts on an already decoded image.
func Apply(img image.Image, opts PreprocessOptions) image.Image {
	if opts.Grayscale {
		img = imaging.Grayscale(img)
	}
	if opts.Contrast != 0 {
		img = adjust.Contrast(img, clamp(opts.Contrast, -1, 1))
	}
	if opts.Threshold > 0 {
		level := opts.Threshold
		if level > 255 {
			level = 255
		}
		img = segment.Threshold(img, uint8(level))
	}
	return img
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
