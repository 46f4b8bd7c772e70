// Package imaging normalises uploaded pack photos before they are stored.
package imaging

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/erazemk/packtrack/internal/apperr"
)

// Defaults applied when Options leave a field zero.
const (
	DefaultMaxDimension = 1024
	DefaultJPEGQuality  = 85
)

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Options controls normalisation.
type Options struct {
	MaxDimension int
	JPEGQuality  int
}

// Normalizer turns uploaded JPEG or PNG photos into bounded JPEGs.
type Normalizer struct {
	maxDim  int
	quality int
}

// New returns a Normalizer with opts applied over the defaults.
func New(opts Options) *Normalizer {
	n := &Normalizer{maxDim: DefaultMaxDimension, quality: DefaultJPEGQuality}
	if opts.MaxDimension > 0 {
		n.maxDim = opts.MaxDimension
	}
	if opts.JPEGQuality > 0 {
		n.quality = opts.JPEGQuality
	}
	return n
}

// Normalize sniffs the payload, downscales it so neither side exceeds the
// maximum dimension and re-encodes it as JPEG. Anything other than a
// decodable JPEG or PNG is a Validation error.
func (n *Normalizer) Normalize(data []byte) ([]byte, error) {
	// Client headers are not trusted.
	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, apperr.Validationf("unsupported image format %s, only JPEG and PNG are accepted", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Validationf("decoding image: %v", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fit(img, n.maxDim), &jpeg.Options{Quality: n.quality}); err != nil {
		return nil, apperr.Storage("encoding JPEG", err)
	}
	return buf.Bytes(), nil
}

// NormalizeAll normalises every payload, stopping at the first failure.
func (n *Normalizer) NormalizeAll(payloads [][]byte) ([][]byte, error) {
	out := make([][]byte, 0, len(payloads))
	for _, p := range payloads {
		data, err := n.Normalize(p)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

// fit scales img down with Catmull-Rom so that it fits in a maxDim square,
// keeping the aspect ratio. Smaller images are returned unchanged.
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
