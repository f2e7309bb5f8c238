// Package imaging validates and normalizes uploaded prescription scans.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxDimension is the maximum width or height of a stored scan. Kept high
// enough that prescription text stays legible for later extraction.
const MaxDimension = 1600

// JPEGQuality is the compression quality for stored scans.
const JPEGQuality = 85

// MaxScanBytes caps the accepted upload size.
const MaxScanBytes = 10 << 20

// ErrScanTooLarge is returned for uploads over MaxScanBytes.
var ErrScanTooLarge = errors.New("scan exceeds maximum upload size")

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Scan is a processed prescription scan ready for storage.
type Scan struct {
	Data []byte
	MIME string
}

// ProcessScan reads an uploaded scan, validates the format by sniffing
// bytes, downscales oversized images and re-encodes as JPEG. The MIME
// type is detected from content, client headers are not trusted.
func ProcessScan(r io.Reader) (*Scan, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxScanBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading scan data: %w", err)
	}
	if len(data) > MaxScanBytes {
		return nil, ErrScanTooLarge
	}

	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported scan format %s, only JPEG and PNG are accepted", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding scan: %w", err)
	}

	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding scan: %w", err)
	}

	return &Scan{Data: buf.Bytes(), MIME: "image/jpeg"}, nil
}

// downscale resizes the image so neither dimension exceeds maxDim,
// preserving aspect ratio. Images already within bounds are returned
// unchanged, scans are never upscaled.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
