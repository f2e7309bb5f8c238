package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encoding test jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return buf.Bytes()
}

func TestProcessScanJPEG(t *testing.T) {
	scan, err := ProcessScan(bytes.NewReader(encodeJPEG(t, 200, 300)))
	if err != nil {
		t.Fatalf("ProcessScan: %v", err)
	}
	if scan.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", scan.MIME)
	}
	if len(scan.Data) == 0 {
		t.Error("expected non-empty scan data")
	}
}

func TestProcessScanPNGBecomesJPEG(t *testing.T) {
	scan, err := ProcessScan(bytes.NewReader(encodePNG(t, 200, 300)))
	if err != nil {
		t.Fatalf("ProcessScan: %v", err)
	}
	if scan.MIME != "image/jpeg" {
		t.Errorf("expected png input re-encoded as jpeg, got %s", scan.MIME)
	}
}

func TestProcessScanDownscales(t *testing.T) {
	scan, err := ProcessScan(bytes.NewReader(encodeJPEG(t, 2400, 3200)))
	if err != nil {
		t.Fatalf("ProcessScan: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(scan.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		t.Errorf("expected max %dpx, got %dx%d", MaxDimension, bounds.Dx(), bounds.Dy())
	}
	// Aspect ratio (3:4) survives the downscale.
	if bounds.Dy() != MaxDimension || bounds.Dx() != 1200 {
		t.Errorf("expected 1200x1600, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestProcessScanKeepsSmallImages(t *testing.T) {
	scan, err := ProcessScan(bytes.NewReader(encodeJPEG(t, 640, 480)))
	if err != nil {
		t.Fatalf("ProcessScan: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(scan.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if img.Bounds().Dx() != 640 || img.Bounds().Dy() != 480 {
		t.Errorf("small scan should not be resized, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestProcessScanRejectsNonImages(t *testing.T) {
	if _, err := ProcessScan(bytes.NewReader([]byte("%PDF-1.4 not an image"))); err == nil {
		t.Error("expected an error for non-image data")
	}
	if _, err := ProcessScan(bytes.NewReader([]byte("GIF89a..."))); err == nil {
		t.Error("expected an error for gif data")
	}
}
