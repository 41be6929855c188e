package testsupport

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

// pngPixel is a valid 1x1 transparent PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// PNGBytes returns a copy of a minimal valid PNG image.
func PNGBytes() []byte {
	return append([]byte(nil), pngPixel...)
}

// PNGDataURI returns the minimal PNG as a data URI.
func PNGDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngPixel)
}

// WritePNG writes the minimal PNG to path, creating parent directories.
func WritePNG(t testing.TB, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, pngPixel, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
