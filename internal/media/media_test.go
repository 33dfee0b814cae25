package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/shahriarsany/portfolio/backend/internal/errors"
	"github.com/shahriarsany/portfolio/backend/internal/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logging.Init(io.Discard, logging.LevelError)
	store, err := NewStore(t.TempDir(), logging.Get())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

// pngBytes renders a solid test image.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestSave(t *testing.T) {
	store := newTestStore(t)

	upload, err := store.Save(bytes.NewReader(pngBytes(t, 800, 600)), "cover.PNG")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if upload.Width != 800 || upload.Height != 600 {
		t.Errorf("dimensions = %dx%d", upload.Width, upload.Height)
	}
	if !strings.HasSuffix(upload.Name, ".png") {
		t.Errorf("name = %q, want .png suffix", upload.Name)
	}

	if _, err := os.Stat(filepath.Join(store.Dir(), upload.Name)); err != nil {
		t.Errorf("stored image: %v", err)
	}

	thumb, err := imaging.Open(filepath.Join(store.Dir(), upload.ThumbnailName))
	if err != nil {
		t.Fatalf("open thumbnail: %v", err)
	}
	b := thumb.Bounds()
	if b.Dx() > thumbnailWidth || b.Dy() > thumbnailHeight {
		t.Errorf("thumbnail %dx%d exceeds fit box", b.Dx(), b.Dy())
	}
	// Aspect ratio survives the fit.
	if b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("thumbnail = %dx%d, want 400x300", b.Dx(), b.Dy())
	}
}

func TestSaveSmallImageNotUpscaled(t *testing.T) {
	store := newTestStore(t)

	upload, err := store.Save(bytes.NewReader(pngBytes(t, 120, 80)), "small.png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	thumb, err := imaging.Open(filepath.Join(store.Dir(), upload.ThumbnailName))
	if err != nil {
		t.Fatalf("open thumbnail: %v", err)
	}
	if b := thumb.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Errorf("thumbnail = %dx%d, want original 120x80", b.Dx(), b.Dy())
	}
}

func TestSaveRejections(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name     string
		data     []byte
		fileName string
	}{
		{"bad extension", pngBytes(t, 10, 10), "notes.txt"},
		{"not an image", []byte("plain text pretending"), "fake.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(bytes.NewReader(tt.data), tt.fileName)
			if !errors.Is(err, errors.ErrUploadFailed) {
				t.Errorf("got %v, want UPLOAD_FAILED", err)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)

	upload, err := store.Save(bytes.NewReader(pngBytes(t, 50, 50)), "cover.jpg.png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Remove(upload.Name); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), upload.Name)); !os.IsNotExist(err) {
		t.Errorf("image still present: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), upload.ThumbnailName)); !os.IsNotExist(err) {
		t.Errorf("thumbnail still present: %v", err)
	}

	// Removing twice is fine; path traversal is not.
	if err := store.Remove(upload.Name); err != nil {
		t.Errorf("second remove: %v", err)
	}
	if err := store.Remove("../escape.png"); !errors.Is(err, errors.ErrInvalid) {
		t.Errorf("traversal: got %v, want INVALID_INPUT", err)
	}
}
