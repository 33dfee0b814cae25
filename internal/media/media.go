// Package media stores uploaded blog cover images and derives their
// thumbnails.
package media

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	apperrors "github.com/shahriarsany/portfolio/backend/internal/errors"
	"github.com/shahriarsany/portfolio/backend/internal/logging"
	"github.com/shahriarsany/portfolio/backend/internal/uuid"
)

// Thumbnails fit inside this box, aspect ratio preserved.
const (
	thumbnailWidth  = 400
	thumbnailHeight = 400
)

// Extensions accepted for upload. The stored name is normalized, so
// ".jpeg" becomes ".jpg".
var allowedExtensions = map[string]string{
	".jpg":  ".jpg",
	".jpeg": ".jpg",
	".png":  ".png",
	".gif":  ".gif",
	".webp": ".webp",
}

// Upload describes one stored cover image.
type Upload struct {
	Name          string `json:"name"`
	ThumbnailName string `json:"thumbnail_name"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
}

// Store writes cover images under a single directory.
type Store struct {
	dir    string
	logger *logging.Logger
}

// NewStore creates the media directory if needed.
func NewStore(dir string, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUploadFailed, "failed to create media directory", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the directory uploads are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Save validates and stores an uploaded image, then writes a JPEG
// thumbnail next to it. The original bytes are kept as-is; only the
// thumbnail is re-encoded.
func (s *Store) Save(r io.Reader, originalName string) (*Upload, error) {
	ext, ok := allowedExtensions[strings.ToLower(filepath.Ext(originalName))]
	if !ok {
		return nil, apperrors.New(apperrors.ErrUploadFailed,
			fmt.Sprintf("unsupported image type %q", filepath.Ext(originalName)))
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUploadFailed, "failed to read upload", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUploadFailed, "not a decodable image", err)
	}

	id := uuid.New()
	name := id + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), raw, 0o644); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUploadFailed, "failed to store image", err)
	}

	thumb := imaging.Fit(img, thumbnailWidth, thumbnailHeight, imaging.Lanczos)
	thumbName := id + "_thumb.jpg"
	if err := imaging.Save(thumb, filepath.Join(s.dir, thumbName), imaging.JPEGQuality(85)); err != nil {
		// Keep the original; the thumbnail can be regenerated.
		s.logger.Error("thumbnail generation failed", err, map[string]interface{}{"name": name})
		thumbName = ""
	}

	bounds := img.Bounds()
	s.logger.Info("cover image stored", map[string]interface{}{
		"name":   name,
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
	})
	return &Upload{
		Name:          name,
		ThumbnailName: thumbName,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
	}, nil
}

// Remove deletes a stored image and its thumbnail. Missing files are
// not an error.
func (s *Store) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return apperrors.New(apperrors.ErrInvalid, "bad media name")
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(apperrors.ErrUploadFailed, "failed to remove image", err)
	}

	ext := filepath.Ext(name)
	thumb := strings.TrimSuffix(name, ext) + "_thumb.jpg"
	if err := os.Remove(filepath.Join(s.dir, thumb)); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(apperrors.ErrUploadFailed, "failed to remove thumbnail", err)
	}
	return nil
}
