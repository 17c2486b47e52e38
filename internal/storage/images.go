// Package storage keeps uploaded post illustrations on local disk.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaDir        = "media"
	DefaultMaxUploadSizeMB = 5
	MaxDimension           = 1600
	WebPQuality            = 80

	// postsSubdir is where post images live, relative to the media root.
	postsSubdir = "posts"
)

// Upload is an image received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImageStore validates, re-encodes and persists post images.
type ImageStore struct {
	root               string
	maxUploadSizeBytes int64
}

// NewImageStore builds an ImageStore rooted at cfg.MediaDir.
func NewImageStore(cfg *config.Config) *ImageStore {
	root := DefaultMediaDir
	maxMB := DefaultMaxUploadSizeMB
	if cfg != nil {
		if cfg.MediaDir != "" {
			root = cfg.MediaDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxMB = cfg.ImageMaxUploadSizeMB
		}
	}
	return &ImageStore{root: root, maxUploadSizeBytes: int64(maxMB) * 1024 * 1024}
}

// Root returns the directory media paths are relative to.
func (s *ImageStore) Root() string {
	return s.root
}

// StoredImage is the result of Save. Created is false when identical content
// was already on disk, possibly referenced by another post.
type StoredImage struct {
	Path    string
	Created bool
}

// Save decodes the upload, bounds it to MaxDimension, re-encodes it as WebP and
// writes it under posts/. Identical content from the same author maps to the
// same file.
func (s *ImageStore) Save(ctx context.Context, authorID uint, in Upload) (*StoredImage, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") &&
		!isMatchingContentType(provided, decodedFormatToMime(format)) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	encoded, err := encodeWebP(resizeToFit(decoded, MaxDimension, MaxDimension), WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	rel := path.Join(postsSubdir, contentHash(authorID, encoded)+".webp")
	created, err := writeIfMissing(filepath.Join(s.root, filepath.FromSlash(rel)), encoded)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(ctx, "post image stored",
		slog.String("path", rel),
		slog.Int("bytes", len(encoded)),
		slog.String("source_format", format),
		slog.Bool("created", created),
	)
	return &StoredImage{Path: rel, Created: created}, nil
}

// Remove deletes a stored image. A missing file is not an error.
func (s *ImageStore) Remove(ctx context.Context, rel string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+rel))))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	middleware.Logger.InfoContext(ctx, "post image removed", slog.String("path", rel))
	return nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if hs := float64(maxHeight) / float64(h); hs < scale {
		scale = hs
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func isMatchingContentType(provided, detected string) bool {
	if provided == "image/jpg" {
		provided = "image/jpeg"
	}
	return provided == detected
}

func decodedFormatToMime(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func contentHash(authorID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", authorID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// writeIfMissing writes data to p unless p already exists and reports whether
// it created the file.
func writeIfMissing(p string, data []byte) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return false, err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return false, err
	}
	return true, f.Close()
}
