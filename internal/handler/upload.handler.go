package handler

import (
	"fmt"
	stdimage "image"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"ride-backend/internal/config"
	"ride-backend/pkg/image"
	"ride-backend/pkg/xerrors"

	"github.com/google/uuid"
)

const uploadURLPrefix = "/api/uploads"

// diskPath maps a stored public path back onto the upload dir.
func diskPath(cfg *config.Config, publicPath string) string {
	rel := strings.TrimPrefix(publicPath, uploadURLPrefix+"/")
	return filepath.Join(cfg.UploadDir, filepath.FromSlash(rel))
}

func isAllowedImageExt(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}

// saveImage decodes, resizes and re-encodes the upload as JPEG under
// uploadDir/subdir, returning the public path it will be served from.
func saveImage(cfg *config.Config, file multipart.File, header *multipart.FileHeader, subdir string) (string, error) {
	if !isAllowedImageExt(header.Filename) {
		return "", fmt.Errorf("%w: only JPG, PNG and GIF images are allowed", xerrors.ErrInvalidRequest)
	}

	img, format, err := stdimage.Decode(file)
	if err != nil {
		return "", fmt.Errorf("%w: invalid image file", xerrors.ErrInvalidRequest)
	}
	log.Printf("[UPLOAD] Image received: %s (%d bytes, %s)", header.Filename, header.Size, format)

	dir := filepath.Join(cfg.UploadDir, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	filename := uuid.New().String() + ".jpg"
	if err := image.CompressAndSave(img, filepath.Join(dir, filename), 800, 800, 80); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", uploadURLPrefix, subdir, filename), nil
}

// saveDocument stores the upload verbatim, keeping the original extension.
func saveDocument(cfg *config.Config, file multipart.File, header *multipart.FileHeader, subdir string) (string, error) {
	dir := filepath.Join(cfg.UploadDir, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	filename := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", uploadURLPrefix, subdir, filename), nil
}

// removeFiles is best-effort disk cleanup for paths already dropped from the
// database.
func removeFiles(cfg *config.Config, publicPaths []string) {
	for _, p := range publicPaths {
		if err := os.Remove(diskPath(cfg, p)); err != nil && !os.IsNotExist(err) {
			log.Printf("[UPLOAD] Failed to remove %s: %v", p, err)
		}
	}
}

// formPtr distinguishes an absent multipart field from an empty one, so
// updates can be partial.
func formPtr(form *multipart.Form, name string) *string {
	if form == nil {
		return nil
	}
	if vals, ok := form.Value[name]; ok && len(vals) > 0 {
		return &vals[0]
	}
	return nil
}

// splitCSV turns "a, b,c" into ["a","b","c"], dropping empties.
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
