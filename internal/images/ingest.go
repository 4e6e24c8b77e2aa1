// Package images persists uploaded product images under a per-product
// directory and maps them to web-relative URLs.
package images

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/superior-pamerca/admin-api/internal/auditlog"
	"github.com/superior-pamerca/admin-api/internal/config"
	"github.com/superior-pamerca/admin-api/internal/metrics"
	apperrors "github.com/superior-pamerca/admin-api/pkg/errors"
)

// Ingest validates and stores uploaded image files
type Ingest struct {
	cfg    *config.UploadsConfig
	logger *logrus.Logger
	audit  *auditlog.Logger

	// injectable for filename tests
	now func() time.Time
}

// New creates an image ingest rooted at the configured uploads dir
func New(cfg *config.UploadsConfig, logger *logrus.Logger, audit *auditlog.Logger) *Ingest {
	return &Ingest{
		cfg:    cfg,
		logger: logger,
		audit:  audit,
		now:    time.Now,
	}
}

// RemoveAllResult aggregates a best-effort bulk delete
type RemoveAllResult struct {
	Deleted int      `json:"deleted"`
	Errors  []string `json:"errors"`
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Store validates and persists one uploaded image, returning its
// web-relative URL (/uploads/<collection>/<productID>/<filename>).
func (i *Ingest) Store(fileBytes []byte, fileName, mimeType string, productID string) (string, error) {
	size := int64(len(fileBytes))

	if size == 0 {
		metrics.RecordUpload("rejected", 0)
		return "", apperrors.Newf(apperrors.CodeValidation, nil, "file %q is empty", fileName)
	}

	if size > i.cfg.MaxSizeBytes {
		metrics.RecordUpload("rejected", 0)
		return "", apperrors.Newf(apperrors.CodeValidation, nil,
			"file %q exceeds the maximum size of %dMB", fileName, i.cfg.MaxSizeBytes/(1024*1024))
	}

	if !strings.HasPrefix(mimeType, "image/") {
		metrics.RecordUpload("rejected", 0)
		return "", apperrors.Newf(apperrors.CodeValidation, nil, "file %q is not an image (type %s)", fileName, mimeType)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext != "" && !contains(i.cfg.AllowedExtensions(), ext) {
		metrics.RecordUpload("rejected", 0)
		return "", apperrors.Newf(apperrors.CodeValidation, nil,
			"file type not allowed, valid extensions: %s", strings.Join(i.cfg.AllowedExtensions(), ", "))
	}
	if ext == "" {
		ext = i.cfg.DefaultExt
	}

	productDir := i.productDir(productID)
	if err := os.MkdirAll(productDir, 0o755); err != nil {
		metrics.RecordUpload("failure", 0)
		return "", apperrors.Newf(apperrors.CodeIO, err, "failed to create upload directory %s", productDir)
	}

	// Explicit writability probe so permission problems produce an
	// actionable message instead of a bare write failure.
	if err := checkWritable(productDir); err != nil {
		metrics.RecordUpload("failure", 0)
		return "", apperrors.Newf(apperrors.CodeIO, err,
			"upload directory %s is not writable, run: chmod -R 755 %s", productDir, i.cfg.Dir)
	}

	name := i.uniqueFileName(fileName, ext)
	path := filepath.Join(productDir, name)

	if err := os.WriteFile(path, fileBytes, 0o644); err != nil {
		metrics.RecordUpload("failure", 0)
		return "", apperrors.Newf(apperrors.CodeIO, err, "failed to write %s", path)
	}

	// Re-stat the file: a write that produced a zero-byte or missing
	// file must be reported, not silently accepted.
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		os.Remove(path)
		metrics.RecordUpload("failure", 0)
		return "", apperrors.Newf(apperrors.CodeWriteVerification, err,
			"file %s missing or empty after write", path)
	}

	url := i.fileURL(productID, name)
	metrics.RecordUpload("success", size)
	i.audit.Info("imagen_guardada", fmt.Sprintf("Imagen guardada para producto %s: %s", productID, url), nil, "")

	return url, nil
}

// Remove maps a web-relative URL back to its file and deletes it,
// returning false (not an error) when the file is absent.
func (i *Ingest) Remove(url string) bool {
	path, ok := i.pathForURL(url)
	if !ok {
		return false
	}

	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			i.logger.WithError(err).WithField("path", path).Warn("Failed to delete image")
		}
		return false
	}

	i.audit.Info("imagen_eliminada", "Imagen eliminada: "+url, nil, "")
	return true
}

// RemoveAll best-effort deletes every file in the product's directory,
// then tries to remove the directory itself. Partial failures are
// collected, never fatal.
func (i *Ingest) RemoveAll(productID string) RemoveAllResult {
	result := RemoveAllResult{Errors: []string{}}

	productDir := i.productDir(productID)
	files, err := os.ReadDir(productDir)
	if err != nil {
		if os.IsNotExist(err) {
			return result
		}
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read %s: %v", productDir, err))
		return result
	}

	for _, file := range files {
		path := filepath.Join(productDir, file.Name())
		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to delete %s: %v", file.Name(), err))
			continue
		}
		result.Deleted++
	}

	if err := os.Remove(productDir); err != nil && !os.IsNotExist(err) {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to remove directory: %v", err))
	}

	i.audit.Info("imagenes_producto_eliminadas",
		fmt.Sprintf("Eliminadas %d imágenes para el producto %s (%d errores)", result.Deleted, productID, len(result.Errors)),
		nil, "")

	return result
}

var placeholderPatterns = regexp.MustCompile(`(?i)placeholder|example|ejemplo|sample|muestra|test|demo|dummy`)

// IsPlaceholder reports whether an image URL looks like seeded demo data
func IsPlaceholder(url string) bool {
	return placeholderPatterns.MatchString(url)
}

// uniqueFileName derives a collision-resistant filename: sanitized
// lower-cased base capped at the configured length, millisecond
// timestamp, and a short random suffix for same-millisecond uploads.
func (i *Ingest) uniqueFileName(fileName, ext string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	base = nonAlphanumeric.ReplaceAllString(strings.ToLower(base), "-")
	base = strings.Trim(base, "-")
	if len(base) > i.cfg.MaxNameLength {
		base = base[:i.cfg.MaxNameLength]
	}
	if base == "" {
		base = "imagen"
	}

	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s-%d-%s%s", base, i.now().UnixMilli(), suffix, ext)
}

func (i *Ingest) productDir(productID string) string {
	return filepath.Join(i.cfg.Dir, "productos", productID)
}

func (i *Ingest) fileURL(productID, fileName string) string {
	return fmt.Sprintf("%s/productos/%s/%s", i.cfg.URLPrefix, productID, fileName)
}

// pathForURL maps /uploads/... back under the uploads dir, refusing
// URLs outside the prefix or containing traversal segments.
func (i *Ingest) pathForURL(url string) (string, bool) {
	if !strings.HasPrefix(url, i.cfg.URLPrefix+"/") {
		return "", false
	}
	rel := strings.TrimPrefix(url, i.cfg.URLPrefix+"/")
	if strings.Contains(rel, "..") {
		return "", false
	}
	return filepath.Join(i.cfg.Dir, filepath.FromSlash(rel)), true
}

func checkWritable(dir string) error {
	probe, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return err
	}
	probe.Close()
	return os.Remove(probe.Name())
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
