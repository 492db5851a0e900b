// Package storage hosts uploaded attachments (AIP documents, proof images,
// completion certificates) on local disk or Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxUploadSize is the hard size ceiling applied to every attachment kind.
const MaxUploadSize = 10 << 20 // 10 MB

// ErrFileTooLarge is returned when an attachment exceeds MaxUploadSize.
var ErrFileTooLarge = fmt.Errorf("file exceeds the %d MB upload limit", MaxUploadSize>>20)

var allowedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true,
	".png": true, ".jpg": true, ".jpeg": true, ".webp": true,
}

// ErrUnsupportedType is returned for file extensions outside the allowed set.
var ErrUnsupportedType = errors.New("unsupported file type")

// Attachment describes a stored file.
type Attachment struct {
	URL          string
	PublicID     string
	Format       string
	Size         int64
	OriginalName string
}

// Uploader stores a single file and returns where it lives. Implementations
// must reject payloads over MaxUploadSize before writing anything.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, originalName string, size int64, folder string) (Attachment, error)
}

// validate applies the shared size and extension checks.
func validate(originalName string, size int64) (ext string, err error) {
	if size > MaxUploadSize {
		return "", ErrFileTooLarge
	}
	ext = strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	return ext, nil
}

// objectName builds a collision-free storage key under the folder.
func objectName(folder, ext string) string {
	return fmt.Sprintf("%s/%d_%s%s", folder, time.Now().UnixNano(), uuid.New().String()[:8], ext)
}

// LocalUploader writes files under a base directory and serves them from a
// public URL prefix. It is the development fallback when GCS is not
// configured.
type LocalUploader struct {
	BaseDir   string
	URLPrefix string
}

// NewLocalUploader ensures the base directory exists.
func NewLocalUploader(baseDir, urlPrefix string) (*LocalUploader, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalUploader{BaseDir: baseDir, URLPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (l *LocalUploader) Upload(ctx context.Context, r io.Reader, originalName string, size int64, folder string) (Attachment, error) {
	ext, err := validate(originalName, size)
	if err != nil {
		return Attachment{}, err
	}

	key := objectName(folder, ext)
	path := filepath.Join(l.BaseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Attachment{}, fmt.Errorf("failed to create folder: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	// LimitReader guards against callers understating the size.
	written, err := io.Copy(f, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		os.Remove(path)
		return Attachment{}, fmt.Errorf("failed to write file: %w", err)
	}
	if written > MaxUploadSize {
		os.Remove(path)
		return Attachment{}, ErrFileTooLarge
	}

	return Attachment{
		URL:          l.URLPrefix + "/" + key,
		PublicID:     key,
		Format:       strings.TrimPrefix(ext, "."),
		Size:         written,
		OriginalName: originalName,
	}, nil
}

// NewUploaderFromEnv picks GCS when USE_GCS=true or when running with cloud
// credentials, local disk otherwise.
func NewUploaderFromEnv(ctx context.Context) (Uploader, error) {
	useGCS := os.Getenv("USE_GCS") == "true" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" ||
		os.Getenv("K_SERVICE") != ""

	if useGCS {
		bucket := os.Getenv("GCS_BUCKET")
		if bucket == "" {
			return nil, errors.New("GCS_BUCKET must be set when GCS uploads are enabled")
		}
		up, err := NewGCSUploader(ctx, bucket)
		if err != nil {
			return nil, err
		}
		log.Printf("Attachment storage: GCS bucket %s", bucket)
		return up, nil
	}

	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "./uploads"
	}
	prefix := os.Getenv("UPLOAD_URL_PREFIX")
	if prefix == "" {
		prefix = "/uploads"
	}
	log.Printf("Attachment storage: local dir %s", dir)
	return NewLocalUploader(dir, prefix)
}
