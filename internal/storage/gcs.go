package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSUploader stores attachments as public objects in a Cloud Storage
// bucket.
type GCSUploader struct {
	client *gcs.Client
	bucket string
}

// NewGCSUploader creates the client. A service account key file is used when
// GOOGLE_APPLICATION_CREDENTIALS points at one, otherwise ambient
// credentials apply.
func NewGCSUploader(ctx context.Context, bucket string) (*GCSUploader, error) {
	var opts []option.ClientOption
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

func (g *GCSUploader) Upload(ctx context.Context, r io.Reader, originalName string, size int64, folder string) (Attachment, error) {
	ext, err := validate(originalName, size)
	if err != nil {
		return Attachment{}, err
	}

	key := objectName(folder, ext)
	obj := g.client.Bucket(g.bucket).Object(key)

	w := obj.NewWriter(ctx)
	if ct := mime.TypeByExtension(ext); ct != "" {
		w.ContentType = ct
	}
	w.ContentDisposition = fmt.Sprintf("inline; filename=%q", originalName)

	written, err := io.Copy(w, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		_ = w.Close()
		return Attachment{}, fmt.Errorf("failed to write object %q: %w", key, err)
	}
	if written > MaxUploadSize {
		_ = w.Close()
		_ = obj.Delete(ctx)
		return Attachment{}, ErrFileTooLarge
	}
	if err := w.Close(); err != nil {
		return Attachment{}, fmt.Errorf("failed to close writer for object %q: %w", key, err)
	}

	return Attachment{
		URL:          fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, key),
		PublicID:     key,
		Format:       strings.TrimPrefix(ext, "."),
		Size:         written,
		OriginalName: originalName,
	}, nil
}

// Close releases the underlying client.
func (g *GCSUploader) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
