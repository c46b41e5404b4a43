package storage

import (
	"context"
	"errors"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/metrics"
)

// GCSUploader writes objects to a Google Cloud Storage bucket. The bucket uses
// uniform bucket-level access, so no per-object ACL is set.
type GCSUploader struct {
	client  *gcs.Client
	bucket  string
	baseURL string
	metrics *metrics.Metrics
}

func NewGCSUploader(ctx context.Context, bucket, baseURL, credentialsFile string, m *metrics.Metrics) (*GCSUploader, error) {
	if bucket == "" {
		return nil, errors.New("storage bucket not configured")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSUploader{client: client, bucket: bucket, baseURL: baseURL, metrics: m}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, folder string, file File) (string, error) {
	object := ObjectName(folder, file.Name)
	err := u.write(ctx, object, file)
	u.metrics.ObserveUpload(folder, err)
	if err != nil {
		return "", apperr.Upstream("storage upload", err)
	}
	return PublicURL(u.baseURL, u.bucket, object), nil
}

func (u *GCSUploader) write(ctx context.Context, object string, file File) error {
	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	w.ContentType = file.ContentType
	w.CacheControl = immutableCacheControl
	if _, err := w.Write(file.Data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", object, err)
	}
	return nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// Unavailable is used when no bucket is configured; every upload fails as an
// upstream error while the rest of the API keeps working.
type Unavailable struct{}

func (Unavailable) Upload(ctx context.Context, folder string, file File) (string, error) {
	return "", apperr.Upstream("storage upload", errors.New("storage bucket not configured"))
}
