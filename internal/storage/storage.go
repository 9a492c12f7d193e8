package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	storagego "github.com/supabase-community/storage-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/config"
)

var storageTracer = otel.Tracer("github.com/bigp7952/siggil-sub002/storage")

// ErrDisabled is returned by the noop store for operations that need a backend.
var ErrDisabled = errors.New("image storage disabled")

// Store uploads and removes objects in public buckets.
type Store interface {
	Upload(ctx context.Context, bucket, objectPath, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, bucket string, objectPaths ...string) error
	PublicURL(bucket, objectPath string) string
	// ObjectPath extracts the object path from a public URL of bucket.
	ObjectPath(bucket, publicURL string) (string, bool)
	Enabled() bool
}

// Module provides the configured image store.
var Module = fx.Provide(New)

// New builds the store selected by STORAGE_DRIVER.
func New(cfg config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Storage.Driver {
	case "noop":
		logger.Info("image storage disabled; inline images are kept in the database")
		return noopStore{}, nil
	case "supabase":
		return NewSupabase(cfg.Storage)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}

type noopStore struct{}

func (noopStore) Upload(context.Context, string, string, string, []byte) (string, error) {
	return "", ErrDisabled
}

func (noopStore) Delete(context.Context, string, ...string) error { return nil }

func (noopStore) PublicURL(string, string) string { return "" }

func (noopStore) ObjectPath(string, string) (string, bool) { return "", false }

func (noopStore) Enabled() bool { return false }

// Supabase stores images in Supabase Storage through storage-go.
type Supabase struct {
	baseURL    string
	serviceKey string
	timeout    time.Duration
}

// NewSupabase returns a Store backed by Supabase Storage. URL is the project
// URL; the storage API lives under /storage/v1.
func NewSupabase(cfg config.Storage) (*Supabase, error) {
	base := strings.TrimRight(cfg.URL, "/")
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid storage url %q", cfg.URL)
	}
	return &Supabase{
		baseURL:    base,
		serviceKey: cfg.ServiceKey,
		timeout:    cfg.Timeout,
	}, nil
}

// client returns a fresh SDK client. storage-go keeps per-upload headers
// (content type, upsert) on the client, so clients are never shared.
func (s *Supabase) client() *storagego.Client {
	return storagego.NewClient(s.baseURL+"/storage/v1", s.serviceKey, map[string]string{
		"apikey": s.serviceKey,
	})
}

// Enabled reports true.
func (s *Supabase) Enabled() bool { return true }

// Upload stores data at bucket/objectPath, overwriting any existing object, and
// returns its public URL.
func (s *Supabase) Upload(ctx context.Context, bucket, objectPath, contentType string, data []byte) (string, error) {
	ctx, span := storageTracer.Start(ctx, "Storage.Upload", trace.WithAttributes(
		attribute.String("storage.bucket", bucket),
		attribute.Int("storage.bytes", len(data)),
	))
	defer span.End()

	objectPath = strings.TrimLeft(objectPath, "/")
	upsert := true
	cacheControl := "3600"
	err := s.call(ctx, func(c *storagego.Client) error {
		_, err := c.UploadFile(bucket, objectPath, bytes.NewReader(data), storagego.FileOptions{
			ContentType:  &contentType,
			CacheControl: &cacheControl,
			Upsert:       &upsert,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return "", fmt.Errorf("upload %s/%s: %w", bucket, objectPath, err)
	}
	return s.PublicURL(bucket, objectPath), nil
}

// Delete removes objects from bucket. Deleting nothing is a no-op.
func (s *Supabase) Delete(ctx context.Context, bucket string, objectPaths ...string) error {
	if len(objectPaths) == 0 {
		return nil
	}
	ctx, span := storageTracer.Start(ctx, "Storage.Delete", trace.WithAttributes(
		attribute.String("storage.bucket", bucket),
		attribute.Int("storage.objects", len(objectPaths)),
	))
	defer span.End()

	err := s.call(ctx, func(c *storagego.Client) error {
		_, err := c.RemoveFile(bucket, objectPaths)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("delete from %s: %w", bucket, err)
	}
	return nil
}

// call runs fn on a fresh client. storage-go takes no context, so the call is
// abandoned when ctx ends or the configured timeout passes.
func (s *Supabase) call(ctx context.Context, fn func(*storagego.Client) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- fn(s.client()) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublicURL returns the public URL for an object in a public bucket.
func (s *Supabase) PublicURL(bucket, objectPath string) string {
	return s.client().GetPublicUrl(bucket, strings.TrimLeft(objectPath, "/")).SignedURL
}

// ObjectPath extracts the object path from a public URL. URLs of other hosts or
// buckets are rejected.
func (s *Supabase) ObjectPath(bucket, publicURL string) (string, bool) {
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", s.baseURL, bucket)
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	objectPath := strings.TrimPrefix(publicURL, prefix)
	if i := strings.IndexAny(objectPath, "?#"); i >= 0 {
		objectPath = objectPath[:i]
	}
	if unescaped, err := url.PathUnescape(objectPath); err == nil {
		objectPath = unescaped
	}
	return objectPath, objectPath != ""
}

// IsNotFound reports whether err is a storage API answer for a missing bucket
// or object.
func IsNotFound(err error) bool {
	var apiErr *storagego.StorageError
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	return apiErr.Status == 404 || strings.Contains(msg, "not found")
}
