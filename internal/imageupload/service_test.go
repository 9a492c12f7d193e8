package imageupload

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	storagego "github.com/supabase-community/storage-go"
	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/config"
	"github.com/bigp7952/siggil-sub002/internal/imageutil"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

type fakeStore struct {
	enabled   bool
	uploadErr error
	deleteErr error
	uploads   []string
	deleted   []string
}

func (f *fakeStore) Upload(_ context.Context, bucket, objectPath, _ string, _ []byte) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, bucket+"/"+objectPath)
	return f.PublicURL(bucket, objectPath), nil
}

func (f *fakeStore) Delete(_ context.Context, bucket string, objectPaths ...string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for _, p := range objectPaths {
		f.deleted = append(f.deleted, bucket+"/"+p)
	}
	return nil
}

func (f *fakeStore) PublicURL(bucket, objectPath string) string {
	return "https://cdn.test/public/" + bucket + "/" + objectPath
}

func (f *fakeStore) ObjectPath(bucket, publicURL string) (string, bool) {
	prefix := "https://cdn.test/public/" + bucket + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	return strings.TrimPrefix(publicURL, prefix), true
}

func (f *fakeStore) Enabled() bool { return f.enabled }

func newService(store *fakeStore, maxBytes int) *Service {
	cfg := config.Config{Storage: config.Storage{MaxImageBytes: maxBytes, PlaceholderPath: "/placeholder.svg"}}
	return NewService(Params{Store: store, Config: cfg, Logger: zap.NewNop()})
}

var jpegB64 = base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F', 0, 1})

func TestResolveKeepsURL(t *testing.T) {
	store := &fakeStore{enabled: true}
	img, err := newService(store, 1024).Resolve(context.Background(), "products", " https://x.test/a.jpg ")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if img.URL != "https://x.test/a.jpg" || img.Data != "" {
		t.Fatalf("unexpected image %+v", img)
	}
	if len(store.uploads) != 0 {
		t.Fatal("URLs must not be uploaded")
	}
}

func TestResolveUploadsInlineData(t *testing.T) {
	store := &fakeStore{enabled: true}
	img, err := newService(store, 1024).Resolve(context.Background(), "products", jpegB64)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(store.uploads) != 1 || !strings.HasPrefix(store.uploads[0], "products/") || !strings.HasSuffix(store.uploads[0], ".jpg") {
		t.Fatalf("unexpected uploads %v", store.uploads)
	}
	if !strings.HasPrefix(img.URL, "https://cdn.test/public/products/") || img.Data != "" {
		t.Fatalf("unexpected image %+v", img)
	}
}

func TestResolveKeepsInlineWhenStorageDisabledOrFailing(t *testing.T) {
	img, err := newService(&fakeStore{}, 1024).Resolve(context.Background(), "categories", jpegB64)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if img.URL != "" || img.Data != "data:image/jpeg;base64,"+jpegB64 {
		t.Fatalf("unexpected image %+v", img)
	}

	failing := &fakeStore{enabled: true, uploadErr: errors.New("bucket not found")}
	img, err = newService(failing, 1024).Resolve(context.Background(), "categories", "data:image/jpeg;base64,"+jpegB64)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if img.Data == "" || img.URL != "" {
		t.Fatalf("expected inline fallback, got %+v", img)
	}
}

func TestResolveRejectsOversizedAndGarbage(t *testing.T) {
	svc := newService(&fakeStore{enabled: true}, 4)
	if _, err := svc.Resolve(context.Background(), "products", jpegB64); !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("expected bad request for oversized image, got %v", err)
	}
	if _, err := svc.Resolve(context.Background(), "products", "not an image"); !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("expected bad request for unknown format, got %v", err)
	}
	img, err := svc.Resolve(context.Background(), "products", "")
	if err != nil || img != (Image{}) {
		t.Fatalf("empty image should resolve to nothing, got %+v %v", img, err)
	}
}

func TestRemove(t *testing.T) {
	store := &fakeStore{enabled: true}
	svc := newService(store, 1024)

	if err := svc.Remove(context.Background(), "products", "https://cdn.test/public/products/a.jpg"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if err := svc.Remove(context.Background(), "products", "https://elsewhere.test/a.jpg"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "products/a.jpg" {
		t.Fatalf("unexpected deletes %v", store.deleted)
	}
}

func TestRemoveIgnoresMissingObjects(t *testing.T) {
	missing := &fakeStore{enabled: true, deleteErr: &storagego.StorageError{Message: "Object not found"}}
	if err := newService(missing, 1024).Remove(context.Background(), "products", "https://cdn.test/public/products/a.jpg"); err != nil {
		t.Fatalf("missing object should not fail removal: %v", err)
	}

	failing := &fakeStore{enabled: true, deleteErr: errors.New("connection reset")}
	if err := newService(failing, 1024).Remove(context.Background(), "products", "https://cdn.test/public/products/a.jpg"); err == nil {
		t.Fatal("expected transport error to surface")
	}
}

func TestSrcUsesPlaceholder(t *testing.T) {
	svc := newService(&fakeStore{}, 1024)
	if got := svc.Src("", ""); got != "/placeholder.svg" {
		t.Fatalf("expected placeholder, got %q", got)
	}
	if got := svc.Src("", jpegB64); got != "data:image/jpeg;base64,"+jpegB64 {
		t.Fatalf("unexpected src %q", got)
	}
	if svc.Placeholder() != imageutil.DefaultPlaceholder {
		t.Fatalf("unexpected placeholder %q", svc.Placeholder())
	}
}
