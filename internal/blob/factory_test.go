package blob

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	appcfg "github.com/fdg312/coach-hub/internal/config"
)

func TestNewBlobStoreLocalForced(t *testing.T) {
	var buf bytes.Buffer
	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeLocal}, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeLocal || store != nil {
		t.Fatalf("expected local mode without store, got mode=%s store=%v", mode, store)
	}
	if !strings.Contains(buf.String(), "mode=local (forced)") {
		t.Fatalf("expected local mode log, got: %s", buf.String())
	}
}

func TestNewBlobStoreAutoWithoutS3FallsBackToLocal(t *testing.T) {
	var buf bytes.Buffer
	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeAuto}, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeLocal || store != nil {
		t.Fatalf("expected local fallback, got mode=%s", mode)
	}
	out := buf.String()
	if !strings.Contains(out, "code=s3_not_configured") || !strings.Contains(out, "auto, S3 not configured") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestNewBlobStoreS3MissingRequired(t *testing.T) {
	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode: appcfg.BlobModeS3,
		S3:   appcfg.S3Config{Endpoint: "https://storage.yandexcloud.net"},
	}, nil)
	if err == nil {
		t.Fatal("expected error when mode=s3 and required env are missing")
	}
	if store != nil || mode != "" {
		t.Fatalf("expected nil store and empty mode, got store=%v mode=%q", store, mode)
	}
	if !strings.Contains(err.Error(), "S3_BUCKET") {
		t.Fatalf("expected missing keys in error, got: %v", err)
	}
}

func TestNewBlobStoreS3Configured(t *testing.T) {
	var buf bytes.Buffer
	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode: appcfg.BlobModeAuto,
		S3: appcfg.S3Config{
			Endpoint:        "http://127.0.0.1:9000",
			Region:          "us-east-1",
			Bucket:          "reports",
			AccessKeyID:     "key",
			SecretAccessKey: "s3cr3t-value",
			PublicBaseURL:   "https://cdn.example.com/reports/",
			PreferPublicURL: true,
		},
	}, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeS3 || store == nil {
		t.Fatalf("expected s3 store, got mode=%s", mode)
	}
	if strings.Contains(buf.String(), "s3cr3t-value") {
		t.Fatalf("secret leaked into logs: %s", buf.String())
	}

	url, err := store.DownloadURL(context.Background(), "a/b.csv")
	if err != nil {
		t.Fatalf("download url: %v", err)
	}
	if url != "https://cdn.example.com/reports/a/b.csv" {
		t.Fatalf("expected public url, got %s", url)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("http://blob.local/")
	if err := m.Put(ctx, "k.csv", []byte("a,b"), "text/csv"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := m.Get(ctx, "k.csv")
	if err != nil || string(data) != "a,b" {
		t.Fatalf("get: %q %v", data, err)
	}
	if url, _ := m.DownloadURL(ctx, "k.csv"); url != "http://blob.local/k.csv" {
		t.Fatalf("unexpected url %s", url)
	}
	if err := m.Delete(ctx, "k.csv"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, "k.csv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
