package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"document-ingest/internal/shared/storage/object"
	"document-ingest/internal/shared/telemetry"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMetadataFetch(t *testing.T) {
	modified := time.Date(2024, 2, 28, 8, 30, 0, 0, time.UTC)
	store := &fakeStore{info: map[string]object.ObjectInfo{
		"b/report.pdf": {
			ContentType:   "application/pdf",
			ContentLength: 2048,
			LastModified:  modified,
			ETag:          `"9b2cf535f27731c974343645a3985328"`,
			Metadata:      map[string]string{"owner": "finance"},
		},
		"b/data.json": {ContentLength: 11},
		"b/README":    {ContentLength: 3},
	}}
	f := &MetadataFetcher{Store: store, Now: func() time.Time { return fixedNow }}

	tests := []struct {
		key          string
		contentType  string
		etag         string
		lastModified string
	}{
		{key: "report.pdf", contentType: "application/pdf", etag: "9b2cf535f27731c974343645a3985328", lastModified: "2024-02-28T08:30:00Z"},
		{key: "data.json", contentType: "application/json", lastModified: "2024-03-01T12:00:00Z"},
		{key: "README", contentType: "unknown", lastModified: "2024-03-01T12:00:00Z"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.key, func(t *testing.T) {
			meta := f.Fetch(context.Background(), "b", tt.key)
			if meta.ContentType != tt.contentType {
				t.Fatalf("content type = %q, want %q", meta.ContentType, tt.contentType)
			}
			if meta.ETag != tt.etag {
				t.Fatalf("etag = %q, want %q", meta.ETag, tt.etag)
			}
			if meta.LastModified != tt.lastModified {
				t.Fatalf("last modified = %q, want %q", meta.LastModified, tt.lastModified)
			}
			if meta.Metadata == nil {
				t.Fatal("tags should never be nil")
			}
		})
	}

	meta := f.Fetch(context.Background(), "b", "report.pdf")
	if meta.ContentLength != 2048 || meta.Metadata["owner"] != "finance" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestMetadataFetchDegradesOnError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := telemetry.Use(zap.New(core))
	defer restore()

	f := &MetadataFetcher{
		Store: &fakeStore{headErr: errors.New("AccessDenied")},
		Now:   func() time.Time { return fixedNow },
	}
	for _, key := range []string{"doc.txt", ""} {
		meta := f.Fetch(context.Background(), "b", key)
		if meta.ContentType != "unknown" || meta.ContentLength != 0 || meta.ETag != "" {
			t.Fatalf("unexpected degraded metadata: %+v", meta)
		}
		if meta.LastModified != "2024-03-01T12:00:00Z" {
			t.Fatalf("degraded last modified should be now, got %q", meta.LastModified)
		}
		if meta.Metadata == nil || len(meta.Metadata) != 0 {
			t.Fatalf("expected empty tag map, got %v", meta.Metadata)
		}
	}

	failures := logs.FilterMessage("ingest.metadata.failed").AllUntimed()
	if len(failures) != 2 {
		t.Fatalf("expected 2 failure logs, got %d", len(failures))
	}
	if failures[0].ContextMap()["error"] != "AccessDenied" {
		t.Fatalf("log should carry the original error, got %v", failures[0].ContextMap())
	}
}

func TestResolveContentType(t *testing.T) {
	tests := map[string]struct {
		stored string
		key    string
		want   string
	}{
		"stored wins":    {stored: "application/x-custom", key: "a.txt", want: "application/x-custom"},
		"guess html":     {key: "index.HTML", want: "text/html"},
		"guess png":      {key: "scan.png", want: "image/png"},
		"no extension":   {key: "Makefile", want: "unknown"},
		"unknown suffix": {key: "blob.zzqx", want: "unknown"},
	}
	for name, tt := range tests {
		if got := resolveContentType(tt.stored, tt.key); got != tt.want {
			t.Fatalf("%s: got %q, want %q", name, got, tt.want)
		}
	}
}
