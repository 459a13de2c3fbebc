package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/foduucom/themeconv/core"
)

func TestCacheRecordRoundTrip(t *testing.T) {
	skeleton := core.Skeleton(`<div class="hero"><h1></h1></div>`)
	original := &core.CacheRecord{
		Name:        "hero",
		Fingerprint: core.FingerprintOf(skeleton),
		Skeleton:    skeleton,
		Result: core.Shortcode{
			Name:        "hero",
			Param:       []any{"title", "subtitle"},
			Template:    "<div class=\"hero\"><h1>{{title}}</h1></div>",
			QueryScript: "return {};",
		},
		InsertedAt: time.Date(2025, 3, 14, 9, 26, 53, 589000, time.UTC),
	}

	data, err := MarshalCacheRecord(original)
	if err != nil {
		t.Fatalf("MarshalCacheRecord failed: %v", err)
	}

	decoded, err := UnmarshalCacheRecord(data)
	if err != nil {
		t.Fatalf("UnmarshalCacheRecord failed: %v", err)
	}

	if decoded.Name != original.Name {
		t.Errorf("Name mismatch: got %q, want %q", decoded.Name, original.Name)
	}
	if decoded.Fingerprint != original.Fingerprint {
		t.Errorf("Fingerprint mismatch: got %q, want %q", decoded.Fingerprint, original.Fingerprint)
	}
	if decoded.Skeleton != original.Skeleton {
		t.Errorf("Skeleton mismatch: got %q, want %q", decoded.Skeleton, original.Skeleton)
	}
	if decoded.Result.Template != original.Result.Template {
		t.Errorf("Template mismatch: got %q, want %q", decoded.Result.Template, original.Result.Template)
	}
	if decoded.Result.QueryScript != original.Result.QueryScript {
		t.Errorf("QueryScript mismatch: got %q, want %q", decoded.Result.QueryScript, original.Result.QueryScript)
	}
	if len(decoded.Result.Param) != 2 || decoded.Result.Param[0] != "title" {
		t.Errorf("Param mismatch: got %v", decoded.Result.Param)
	}
	if !decoded.InsertedAt.Equal(original.InsertedAt) {
		t.Errorf("InsertedAt mismatch: got %v, want %v", decoded.InsertedAt, original.InsertedAt)
	}
}

func TestCacheRecordEmptyResult(t *testing.T) {
	original := &core.CacheRecord{Name: "empty"}

	data, err := MarshalCacheRecord(original)
	if err != nil {
		t.Fatalf("MarshalCacheRecord failed: %v", err)
	}
	decoded, err := UnmarshalCacheRecord(data)
	if err != nil {
		t.Fatalf("UnmarshalCacheRecord failed: %v", err)
	}
	if decoded.Name != "empty" {
		t.Errorf("Name mismatch: got %q", decoded.Name)
	}
	if decoded.Result.Template != "" {
		t.Errorf("expected empty template, got %q", decoded.Result.Template)
	}
}

func TestUnmarshalCacheRecordErrors(t *testing.T) {
	if _, err := UnmarshalCacheRecord(nil); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("expected ErrTruncatedData for empty input, got %v", err)
	}

	data, err := MarshalCacheRecord(&core.CacheRecord{Name: "cut", Skeleton: "<div></div>"})
	if err != nil {
		t.Fatalf("MarshalCacheRecord failed: %v", err)
	}
	if _, err := UnmarshalCacheRecord(data[:len(data)/2]); !errors.Is(err, ErrSerializationFailed) {
		t.Errorf("expected ErrSerializationFailed for truncated input, got %v", err)
	}
}
