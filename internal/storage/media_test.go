package storage

import (
	"strings"
	"testing"

	"videotube/internal/config"
)

func TestObjectKeyKeepsFolderAndExtension(t *testing.T) {
	key := objectKey("avatars", "me.png")
	if !strings.HasPrefix(key, "avatars/") {
		t.Fatalf("expected avatars/ prefix, got %s", key)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Fatalf("expected .png suffix, got %s", key)
	}
}

func TestObjectKeyDefaultsExtension(t *testing.T) {
	key := objectKey("videos", "upload")
	if !strings.HasSuffix(key, ".bin") {
		t.Fatalf("expected .bin fallback extension, got %s", key)
	}
}

func TestObjectKeyIsUniquePerCall(t *testing.T) {
	if objectKey("thumbnails", "a.jpg") == objectKey("thumbnails", "a.jpg") {
		t.Fatal("expected distinct keys for repeated uploads of the same filename")
	}
}

func TestMediaBaseURL(t *testing.T) {
	cfg := config.MediaConfig{Endpoint: "localhost:9000", Bucket: "media"}
	if got := mediaBaseURL(cfg); got != "http://localhost:9000/media" {
		t.Fatalf("unexpected base url %s", got)
	}

	cfg.UseSSL = true
	if got := mediaBaseURL(cfg); got != "https://localhost:9000/media" {
		t.Fatalf("unexpected ssl base url %s", got)
	}

	cfg.PublicURL = "https://cdn.example.com/"
	if got := mediaBaseURL(cfg); got != "https://cdn.example.com/media" {
		t.Fatalf("unexpected public base url %s", got)
	}
}

func TestKeyFromURL(t *testing.T) {
	base := "http://localhost:9000/media"

	key, ok := keyFromURL(base, base+"/avatars/abc.png")
	if !ok || key != "avatars/abc.png" {
		t.Fatalf("expected avatars/abc.png, got %q ok=%v", key, ok)
	}

	if _, ok := keyFromURL(base, "https://elsewhere.example.com/other.png"); ok {
		t.Fatal("expected foreign URL to be rejected")
	}
	if _, ok := keyFromURL(base, ""); ok {
		t.Fatal("expected empty URL to be rejected")
	}
}
