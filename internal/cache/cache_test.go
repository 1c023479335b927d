package cache

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/diligence/internal/model"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("openai", "gpt-4o", "prompt")
	if !strings.HasPrefix(a, "diligence:v1:") {
		t.Errorf("Expected versioned prefix, got %s", a)
	}
	if a != CacheKey("openai", "gpt-4o", "prompt") {
		t.Error("Expected stable keys")
	}
	// part boundaries matter
	if CacheKey("ab", "c") == CacheKey("a", "bc") {
		t.Error("Expected different keys for different part splits")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("Expected miss on empty cache")
	}
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("Expected hit with v, got %q %v", got, ok)
	}
	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after delete")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := CacheKey("x")
	if err := c.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, ok := c.Get(key); !ok || string(got) != "payload" {
		t.Fatalf("Expected hit, got %q %v", got, ok)
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get(key); ok {
		t.Error("Expected expired entry to miss")
	}
	if _, err := os.Stat(c.path(key)); !os.IsNotExist(err) {
		t.Error("Expected expired entry file to be removed")
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}
}

func TestDiskCache_Corrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("bad")
	if err := os.WriteFile(c.path(key), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("Expected corrupt entry to miss")
	}
}

func TestLayeredCache_Promotes(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	mem := NewMemoryCache(time.Hour, time.Minute)
	c := &LayeredCache{memory: mem, disk: disk}

	_ = disk.Set("k", []byte("from-disk"), 0)
	got, ok := c.Get("k")
	if !ok || string(got) != "from-disk" {
		t.Fatalf("Expected disk hit, got %q %v", got, ok)
	}
	if got, ok := mem.Get("k"); !ok || string(got) != "from-disk" {
		t.Error("Expected disk hit to be promoted to memory")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after clear")
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	type payload struct {
		Score int `json:"score"`
	}
	if err := SetJSON(c, "p", payload{Score: 7}, 0); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	var got payload
	if !GetJSON(c, "p", &got) || got.Score != 7 {
		t.Errorf("Expected score 7, got %+v", got)
	}
}

func TestNew(t *testing.T) {
	if _, ok := New(model.CacheConfig{Enabled: false}).(NoopCache); !ok {
		t.Error("Expected NoopCache when disabled")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}).(*MemoryCache); !ok {
		t.Error("Expected MemoryCache without a directory")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, Dir: t.TempDir(), DiskTTL: time.Hour}).(*LayeredCache); !ok {
		t.Error("Expected LayeredCache with a directory")
	}
}
