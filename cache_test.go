package avrokit_test

import (
	"testing"

	"github.com/reoring/avrokit"
)

func TestParseCacheMemoizes(t *testing.T) {
	cache, err := avrokit.NewParseCache(8)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	const src = `{"type":"record","name":"R","fields":[{"name":"f","type":"int"}]}`
	a, err := cache.Get(src)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, err := cache.Get(src)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if a != b {
		t.Fatalf("cache returned distinct trees for identical text")
	}
	if cache.Len() != 1 {
		t.Fatalf("len = %d", cache.Len())
	}
}

func TestParseCacheDoesNotCacheErrors(t *testing.T) {
	cache, err := avrokit.NewParseCache(8)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	if _, err := cache.Get(`{"type":"record"}`); err == nil {
		t.Fatalf("expected parse error")
	}
	if cache.Len() != 0 {
		t.Fatalf("error was cached")
	}
}

func TestParseCacheEvicts(t *testing.T) {
	cache, err := avrokit.NewParseCache(2)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	for _, src := range []string{`"int"`, `"long"`, `"string"`} {
		if _, err := cache.Get(src); err != nil {
			t.Fatalf("get %s: %v", src, err)
		}
	}
	if cache.Len() != 2 {
		t.Fatalf("len = %d after eviction", cache.Len())
	}
	cache.Purge()
	if cache.Len() != 0 {
		t.Fatalf("purge left %d entries", cache.Len())
	}
}
