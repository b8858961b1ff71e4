package media

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestCache(t *testing.T) *ProbeCache {
	t.Helper()
	cache, err := OpenProbeCache(filepath.Join(t.TempDir(), "probecache.db"))
	if err != nil {
		t.Fatalf("Failed to open probe cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestProbeCache_PutAndGet(t *testing.T) {
	cache := openTestCache(t)

	taken := time.Date(2023, 8, 15, 14, 30, 5, 0, time.UTC)
	modTime := time.Date(2023, 8, 16, 9, 0, 0, 0, time.UTC)
	cache.Put("/photos/IMG_1234.jpg", 2048, modTime, DateResult{Time: taken, Source: SourceExifOriginal})

	result, ok := cache.Get("/photos/IMG_1234.jpg", 2048, modTime)
	if !ok {
		t.Fatal("Expected a cache hit")
	}
	if !result.Time.Equal(taken) {
		t.Errorf("Expected %v, got: %v", taken, result.Time)
	}
	if result.Source != SourceExifOriginal {
		t.Errorf("Expected source %s, got: %s", SourceExifOriginal, result.Source)
	}
}

func TestProbeCache_MissOnUnknownPath(t *testing.T) {
	cache := openTestCache(t)

	if _, ok := cache.Get("/photos/unknown.jpg", 100, time.Now()); ok {
		t.Error("Expected a cache miss for an unknown path")
	}
}

func TestProbeCache_MissWhenFileChanged(t *testing.T) {
	cache := openTestCache(t)

	modTime := time.Date(2023, 8, 16, 9, 0, 0, 0, time.UTC)
	cache.Put("/photos/IMG_1234.jpg", 2048, modTime, DateResult{
		Time:   time.Date(2023, 8, 15, 14, 30, 5, 0, time.UTC),
		Source: SourceExifOriginal,
	})

	if _, ok := cache.Get("/photos/IMG_1234.jpg", 4096, modTime); ok {
		t.Error("Expected a miss when the size changed")
	}
	if _, ok := cache.Get("/photos/IMG_1234.jpg", 2048, modTime.Add(time.Hour)); ok {
		t.Error("Expected a miss when the modification time changed")
	}
}

// countingPhotoReader counts how often the resolver falls through to
// the metadata probes.
type countingPhotoReader struct {
	tags  map[string]string
	calls int
}

func (r *countingPhotoReader) ReadTags(string) (map[string]string, error) {
	r.calls++
	return r.tags, nil
}

func TestProbeCache_CachedResultRendersSameName(t *testing.T) {
	cache := openTestCache(t)

	tmpDir := t.TempDir()
	modTime := time.Date(2023, 8, 16, 9, 0, 0, 0, time.Local)
	photo := createFileWithTime(t, tmpDir, "IMG_1234.jpg", modTime)

	reader := &countingPhotoReader{tags: map[string]string{"DateTimeOriginal": "2023:08:15 14:22:03"}}
	resolver := NewDateResolverWithProbes([]PhotoMetadataReader{reader}, nil)
	resolver.UseCache(cache)
	template := ParseTemplate(DefaultTemplate)

	first := resolver.Resolve(photo, KindPhoto)
	second := resolver.Resolve(photo, KindPhoto)

	if reader.calls != 1 {
		t.Fatalf("Expected 1 probe call, got: %d", reader.calls)
	}
	firstName := template.Render(first.Time, KindPhoto)
	secondName := template.Render(second.Time, KindPhoto)
	if firstName != secondName {
		t.Errorf("Cached result rendered %q, fresh result rendered %q", secondName, firstName)
	}
	if firstName != "Photo-2023-08-15_142203" {
		t.Errorf("Unexpected rendered name: %s", firstName)
	}
	if second.Source != SourceExifOriginal {
		t.Errorf("Expected cached source %s, got: %s", SourceExifOriginal, second.Source)
	}
}

func TestProbeCache_PutReplacesStaleRow(t *testing.T) {
	cache := openTestCache(t)

	oldMod := time.Date(2023, 8, 16, 9, 0, 0, 0, time.UTC)
	newMod := oldMod.Add(time.Hour)
	cache.Put("/photos/IMG_1234.jpg", 2048, oldMod, DateResult{
		Time:   time.Date(2023, 8, 15, 14, 30, 5, 0, time.UTC),
		Source: SourceExifOriginal,
	})
	newTaken := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.Put("/photos/IMG_1234.jpg", 2048, newMod, DateResult{Time: newTaken, Source: SourceFilesystem})

	if _, ok := cache.Get("/photos/IMG_1234.jpg", 2048, oldMod); ok {
		t.Error("Expected the stale row to be replaced")
	}
	result, ok := cache.Get("/photos/IMG_1234.jpg", 2048, newMod)
	if !ok {
		t.Fatal("Expected a hit for the replaced row")
	}
	if !result.Time.Equal(newTaken) {
		t.Errorf("Expected %v, got: %v", newTaken, result.Time)
	}
	if result.Source != SourceFilesystem {
		t.Errorf("Expected source %s, got: %s", SourceFilesystem, result.Source)
	}
}
