package media

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// createFile creates an empty-ish test file and returns its path.
func createFile(t *testing.T, dir, filename string) string {
	t.Helper()
	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, []byte("test content"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return filePath
}

// createFileWithTime creates a test file with a fixed modification time.
func createFileWithTime(t *testing.T, dir, filename string, modTime time.Time) string {
	t.Helper()
	filePath := createFile(t, dir, filename)
	if err := os.Chtimes(filePath, modTime, modTime); err != nil {
		t.Fatalf("Failed to set file times: %v", err)
	}
	return filePath
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist at %s", path)
	}
}

func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected no file at %s", path)
	}
}

// fakePhotoReader serves canned EXIF tags in tests.
type fakePhotoReader struct {
	tags map[string]string
	err  error
}

func (r *fakePhotoReader) ReadTags(string) (map[string]string, error) {
	return r.tags, r.err
}

// fakeVideoProber serves a canned creation-time string in tests.
type fakeVideoProber struct {
	value string
	err   error
}

func (p *fakeVideoProber) CreationTime(string) (string, error) {
	return p.value, p.err
}

// fixedDateResolver builds a resolver whose photo and video probes both
// report the given date.
func fixedDateResolver(date time.Time) *DateResolver {
	exifValue := date.Format("2006:01:02 15:04:05")
	videoValue := date.Format("2006-01-02T15:04:05") + "Z"
	return NewDateResolverWithProbes(
		[]PhotoMetadataReader{&fakePhotoReader{tags: map[string]string{"DateTimeOriginal": exifValue}}},
		&fakeVideoProber{value: videoValue},
	)
}
