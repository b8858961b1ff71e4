package backup

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Helper functions

func createTestFile(t *testing.T, dir, filename string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
}

func createTestDir(t *testing.T, base, name string, files ...string) {
	t.Helper()
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	for _, f := range files {
		createTestFile(t, dir, f)
	}
}

// fakeS3Client stores uploaded objects in memory, serving HeadObject
// with MD5-based ETags like S3 does for single-part uploads.
type fakeS3Client struct {
	mu      sync.Mutex
	stored  map[string]string // key -> md5 hash
	puts    int
	headErr error
}

func newFakeS3Client() *fakeS3Client {
	return &fakeS3Client{stored: map[string]string{}}
}

func (f *fakeS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return nil, f.headErr
	}
	hash, ok := f.stored[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	etag := fmt.Sprintf("%q", hash)
	return &s3.HeadObjectOutput{ETag: aws.String(etag)}, nil
}

func (f *fakeS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	hash := md5.New()
	if _, err := io.Copy(hash, params.Body); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored[aws.ToString(params.Key)] = hex.EncodeToString(hash.Sum(nil))
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3Client) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.stored {
		keys = append(keys, k)
	}
	return keys
}

func TestVault_UploadsNewArchives(t *testing.T) {
	tmpDir := t.TempDir()
	createTestDir(t, tmpDir, "2023", "Photo-2023-08-15_143005.jpg", "Video-2023-08-15_150000.mp4")
	createTestDir(t, tmpDir, "2024", "Photo-2024-01-01_120000.jpg")

	client := newFakeS3Client()
	vault := NewVaultWithClient(client)

	if err := vault.ArchiveDirectories(context.Background(), tmpDir, "bucket", 2); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if client.puts != 2 {
		t.Errorf("Expected 2 uploads, got %d", client.puts)
	}
	keys := client.keys()
	found := map[string]bool{}
	for _, k := range keys {
		found[k] = true
	}
	if !found["2023 (1 photos, 1 videos).tar.gz"] {
		t.Errorf("Expected archive key for 2023, got keys: %v", keys)
	}
	if !found["2024 (1 photos, 0 videos).tar.gz"] {
		t.Errorf("Expected archive key for 2024, got keys: %v", keys)
	}
}

func TestVault_SkipsUnchangedArchive(t *testing.T) {
	tmpDir := t.TempDir()
	createTestDir(t, tmpDir, "2023", "Photo-2023-08-15_143005.jpg")

	client := newFakeS3Client()
	vault := NewVaultWithClient(client)

	if err := vault.ArchiveDirectories(context.Background(), tmpDir, "bucket", 1); err != nil {
		t.Fatalf("First upload failed: %v", err)
	}
	if client.puts != 1 {
		t.Fatalf("Expected 1 upload, got %d", client.puts)
	}

	// Same content again: the stored ETag matches, so no re-upload.
	if err := vault.ArchiveDirectories(context.Background(), tmpDir, "bucket", 1); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if client.puts != 1 {
		t.Errorf("Expected no re-upload for unchanged archive, got %d uploads", client.puts)
	}
}

func TestVault_ReuploadsChangedArchive(t *testing.T) {
	tmpDir := t.TempDir()
	createTestDir(t, tmpDir, "2023", "Photo-2023-08-15_143005.jpg")

	client := newFakeS3Client()
	// A stored archive under the same key but with different content.
	client.stored["2023 (1 photos, 0 videos).tar.gz"] = "0123456789abcdef0123456789abcdef"

	vault := NewVaultWithClient(client)
	if err := vault.ArchiveDirectories(context.Background(), tmpDir, "bucket", 1); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if client.puts != 1 {
		t.Errorf("Expected re-upload of changed archive, got %d uploads", client.puts)
	}
}

func TestVault_NoDirectoriesToArchive(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "loose.jpg")

	client := newFakeS3Client()
	vault := NewVaultWithClient(client)

	if err := vault.ArchiveDirectories(context.Background(), tmpDir, "bucket", 2); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if client.puts != 0 {
		t.Errorf("Expected no uploads, got %d", client.puts)
	}
}

func TestVault_SkipsHiddenDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	createTestDir(t, tmpDir, ".cache", "thumb.jpg")
	createTestDir(t, tmpDir, "2023", "Photo-2023-08-15_143005.jpg")

	client := newFakeS3Client()
	vault := NewVaultWithClient(client)

	if err := vault.ArchiveDirectories(context.Background(), tmpDir, "bucket", 1); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if client.puts != 1 {
		t.Errorf("Expected 1 upload, got %d", client.puts)
	}
}

func TestVault_ReportsHeadFailure(t *testing.T) {
	tmpDir := t.TempDir()
	createTestDir(t, tmpDir, "2023", "Photo-2023-08-15_143005.jpg")

	client := newFakeS3Client()
	client.headErr = &mockAPIError{code: "AccessDenied"}

	vault := NewVaultWithClient(client)
	if err := vault.ArchiveDirectories(context.Background(), tmpDir, "bucket", 1); err == nil {
		t.Error("Expected an error when the bucket check fails")
	}
	if client.puts != 0 {
		t.Errorf("Expected no uploads, got %d", client.puts)
	}
}

func TestHashFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "archive.tar.gz")
	content := []byte("archive content")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	hash, size, err := hashFile(path)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d", len(content), size)
	}

	sum := md5.Sum(content)
	if hash != hex.EncodeToString(sum[:]) {
		t.Errorf("Expected MD5 of content, got %s", hash)
	}
}

func TestHashFile_NonexistentFile(t *testing.T) {
	if _, _, err := hashFile("/nonexistent/file.tar.gz"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "NotFound type",
			err:      &types.NotFound{},
			expected: true,
		},
		{
			name:     "NotFound API error code",
			err:      &mockAPIError{code: "NotFound"},
			expected: true,
		},
		{
			name:     "other API error code",
			err:      &mockAPIError{code: "AccessDenied"},
			expected: false,
		},
		{
			name:     "generic error",
			err:      os.ErrNotExist,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := isNotFoundError(tt.err); result != tt.expected {
				t.Errorf("isNotFoundError() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

// Mock API error for testing
type mockAPIError struct {
	code string
}

func (m *mockAPIError) Error() string {
	return m.code
}

func (m *mockAPIError) ErrorCode() string {
	return m.code
}

func (m *mockAPIError) ErrorMessage() string {
	return m.code
}

func (m *mockAPIError) ErrorFault() smithy.ErrorFault {
	return smithy.FaultUnknown
}
