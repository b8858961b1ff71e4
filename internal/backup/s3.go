package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dustin/go-humanize"

	"mediarename/internal/logger"
	"mediarename/internal/media"
)

// s3Client is the slice of the S3 API the vault uses. Tests substitute
// a fake.
type s3Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Vault archives the first-level subdirectories of an organised output
// tree (the year or date directories the renamer produces) to S3 as
// tar.gz files, skipping archives already stored with the same content.
type Vault struct {
	client     s3Client
	extensions media.Extensions
}

// NewVault creates a Vault using the default AWS credential chain.
func NewVault(ctx context.Context) (*Vault, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &Vault{
		client:     s3.NewFromConfig(cfg),
		extensions: media.NewExtensions(),
	}, nil
}

// NewVaultWithClient creates a Vault around an explicit client.
func NewVaultWithClient(client s3Client) *Vault {
	return &Vault{client: client, extensions: media.NewExtensions()}
}

// ArchiveDirectories archives every first-level subdirectory of baseDir
// to the bucket, running up to maxConcurrent uploads in parallel.
func (v *Vault) ArchiveDirectories(ctx context.Context, baseDir, bucket string, maxConcurrent int) error {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return fmt.Errorf("failed to read source directory: %w", err)
	}

	var directories []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			directories = append(directories, entry.Name())
		}
	}
	if len(directories) == 0 {
		logger.Info("No directories found to archive")
		return nil
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	logger.Info("Starting archive upload", "directories", len(directories), "bucket", bucket, "concurrency", maxConcurrent)

	jobs := make(chan string, len(directories))
	results := make(chan error, len(directories))
	var wg sync.WaitGroup

	for i := 0; i < maxConcurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for dirName := range jobs {
				if err := v.archiveDirectory(ctx, baseDir, dirName, bucket); err != nil {
					logger.Error("Failed to archive directory", "directory", dirName, "error", err)
					results <- fmt.Errorf("directory %s: %w", dirName, err)
				} else {
					results <- nil
				}
			}
		}()
	}

	for _, dirName := range directories {
		jobs <- dirName
	}
	close(jobs)
	wg.Wait()
	close(results)

	failed := 0
	for err := range results {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("archive upload failed for %d directories", failed)
	}

	logger.Info("Archive upload completed", "directories", len(directories))
	return nil
}

// archiveDirectory archives a single subdirectory and uploads it unless
// an identical archive is already stored.
func (v *Vault) archiveDirectory(ctx context.Context, baseDir, dirName, bucket string) error {
	dirPath := filepath.Join(baseDir, dirName)

	photos, videos, err := v.countMedia(dirPath)
	if err != nil {
		return fmt.Errorf("failed to count media files: %w", err)
	}
	key := fmt.Sprintf("%s (%d photos, %d videos).tar.gz", dirName, photos, videos)

	tmpDir, err := os.MkdirTemp("", "mediarename_backup_")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logger.Error("Failed to remove temporary directory", "path", tmpDir, "error", err)
		}
	}()

	archivePath := filepath.Join(tmpDir, filepath.Base(key))
	if err := createTarGz(dirPath, archivePath); err != nil {
		return fmt.Errorf("failed to create tar.gz: %w", err)
	}

	localHash, size, err := hashFile(archivePath)
	if err != nil {
		return fmt.Errorf("failed to hash archive: %w", err)
	}

	head, err := v.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		if strings.Trim(aws.ToString(head.ETag), `"`) == localHash {
			logger.Info("Archive already stored with matching hash, skipping", "key", key)
			return nil
		}
		logger.Warn("Stored archive differs, re-uploading", "key", key)
	case !isNotFoundError(err):
		return fmt.Errorf("failed to check stored archive: %w", err)
	}

	logger.Info("Uploading archive", "key", key, "size", humanize.Bytes(uint64(size)), "hash", localHash)
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := v.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   file,
	}); err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}
	return nil
}

// countMedia counts photos and videos in a directory tree.
func (v *Vault) countMedia(dirPath string) (photos int, videos int, err error) {
	err = filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		switch {
		case v.extensions.IsPhoto(path):
			photos++
		case v.extensions.IsVideo(path):
			videos++
		}
		return nil
	})
	return photos, videos, err
}

// hashFile returns the MD5 hash and size of a file.
func hashFile(path string) (string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer file.Close()

	hash := md5.New()
	size, err := io.Copy(hash, file)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(hash.Sum(nil)), size, nil
}

// isNotFoundError checks whether an S3 error means the object is absent.
func isNotFoundError(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return true
	}
	return false
}

// createTarGz archives a directory tree with paths relative to it.
func createTarGz(sourceDir, targetFile string) error {
	file, err := os.Create(targetFile)
	if err != nil {
		return err
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	defer gzWriter.Close()

	tarWriter := tar.NewWriter(gzWriter)
	defer tarWriter.Close()

	return filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		header.Name = relPath

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tarWriter, f)
		return err
	})
}
