package media

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mediarename/internal/logger"
)

// ScanResult lists the candidate files found under a directory.
type ScanResult struct {
	// Files are the supported media files in discovery order.
	Files []MediaFile
	// Unsupported is the number of files skipped for their extension.
	Unsupported int
}

// Scanner discovers candidate media files beneath a base directory.
type Scanner struct {
	extensions Extensions
}

// NewScanner creates a Scanner.
func NewScanner(extensions Extensions) *Scanner {
	return &Scanner{extensions: extensions}
}

// Scan walks the base directory recursively and collects supported
// media files. Hidden files and directories are skipped, which also
// keeps the history file out of the candidate list.
func (s *Scanner) Scan(baseDir string) (*ScanResult, error) {
	if info, err := os.Stat(baseDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("not a valid directory: %s", baseDir)
	}

	result := &ScanResult{}
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() && path != baseDir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		kind, ok := s.extensions.KindOf(path)
		if !ok {
			result.Unsupported++
			return nil
		}
		result.Files = append(result.Files, MediaFile{Path: path, Kind: kind})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	logger.Debug("Scan complete", "dir", baseDir, "files", len(result.Files), "unsupported", result.Unsupported)
	return result, nil
}
