package media

import (
	"path/filepath"
	"slices"
	"strings"
)

// Extensions defines the interface for file extension operations.
type Extensions interface {
	// IsPhoto returns true if the file extension is a supported photo format.
	IsPhoto(filePath string) bool
	// IsVideo returns true if the file extension is a supported video format.
	IsVideo(filePath string) bool
	// IsSupported returns true if the file extension is any supported media format.
	IsSupported(filePath string) bool
	// KindOf returns the media kind for a supported file, false otherwise.
	KindOf(filePath string) (Kind, bool)
}

// extensions implements the Extensions interface.
type extensions struct {
	photoExts []string
	videoExts []string
}

// NewExtensions creates an Extensions instance covering the full set of
// recognised photo and video formats.
func NewExtensions() Extensions {
	return &extensions{
		photoExts: []string{
			".jpg", ".jpeg", ".jpe", ".jfif",
			".png", ".gif",
			".bmp", ".dib",
			".tif", ".tiff",
			".webp",
			".heic", ".heif",
			".raw", ".cr2", ".nef", ".arw",
			".dng", ".orf", ".rw2",
			".psd", ".ico", ".pcx", ".tga",
		},
		videoExts: []string{
			".mp4", ".m4v", ".m4p",
			".mov", ".qt",
			".avi",
			".wmv", ".asf",
			".flv", ".f4v",
			".mkv", ".webm",
			".mpg", ".mpeg", ".mpe",
			".3gp", ".3g2",
			".vob", ".ogv",
			".mts", ".m2ts", ".ts",
		},
	}
}

// IsPhoto returns true if the file extension is a supported photo format.
func (e *extensions) IsPhoto(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	return slices.Contains(e.photoExts, ext)
}

// IsVideo returns true if the file extension is a supported video format.
func (e *extensions) IsVideo(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	return slices.Contains(e.videoExts, ext)
}

// IsSupported returns true if the file extension is any supported media format.
func (e *extensions) IsSupported(filePath string) bool {
	return e.IsPhoto(filePath) || e.IsVideo(filePath)
}

// KindOf returns the media kind for a supported file, false otherwise.
func (e *extensions) KindOf(filePath string) (Kind, bool) {
	switch {
	case e.IsPhoto(filePath):
		return KindPhoto, true
	case e.IsVideo(filePath):
		return KindVideo, true
	default:
		return "", false
	}
}
