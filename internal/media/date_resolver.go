package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"

	"mediarename/internal/logger"
)

// DateSource tags which probe produced a resolved capture date.
type DateSource string

const (
	SourceExifOriginal   DateSource = "exif_original"
	SourceExifDateTime   DateSource = "exif_datetime"
	SourceExifCreateDate DateSource = "exif_createdate"
	SourceVideoMetadata  DateSource = "video_metadata"
	SourceFilesystem     DateSource = "filesystem_fallback"
)

// DateResult is the outcome of resolving a capture date. The time is
// always second-precision local time; exactly one source tag is set.
type DateResult struct {
	Time   time.Time
	Source DateSource
}

// PhotoMetadataReader returns a mapping of EXIF tag name to value for a
// file. Readers report an error when the file or the backing tool is
// unavailable; the resolver then tries the next reader.
type PhotoMetadataReader interface {
	ReadTags(filePath string) (map[string]string, error)
}

// VideoMetadataProber returns the container-level creation-time string
// for a video file, or an empty string when the container carries none.
type VideoMetadataProber interface {
	CreationTime(filePath string) (string, error)
}

// exifProbe pairs an EXIF tag name with the source tag it reports.
type exifProbe struct {
	tag    string
	source DateSource
}

// exifProbes is the probe order for photos: date taken, then date
// created, then date digitised.
var exifProbes = []exifProbe{
	{tag: "DateTimeOriginal", source: SourceExifOriginal},
	{tag: "DateTime", source: SourceExifDateTime},
	{tag: "CreateDate", source: SourceExifCreateDate},
}

// parseExifDate parses an EXIF date string. The standard format is
// "2006:01:02 15:04:05"; some writers use dashes instead of colons and
// append sub-second or timezone suffixes, which are ignored.
func parseExifDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) > 19 {
		value = value[:19]
	}
	if t, err := time.Parse("2006:01:02 15:04:05", value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable EXIF date: %q", value)
}

// parseVideoTime parses an ISO-8601-like creation time, tolerating a
// trailing UTC marker and fractional seconds ("2023-08-15T14:22:03.000000Z").
func parseVideoTime(value string) (time.Time, error) {
	value = strings.TrimSpace(strings.TrimSuffix(value, "Z"))
	if i := strings.IndexByte(value, '.'); i >= 0 {
		value = value[:i]
	}
	if strings.ContainsRune(value, 'T') {
		return time.Parse("2006-01-02T15:04:05", value)
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// exiftoolReader reads EXIF tags through the exiftool binary.
type exiftoolReader struct {
	et *exiftool.Exiftool
}

func (r *exiftoolReader) ReadTags(filePath string) (map[string]string, error) {
	fileInfos := r.et.ExtractMetadata(filePath)
	if len(fileInfos) == 0 {
		return nil, fmt.Errorf("no metadata found")
	}
	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		return nil, fileInfo.Err
	}

	tags := make(map[string]string, len(fileInfo.Fields))
	for name, value := range fileInfo.Fields {
		if s, ok := value.(string); ok {
			tags[name] = s
		}
	}
	return tags, nil
}

// goexifReader reads EXIF tags in pure Go, used when the exiftool
// binary is not installed.
type goexifReader struct{}

func (r *goexifReader) ReadTags(filePath string) (map[string]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, err
	}

	tags := make(map[string]string, len(exifProbes))
	fields := []struct {
		name exif.FieldName
		tag  string
	}{
		{exif.DateTimeOriginal, "DateTimeOriginal"},
		{exif.DateTime, "DateTime"},
		// DateTimeDigitized is what exiftool reports as CreateDate.
		{exif.DateTimeDigitized, "CreateDate"},
	}
	for _, field := range fields {
		if tag, err := x.Get(field.name); err == nil {
			if s, err := tag.StringVal(); err == nil {
				tags[field.tag] = s
			}
		}
	}
	return tags, nil
}

// ffprobeProber extracts the container creation time via the ffprobe
// binary. A missing binary or a timeout is reported as an error, which
// the resolver degrades to the filesystem fallback.
type ffprobeProber struct {
	binPath string
	timeout time.Duration
}

func newFFProbeProber() *ffprobeProber {
	return &ffprobeProber{binPath: "ffprobe", timeout: 30 * time.Second}
}

// ffprobeOutput is the subset of ffprobe's JSON output the prober reads.
type ffprobeOutput struct {
	Format struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
}

func (p *ffprobeProber) CreationTime(filePath string) (string, error) {
	cmd := exec.Command(p.binPath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_entries", "format_tags=creation_time",
		filePath)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("ffprobe not available: %w", err)
	}
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("ffprobe failed: %w", err)
		}
	case <-time.After(p.timeout):
		_ = cmd.Process.Kill()
		<-done
		return "", fmt.Errorf("ffprobe timed out after %s", p.timeout)
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return "", fmt.Errorf("ffprobe output: %w", err)
	}
	return out.Format.Tags["creation_time"], nil
}

// DateResolver produces the best-available capture date for a file
// using a prioritised chain of metadata sources with graceful fallback.
//
// Photos probe EXIF tags in order:
//
//   - DateTimeOriginal: the date the shot was taken.
//   - DateTime: the date the image was created.
//   - CreateDate: the date the image was digitised.
//
// Videos probe the container creation time through ffprobe. When every
// metadata probe fails, the file's modification time wins. Resolution
// never fails: it always returns a date plus the tag of the source that
// produced it.
type DateResolver struct {
	photoReaders []PhotoMetadataReader
	videoProber  VideoMetadataProber
	cache        *ProbeCache
}

// NewDateResolver creates a DateResolver. The exiftool instance may be
// nil, in which case photos are read with the pure-Go reader only.
func NewDateResolver(et *exiftool.Exiftool) *DateResolver {
	var readers []PhotoMetadataReader
	if et != nil {
		readers = append(readers, &exiftoolReader{et: et})
	}
	readers = append(readers, &goexifReader{})
	return &DateResolver{
		photoReaders: readers,
		videoProber:  newFFProbeProber(),
	}
}

// NewDateResolverWithProbes creates a DateResolver with explicit
// collaborators.
func NewDateResolverWithProbes(readers []PhotoMetadataReader, prober VideoMetadataProber) *DateResolver {
	return &DateResolver{photoReaders: readers, videoProber: prober}
}

// UseCache attaches a probe cache keyed by path, size and modification
// time. A nil cache disables caching.
func (r *DateResolver) UseCache(cache *ProbeCache) {
	r.cache = cache
}

// Resolve returns the capture date of a file and the source that
// produced it. It is read-only and never fails.
func (r *DateResolver) Resolve(filePath string, kind Kind) DateResult {
	info, statErr := os.Stat(filePath)

	if r.cache != nil && statErr == nil {
		if res, ok := r.cache.Get(filePath, info.Size(), info.ModTime()); ok {
			return res
		}
	}

	res, ok := r.resolveMetadata(filePath, kind)
	if !ok {
		res = r.fallback(filePath, info, statErr)
	}

	if r.cache != nil && statErr == nil {
		r.cache.Put(filePath, info.Size(), info.ModTime(), res)
	}
	return res
}

// resolveMetadata probes the metadata sources for the file's kind,
// stopping at the first success.
func (r *DateResolver) resolveMetadata(filePath string, kind Kind) (DateResult, bool) {
	if kind == KindVideo {
		if r.videoProber == nil {
			return DateResult{}, false
		}
		value, err := r.videoProber.CreationTime(filePath)
		if err != nil {
			logger.Debug("Video probe failed", "file", filepath.Base(filePath), "error", err)
			return DateResult{}, false
		}
		if value == "" {
			return DateResult{}, false
		}
		t, err := parseVideoTime(value)
		if err != nil {
			logger.Debug("Unparseable video creation time", "file", filepath.Base(filePath), "value", value)
			return DateResult{}, false
		}
		return DateResult{Time: truncateToSecond(t), Source: SourceVideoMetadata}, true
	}

	for _, reader := range r.photoReaders {
		tags, err := reader.ReadTags(filePath)
		if err != nil {
			logger.Debug("Photo reader failed, trying next", "file", filepath.Base(filePath), "error", err)
			continue
		}
		for _, probe := range exifProbes {
			value, ok := tags[probe.tag]
			if !ok {
				continue
			}
			t, err := parseExifDate(value)
			if err != nil {
				logger.Debug("Unparseable EXIF date", "file", filepath.Base(filePath), "tag", probe.tag, "value", value)
				continue
			}
			return DateResult{Time: truncateToSecond(t), Source: probe.source}, true
		}
	}
	return DateResult{}, false
}

// fallback returns the filesystem modification time, or the current
// time if the file cannot be stat'ed.
func (r *DateResolver) fallback(filePath string, info os.FileInfo, statErr error) DateResult {
	if statErr != nil {
		logger.Warn("Cannot stat file, using current time", "file", filePath, "error", statErr)
		return DateResult{Time: truncateToSecond(time.Now()), Source: SourceFilesystem}
	}
	logger.Debug("Using file modification time", "file", filepath.Base(filePath), "modTime", info.ModTime())
	return DateResult{Time: truncateToSecond(info.ModTime()), Source: SourceFilesystem}
}
