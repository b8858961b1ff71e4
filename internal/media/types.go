package media

import "time"

// Kind identifies the media category of a file. It is derived once from
// the file extension and never changes.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
)

// Label returns the capitalised form used in filenames ("Photo"/"Video").
func (k Kind) Label() string {
	if k == KindVideo {
		return "Video"
	}
	return "Photo"
}

// MediaFile represents one input file under consideration by the planner.
type MediaFile struct {
	// Path is the absolute path to the file.
	Path string
	// Kind is the media category derived from the extension.
	Kind Kind
}

// RenameOperation is one planned or executed filename change.
type RenameOperation struct {
	// Source is the current path of the file.
	Source string
	// Destination is the path the file will be moved to.
	Destination string
	// Kind is the media category of the file.
	Kind Kind
}

// BatchStats summarises the outcome of one batch run.
type BatchStats struct {
	// Renamed is the number of files successfully renamed.
	Renamed int
	// AlreadyRenamed is the number of files skipped because they
	// already matched the output pattern.
	AlreadyRenamed int
	// Unsupported is the number of files skipped for their extension.
	Unsupported int
	// Failed is the number of files whose rename failed.
	Failed int
}

// ProgressEvent represents a progress update during batch execution.
type ProgressEvent struct {
	// Current is the number of operations executed so far.
	Current int
	// Total is the total number of planned operations.
	Total int
	// File is the source path of the operation being executed.
	File string
}

// Config holds the options the core pipeline consumes. Parsing of flags
// or widgets into these values is the caller's concern.
type Config struct {
	// Template is the filename pattern. Zero value means the default.
	Template Template
	// Organization controls date-based subdirectory placement.
	Organization OrganizationMode
	// RenameAgain re-renames files that already match the output pattern.
	RenameAgain bool
	// DryRun produces the identical plan but suppresses execution.
	DryRun bool
}

// truncateToSecond drops sub-second precision from a timestamp. All
// resolved capture dates are second-precision.
func truncateToSecond(t time.Time) time.Time {
	return t.Truncate(time.Second)
}
