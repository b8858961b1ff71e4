//go:build !windows

package media

// markHidden is a no-op: the leading dot in the filename already hides
// the history file on these platforms.
func markHidden(string) {}
