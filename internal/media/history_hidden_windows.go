//go:build windows

package media

import "golang.org/x/sys/windows"

// markHidden sets the hidden attribute on the history file so it stays
// out of Explorer listings.
func markHidden(path string) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return
	}
	_ = windows.SetFileAttributes(p, attrs|windows.FILE_ATTRIBUTE_HIDDEN)
}
