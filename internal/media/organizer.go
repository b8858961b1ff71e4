package media

import (
	"fmt"
	"path/filepath"
	"time"
)

// OrganizationMode determines how many date-derived path segments are
// appended beneath the base output directory.
type OrganizationMode string

const (
	// OrganizeNone keeps every file in its original directory.
	OrganizeNone OrganizationMode = "none"
	// OrganizeYear groups files by year: 2023/, 2024/.
	OrganizeYear OrganizationMode = "year"
	// OrganizeYearMonth groups files by year and month: 2023/08/.
	OrganizeYearMonth OrganizationMode = "year-month"
	// OrganizeDate groups files by full date: 2023/08/15/.
	OrganizeDate OrganizationMode = "date"
)

// ParseOrganizationMode validates a mode string. An empty string means
// no organization.
func ParseOrganizationMode(s string) (OrganizationMode, error) {
	switch OrganizationMode(s) {
	case "", OrganizeNone:
		return OrganizeNone, nil
	case OrganizeYear, OrganizeYearMonth, OrganizeDate:
		return OrganizationMode(s), nil
	}
	return "", fmt.Errorf("unknown organization mode %q (expected none, year, year-month or date)", s)
}

// TargetDir returns the destination directory for a file with the given
// capture date.
func (m OrganizationMode) TargetDir(baseDir string, date time.Time) string {
	switch m {
	case OrganizeYear:
		return filepath.Join(baseDir, date.Format("2006"))
	case OrganizeYearMonth:
		return filepath.Join(baseDir, date.Format("2006"), date.Format("01"))
	case OrganizeDate:
		return filepath.Join(baseDir, date.Format("2006"), date.Format("01"), date.Format("02"))
	default:
		return baseDir
	}
}
