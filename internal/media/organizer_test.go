package media

import (
	"path/filepath"
	"testing"
	"time"
)

func TestOrganizationMode_TargetDir(t *testing.T) {
	date := time.Date(2023, 8, 15, 14, 30, 5, 0, time.Local)
	base := filepath.Join("/", "out")

	cases := []struct {
		mode OrganizationMode
		want string
	}{
		{OrganizeNone, base},
		{OrganizeYear, filepath.Join(base, "2023")},
		{OrganizeYearMonth, filepath.Join(base, "2023", "08")},
		{OrganizeDate, filepath.Join(base, "2023", "08", "15")},
	}

	for _, tc := range cases {
		if got := tc.mode.TargetDir(base, date); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.mode, tc.want, got)
		}
	}
}

func TestParseOrganizationMode(t *testing.T) {
	for _, s := range []string{"", "none", "year", "year-month", "date"} {
		if _, err := ParseOrganizationMode(s); err != nil {
			t.Errorf("Expected %q to parse, got: %v", s, err)
		}
	}

	if _, err := ParseOrganizationMode("month"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}
