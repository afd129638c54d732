// Package dates provides YYYY-MM-DD date helpers shared by the CLI and the
// remote query-execution flow.
package dates

import (
	"fmt"
	"time"
)

// Layout is the canonical date format used in source filenames and CLI flags.
const Layout = "2006-01-02"

// Yesterday returns yesterday's date in YYYY-MM-DD format.
func Yesterday() string {
	return time.Now().AddDate(0, 0, -1).Format(Layout)
}

// IsValid reports whether s is a valid YYYY-MM-DD date.
func IsValid(s string) bool {
	_, err := time.Parse(Layout, s)
	return err == nil
}

// Range returns every date between start and end inclusive, in YYYY-MM-DD
// format. Returns an error if either bound is malformed or end precedes start.
func Range(start, end string) ([]string, error) {
	from, err := time.Parse(Layout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := time.Parse(Layout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end date %s precedes start date %s", end, start)
	}

	var out []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(Layout))
	}
	return out, nil
}
