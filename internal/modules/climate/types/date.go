package types

import "time"

// TrailingWindow is subtracted from the latest date to get the exclusive
// lower bound of the "last 12 months" window.
const TrailingWindow = 365 * 24 * time.Hour

// ParseDate parses a strict YYYY-MM-DD date into midnight UTC. Surrounding
// whitespace is rejected.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, &DateError{Value: s}
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// WindowStart returns the exclusive lower bound of the trailing window
// ending at last.
func WindowStart(last time.Time) time.Time {
	return last.Add(-TrailingWindow)
}

// InWindow reports whether d lies in (WindowStart(last), last].
func InWindow(d, last time.Time) bool {
	return d.After(WindowStart(last)) && !d.After(last)
}
