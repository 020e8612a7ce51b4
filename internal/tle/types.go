package tle

import "time"

// TLEEntry represents a single satellite's two-line element set.
type TLEEntry struct {
	NORADID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// Lookup returns the entry for noradID. When a file lists the same object
// more than once the entry with the latest epoch wins.
func Lookup(entries []TLEEntry, noradID int) (TLEEntry, bool) {
	var best TLEEntry
	found := false
	for _, e := range entries {
		if e.NORADID != noradID {
			continue
		}
		if !found || e.Epoch.After(best.Epoch) {
			best = e
			found = true
		}
	}
	return best, found
}
