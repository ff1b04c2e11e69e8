package inventory

import "time"

// ExpiryBand classifies a batch by how soon it expires
type ExpiryBand string

const (
	BandRed    ExpiryBand = "red"
	BandOrange ExpiryBand = "orange"
	BandYellow ExpiryBand = "yellow"
	BandOK     ExpiryBand = "ok"
)

// ParseBand parses a band name; unknown names return false
func ParseBand(s string) (ExpiryBand, bool) {
	switch b := ExpiryBand(s); b {
	case BandRed, BandOrange, BandYellow, BandOK:
		return b, true
	}
	return "", false
}

// ClassifyExpiry bands an expiry month, given as the first day of that
// month. Already expired batches fall in the red band.
func ClassifyExpiry(expiry, now time.Time) ExpiryBand {
	switch {
	case !expiry.After(now.AddDate(0, 3, 0)):
		return BandRed
	case !expiry.After(now.AddDate(0, 6, 0)):
		return BandOrange
	case !expiry.After(now.AddDate(0, 12, 0)):
		return BandYellow
	default:
		return BandOK
	}
}

// Severity orders bands from most to least urgent
func (b ExpiryBand) Severity() int {
	switch b {
	case BandRed:
		return 3
	case BandOrange:
		return 2
	case BandYellow:
		return 1
	}
	return 0
}

// AtLeast reports whether b is as urgent as other or more
func (b ExpiryBand) AtLeast(other ExpiryBand) bool {
	return b.Severity() >= other.Severity()
}
