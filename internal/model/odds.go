package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// NoOdds marks a runner whose win price was blank on the board.
const NoOdds = "N/A"

// OddsQuote is the latest win price seen for one runner.
type OddsQuote struct {
	Win        string    `json:"win"`
	ObservedAt time.Time `json:"observed_at"`
}

// Decimal parses the win price. ok is false for scratched or blank prices.
func (q OddsQuote) Decimal() (float64, bool) {
	s := strings.TrimSpace(q.Win)
	if s == "" || s == NoOdds {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 1 {
		return 0, false
	}
	return v, true
}

// OddsSnapshot maps horse name to its latest quote.
type OddsSnapshot map[string]OddsQuote

// ObservedAt returns the newest observation time in the snapshot.
func (s OddsSnapshot) ObservedAt() time.Time {
	var latest time.Time
	for _, q := range s {
		if q.ObservedAt.After(latest) {
			latest = q.ObservedAt
		}
	}
	return latest
}

// Stale reports whether the snapshot is empty or older than maxAge at now.
func (s OddsSnapshot) Stale(now time.Time, maxAge time.Duration) bool {
	if len(s) == 0 {
		return true
	}
	return now.Sub(s.ObservedAt()) > maxAge
}

// Horses returns runner names in a stable order.
func (s OddsSnapshot) Horses() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
