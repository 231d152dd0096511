package collector

import (
	"context"
	"strings"
	"time"
)

// Fetcher returns the raw text of a race or odds page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	Name() string
}

// DateLayout is the format substituted for the {date} placeholder.
const DateLayout = "2006-01-02"

// ExpandURL substitutes {date} in a page template with the given day.
func ExpandURL(template string, day time.Time) string {
	return strings.ReplaceAll(template, "{date}", day.Format(DateLayout))
}
