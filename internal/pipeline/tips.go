package pipeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"RaceBrain/internal/collector"
)

// DefaultTips is used whenever no better tips text is available.
const DefaultTips = "Tips: Favor inside barriers at HV."

// TipsSource supplies free-text expert tips for the meeting.
type TipsSource interface {
	Tips(ctx context.Context) (string, error)
}

// StaticTips always returns the same text.
type StaticTips string

func (s StaticTips) Tips(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return DefaultTips, nil
	}
	return string(s), nil
}

// PageTips reads tips from a web page and keeps its visible text, truncated to MaxChars.
// Any failure falls back to DefaultTips.
type PageTips struct {
	Fetcher  collector.Fetcher
	URL      string
	MaxChars int
	Logger   zerolog.Logger
}

func (p *PageTips) Tips(ctx context.Context) (string, error) {
	if p.Fetcher == nil || p.URL == "" {
		return DefaultTips, nil
	}
	raw, err := p.Fetcher.Fetch(ctx, p.URL)
	if err != nil {
		p.Logger.Warn().Err(err).Str("url", p.URL).Msg("tips fetch failed, using default tips")
		return DefaultTips, nil
	}
	text := visibleText(raw)
	if text == "" {
		return DefaultTips, nil
	}
	limit := p.MaxChars
	if limit <= 0 {
		limit = 1500
	}
	if r := []rune(text); len(r) > limit {
		text = string(r[:limit])
	}
	return text, nil
}

// visibleText strips markup, scripts and styles from an HTML page.
func visibleText(raw string) string {
	z := html.NewTokenizer(strings.NewReader(raw))
	var parts []string
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.StartTagToken:
			if name, _ := z.TagName(); isHidden(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHidden(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if s := strings.Join(strings.Fields(string(z.Text())), " "); s != "" {
				parts = append(parts, s)
			}
		}
	}
}

func isHidden(tag string) bool {
	return tag == "script" || tag == "style" || tag == "noscript"
}
