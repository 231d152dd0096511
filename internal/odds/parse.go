package odds

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"RaceBrain/internal/model"
)

const (
	horseCell = 1
	winCell   = 3
	minCells  = 5
)

// ErrNoRunners is returned when a page parses but holds no odds rows.
var ErrNoRunners = errors.New("no runners found in odds table")

// ParseTable reads the win/place board. The first <tr> is the header; every later row with at
// least five <td> cells contributes horse (2nd cell) and win price (4th cell). A blank price is
// recorded as "N/A".
func ParseTable(raw string, observedAt time.Time) (model.OddsSnapshot, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("empty odds page")
	}
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse odds page: %w", err)
	}

	rows := collect(doc, "tr")
	snapshot := make(model.OddsSnapshot)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		cells := children(row, "td")
		if len(cells) < minCells {
			continue
		}
		horse := text(cells[horseCell])
		if horse == "" {
			continue
		}
		win := text(cells[winCell])
		if win == "" {
			win = model.NoOdds
		}
		snapshot[horse] = model.OddsQuote{Win: win, ObservedAt: observedAt}
	}
	if len(snapshot) == 0 {
		return nil, ErrNoRunners
	}
	return snapshot, nil
}

func collect(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// children returns the direct tag children of n, so nested tables don't leak cells.
func children(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
	}
	return out
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
