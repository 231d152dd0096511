package results

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"RaceBrain/internal/model"
)

// Feed supplies newly settled race results. Pending may be called again after a failed
// ingestion and must then return the same records until Ack is called.
type Feed interface {
	Pending(ctx context.Context) ([]model.ResultRecord, error)
	Ack(ctx context.Context) error
}

// IngestReport summarises one ingestion pass.
type IngestReport struct {
	Received   int
	Appended   int
	Duplicates int
	Invalid    int
}

// Ingest appends the feed's pending records that are not already in the log. The feed is
// acknowledged only after every record has been durably appended.
func (l *Log) Ingest(ctx context.Context, feed Feed) (IngestReport, error) {
	var report IngestReport
	if feed == nil {
		return report, nil
	}

	pending, err := feed.Pending(ctx)
	if err != nil {
		return report, fmt.Errorf("read pending results: %w", err)
	}
	report.Received = len(pending)
	if len(pending) == 0 {
		return report, nil
	}

	seen := make(map[string]struct{})
	for rec, err := range l.LoadAll() {
		if err != nil {
			return report, err
		}
		seen[recordKey(rec)] = struct{}{}
	}

	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		key := recordKey(rec)
		if _, dup := seen[key]; dup {
			report.Duplicates++
			continue
		}
		if err := l.Append(rec); err != nil {
			var perr *model.PersistenceError
			if errors.As(err, &perr) {
				return report, err
			}
			report.Invalid++
			l.logger.Warn().Err(err).Str("horse", rec.HorseName).Msg("skipping invalid settled result")
			continue
		}
		seen[key] = struct{}{}
		report.Appended++
	}

	if err := feed.Ack(ctx); err != nil {
		return report, fmt.Errorf("ack settled results: %w", err)
	}
	return report, nil
}

func recordKey(r model.ResultRecord) string {
	return r.Date + "|" + strconv.Itoa(r.RaceNumber) + "|" + strings.ToLower(strings.TrimSpace(r.HorseName))
}

// InboxFeed reads settled results that an external collector drops into an NDJSON inbox file.
// Pending moves the inbox aside first so the collector can keep writing a fresh one.
type InboxFeed struct {
	inboxPath string
	logger    zerolog.Logger
}

// NewInboxFeed creates a feed over inboxPath.
func NewInboxFeed(inboxPath string, logger zerolog.Logger) *InboxFeed {
	return &InboxFeed{
		inboxPath: inboxPath,
		logger:    logger.With().Str("component", "results_inbox").Logger(),
	}
}

func (f *InboxFeed) processingPath() string { return f.inboxPath + ".processing" }

// Pending returns the records in the claimed inbox, claiming the current inbox if nothing is
// left over from a previous pass.
func (f *InboxFeed) Pending(ctx context.Context) ([]model.ResultRecord, error) {
	claimed := f.processingPath()
	if _, err := os.Stat(claimed); errors.Is(err, os.ErrNotExist) {
		if err := os.Rename(f.inboxPath, claimed); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("claim inbox: %w", err)
		}
	}

	file, err := os.Open(claimed)
	if err != nil {
		return nil, fmt.Errorf("open claimed inbox: %w", err)
	}
	defer file.Close()

	return decodeRecords(ctx, file, f.logger)
}

func decodeRecords(ctx context.Context, r io.Reader, logger zerolog.Logger) ([]model.ResultRecord, error) {
	var out []model.ResultRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec model.ResultRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			logger.Warn().Err(err).Msg("skipping malformed settled result line")
			continue
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan settled results: %w", err)
	}
	return out, nil
}

// Ack discards the claimed inbox.
func (f *InboxFeed) Ack(context.Context) error {
	if err := os.Remove(f.processingPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// FileFeed replays an NDJSON file of settled results without consuming it. Records already in
// the log are dropped by Ingest, so replaying the same file twice is harmless.
type FileFeed struct {
	Path   string
	Logger zerolog.Logger
}

func (f FileFeed) Pending(ctx context.Context) ([]model.ResultRecord, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open results file: %w", err)
	}
	defer file.Close()
	return decodeRecords(ctx, file, f.Logger)
}

func (FileFeed) Ack(context.Context) error { return nil }

var (
	_ Feed = (*InboxFeed)(nil)
	_ Feed = FileFeed{}
)
