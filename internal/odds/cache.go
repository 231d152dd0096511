package odds

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"RaceBrain/internal/fsutil"
	"RaceBrain/internal/model"
)

// Fetcher returns the raw odds page for url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Cache holds the latest odds snapshot on disk. The refresh job is its only writer.
type Cache struct {
	mu       sync.RWMutex
	filePath string
	now      func() time.Time
	logger   zerolog.Logger
}

// NewCache creates a Cache backed by filePath.
func NewCache(filePath string, logger zerolog.Logger) *Cache {
	return &Cache{
		filePath: filePath,
		now:      time.Now,
		logger:   logger.With().Str("component", "odds_cache").Logger(),
	}
}

// Path returns the snapshot file location.
func (c *Cache) Path() string { return c.filePath }

// Refresh fetches and parses the odds page and fully replaces the stored snapshot. Any fetch
// or parse failure is returned as a FetchError and the previous file is left as it was.
func (c *Cache) Refresh(ctx context.Context, fetcher Fetcher, url string) (model.OddsSnapshot, error) {
	raw, err := fetcher.Fetch(ctx, url)
	if err != nil {
		var ferr *model.FetchError
		if errors.As(err, &ferr) {
			return nil, err
		}
		return nil, &model.FetchError{Op: "fetch odds", Err: err}
	}

	snapshot, err := ParseTable(raw, c.now().UTC())
	if err != nil {
		return nil, &model.FetchError{Op: "parse odds", Err: err}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, &model.PersistenceError{Op: "encode odds", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := fsutil.WriteFileAtomic(c.filePath, data, 0o644); err != nil {
		return nil, &model.PersistenceError{Op: "save odds", Err: err}
	}
	c.logger.Debug().Int("runners", len(snapshot)).Msg("odds snapshot replaced")
	return snapshot, nil
}

// Current returns the stored snapshot. A missing or unreadable file yields an empty snapshot.
func (c *Cache) Current() model.OddsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn().Err(err).Msg("odds snapshot unreadable")
		}
		return model.OddsSnapshot{}
	}
	var snapshot model.OddsSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		c.logger.Warn().Err(err).Msg("odds snapshot corrupt")
		return model.OddsSnapshot{}
	}
	if snapshot == nil {
		return model.OddsSnapshot{}
	}
	return snapshot
}
