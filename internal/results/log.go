package results

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"RaceBrain/internal/fsutil"
	"RaceBrain/internal/model"
)

const maxLineBytes = 1 << 20

// Log is the append-only history of settled runner outcomes, one JSON object per line.
type Log struct {
	mu       sync.Mutex
	filePath string
	logger   zerolog.Logger
}

// NewLog creates a Log over filePath. The file is created on first append.
func NewLog(filePath string, logger zerolog.Logger) *Log {
	return &Log{
		filePath: filePath,
		logger:   logger.With().Str("component", "results_log").Logger(),
	}
}

// Path returns the log location.
func (l *Log) Path() string { return l.filePath }

// Append writes one record and syncs it to disk. Only required-field presence is checked;
// sparse feature columns are accepted as-is.
func (l *Log) Append(record model.ResultRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid result record: %w", err)
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode result record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := fsutil.EnsureDir(l.filePath); err != nil {
		return &model.PersistenceError{Op: "append result", Err: err}
	}
	f, err := os.OpenFile(l.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &model.PersistenceError{Op: "append result", Err: err}
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return &model.PersistenceError{Op: "append result", Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return &model.PersistenceError{Op: "append result", Err: err}
	}
	if err := f.Close(); err != nil {
		return &model.PersistenceError{Op: "append result", Err: err}
	}
	return nil
}

// LoadAll returns a lazy sequence over every record in the log. Each iteration re-reads the
// file from the beginning. A missing log yields nothing; malformed lines are skipped.
func (l *Log) LoadAll() iter.Seq2[model.ResultRecord, error] {
	return func(yield func(model.ResultRecord, error) bool) {
		f, err := os.Open(l.filePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return
			}
			yield(model.ResultRecord{}, &model.PersistenceError{Op: "read results", Err: err})
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			raw := scanner.Bytes()
			if len(raw) == 0 {
				continue
			}
			var rec model.ResultRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				l.logger.Warn().Err(err).Int("line", lineNo).Msg("skipping malformed result line")
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(model.ResultRecord{}, &model.PersistenceError{Op: "read results", Err: err})
		}
	}
}

// ReadAll collects the whole log into memory.
func (l *Log) ReadAll() ([]model.ResultRecord, error) {
	var out []model.ResultRecord
	for rec, err := range l.LoadAll() {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}
