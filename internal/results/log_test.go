package results

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RaceBrain/internal/model"
)

func sampleRecord(race int, horse string, position int) model.ResultRecord {
	return model.ResultRecord{
		Date:              "2026-10-21",
		RaceNumber:        race,
		HorseName:         horse,
		Jockey:            "Z Purton",
		Barrier:           3,
		OddsAtClose:       4.5,
		FinishingPosition: position,
	}
}

func TestLoadAll_MissingLogYieldsNothing(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "past_results.jsonl"), zerolog.Nop())

	records, err := log.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAppend_PreservesOrder(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "data", "past_results.jsonl"), zerolog.Nop())

	for i, horse := range []string{"GOLDEN SIXTY", "ROMANTIC WARRIOR", "CALIFORNIA SPANGLE"} {
		require.NoError(t, log.Append(sampleRecord(i+1, horse, i+1)))
	}

	records, err := log.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "GOLDEN SIXTY", records[0].HorseName)
	assert.Equal(t, "CALIFORNIA SPANGLE", records[2].HorseName)
	assert.True(t, records[0].Won())
}

func TestAppend_RejectsMissingRequiredFields(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "past_results.jsonl"), zerolog.Nop())

	err := log.Append(model.ResultRecord{RaceNumber: 1})
	require.Error(t, err)
	var perr *model.PersistenceError
	assert.False(t, errors.As(err, &perr))

	_, statErr := os.Stat(log.Path())
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestAppend_UnwritablePathIsPersistenceError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	log := NewLog(filepath.Join(blocker, "past_results.jsonl"), zerolog.Nop())
	err := log.Append(sampleRecord(1, "GOLDEN SIXTY", 1))

	var perr *model.PersistenceError
	assert.True(t, errors.As(err, &perr))
}

func TestLoadAll_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "past_results.jsonl")
	content := `{"date":"2026-10-21","race":1,"horse":"A","position":1}
not json at all
{"date":"2026-10-21","race":2,"horse":"B","position":4}

{"date":"2026-10-21","race":3,"horse":"C"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := NewLog(path, zerolog.Nop()).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].HorseName)
	assert.Equal(t, "B", records[1].HorseName)
}

func TestLoadAll_IsRestartable(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "past_results.jsonl"), zerolog.Nop())
	require.NoError(t, log.Append(sampleRecord(1, "A", 1)))
	require.NoError(t, log.Append(sampleRecord(2, "B", 2)))

	seq := log.LoadAll()
	count := func() int {
		n := 0
		for _, err := range seq {
			require.NoError(t, err)
			n++
		}
		return n
	}
	assert.Equal(t, 2, count())
	assert.Equal(t, 2, count())

	// early break must not leak or fail
	for range seq {
		break
	}
}

func TestIngest_InboxFeedAppendsAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	log := NewLog(filepath.Join(dir, "past_results.jsonl"), zerolog.Nop())
	require.NoError(t, log.Append(sampleRecord(1, "A", 1)))

	inbox := filepath.Join(dir, "settled_inbox.jsonl")
	content := `{"date":"2026-10-21","race":1,"horse":"a","position":1}
{"date":"2026-10-21","race":2,"horse":"B","position":3}
{"race":3,"horse":"missing date"}
`
	require.NoError(t, os.WriteFile(inbox, []byte(content), 0o644))

	feed := NewInboxFeed(inbox, zerolog.Nop())
	report, err := log.Ingest(context.Background(), feed)
	require.NoError(t, err)
	assert.Equal(t, IngestReport{Received: 3, Appended: 1, Duplicates: 1, Invalid: 1}, report)

	records, err := log.ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = os.Stat(inbox)
	assert.True(t, errors.Is(err, os.ErrNotExist), "inbox must be consumed")
	_, err = os.Stat(inbox + ".processing")
	assert.True(t, errors.Is(err, os.ErrNotExist), "claimed inbox must be acknowledged")

	// nothing left to ingest
	report, err = log.Ingest(context.Background(), feed)
	require.NoError(t, err)
	assert.Equal(t, IngestReport{}, report)
}

type failingAckFeed struct {
	records []model.ResultRecord
	acked   int
}

func (f *failingAckFeed) Pending(context.Context) ([]model.ResultRecord, error) {
	return f.records, nil
}

func (f *failingAckFeed) Ack(context.Context) error {
	f.acked++
	return errors.New("ack failed")
}

func TestIngest_RetryAfterFailedAckDoesNotDuplicate(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "past_results.jsonl"), zerolog.Nop())
	feed := &failingAckFeed{records: []model.ResultRecord{sampleRecord(1, "A", 1), sampleRecord(2, "B", 2)}}

	_, err := log.Ingest(context.Background(), feed)
	require.Error(t, err)

	report, err := log.Ingest(context.Background(), feed)
	require.Error(t, err)
	assert.Equal(t, 2, report.Duplicates)
	assert.Equal(t, 2, feed.acked)

	records, err := log.ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestIngest_FileFeedLeavesSourceInPlace(t *testing.T) {
	dir := t.TempDir()
	log := NewLog(filepath.Join(dir, "past_results.jsonl"), zerolog.Nop())
	src := filepath.Join(dir, "export.jsonl")
	content := `{"date":"2026-10-14","race":1,"horse":"A","position":1}
not json
{"date":"2026-10-14","race":1,"horse":"B","position":2}
`
	require.NoError(t, os.WriteFile(src, []byte(content), 0o644))
	feed := FileFeed{Path: src, Logger: zerolog.Nop()}

	report, err := log.Ingest(context.Background(), feed)
	require.NoError(t, err)
	assert.Equal(t, IngestReport{Received: 2, Appended: 2}, report)

	report, err = log.Ingest(context.Background(), feed)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Duplicates)

	_, err = os.Stat(src)
	assert.NoError(t, err)

	_, err = log.Ingest(context.Background(), FileFeed{Path: filepath.Join(dir, "absent.jsonl")})
	assert.Error(t, err)
}
