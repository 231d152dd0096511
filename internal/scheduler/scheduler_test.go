package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, start time.Time) *Scheduler {
	t.Helper()
	s := New(time.UTC, time.Second, zerolog.Nop())
	s.now = func() time.Time { return start }
	return s
}

func TestRegister_RejectsBadSpec(t *testing.T) {
	s := newTestScheduler(t, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	err := s.Register("bad", "not a cron", 0, func(context.Context, time.Time) error { return nil })
	require.Error(t, err)
	assert.Empty(t, s.Entries())
}

func TestRegister_DuplicateName(t *testing.T) {
	s := newTestScheduler(t, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	noop := func(context.Context, time.Time) error { return nil }
	require.NoError(t, s.Register("odds", "@every 60s", 0, noop))
	assert.Error(t, s.Register("odds", "@every 60s", 0, noop))
}

func TestRunPending_FiresDueJobsInRegistrationOrder(t *testing.T) {
	start := time.Date(2026, 10, 21, 16, 29, 0, 0, time.UTC) // a Wednesday
	s := newTestScheduler(t, start)

	var order []string
	record := func(name string) Job {
		return func(context.Context, time.Time) error {
			order = append(order, name)
			return nil
		}
	}
	require.NoError(t, s.Register("odds", "@every 60s", 0, record("odds")))
	require.NoError(t, s.Register("decision", "0 30 16 * * 3", 0, record("decision")))
	require.NoError(t, s.Register("retrain", "0 0 11 * * *", 0, record("retrain")))

	assert.Empty(t, s.RunPending(context.Background(), start.Add(30*time.Second)))

	results := s.RunPending(context.Background(), start.Add(time.Minute))
	require.Len(t, results, 2)
	assert.Equal(t, []string{"odds", "decision"}, order)

	entries := s.Entries()
	assert.Equal(t, start.Add(2*time.Minute), entries[0].Next)
	assert.Equal(t, start.Add(time.Minute).AddDate(0, 0, 7), entries[1].Next)
}

func TestRunPending_MissedSlotsFireOnce(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s := newTestScheduler(t, start)
	calls := 0
	require.NoError(t, s.Register("odds", "@every 60s", 0, func(context.Context, time.Time) error {
		calls++
		return nil
	}))

	s.RunPending(context.Background(), start.Add(10*time.Minute))
	assert.Equal(t, 1, calls)
	assert.Equal(t, start.Add(11*time.Minute), s.Entries()[0].Next)
}

func TestRunPending_RecoversPanicAndContinues(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s := newTestScheduler(t, start)

	var reported []Result
	s.OnResult = func(r Result) { reported = append(reported, r) }

	ran := false
	require.NoError(t, s.Register("boom", "@every 1m", 0, func(context.Context, time.Time) error {
		panic("bad row")
	}))
	require.NoError(t, s.Register("after", "@every 1m", 0, func(context.Context, time.Time) error {
		ran = true
		return nil
	}))

	results := s.RunPending(context.Background(), start.Add(time.Minute))
	require.Len(t, results, 2)
	assert.ErrorContains(t, results[0].Err, "panicked")
	assert.NoError(t, results[1].Err)
	assert.True(t, ran)
	assert.Len(t, reported, 2)
}

func TestRunPending_TimeoutCancelsJob(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s := newTestScheduler(t, start)
	require.NoError(t, s.Register("slow", "@every 1m", 20*time.Millisecond, func(ctx context.Context, _ time.Time) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	results := s.RunPending(context.Background(), start.Add(time.Minute))
	require.Len(t, results, 1)
	assert.True(t, errors.Is(results[0].Err, context.DeadlineExceeded))
}

func TestRunNow(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s := newTestScheduler(t, start)
	var got time.Time
	require.NoError(t, s.Register("decision", "0 30 16 * * 3", 0, func(_ context.Context, now time.Time) error {
		got = now
		return nil
	}))
	next := s.Entries()[0].Next

	_, err := s.RunNow(context.Background(), "decision")
	require.NoError(t, err)
	assert.Equal(t, start, got)
	assert.Equal(t, next, s.Entries()[0].Next)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(time.UTC, 10*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
