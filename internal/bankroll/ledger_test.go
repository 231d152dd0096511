package bankroll

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RaceBrain/internal/model"
)

var hk = time.FixedZone("HKT", 8*3600)

func newTestLedger(t *testing.T, now time.Time) *Ledger {
	t.Helper()
	l := NewLedger(filepath.Join(t.TempDir(), "bankroll.json"), decimal.Zero, hk, zerolog.Nop())
	l.now = func() time.Time { return now }
	return l
}

func TestLoad_AbsentFileInitialisesDefaults(t *testing.T) {
	now := time.Date(2026, 10, 21, 16, 30, 0, 0, hk)
	l := newTestLedger(t, now)

	state, err := l.Load()
	require.NoError(t, err)

	assert.True(t, state.Balance.Equal(decimal.NewFromInt(50000)))
	assert.True(t, state.StartingBalance.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, 0, state.BetsPlacedToday)
	assert.True(t, state.PnLToday.IsZero())

	_, err = os.Stat(l.Path())
	require.NoError(t, err, "load must durably create the bankroll file")

	persisted, found, err := LoadState(l.Path())
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, persisted.Balance.Equal(state.Balance))
}

func TestLoad_ReadsNumericAmounts(t *testing.T) {
	l := newTestLedger(t, time.Now())
	require.NoError(t, os.WriteFile(l.Path(), []byte(`{"balance":51200.5,"starting_balance":50000,"bets_placed_today":3,"pnl_today":1200.5,"updated_on":"2026-10-21"}`), 0o644))

	state, err := l.Load()
	require.NoError(t, err)
	assert.True(t, state.Balance.Equal(decimal.RequireFromString("51200.5")))
	assert.Equal(t, 3, state.BetsPlacedToday)
}

func TestLoad_ReadsLegacyLayoutAndKeepsBalanceAcrossReset(t *testing.T) {
	now := time.Date(2026, 10, 21, 16, 30, 0, 0, hk)
	l := newTestLedger(t, now)
	require.NoError(t, os.WriteFile(l.Path(), []byte(`{"balance_hkd":51200,"starting":50000,"bets_today":2,"pnl_today":1200}`), 0o644))

	state, err := l.Load()
	require.NoError(t, err)
	assert.True(t, state.Balance.Equal(decimal.NewFromInt(51200)))
	assert.True(t, state.StartingBalance.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, 2, state.BetsPlacedToday)
	assert.True(t, state.PnLToday.Equal(decimal.NewFromInt(1200)))

	_, err = l.ApplyDailyReset(state, now)
	require.NoError(t, err)

	persisted, found, err := LoadState(l.Path())
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, persisted.Balance.Equal(decimal.NewFromInt(51200)))
	assert.True(t, persisted.StartingBalance.Equal(decimal.NewFromInt(50000)))
	assert.Zero(t, persisted.BetsPlacedToday)
	assert.Equal(t, model.Day(now), persisted.UpdatedOn)
}

func TestBankrollState_CurrentKeysWinOverLegacy(t *testing.T) {
	var state model.BankrollState
	require.NoError(t, json.Unmarshal([]byte(`{"balance":"100","balance_hkd":999,"starting":50}`), &state))
	assert.True(t, state.Balance.Equal(decimal.NewFromInt(100)))
	assert.True(t, state.StartingBalance.Equal(decimal.NewFromInt(50)))
}

func TestLoad_CorruptFileIsPersistenceError(t *testing.T) {
	l := newTestLedger(t, time.Now())
	require.NoError(t, os.WriteFile(l.Path(), []byte("{not json"), 0o644))

	_, err := l.Load()
	var perr *model.PersistenceError
	assert.True(t, errors.As(err, &perr))
}

func TestRecordOutcome_RoundTrip(t *testing.T) {
	now := time.Date(2026, 10, 21, 16, 30, 0, 0, hk)
	l := newTestLedger(t, now)

	before, err := l.Load()
	require.NoError(t, err)

	profit := decimal.RequireFromString("-250.50")
	_, err = l.RecordOutcome(before, decimal.NewFromInt(250), profit)
	require.NoError(t, err)

	after, err := l.Load()
	require.NoError(t, err)
	assert.True(t, after.Balance.Equal(before.Balance.Add(profit)))
	assert.Equal(t, before.BetsPlacedToday+1, after.BetsPlacedToday)
	assert.True(t, after.PnLToday.Equal(profit))
	assert.True(t, after.StakedToday.Equal(decimal.NewFromInt(250)))
	assert.True(t, after.CumulativePnL().Equal(profit))
}

func TestRecordOutcome_RejectsNegativeStake(t *testing.T) {
	l := newTestLedger(t, time.Now())
	state, err := l.Load()
	require.NoError(t, err)

	_, err = l.RecordOutcome(state, decimal.NewFromInt(-1), decimal.Zero)
	assert.Error(t, err)
}

func TestRecordOutcome_WriteFailureLeavesStateUnrecorded(t *testing.T) {
	dir := t.TempDir()
	l := NewLedger(filepath.Join(dir, "bankroll.json"), decimal.Zero, hk, zerolog.Nop())
	state, err := l.Load()
	require.NoError(t, err)

	// point the ledger at a path whose parent is a regular file
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	l.filePath = filepath.Join(blocker, "bankroll.json")

	got, err := l.RecordOutcome(state, decimal.NewFromInt(100), decimal.NewFromInt(50))
	var perr *model.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, state, got)
}

func TestApplyDailyReset_NewDayZeroesCounters(t *testing.T) {
	yesterday := time.Date(2026, 10, 20, 22, 0, 0, 0, hk)
	today := yesterday.Add(12 * time.Hour)
	l := newTestLedger(t, yesterday)

	state, err := l.Load()
	require.NoError(t, err)
	state, err = l.RecordOutcome(state, decimal.NewFromInt(200), decimal.NewFromInt(600))
	require.NoError(t, err)
	require.Equal(t, 1, state.BetsPlacedToday)

	l.now = func() time.Time { return today }
	reloaded, err := l.Load()
	require.NoError(t, err)

	reset, err := l.ApplyDailyReset(reloaded, today)
	require.NoError(t, err)
	assert.Equal(t, 0, reset.BetsPlacedToday)
	assert.True(t, reset.PnLToday.IsZero())
	assert.True(t, reset.StakedToday.IsZero())
	assert.True(t, reset.Balance.Equal(decimal.NewFromInt(50600)), "balance must survive the reset")
	assert.Equal(t, "2026-10-21", reset.UpdatedOn)

	// second call the same day is a no-op
	again, err := l.ApplyDailyReset(reset, today)
	require.NoError(t, err)
	assert.Equal(t, reset, again)
}

func TestApplyDailyReset_SameDayKeepsCounters(t *testing.T) {
	now := time.Date(2026, 10, 21, 10, 0, 0, 0, hk)
	l := newTestLedger(t, now)
	state, err := l.Load()
	require.NoError(t, err)
	state, err = l.RecordOutcome(state, decimal.NewFromInt(100), decimal.NewFromInt(20))
	require.NoError(t, err)

	got, err := l.ApplyDailyReset(state, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, got.BetsPlacedToday)
}

func TestMarkDecision_Persists(t *testing.T) {
	now := time.Date(2026, 10, 21, 16, 30, 0, 0, hk)
	l := newTestLedger(t, now)
	state, err := l.Load()
	require.NoError(t, err)

	_, err = l.MarkDecision(state, now)
	require.NoError(t, err)

	reloaded, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "2026-10-21", reloaded.LastDecisionOn)
}
