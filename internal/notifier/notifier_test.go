package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RaceBrain/internal/model"
)

func newTestTelegram(t *testing.T, handler http.HandlerFunc) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tg := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	tg.apiBase = srv.URL
	tg.backoff = func(int) time.Duration { return 0 }
	return tg
}

func TestTelegram_Send(t *testing.T) {
	var got map[string]string
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, tg.Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "Markdown", got["parse_mode"])
}

func TestTelegram_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"ok":false}`, http.StatusBadGateway)
	})

	err := tg.SendWithRetry(context.Background(), "hello", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, int32(3), calls.Load())
}

func TestTelegram_RetrySucceeds(t *testing.T) {
	var calls atomic.Int32
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, tg.Send(context.Background(), "hello"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestTelegram_DispatchOnlyAnswersConfiguredChat(t *testing.T) {
	var mu sync.Mutex
	var replies []string
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		replies = append(replies, body["chat_id"]+":"+body["text"])
		mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	})

	var updates []telegramUpdate
	require.NoError(t, json.Unmarshal([]byte(`[
		{"update_id": 10, "message": {"text": "/bankroll", "chat": {"id": 42}}},
		{"update_id": 11, "message": {"text": "/bankroll", "chat": {"id": 7}}},
		{"update_id": 12}
	]`), &updates))

	handler := func(cmd string) string { return "reply to " + cmd }
	next := tg.dispatch(context.Background(), updates, 0, handler)

	assert.Equal(t, 13, next)
	assert.Equal(t, []string{"42:reply to /bankroll"}, replies)
}

type fakeChannel struct {
	name  string
	err   error
	calls int
}

func (f *fakeChannel) Name() string { return f.name }
func (f *fakeChannel) Send(context.Context, string) error {
	f.calls++
	return f.err
}

type unconfigured struct{ fakeChannel }

func (unconfigured) Configured() bool { return false }

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &fakeChannel{name: "telegram"}
	second := &fakeChannel{name: "email"}
	chain := NewChain(zerolog.Nop(), first, second)

	name, err := chain.Send(context.Background(), "card")
	require.NoError(t, err)
	assert.Equal(t, "telegram", name)
	assert.Equal(t, 0, second.calls)
}

func TestChain_FallsBackInOrder(t *testing.T) {
	first := &fakeChannel{name: "telegram", err: errors.New("down")}
	second := &fakeChannel{name: "email"}
	chain := NewChain(zerolog.Nop(), first, second)

	name, err := chain.Send(context.Background(), "card")
	require.NoError(t, err)
	assert.Equal(t, "email", name)
	assert.Equal(t, 1, first.calls)
}

func TestChain_AllFailed(t *testing.T) {
	chain := NewChain(zerolog.Nop(),
		&fakeChannel{name: "telegram", err: errors.New("down")},
		&fakeChannel{name: "email", err: errors.New("refused")},
	)
	_, err := chain.Send(context.Background(), "card")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram: down")
	assert.Contains(t, err.Error(), "email: refused")
}

func TestChain_SkipsUnconfigured(t *testing.T) {
	chain := NewChain(zerolog.Nop(), nil, &unconfigured{fakeChannel{name: "telegram"}})
	assert.Empty(t, chain.Names())

	_, err := chain.Send(context.Background(), "card")
	assert.ErrorIs(t, err, ErrNoChannels)
}

func TestFormatReport(t *testing.T) {
	now := time.Date(2026, 10, 21, 16, 30, 0, 0, time.UTC)
	state := model.NewBankrollState(decimal.NewFromInt(50000), now)
	state.Balance = decimal.RequireFromString("49750")

	msg := FormatReport("HV", now, model.Card{Text: "CARD"}, state)
	assert.Equal(t, "HV AI Picks - 21 Oct 2026\n\nCARD\n\nBankroll: HK$49,750", msg)
}

func TestFormatHKD(t *testing.T) {
	tests := map[string]string{
		"0":          "0",
		"999":        "999",
		"1000":       "1,000",
		"1234567":    "1,234,567",
		"50600.5":    "50,600.50",
		"-2500":      "-2,500",
		"-123456.78": "-123,456.78",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatHKD(decimal.RequireFromString(in)), in)
	}
}

func TestFormatOdds(t *testing.T) {
	now := time.Date(2026, 10, 21, 18, 0, 0, 0, time.UTC)
	snap := model.OddsSnapshot{
		"B": {Win: "5.5", ObservedAt: now.Add(-90 * time.Second)},
		"A": {Win: "N/A", ObservedAt: now.Add(-90 * time.Second)},
	}
	assert.Equal(t, "*Live odds* (2 runners, 1m30s old)\n\nA: N/A\nB: 5.5", FormatOdds(snap, now))
	assert.Equal(t, "No live odds yet.", FormatOdds(nil, now))
}
