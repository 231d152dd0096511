package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StateDir)
	assert.Equal(t, "Asia/Hong_Kong", cfg.Timezone)
	assert.Equal(t, "@every 60s", cfg.Schedule.OddsCron)
	assert.Equal(t, "0 0 11 * * *", cfg.Schedule.RetrainCron)
	assert.Equal(t, DefaultOddsURL, cfg.Odds.URL)
	assert.Equal(t, filepath.Join("memory", "racebrain.db"), cfg.Database.SQLitePath)

	spec, err := cfg.DecisionCron()
	require.NoError(t, err)
	assert.Equal(t, "0 30 16 * * 3", spec)

	start, err := cfg.StartingBalance()
	require.NoError(t, err)
	assert.True(t, start.Equal(decimal.NewFromInt(50000)))
}

func TestLoad_AcceptsShortEnvNames(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("EMAIL_PASSWORD", "")
	t.Setenv("TELEGRAM_TOKEN", "short-token")
	t.Setenv("EMAIL_PASS", "short-pass")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "short-token", cfg.Telegram.BotToken)
	assert.Equal(t, "short-pass", cfg.Email.Password)

	t.Setenv("TELEGRAM_BOT_TOKEN", "long-token")
	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "long-token", cfg.Telegram.BotToken)
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
state_dir: /var/lib/racebrain
telegram:
  bot_token: from-file
  chat_id: "42"
email:
  host: smtp.example.com
  to: [ops@example.com]
schedule:
  decision_weekday: sun
  decision_time: "13:00"
  tick: 30s
  job_timeout: 2m
model:
  min_samples: 40
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("EMAIL_TO", "a@example.com, b@example.com")
	t.Setenv("RUN_ON_START", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "from-env", cfg.Telegram.BotToken)
	assert.Equal(t, "42", cfg.Telegram.ChatID)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Email.To)
	assert.True(t, cfg.Schedule.RunOnStart)
	assert.Equal(t, 30*time.Second, cfg.Schedule.Tick)
	assert.Equal(t, 2*time.Minute, cfg.Schedule.JobTimeout)
	assert.Equal(t, "/var/lib/racebrain/racebrain.db", cfg.Database.SQLitePath)

	day, err := cfg.DecisionWeekday()
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, day)
	spec, err := cfg.DecisionCron()
	require.NoError(t, err)
	assert.Equal(t, "0 0 13 * * 0", spec)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"min samples too low", func(c *Config) { c.Model.MinSamples = 10 }, "min_samples"},
		{"bad cron", func(c *Config) { c.Schedule.RetrainCron = "every day" }, "retrain_cron"},
		{"bad weekday", func(c *Config) { c.Schedule.DecisionWeekday = "caturday" }, "decision_weekday"},
		{"bad time", func(c *Config) { c.Schedule.DecisionTime = "4pm" }, "decision_time"},
		{"negative budget", func(c *Config) { c.Strategy.Budget = "-5" }, "strategy.budget"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "t" }, "chat_id"},
		{"email without recipients", func(c *Config) { c.Email.Host = "smtp" }, "email.to"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}
