package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone names resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"RaceBrain/internal/logging"
)

// DefaultOddsURL is the HKJC win/place odds page for Happy Valley.
const DefaultOddsURL = "https://bet.hkjc.com/racing/pages/odds_wp.aspx?date={date}&venue=HV"

// Config holds all application configuration.
type Config struct {
	StateDir string         `yaml:"state_dir"`
	Timezone string         `yaml:"timezone"`
	Venue    string         `yaml:"venue"`
	Log      logging.Config `yaml:"log"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Polling  bool   `yaml:"polling"`
	} `yaml:"telegram"`
	Email struct {
		Host     string   `yaml:"host"`
		Port     int      `yaml:"port"`
		Username string   `yaml:"username"`
		Password string   `yaml:"password"`
		From     string   `yaml:"from"`
		To       []string `yaml:"to"`
		Subject  string   `yaml:"subject"`
	} `yaml:"email"`
	Odds struct {
		URL            string        `yaml:"url"`
		RequestsPerMin int           `yaml:"requests_per_min"`
		Timeout        time.Duration `yaml:"timeout"`
		UserAgent      string        `yaml:"user_agent"`
	} `yaml:"odds"`
	Tips struct {
		URL      string `yaml:"url"`
		Text     string `yaml:"text"`
		MaxChars int    `yaml:"max_chars"`
	} `yaml:"tips"`
	Bankroll struct {
		StartingBalance string `yaml:"starting_balance"`
	} `yaml:"bankroll"`
	Strategy struct {
		Budget  string `yaml:"budget"`
		MaxBets int    `yaml:"max_bets"`
	} `yaml:"strategy"`
	Model struct {
		MinSamples   int     `yaml:"min_samples"`
		Seed         int64   `yaml:"seed"`
		Epochs       int     `yaml:"epochs"`
		LearningRate float64 `yaml:"learning_rate"`
	} `yaml:"model"`
	Schedule struct {
		OddsCron        string        `yaml:"odds_cron"`
		DecisionWeekday string        `yaml:"decision_weekday"`
		DecisionTime    string        `yaml:"decision_time"`
		RetrainCron     string        `yaml:"retrain_cron"`
		Tick            time.Duration `yaml:"tick"`
		JobTimeout      time.Duration `yaml:"job_timeout"`
		RunOnStart      bool          `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env if present, then the YAML file, then environment variable overrides, then
// fills defaults. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg, nil
}

// firstEnv returns the value of the first non-empty variable among names.
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RACEBRAIN_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("RACEBRAIN_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := firstEnv("TELEGRAM_BOT_TOKEN", "TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("EMAIL_HOST"); v != "" {
		cfg.Email.Host = v
	}
	if v := os.Getenv("EMAIL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Email.Port = port
		}
	}
	if v := os.Getenv("EMAIL_USER"); v != "" {
		cfg.Email.Username = v
	}
	if v := firstEnv("EMAIL_PASSWORD", "EMAIL_PASS"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("EMAIL_FROM"); v != "" {
		cfg.Email.From = v
	}
	if v := os.Getenv("EMAIL_TO"); v != "" {
		cfg.Email.To = splitList(v)
	}
	if v := os.Getenv("ODDS_URL"); v != "" {
		cfg.Odds.URL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Schedule.RunOnStart = b
		}
	}
}

func setDefaults(cfg *Config) {
	if cfg.StateDir == "" {
		cfg.StateDir = "memory"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Hong_Kong"
	}
	if cfg.Venue == "" {
		cfg.Venue = "HV"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Email.Port == 0 {
		cfg.Email.Port = 587
	}
	if cfg.Email.Subject == "" {
		cfg.Email.Subject = "RaceBrain picks"
	}
	if cfg.Email.From == "" {
		cfg.Email.From = cfg.Email.Username
	}
	if cfg.Odds.URL == "" {
		cfg.Odds.URL = DefaultOddsURL
	}
	if cfg.Odds.RequestsPerMin == 0 {
		cfg.Odds.RequestsPerMin = 30
	}
	if cfg.Odds.Timeout == 0 {
		cfg.Odds.Timeout = 30 * time.Second
	}
	if cfg.Tips.MaxChars == 0 {
		cfg.Tips.MaxChars = 1500
	}
	if cfg.Bankroll.StartingBalance == "" {
		cfg.Bankroll.StartingBalance = "50000"
	}
	if cfg.Strategy.Budget == "" {
		cfg.Strategy.Budget = "2000"
	}
	if cfg.Strategy.MaxBets == 0 {
		cfg.Strategy.MaxBets = 4
	}
	if cfg.Model.MinSamples == 0 {
		cfg.Model.MinSamples = 50
	}
	if cfg.Model.Seed == 0 {
		cfg.Model.Seed = 42
	}
	if cfg.Schedule.OddsCron == "" {
		cfg.Schedule.OddsCron = "@every 60s"
	}
	if cfg.Schedule.DecisionWeekday == "" {
		cfg.Schedule.DecisionWeekday = "wednesday"
	}
	if cfg.Schedule.DecisionTime == "" {
		cfg.Schedule.DecisionTime = "16:30"
	}
	if cfg.Schedule.RetrainCron == "" {
		cfg.Schedule.RetrainCron = "0 0 11 * * *"
	}
	if cfg.Schedule.Tick == 0 {
		cfg.Schedule.Tick = 60 * time.Second
	}
	if cfg.Schedule.JobTimeout == 0 {
		cfg.Schedule.JobTimeout = 5 * time.Minute
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = filepath.Join(cfg.StateDir, "racebrain.db")
	}
	if cfg.Metrics.Textfile == "" {
		cfg.Metrics.Textfile = filepath.Join(cfg.StateDir, "racebrain.prom")
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if _, err := c.StartingBalance(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Budget(); err != nil {
		errs = append(errs, err)
	}
	if c.Model.MinSamples < 30 || c.Model.MinSamples > 50 {
		errs = append(errs, fmt.Errorf("model.min_samples must be between 30 and 50, got %d", c.Model.MinSamples))
	}
	if c.Strategy.MaxBets < 1 {
		errs = append(errs, errors.New("strategy.max_bets must be at least 1"))
	}
	if _, err := c.DecisionWeekday(); err != nil {
		errs = append(errs, err)
	}
	if _, _, err := c.DecisionClock(); err != nil {
		errs = append(errs, err)
	}
	for name, spec := range map[string]string{
		"schedule.odds_cron":    c.Schedule.OddsCron,
		"schedule.retrain_cron": c.Schedule.RetrainCron,
	} {
		if _, err := CronParser().Parse(spec); err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", name, spec, err))
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		errs = append(errs, errors.New("telegram.bot_token and telegram.chat_id must be set together"))
	}
	if c.Email.Host != "" && len(c.Email.To) == 0 {
		errs = append(errs, errors.New("email.to is required when email.host is set"))
	}
	if !strings.Contains(c.Odds.URL, "://") {
		errs = append(errs, fmt.Errorf("odds.url %q is not absolute", c.Odds.URL))
	}
	return errors.Join(errs...)
}

// CronParser accepts five or six fields and descriptors such as "@every 60s".
func CronParser() cron.Parser {
	return cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// StartingBalance parses bankroll.starting_balance.
func (c *Config) StartingBalance() (decimal.Decimal, error) {
	return positiveAmount("bankroll.starting_balance", c.Bankroll.StartingBalance)
}

// Budget parses strategy.budget.
func (c *Config) Budget() (decimal.Decimal, error) {
	return positiveAmount("strategy.budget", c.Strategy.Budget)
}

// DecisionWeekday parses schedule.decision_weekday ("wednesday", "wed" or "3").
func (c *Config) DecisionWeekday() (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(c.Schedule.DecisionWeekday))
	if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("schedule.decision_weekday %q is not a weekday", c.Schedule.DecisionWeekday)
}

// DecisionClock parses schedule.decision_time as HH:MM.
func (c *Config) DecisionClock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(c.Schedule.DecisionTime))
	if err != nil {
		return 0, 0, fmt.Errorf("schedule.decision_time %q: want HH:MM", c.Schedule.DecisionTime)
	}
	return t.Hour(), t.Minute(), nil
}

// DecisionCron is the six-field schedule for the decision run.
func (c *Config) DecisionCron() (string, error) {
	day, err := c.DecisionWeekday()
	if err != nil {
		return "", err
	}
	hour, minute, err := c.DecisionClock()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0 %d %d * * %d", minute, hour, int(day)), nil
}

// StatePath joins name onto the state directory.
func (c *Config) StatePath(name string) string {
	return filepath.Join(c.StateDir, name)
}

func positiveAmount(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w", field, raw, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be positive", field)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
