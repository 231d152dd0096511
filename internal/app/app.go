package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"RaceBrain/internal/bankroll"
	"RaceBrain/internal/collector"
	"RaceBrain/internal/config"
	"RaceBrain/internal/engine"
	"RaceBrain/internal/metrics"
	"RaceBrain/internal/model"
	"RaceBrain/internal/notifier"
	"RaceBrain/internal/odds"
	"RaceBrain/internal/pipeline"
	"RaceBrain/internal/recorder"
	"RaceBrain/internal/results"
	"RaceBrain/internal/scheduler"
	"RaceBrain/internal/valuemodel"
)

// State file names inside the state directory.
const (
	BankrollFile = "bankroll.json"
	ResultsFile  = "past_results.jsonl"
	ModelFile    = "value_model.json"
	OddsFile     = "live_odds.json"
	InboxFile    = "settled_inbox.jsonl"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// runtime is everything one command needs, built from the config.
type runtime struct {
	engine   *engine.Engine
	results  *results.Log
	telegram *notifier.TelegramNotifier
	recorder recorder.Recorder
	metrics  *metrics.EngineMetrics
	loc      *time.Location
}

func (a *App) build() (*runtime, func(), error) {
	cfg := a.Config
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}
	loc, _ := cfg.Location()
	starting, _ := cfg.StartingBalance()
	budget, _ := cfg.Budget()
	weekday, _ := cfg.DecisionWeekday()

	rec := a.openRecorder()
	closer := func() {
		if err := rec.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("close recorder")
		}
	}

	vm := valuemodel.New(valuemodel.Config{
		Path:         cfg.StatePath(ModelFile),
		MinSamples:   cfg.Model.MinSamples,
		Seed:         cfg.Model.Seed,
		Epochs:       cfg.Model.Epochs,
		LearningRate: cfg.Model.LearningRate,
	}, a.Logger)
	if err := vm.Load(); err != nil {
		a.Logger.Warn().Err(err).Msg("value model not restored, starting untrained")
	}

	fetcher := collector.NewHTTPFetcher(collector.HTTPConfig{
		ProxyURL:       cfg.Proxy,
		Timeout:        cfg.Odds.Timeout,
		RequestsPerMin: cfg.Odds.RequestsPerMin,
		UserAgent:      cfg.Odds.UserAgent,
	})

	var tips pipeline.TipsSource = pipeline.StaticTips(cfg.Tips.Text)
	if cfg.Tips.URL != "" {
		tips = &pipeline.PageTips{Fetcher: fetcher, URL: cfg.Tips.URL, MaxChars: cfg.Tips.MaxChars, Logger: a.Logger}
	}

	telegram := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, a.Logger)
	email := notifier.NewEmailNotifier(notifier.EmailConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		To:       cfg.Email.To,
		Subject:  cfg.Email.Subject,
	})
	chain := notifier.NewChain(a.Logger, telegram, email)
	if len(chain.Names()) == 0 {
		a.Logger.Warn().Msg("no notification channel configured; cards are logged only")
	}

	m := metrics.New(cfg.Metrics.Textfile, a.Logger)
	log := results.NewLog(cfg.StatePath(ResultsFile), a.Logger)

	eng, err := engine.New(engine.Options{
		Ledger:          bankroll.NewLedger(cfg.StatePath(BankrollFile), starting, loc, a.Logger),
		Results:         log,
		Model:           vm,
		Odds:            odds.NewCache(cfg.StatePath(OddsFile), a.Logger),
		Fetcher:         fetcher,
		Feed:            results.NewInboxFeed(cfg.StatePath(InboxFile), a.Logger),
		Pipeline:        pipeline.NewValuePipeline(pipeline.ValueConfig{Budget: budget, MaxBets: cfg.Strategy.MaxBets, Venue: cfg.Venue}, a.Logger),
		Tips:            tips,
		Notifier:        chain,
		Recorder:        rec,
		Metrics:         m,
		OddsURL:         cfg.Odds.URL,
		Venue:           cfg.Venue,
		DecisionWeekday: weekday,
		Location:        loc,
	}, a.Logger)
	if err != nil {
		closer()
		return nil, nil, err
	}

	return &runtime{
		engine:   eng,
		results:  log,
		telegram: telegram,
		recorder: rec,
		metrics:  m,
		loc:      loc,
	}, closer, nil
}

func (a *App) openRecorder() recorder.Recorder {
	path := a.Config.Database.SQLitePath
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

// Run executes the long-running engine: three timers on one scheduler goroutine plus the
// read-only Telegram command loop.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, closer, err := a.build()
	if err != nil {
		return err
	}
	defer closer()

	if err := rt.engine.Bootstrap(); err != nil {
		return err
	}

	sched, err := a.newScheduler(rt)
	if err != nil {
		return err
	}

	if a.Config.Telegram.Polling && rt.telegram.Configured() {
		go rt.telegram.StartPolling(ctx, rt.engine.HandleCommand)
		a.Logger.Info().Msg("telegram polling started")
	}

	hour, minute, _ := a.Config.DecisionClock()
	if a.Config.Schedule.RunOnStart && rt.engine.DueOnStart(time.Now(), hour, minute) {
		a.Logger.Info().Msg("decision trigger already passed today, running now")
		// failures are logged by the scheduler; the regular timer still fires next week
		_, _ = sched.RunNow(ctx, engine.JobDecision)
	}

	a.Logger.Info().Str("state_dir", a.Config.StateDir).Msg("racebrain running")
	err = sched.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("scheduler terminated with error")
		return err
	}
	a.Logger.Info().Msg("racebrain stopped")
	return nil
}

func (a *App) newScheduler(rt *runtime) (*scheduler.Scheduler, error) {
	cfg := a.Config
	sched := scheduler.New(rt.loc, cfg.Schedule.Tick, a.Logger)
	sched.OnResult = func(r scheduler.Result) {
		rt.metrics.RecordJob(r.Name, jobStatus(r.Err), r.Duration.Seconds())
		rt.metrics.Flush()
	}

	decisionSpec, err := cfg.DecisionCron()
	if err != nil {
		return nil, err
	}
	timeout := cfg.Schedule.JobTimeout
	jobs := []struct {
		name string
		spec string
		fn   scheduler.Job
	}{
		{engine.JobOdds, cfg.Schedule.OddsCron, rt.engine.RefreshOdds},
		{engine.JobDecision, decisionSpec, rt.engine.DecisionRun},
		{engine.JobRetrain, cfg.Schedule.RetrainCron, rt.engine.Retrain},
	}
	for _, j := range jobs {
		if err := sched.Register(j.name, j.spec, timeout, j.fn); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func jobStatus(err error) string {
	var perr *model.PersistenceError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &perr):
		return "persistence_error"
	default:
		return "error"
	}
}
