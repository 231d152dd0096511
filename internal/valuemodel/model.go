package valuemodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"RaceBrain/internal/fsutil"
	"RaceBrain/internal/model"
)

const (
	DefaultMinSamples   = 50
	MinAllowedSamples   = 30
	DefaultSeed         = 42
	DefaultEpochs       = 200
	DefaultLearningRate = 0.05
	DefaultL2           = 0.001
)

// Config holds the training knobs and the model file location.
type Config struct {
	Path         string
	MinSamples   int
	Seed         int64
	Epochs       int
	LearningRate float64
	L2           float64
}

func (c Config) withDefaults() Config {
	if c.MinSamples <= 0 {
		c.MinSamples = DefaultMinSamples
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if c.Epochs <= 0 {
		c.Epochs = DefaultEpochs
	}
	if c.LearningRate <= 0 {
		c.LearningRate = DefaultLearningRate
	}
	if c.L2 <= 0 {
		c.L2 = DefaultL2
	}
	return c
}

// persisted is the on-disk form of a trained model.
type persisted struct {
	FeatureNames        []string  `json:"feature_names"`
	Estimator           Estimator `json:"estimator"`
	TrainedAt           time.Time `json:"trained_at"`
	TrainingSampleCount int       `json:"training_sample_count"`
	Seed                int64     `json:"seed"`
}

// Prediction is the output of Predict. Insufficient means no trained model is available and
// Score carries no information.
type Prediction struct {
	Score        float64
	Insufficient bool
}

// TrainResult reports what a Train call did.
type TrainResult struct {
	Trained   bool
	Samples   int
	Required  int
	TrainedAt time.Time
	LogLoss   float64
}

// Info describes the model currently in memory.
type Info struct {
	Trained      bool
	TrainedAt    time.Time
	Samples      int
	FeatureNames []string
}

// Model is the win-likelihood estimator. The retrain job is its only writer; Predict may be
// called at any time.
type Model struct {
	mu      sync.RWMutex
	cfg     Config
	current *persisted
	now     func() time.Time
	logger  zerolog.Logger
}

// New returns an untrained model. Call Load to restore a previously persisted one.
func New(cfg Config, logger zerolog.Logger) *Model {
	return &Model{
		cfg:    cfg.withDefaults(),
		now:    time.Now,
		logger: logger.With().Str("component", "value_model").Logger(),
	}
}

// Load restores the persisted model. An absent file leaves the model untrained; a corrupt file
// or a feature schema mismatch is a PersistenceError and also leaves it untrained.
func (m *Model) Load() error {
	data, err := os.ReadFile(m.cfg.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.logger.Info().Str("path", m.cfg.Path).Msg("no persisted model, starting untrained")
			return nil
		}
		return &model.PersistenceError{Op: "load model", Err: err}
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return &model.PersistenceError{Op: "load model", Err: err}
	}
	if !slices.Equal(p.FeatureNames, FeatureNames) {
		return &model.PersistenceError{Op: "load model", Err: fmt.Errorf("feature schema %v does not match %v", p.FeatureNames, FeatureNames)}
	}
	if len(p.Estimator.Weights) != len(FeatureNames) ||
		len(p.Estimator.Means) != len(FeatureNames) ||
		len(p.Estimator.Scales) != len(FeatureNames) {
		return &model.PersistenceError{Op: "load model", Err: errors.New("estimator dimensions do not match feature schema")}
	}

	m.mu.Lock()
	m.current = &p
	m.mu.Unlock()
	m.logger.Info().
		Time("trained_at", p.TrainedAt).
		Int("samples", p.TrainingSampleCount).
		Msg("model restored")
	return nil
}

// Train fits a new estimator on records. Below the sample threshold nothing changes and the
// result reports Trained=false. The new model is persisted before it replaces the in-memory
// one, so a failed write keeps the previous model both on disk and in memory.
func (m *Model) Train(records []model.ResultRecord) (TrainResult, error) {
	res := TrainResult{Samples: len(records), Required: m.cfg.MinSamples}
	if len(records) < m.cfg.MinSamples {
		m.logger.Info().Int("samples", len(records)).Int("required", m.cfg.MinSamples).Msg("not enough results to train")
		return res, nil
	}

	xs := make([][]float64, len(records))
	ys := make([]float64, len(records))
	for i, r := range records {
		x := FeaturesFrom(r)
		if err := checkFinite(x); err != nil {
			return res, &model.FeatureError{Op: "train", Err: fmt.Errorf("record %d (%s): %w", i, r.HorseName, err)}
		}
		xs[i] = x
		ys[i] = Label(r)
	}

	est := fit(xs, ys, fitParams{
		epochs:       m.cfg.Epochs,
		learningRate: m.cfg.LearningRate,
		l2:           m.cfg.L2,
		seed:         uint64(m.cfg.Seed),
	})

	next := &persisted{
		FeatureNames:        slices.Clone(FeatureNames),
		Estimator:           est,
		TrainedAt:           m.now().UTC(),
		TrainingSampleCount: len(records),
		Seed:                m.cfg.Seed,
	}
	if err := m.save(next); err != nil {
		return res, err
	}

	m.mu.Lock()
	m.current = next
	m.mu.Unlock()

	res.Trained = true
	res.TrainedAt = next.TrainedAt
	res.LogLoss = est.logLoss(xs, ys)
	m.logger.Info().
		Int("samples", len(records)).
		Float64("log_loss", res.LogLoss).
		Msg("model retrained")
	return res, nil
}

// Predict scores one feature vector in FeatureNames order. An untrained model answers
// Insufficient for any input; only a trained model validates the vector.
func (m *Model) Predict(features []float64) (Prediction, error) {
	m.mu.RLock()
	cur := m.current
	m.mu.RUnlock()
	if cur == nil {
		return Prediction{Insufficient: true}, nil
	}

	if len(features) != len(FeatureNames) {
		return Prediction{}, &model.FeatureError{
			Op:  "predict",
			Err: fmt.Errorf("expected %d features, got %d", len(FeatureNames), len(features)),
		}
	}
	if err := checkFinite(features); err != nil {
		return Prediction{}, &model.FeatureError{Op: "predict", Err: err}
	}
	return Prediction{Score: cur.Estimator.Score(features)}, nil
}

// Info returns a description of the in-memory model.
func (m *Model) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Info{FeatureNames: slices.Clone(FeatureNames)}
	}
	return Info{
		Trained:      true,
		TrainedAt:    m.current.TrainedAt,
		Samples:      m.current.TrainingSampleCount,
		FeatureNames: slices.Clone(m.current.FeatureNames),
	}
}

func (m *Model) save(p *persisted) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return &model.PersistenceError{Op: "save model", Err: err}
	}
	if err := fsutil.WriteFileAtomic(m.cfg.Path, data, 0o644); err != nil {
		return &model.PersistenceError{Op: "save model", Err: err}
	}
	return nil
}

func checkFinite(x []float64) error {
	for j, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("feature %s is not finite", FeatureNames[j])
		}
	}
	return nil
}
