package recorder

import (
	"time"

	"github.com/shopspring/decimal"

	"RaceBrain/internal/model"
)

// Decision run outcomes.
const (
	StatusOK          = "OK"
	StatusNoBets      = "NO_BETS"
	StatusPipelineErr = "PIPELINE_ERROR"
	StatusPersistErr  = "PERSISTENCE_ERROR"
	StatusNotifyErr   = "NOTIFY_FAILED"
)

// Bankroll event kinds.
const (
	EventBet   = "BET"
	EventReset = "DAILY_RESET"
	EventInit  = "INIT"
)

// DecisionRun holds the outcome of one decision-run firing.
type DecisionRun struct {
	ID           string
	At           time.Time
	Status       string
	Bets         []model.Bet
	BalanceAfter decimal.Decimal
	Channel      string
	Note         string
}

// TotalStake sums the stakes of the run's bets.
func (d *DecisionRun) TotalStake() decimal.Decimal {
	return model.Card{Bets: d.Bets}.TotalStake()
}

// RetrainRun holds the outcome of one retrain firing.
type RetrainRun struct {
	ID       string
	At       time.Time
	Ingested int
	Samples  int
	Trained  bool
	LogLoss  float64
	Note     string
}

// BankrollEvent records a bankroll balance change.
type BankrollEvent struct {
	At           time.Time
	EventType    string
	Horse        string
	Stake        decimal.Decimal
	Profit       decimal.Decimal
	BalanceAfter decimal.Decimal
}

// BankrollPoint is one sample of the balance history.
type BankrollPoint struct {
	At      time.Time
	Balance decimal.Decimal
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordDecision(run *DecisionRun) error
	RecordRetrain(run *RetrainRun) error
	RecordBankrollEvent(evt *BankrollEvent) error
	BankrollHistory() ([]BankrollPoint, error)
	RecentDecisions(limit int) ([]DecisionRun, error)
	Close() error
}
