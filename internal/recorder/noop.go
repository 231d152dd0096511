package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDecision(_ *DecisionRun) error          { return nil }
func (n *NoopRecorder) RecordRetrain(_ *RetrainRun) error            { return nil }
func (n *NoopRecorder) RecordBankrollEvent(_ *BankrollEvent) error   { return nil }
func (n *NoopRecorder) BankrollHistory() ([]BankrollPoint, error)    { return nil, nil }
func (n *NoopRecorder) RecentDecisions(_ int) ([]DecisionRun, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                 { return nil }
