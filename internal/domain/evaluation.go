package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the overall compliance verdict.
type Status string

const (
	StatusCompliant    Status = "Compliant"
	StatusNonCompliant Status = "Non-Compliant"
)

// RiskLevel grades an explanation. Medium is declared for API stability but
// the explanation synthesizer only produces Low and High.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// EvaluationResult is the outcome of the threshold stage.
type EvaluationResult struct {
	ThresholdExceeded bool            `json:"thresholdExceeded"`
	TaxRequired       bool            `json:"taxRequired"`
	TaxAmount         decimal.Decimal `json:"taxAmount"`
	AnnualAmount      decimal.Decimal `json:"annualAmount"`
	Details           string          `json:"details"`
	TriggeredRule     *Rule           `json:"triggeredRule"`
}

// ExplanationResult is the plain-language outcome shown to the payer.
type ExplanationResult struct {
	Summary    string          `json:"summary"`
	Detail     string          `json:"detail"`
	Actions    []string        `json:"actions"`
	RiskLevel  RiskLevel       `json:"riskLevel"`
	NetPayable decimal.Decimal `json:"netPayable"`
}

// ComplianceResult is the full pipeline response.
type ComplianceResult struct {
	Status         Status            `json:"status"`
	Classification Classification    `json:"classification"`
	RulesApplied   []Rule            `json:"rulesApplied"`
	Evaluation     EvaluationResult  `json:"evaluation"`
	Explanation    ExplanationResult `json:"explanation"`
}

// NonCompliant reports whether the result requires withholding.
func (r *ComplianceResult) NonCompliant() bool {
	return r.Status == StatusNonCompliant
}

// Evaluation is the persisted envelope around one pipeline run.
type Evaluation struct {
	ID        string           `json:"id"`
	TenantID  string           `json:"tenantId"`
	TxID      string           `json:"txId"`
	Timestamp time.Time        `json:"timestamp"`
	Result    ComplianceResult `json:"result"`

	// CounterpartyYearToDate sums earlier payments to the same counterparty
	// in the financial year of the transaction. Informational only.
	CounterpartyYearToDate decimal.Decimal `json:"counterpartyYearToDate"`

	// Narrative is an optional LLM restatement of the explanation.
	Narrative string `json:"narrative,omitempty"`

	Metadata EvaluationMetadata `json:"metadata"`
}

// EvaluationMetadata contains processing information.
type EvaluationMetadata struct {
	TraceID         string `json:"traceId"`
	RuleBookVersion string `json:"ruleBookVersion"`
	CacheHit        bool   `json:"cacheHit"`
	PipelineMs      int64  `json:"pipelineMs"`
	TotalMs         int64  `json:"totalMs"`
	RulesEvaluated  int    `json:"rulesEvaluated"`
	EngineVersion   string `json:"engineVersion"`
}

// EngineVersion identifies the shape of ComplianceResult on the wire.
const EngineVersion = "lexguard-1.0"

// Stage names a pipeline step.
type Stage string

const (
	StageClassify Stage = "classify"
	StageRetrieve Stage = "retrieve"
	StageEvaluate Stage = "evaluate"
	StageExplain  Stage = "explain"
)

// StageEvent reports the completion of one pipeline stage.
type StageEvent struct {
	Stage Stage `json:"stage"`
	Index int   `json:"index"` // 1-based position in the pipeline
	Total int   `json:"total"`
}

// ComplianceEvaluator runs a tenant-scoped compliance check and records it.
// The local service and the bus-backed remote client both implement it.
type ComplianceEvaluator interface {
	Evaluate(ctx context.Context, tenantID string, in *TransactionInput, traceID string) (*Evaluation, error)
}
