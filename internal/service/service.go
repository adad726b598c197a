// Package service runs compliance checks for a tenant and records them.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyndhavamahesh345/LexGuard/internal/cache"
	"github.com/hyndhavamahesh345/LexGuard/internal/compliance"
	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
	"github.com/hyndhavamahesh345/LexGuard/internal/ledger"
	"github.com/hyndhavamahesh345/LexGuard/internal/rules"
)

var tracer = otel.Tracer("lexguard-service")

// Narrator restates a result in plain words. Failures never fail a check.
type Narrator interface {
	Narrate(ctx context.Context, in *domain.TransactionInput, res *domain.ComplianceResult) (string, error)
}

// Deps are the collaborators of a Service. Only Book is required.
type Deps struct {
	Book     *rules.Book
	Repo     domain.Repository
	Cache    domain.Cache
	Bus      domain.EventBus
	Narrator Narrator
}

// Service wraps the pipeline with caching, persistence and event publication.
type Service struct {
	pipeline  *compliance.Pipeline
	book      *rules.Book
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	ledger    *ledger.Service
	narrator  Narrator
	resultTTL time.Duration
}

// New creates a service from the evaluation and cache settings.
func New(cfg domain.EvaluationConfig, cacheCfg domain.CacheConfig, deps Deps) *Service {
	s := &Service{
		pipeline:  compliance.FromConfig(deps.Book, cfg),
		book:      deps.Book,
		repo:      deps.Repo,
		cache:     deps.Cache,
		bus:       deps.Bus,
		narrator:  deps.Narrator,
		resultTTL: cacheCfg.ResultTTL,
	}
	if s.resultTTL <= 0 {
		s.resultTTL = 10 * time.Minute
	}
	if deps.Repo != nil {
		s.ledger = ledger.NewService(deps.Repo)
	}
	return s
}

// Book returns the rule book the service evaluates against.
func (s *Service) Book() *rules.Book {
	return s.book
}

// Evaluate checks a transaction for a tenant. Only invalid input fails the
// call; cache, repository, bus and narrator errors are logged.
func (s *Service) Evaluate(ctx context.Context, tenantID string, in *domain.TransactionInput, traceID string) (*domain.Evaluation, error) {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "compliance.check",
		trace.WithAttributes(attribute.String("tenant.id", tenantID)),
	)
	defer span.End()

	if err := in.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return nil, err
	}
	if traceID == "" {
		traceID = uuid.New().String()
	}

	table := s.book.Table()
	key := cache.ResultKey(Fingerprint(in, table.Version()))

	result, cacheHit := s.cachedResult(ctx, tenantID, key)
	pipelineStart := time.Now()
	if !cacheHit {
		var err error
		result, err = s.pipeline.Run(in, table, s.stagePublisher(ctx, tenantID, traceID))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		s.storeResult(ctx, tenantID, key, &result)
	}
	pipelineMs := time.Since(pipelineStart).Milliseconds()

	span.SetAttributes(
		attribute.String("compliance.status", string(result.Status)),
		attribute.String("compliance.type", string(result.Classification.Type)),
		attribute.Bool("compliance.cache_hit", cacheHit),
	)

	tx := &domain.Transaction{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Input:     *in,
		CreatedAt: time.Now().UTC(),
	}

	eval := &domain.Evaluation{
		ID:                     uuid.New().String(),
		TenantID:               tenantID,
		TxID:                   tx.ID,
		Timestamp:              time.Now().UTC(),
		Result:                 result,
		CounterpartyYearToDate: s.yearToDate(ctx, tenantID, in),
		Metadata: domain.EvaluationMetadata{
			TraceID:         traceID,
			RuleBookVersion: table.Version(),
			CacheHit:        cacheHit,
			PipelineMs:      pipelineMs,
			RulesEvaluated:  len(result.RulesApplied),
			EngineVersion:   domain.EngineVersion,
		},
	}

	if s.narrator != nil {
		narrative, err := s.narrator.Narrate(ctx, in, &eval.Result)
		if err != nil {
			slog.Warn("narration failed", "trace_id", traceID, "error", err)
		}
		eval.Narrative = narrative
	}

	eval.Metadata.TotalMs = time.Since(start).Milliseconds()

	s.persist(ctx, tenantID, tx, eval)
	s.publish(ctx, tenantID, eval)

	slog.Info("transaction checked",
		"tx_id", tx.ID,
		"tenant_id", tenantID,
		"trace_id", traceID,
		"status", result.Status,
		"type", result.Classification.Type,
		"cache_hit", cacheHit,
		"duration_ms", eval.Metadata.TotalMs,
	)

	return eval, nil
}

// GetEvaluation loads a recorded evaluation.
func (s *Service) GetEvaluation(ctx context.Context, tenantID, id string) (*domain.Evaluation, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	return s.repo.GetEvaluation(ctx, tenantID, id)
}

// GetTransaction loads a recorded transaction.
func (s *Service) GetTransaction(ctx context.Context, tenantID, id string) (*domain.Transaction, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	return s.repo.GetTransaction(ctx, tenantID, id)
}

// ErrNoRepository is returned by lookups when no repository is configured.
var ErrNoRepository = errors.New("no repository configured")

// Fingerprint identifies an input under a rule table version. Equal inputs
// checked against equal tables produce equal results, so the fingerprint is
// a sound cache key.
func Fingerprint(in *domain.TransactionInput, version string) string {
	canonical := struct {
		Version string                  `json:"v"`
		Input   domain.TransactionInput `json:"in"`
	}{version, *in}

	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Service) cachedResult(ctx context.Context, tenantID, key string) (domain.ComplianceResult, bool) {
	var result domain.ComplianceResult
	if s.cache == nil {
		return result, false
	}
	found, err := cache.GetJSON(ctx, s.cache, tenantID, key, &result)
	if err != nil {
		slog.Warn("result cache read failed", "tenant_id", tenantID, "error", err)
		return domain.ComplianceResult{}, false
	}
	return result, found
}

func (s *Service) storeResult(ctx context.Context, tenantID, key string, result *domain.ComplianceResult) {
	if s.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, tenantID, key, result, s.resultTTL); err != nil {
		slog.Warn("result cache write failed", "tenant_id", tenantID, "error", err)
	}
}

func (s *Service) yearToDate(ctx context.Context, tenantID string, in *domain.TransactionInput) decimal.Decimal {
	if s.ledger == nil {
		return decimal.Zero
	}
	total, err := s.ledger.YearToDate(ctx, tenantID, in)
	if err != nil {
		slog.Warn("counterparty ledger lookup failed", "tenant_id", tenantID, "error", err)
		return decimal.Zero
	}
	return total
}

func (s *Service) persist(ctx context.Context, tenantID string, tx *domain.Transaction, eval *domain.Evaluation) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveTransaction(ctx, tenantID, tx); err != nil {
		slog.Error("failed to save transaction", "tx_id", tx.ID, "error", err)
	}
	if err := s.repo.SaveEvaluation(ctx, tenantID, eval); err != nil {
		slog.Error("failed to save evaluation", "tx_id", tx.ID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, tenantID string, eval *domain.Evaluation) {
	if s.bus == nil {
		return
	}

	payload, err := json.Marshal(eval)
	if err != nil {
		slog.Error("failed to encode evaluation", "tx_id", eval.TxID, "error", err)
		return
	}

	if err := s.bus.Publish(ctx, tenantID, domain.TopicComplianceResult, payload); err != nil {
		slog.Error("failed to publish result", "tx_id", eval.TxID, "error", err)
	}
	if eval.Result.NonCompliant() {
		if err := s.bus.Publish(ctx, tenantID, domain.TopicComplianceAlert, payload); err != nil {
			slog.Error("failed to publish alert", "tx_id", eval.TxID, "error", err)
		}
	}
}

// StageMessage is the payload of a stage progress event.
type StageMessage struct {
	TraceID string `json:"traceId"`
	domain.StageEvent
}

func (s *Service) stagePublisher(ctx context.Context, tenantID, traceID string) compliance.StageObserver {
	if s.bus == nil {
		return nil
	}
	return func(ev domain.StageEvent) {
		payload, _ := json.Marshal(StageMessage{TraceID: traceID, StageEvent: ev})
		if err := s.bus.Publish(ctx, tenantID, domain.TopicComplianceStage, payload); err != nil {
			slog.Debug("failed to publish stage", "stage", ev.Stage, "error", err)
		}
	}
}
