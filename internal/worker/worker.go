// Package worker runs compliance checks delivered over the event bus.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

// GlobalTenant is the subscription tenant used when no tenants are configured.
const GlobalTenant = "_global"

// Worker consumes submitted transactions and evaluation requests.
type Worker struct {
	bus       domain.EventBus
	evaluator domain.ComplianceEvaluator

	mu            sync.Mutex
	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to serve. Empty subscribes GlobalTenant,
	// whose messages name their tenant in the payload.
	TenantIDs []string
}

// NewWorker creates a worker that checks transactions with evaluator.
func NewWorker(bus domain.EventBus, evaluator domain.ComplianceEvaluator) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:       bus,
		evaluator: evaluator,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SubmitMessage is the payload of TopicTransactionSubmitted.
type SubmitMessage struct {
	TenantID string                  `json:"tenantId,omitempty"`
	TraceID  string                  `json:"traceId,omitempty"`
	Input    domain.TransactionInput `json:"input"`
}

// EvaluateRequest is the payload of TopicComplianceEvaluate.
type EvaluateRequest struct {
	TenantID string                  `json:"tenantId,omitempty"`
	TraceID  string                  `json:"traceId,omitempty"`
	Input    domain.TransactionInput `json:"input"`
}

// EvaluateReply answers an EvaluateRequest. Exactly one of Evaluation and
// Error is set; Fields lists rejected input when the request was invalid.
type EvaluateReply struct {
	Evaluation *domain.Evaluation  `json:"evaluation,omitempty"`
	Error      string              `json:"error,omitempty"`
	Fields     []domain.FieldError `json:"fields,omitempty"`
}

// Start subscribes to the submission and request topics of every tenant.
func (w *Worker) Start(cfg Config) error {
	tenants := cfg.TenantIDs
	if len(tenants) == 0 {
		tenants = []string{GlobalTenant}
	}

	started := 0
	for _, tenantID := range tenants {
		if err := w.startTenant(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
		started++
	}
	if started == 0 {
		return fmt.Errorf("no tenant worker could be started")
	}

	slog.Info("workers started", "tenant_count", started)
	return nil
}

func (w *Worker) startTenant(tenantID string) error {
	submitted, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicTransactionSubmitted, w.handleSubmitted)
	if err != nil {
		return err
	}
	requests, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicComplianceEvaluate, w.handleRequest)
	if err != nil {
		submitted.Unsubscribe()
		return err
	}

	w.mu.Lock()
	w.subscriptions = append(w.subscriptions, submitted, requests)
	w.mu.Unlock()

	slog.Debug("tenant worker started", "tenant_id", tenantID)
	return nil
}

// tenantOf resolves the tenant a message is evaluated for.
func tenantOf(named string, msg *domain.Message) string {
	if named != "" {
		return named
	}
	return msg.TenantID
}

func (w *Worker) handleSubmitted(ctx context.Context, msg *domain.Message) error {
	var sub SubmitMessage
	if err := json.Unmarshal(msg.Payload, &sub); err != nil {
		slog.Error("failed to parse submitted transaction",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	traceID := sub.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	// Results reach subscribers through the evaluator's own publication.
	_, err := w.evaluator.Evaluate(ctx, tenantOf(sub.TenantID, msg), &sub.Input, traceID)
	if err != nil {
		slog.Warn("submitted transaction rejected",
			"trace_id", traceID,
			"error", err,
		)
		return err
	}
	return nil
}

func (w *Worker) handleRequest(ctx context.Context, msg *domain.Message) error {
	var req EvaluateRequest
	var reply EvaluateReply

	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		reply.Error = fmt.Sprintf("malformed request: %v", err)
	} else {
		traceID := req.TraceID
		if traceID == "" {
			traceID = msg.ID
		}
		eval, err := w.evaluator.Evaluate(ctx, tenantOf(req.TenantID, msg), &req.Input, traceID)
		if err != nil {
			reply.Error = err.Error()
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				reply.Fields = verr.Fields
			}
		} else {
			reply.Evaluation = eval
		}
	}

	payload, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	return w.bus.Reply(ctx, msg, payload)
}

// Stop unsubscribes and cancels in-flight handlers.
func (w *Worker) Stop() error {
	w.cancel()

	w.mu.Lock()
	subs := w.subscriptions
	w.subscriptions = nil
	w.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}

// RemoteEvaluator delegates checks to workers over the request topic.
type RemoteEvaluator struct {
	bus     domain.EventBus
	timeout time.Duration
	tenants map[string]bool
}

// NewRemoteEvaluator creates a client for workers serving tenants. Tenants
// outside the list are routed to GlobalTenant.
func NewRemoteEvaluator(bus domain.EventBus, timeout time.Duration, tenants []string) *RemoteEvaluator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	served := make(map[string]bool, len(tenants))
	for _, t := range tenants {
		served[t] = true
	}
	return &RemoteEvaluator{bus: bus, timeout: timeout, tenants: served}
}

// Evaluate sends the input to a worker and waits for its evaluation.
func (r *RemoteEvaluator) Evaluate(ctx context.Context, tenantID string, in *domain.TransactionInput, traceID string) (*domain.Evaluation, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(EvaluateRequest{TenantID: tenantID, TraceID: traceID, Input: *in})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	route := GlobalTenant
	if r.tenants[tenantID] {
		route = tenantID
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	data, err := r.bus.Request(ctx, route, domain.TopicComplianceEvaluate, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEvaluationUnavailable, err)
	}

	var reply EvaluateReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("%w: malformed reply: %v", domain.ErrEvaluationUnavailable, err)
	}
	if len(reply.Fields) > 0 {
		return nil, &domain.ValidationError{Fields: reply.Fields}
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEvaluationUnavailable, reply.Error)
	}
	if reply.Evaluation == nil {
		return nil, fmt.Errorf("%w: empty reply", domain.ErrEvaluationUnavailable)
	}
	return reply.Evaluation, nil
}
