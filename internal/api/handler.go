package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
	"github.com/hyndhavamahesh345/LexGuard/internal/repository"
	"github.com/hyndhavamahesh345/LexGuard/internal/service"
	"github.com/hyndhavamahesh345/LexGuard/internal/session"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	svc       *service.Service
	evaluator domain.ComplianceEvaluator
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	sessions  *session.Store
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps, version string) *Handler {
	evaluator := deps.Evaluator
	if evaluator == nil {
		evaluator = deps.Service
	}
	return &Handler{
		svc:       deps.Service,
		evaluator: evaluator,
		repo:      deps.Repo,
		cache:     deps.Cache,
		bus:       deps.Bus,
		sessions:  deps.Sessions,
		version:   version,
	}
}

// Evaluate handles POST /evaluate and responds with the recorded evaluation.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var in domain.TransactionInput
	if !decodeBody(w, r, &in) {
		return
	}

	eval, err := h.evaluator.Evaluate(r.Context(), GetTenantID(r.Context()), &in, GetTraceID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

// AnalyzeRequest accepts the transaction input plus the fields sent by the
// original web client. VendorType stands in for typeHint and a missing
// frequency means a one-time payment.
type AnalyzeRequest struct {
	domain.TransactionInput
	VendorType    string `json:"vendorType,omitempty"`
	GSTRegistered string `json:"gstRegistered,omitempty"`
}

// AnalyzeResponse is the flattened verdict shown by the web client.
type AnalyzeResponse struct {
	Status      string             `json:"status"`
	Issue       string             `json:"issue"`
	LawApplied  string             `json:"lawApplied"`
	Action      string             `json:"action"`
	Explanation string             `json:"explanation"`
	Raw         *domain.Evaluation `json:"raw"`
}

// Analyze handles POST /api/transactions/analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := req.TransactionInput
	if in.TypeHint == "" {
		in.TypeHint = req.VendorType
	}
	if in.Frequency == "" {
		in.Frequency = domain.FrequencyOneTime
	}

	eval, err := h.evaluator.Evaluate(r.Context(), GetTenantID(r.Context()), &in, GetTraceID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	res := eval.Result
	resp := AnalyzeResponse{
		Status:      strings.ToLower(string(res.Status)),
		Issue:       res.Evaluation.Details,
		LawApplied:  "GST",
		Action:      strings.Join(res.Explanation.Actions, " "),
		Explanation: res.Explanation.Detail,
		Raw:         eval,
	}
	if rule := res.Evaluation.TriggeredRule; rule != nil {
		resp.LawApplied = rule.Section
	}
	if eval.Narrative != "" {
		resp.Explanation = eval.Narrative
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := "healthy"
	components := map[string]string{}

	check := func(name string, ping func() error) {
		if err := ping(); err != nil {
			status = "degraded"
			components[name] = err.Error()
			return
		}
		components[name] = "ok"
	}
	if h.repo != nil {
		check("repository", func() error { return h.repo.Ping(ctx) })
	}
	if h.cache != nil {
		check("cache", func() error { return h.cache.Ping(ctx) })
	}
	if h.bus != nil {
		check("eventBus", func() error { return h.bus.Ping(ctx) })
	}

	table := h.svc.Book().Table()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          status,
		"version":         h.version,
		"engineVersion":   domain.EngineVersion,
		"ruleBookVersion": table.Version(),
		"components":      components,
	})
}

// Ready reports whether a rule table is loaded.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.svc.Book().Len() == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"ready": "false",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// GetEvaluation retrieves an evaluation by ID.
func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	evalID := chi.URLParam(r, "id")

	eval, err := h.svc.GetEvaluation(ctx, GetTenantID(ctx), evalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

// GetTransaction retrieves a transaction by ID.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txID := chi.URLParam(r, "id")

	tx, err := h.svc.GetTransaction(ctx, GetTenantID(ctx), txID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// ListRules returns the active rule table, disabled rules included.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	table := h.svc.Book().Table()
	all := table.All()

	writeJSON(w, http.StatusOK, map[string]any{
		"rules":   all,
		"count":   len(all),
		"enabled": len(table.Rules()),
		"version": table.Version(),
	})
}

// GetRule returns a rule of the active table, or a stored rule that has not
// been reloaded yet.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")

	if rule, ok := h.svc.Book().Table().Find(ruleID); ok {
		writeJSON(w, http.StatusOK, map[string]any{"rule": rule, "active": true})
		return
	}

	if h.repo != nil {
		rule, err := h.repo.GetRule(r.Context(), domain.GlobalTenantID, ruleID)
		if err == nil {
			writeJSON(w, http.StatusOK, map[string]any{"rule": rule, "active": false})
			return
		}
		if !errors.Is(err, repository.ErrNotFound) {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "rule not found",
	})
}

// CreateRule validates a rule and stores it for the whole deployment.
// It is applied by POST /rules/reload.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	rule := domain.Rule{Enabled: true}
	if !decodeBody(w, r, &rule) {
		return
	}

	if err := h.svc.SaveRule(r.Context(), &rule); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("rule saved", "id", rule.ID, "section", rule.Section)
	writeJSON(w, http.StatusCreated, map[string]any{
		"rule":    rule,
		"message": "Rule saved. Call POST /rules/reload to apply changes.",
	})
}

// ReloadRules swaps in the stored rule table without a restart.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	table, err := h.svc.ReloadRules(r.Context())
	if err != nil {
		slog.Error("failed to reload rules", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "rules reloaded successfully",
		"count":   len(table.Rules()),
		"version": table.Version(),
	})
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

// Login opens a demo session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeError(w, errSessionsUnavailable)
		return
	}

	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess, err := h.sessions.Login(r.Context(), GetTenantID(r.Context()), req.Email, req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Logout ends the session named by X-Session-ID.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeError(w, errSessionsUnavailable)
		return
	}

	id := r.Header.Get(SessionIDHeader)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "X-Session-ID header is required",
		})
		return
	}
	if err := h.sessions.Logout(r.Context(), GetTenantID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "logged out",
	})
}

// Me reports the session named by X-Session-ID.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeError(w, errSessionsUnavailable)
		return
	}

	sess, err := h.sessions.Hydrate(r.Context(), GetTenantID(r.Context()), r.Header.Get(SessionIDHeader))
	if errors.Is(err, session.ErrNotFound) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"authenticated": false,
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": sess.IsAuthenticated(),
		"email":         sess.Email,
		"expiresAt":     sess.ExpiresAt,
	})
}

var errSessionsUnavailable = errors.New("sessions not available")

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body: " + err.Error(),
		})
		return false
	}
	return true
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  domain.ErrInvalidInput.Error(),
			"fields": verr.Fields,
		})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, service.ErrEmptyRuleTable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrEvaluationUnavailable),
		errors.Is(err, service.ErrNoRepository),
		errors.Is(err, errSessionsUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
