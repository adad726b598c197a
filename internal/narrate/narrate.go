// Package narrate restates compliance results in plain English with Gemini.
package narrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

// ErrDisabled is returned by New when narration is off or has no API key.
var ErrDisabled = errors.New("narration disabled")

const promptTemplate = `You are a tax compliance assistant for Indian MSMEs.

Explain the compliance result below in SIMPLE and CLEAR English.
Do not invent laws.
Do not give legal advice.
Only explain what is present.

Compliance data:
%s

Output format:
- Short explanation
- Applicable section (if any)
- Suggested next action
`

// generateFunc sends a prompt to a model and returns its text.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// Narrator asks a generative model to restate a result.
type Narrator struct {
	generate generateFunc
	timeout  time.Duration
}

// New creates a Gemini narrator from cfg.
func New(ctx context.Context, cfg domain.NarrationConfig) (*Narrator, error) {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil, ErrDisabled
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	generate := func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return newNarrator(generate, cfg.Timeout), nil
}

func newNarrator(generate generateFunc, timeout time.Duration) *Narrator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Narrator{generate: generate, timeout: timeout}
}

// Narrate returns the model's restatement of res.
func (n *Narrator) Narrate(ctx context.Context, in *domain.TransactionInput, res *domain.ComplianceResult) (string, error) {
	prompt, err := Prompt(in, res)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	text, err := n.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("narration request failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Prompt builds the model prompt. Only facts already in the result are
// included so the model has nothing to embellish.
func Prompt(in *domain.TransactionInput, res *domain.ComplianceResult) (string, error) {
	facts := map[string]any{
		"transaction": in,
		"status":      res.Status,
		"type":        res.Classification.Type,
		"details":     res.Evaluation.Details,
		"summary":     res.Explanation.Summary,
		"explanation": res.Explanation.Detail,
		"actions":     res.Explanation.Actions,
		"netPayable":  res.Explanation.NetPayable,
	}
	if rule := res.Evaluation.TriggeredRule; rule != nil {
		facts["section"] = rule.Section
		facts["law"] = rule.Law
		facts["taxAmount"] = res.Evaluation.TaxAmount
	}

	data, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode compliance data: %w", err)
	}
	return fmt.Sprintf(promptTemplate, data), nil
}
