package compliance

import (
	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
	"github.com/hyndhavamahesh345/LexGuard/internal/rules"
)

// RuleSource supplies rule table snapshots. *rules.Book implements it.
type RuleSource interface {
	Table() *rules.Table
}

// StageObserver is told when each stage completes. It cannot alter the result.
type StageObserver func(domain.StageEvent)

// Pipeline runs classify, retrieve, evaluate and explain in that order.
type Pipeline struct {
	source     RuleSource
	classifier *Classifier
	evaluator  *Evaluator
	explainer  *Explainer
	observer   StageObserver
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClassifier replaces the default term table.
func WithClassifier(c *Classifier) Option {
	return func(p *Pipeline) {
		p.classifier = c
	}
}

// WithEvaluator replaces the default evaluator.
func WithEvaluator(e *Evaluator) Option {
	return func(p *Pipeline) {
		p.evaluator = e
	}
}

// WithExplainConfig localizes explanations.
func WithExplainConfig(cfg domain.ExplainConfig) Option {
	return func(p *Pipeline) {
		p.explainer = NewExplainer(cfg)
	}
}

// WithObserver registers an observer for every check.
func WithObserver(obs StageObserver) Option {
	return func(p *Pipeline) {
		p.observer = obs
	}
}

// New creates a pipeline reading rules from source.
func New(source RuleSource, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:     source,
		classifier: NewClassifier(DefaultCategories()),
		evaluator:  NewEvaluator(),
		explainer:  NewExplainer(domain.DefaultExplainConfig()),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromConfig builds a pipeline honoring the evaluation settings.
func FromConfig(source RuleSource, cfg domain.EvaluationConfig, opts ...Option) *Pipeline {
	explain := NewExplainer(cfg.Explain)

	evalOpts := []EvaluatorOption{WithCurrencySymbol(explain.cfg.CurrencySymbol)}
	if cfg.CheckSingleThreshold {
		evalOpts = append(evalOpts, WithSingleThreshold())
	}

	base := []Option{
		WithEvaluator(NewEvaluator(evalOpts...)),
		WithExplainConfig(explain.cfg),
	}
	return New(source, append(base, opts...)...)
}

// Check validates the input and runs it against the current rule table.
func (p *Pipeline) Check(in *domain.TransactionInput) (domain.ComplianceResult, error) {
	return p.Run(in, p.source.Table(), nil)
}

// Run checks in against one table snapshot. observe, if non-nil, is called
// after each stage in addition to the pipeline's own observer.
func (p *Pipeline) Run(in *domain.TransactionInput, table *rules.Table, observe StageObserver) (domain.ComplianceResult, error) {
	if err := in.Validate(); err != nil {
		return domain.ComplianceResult{}, err
	}

	stages := 0
	done := func(s domain.Stage) {
		stages++
		ev := domain.StageEvent{Stage: s, Index: stages, Total: 4}
		if p.observer != nil {
			p.observer(ev)
		}
		if observe != nil {
			observe(ev)
		}
	}

	classification := p.classifier.Classify(in)
	done(domain.StageClassify)

	applicable := Retrieve(classification, table.Rules())
	done(domain.StageRetrieve)

	evaluation := p.evaluator.Evaluate(in, classification, applicable, table)
	done(domain.StageEvaluate)

	explanation := p.explainer.Explain(evaluation, classification, in)
	done(domain.StageExplain)

	status := domain.StatusCompliant
	if evaluation.TaxRequired {
		status = domain.StatusNonCompliant
	}

	return domain.ComplianceResult{
		Status:         status,
		Classification: classification,
		RulesApplied:   applicable,
		Evaluation:     evaluation,
		Explanation:    explanation,
	}, nil
}
