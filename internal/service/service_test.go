package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyndhavamahesh345/LexGuard/internal/bus"
	"github.com/hyndhavamahesh345/LexGuard/internal/cache"
	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
	"github.com/hyndhavamahesh345/LexGuard/internal/repository"
	"github.com/hyndhavamahesh345/LexGuard/internal/rules"
)

const tenantID = "tenant-001"

type fixture struct {
	svc   *Service
	repo  domain.Repository
	cache *cache.LRUCache
	bus   *bus.ChannelBus
}

func newFixture(t *testing.T, narrator Narrator) *fixture {
	t.Helper()

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "lexguard.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	lru := cache.NewLRUCache(100)
	eventBus := bus.NewChannelBus(100)
	t.Cleanup(func() { eventBus.Close() })

	svc := New(domain.EvaluationConfig{}, domain.CacheConfig{ResultTTL: time.Minute}, Deps{
		Book:     rules.MustDefault(),
		Repo:     repo,
		Cache:    lru,
		Bus:      eventBus,
		Narrator: narrator,
	})
	return &fixture{svc: svc, repo: repo, cache: lru, bus: eventBus}
}

func rent() *domain.TransactionInput {
	return &domain.TransactionInput{
		Description:  "Office rent for March",
		Amount:       decimal.NewFromInt(25000),
		Date:         domain.NewDate(2024, time.June, 1),
		Counterparty: "Sharma Estates",
		Frequency:    domain.FrequencyMonthly,
	}
}

// collect subscribes to a topic and returns a function reading what arrived.
func collect(t *testing.T, b domain.EventBus, topic string) func() []*domain.Message {
	t.Helper()
	var mu sync.Mutex
	var got []*domain.Message
	_, err := b.Subscribe(context.Background(), tenantID, topic, func(ctx context.Context, msg *domain.Message) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg)
		return nil
	})
	require.NoError(t, err)
	return func() []*domain.Message {
		mu.Lock()
		defer mu.Unlock()
		return append([]*domain.Message(nil), got...)
	}
}

func TestEvaluate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	results := collect(t, f.bus, domain.TopicComplianceResult)
	alerts := collect(t, f.bus, domain.TopicComplianceAlert)
	stages := collect(t, f.bus, domain.TopicComplianceStage)

	eval, err := f.svc.Evaluate(ctx, tenantID, rent(), "trace-001")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNonCompliant, eval.Result.Status)
	assert.Equal(t, "2500", eval.Result.Evaluation.TaxAmount.String())
	assert.Equal(t, "trace-001", eval.Metadata.TraceID)
	assert.Equal(t, domain.EngineVersion, eval.Metadata.EngineVersion)
	assert.Equal(t, f.svc.Book().Table().Version(), eval.Metadata.RuleBookVersion)
	assert.False(t, eval.Metadata.CacheHit)
	assert.Equal(t, 1, eval.Metadata.RulesEvaluated)

	stored, err := f.svc.GetEvaluation(ctx, tenantID, eval.ID)
	require.NoError(t, err)
	assert.Equal(t, eval.TxID, stored.TxID)
	assert.Equal(t, domain.StatusNonCompliant, stored.Result.Status)

	tx, err := f.svc.GetTransaction(ctx, tenantID, eval.TxID)
	require.NoError(t, err)
	assert.Equal(t, "Sharma Estates", tx.Input.Counterparty)

	require.Eventually(t, func() bool {
		return len(results()) == 1 && len(alerts()) == 1 && len(stages()) == 4
	}, time.Second, 10*time.Millisecond)

	var published domain.Evaluation
	require.NoError(t, json.Unmarshal(results()[0].Payload, &published))
	assert.Equal(t, eval.ID, published.ID)

	var first StageMessage
	require.NoError(t, json.Unmarshal(stages()[0].Payload, &first))
	assert.Equal(t, "trace-001", first.TraceID)
}

func TestEvaluateCompliantPublishesNoAlert(t *testing.T) {
	f := newFixture(t, nil)
	alerts := collect(t, f.bus, domain.TopicComplianceAlert)
	results := collect(t, f.bus, domain.TopicComplianceResult)

	in := rent()
	in.Description = "Printer paper"
	eval, err := f.svc.Evaluate(context.Background(), tenantID, in, "")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompliant, eval.Result.Status)
	assert.NotEmpty(t, eval.Metadata.TraceID, "a trace id is generated when none is given")

	require.Eventually(t, func() bool { return len(results()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Empty(t, alerts())
}

func TestResultCache(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.Evaluate(ctx, tenantID, rent(), "")
	require.NoError(t, err)
	second, err := f.svc.Evaluate(ctx, tenantID, rent(), "")
	require.NoError(t, err)

	assert.False(t, first.Metadata.CacheHit)
	assert.True(t, second.Metadata.CacheHit)
	assert.NotEqual(t, first.ID, second.ID, "every check is recorded")

	a, _ := json.Marshal(first.Result)
	b, _ := json.Marshal(second.Result)
	assert.JSONEq(t, string(a), string(b))

	t.Run("OtherTenantMisses", func(t *testing.T) {
		other, err := f.svc.Evaluate(ctx, "tenant-002", rent(), "")
		require.NoError(t, err)
		assert.False(t, other.Metadata.CacheHit)
	})

	t.Run("ReloadInvalidatesByVersion", func(t *testing.T) {
		require.NoError(t, f.svc.SeedRules(ctx))

		cheaper := rules.KnowledgeBase()[0]
		cheaper.Rate = decimal.NewFromInt(5)
		require.NoError(t, f.svc.SaveRule(ctx, &cheaper))

		_, err := f.svc.ReloadRules(ctx)
		require.NoError(t, err)

		after, err := f.svc.Evaluate(ctx, tenantID, rent(), "")
		require.NoError(t, err)
		assert.False(t, after.Metadata.CacheHit)
		assert.Equal(t, "1250", after.Result.Evaluation.TaxAmount.String())
	})
}

func TestEvaluateInvalidInput(t *testing.T) {
	f := newFixture(t, nil)
	results := collect(t, f.bus, domain.TopicComplianceResult)

	in := rent()
	in.Amount = decimal.Zero
	in.Frequency = ""

	_, err := f.svc.Evaluate(context.Background(), tenantID, in, "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, results())
}

func TestCounterpartyYearToDate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.Evaluate(ctx, tenantID, rent(), "")
	require.NoError(t, err)
	assert.True(t, first.CounterpartyYearToDate.IsZero())

	second, err := f.svc.Evaluate(ctx, tenantID, rent(), "")
	require.NoError(t, err)
	assert.Equal(t, "25000", second.CounterpartyYearToDate.String())
	assert.Equal(t, first.Result.Status, second.Result.Status, "history never changes the verdict")
}

type stubNarrator struct {
	text string
	err  error
}

func (n stubNarrator) Narrate(ctx context.Context, in *domain.TransactionInput, res *domain.ComplianceResult) (string, error) {
	return n.text, n.err
}

func TestNarration(t *testing.T) {
	t.Run("Stored", func(t *testing.T) {
		f := newFixture(t, stubNarrator{text: "Keep 10% aside for the tax office."})
		eval, err := f.svc.Evaluate(context.Background(), tenantID, rent(), "")
		require.NoError(t, err)
		assert.Equal(t, "Keep 10% aside for the tax office.", eval.Narrative)

		stored, err := f.svc.GetEvaluation(context.Background(), tenantID, eval.ID)
		require.NoError(t, err)
		assert.Equal(t, eval.Narrative, stored.Narrative)
	})

	t.Run("FailureIsNotFatal", func(t *testing.T) {
		f := newFixture(t, stubNarrator{err: errors.New("quota exceeded")})
		eval, err := f.svc.Evaluate(context.Background(), tenantID, rent(), "")
		require.NoError(t, err)
		assert.Empty(t, eval.Narrative)
		assert.Len(t, eval.Result.Explanation.Actions, 4)
	})
}

func TestRuleManagement(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	t.Run("ReloadRefusesEmptyTable", func(t *testing.T) {
		_, err := f.svc.ReloadRules(ctx)
		assert.ErrorIs(t, err, ErrEmptyRuleTable)
		assert.Equal(t, 3, f.svc.Book().Len())
	})

	t.Run("SaveRejectsInvalidRule", func(t *testing.T) {
		err := f.svc.SaveRule(ctx, &domain.Rule{ID: "broken", Section: "X", Rate: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("SeedIsIdempotent", func(t *testing.T) {
		require.NoError(t, f.svc.SeedRules(ctx))
		require.NoError(t, f.svc.SeedRules(ctx))

		stored, err := f.repo.ListRules(ctx, domain.GlobalTenantID)
		require.NoError(t, err)
		assert.Len(t, stored, 3)
	})

	t.Run("AddAndReload", func(t *testing.T) {
		annual := decimal.NewFromInt(15000)
		commission := &domain.Rule{
			ID:              "TDS_194H",
			Law:             "Income Tax Act",
			Section:         "194H",
			AppliesTo:       []domain.ClassificationType{"Commission"},
			ThresholdAnnual: &annual,
			Rate:            decimal.NewFromInt(5),
			Enabled:         true,
		}
		require.NoError(t, f.svc.SaveRule(ctx, commission))

		table, err := f.svc.ReloadRules(ctx)
		require.NoError(t, err)
		assert.Len(t, table.Rules(), 4)
		assert.Equal(t, "TDS_194H", table.Rules()[3].ID)
	})
}

func TestInitialTable(t *testing.T) {
	ctx := context.Background()

	table, source, err := InitialTable(ctx, domain.EvaluationConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceBuiltin, source)
	assert.Len(t, table, 3)

	_, _, err = InitialTable(ctx, domain.EvaluationConfig{RulesFile: filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	assert.Error(t, err)

	f := newFixture(t, nil)
	require.NoError(t, f.svc.SeedRules(ctx))
	_, source, err = InitialTable(ctx, domain.EvaluationConfig{}, f.repo)
	require.NoError(t, err)
	assert.Equal(t, SourceRepository, source)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(rent(), "v1")
	assert.Equal(t, a, Fingerprint(rent(), "v1"))
	assert.NotEqual(t, a, Fingerprint(rent(), "v2"))

	other := rent()
	other.Counterparty = "Gupta Traders"
	assert.NotEqual(t, a, Fingerprint(other, "v1"))
}
