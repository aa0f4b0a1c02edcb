// internal/agents/analytics/analytics_test.go
package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"returns-insights/internal/common/config"
	"returns-insights/internal/common/logger"
	"returns-insights/internal/models"
	"returns-insights/internal/storage"
)

type fakeStore struct {
	records    []models.ReturnRecord
	aggregate  storage.Aggregate
	queryErr   error
	aggErr     error
	lastFilter storage.RecordFilters
}

func (f *fakeStore) Insert(ctx context.Context, rec models.ReturnRecord) (string, error) {
	return rec.ID, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (models.ReturnRecord, error) {
	return models.ReturnRecord{}, storage.ErrNotFound
}

func (f *fakeStore) Query(ctx context.Context, filters storage.RecordFilters) ([]models.ReturnRecord, error) {
	f.lastFilter = filters
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.records, nil
}

func (f *fakeStore) Aggregate(ctx context.Context, windowDays int) (storage.Aggregate, error) {
	if f.aggErr != nil {
		return storage.Aggregate{}, f.aggErr
	}
	return f.aggregate, nil
}

func testConfigs() (config.AnalyticsConfig, config.RetrievalConfig) {
	return config.AnalyticsConfig{DefaultWindowDays: 30, CountWindowDays: 1000},
		config.RetrievalConfig{TopK: 5, CorpusLimit: 1000}
}

type fakeRenderer struct {
	id      string
	err     error
	lastAgg storage.Aggregate
}

func (f *fakeRenderer) Render(agg storage.Aggregate, records []models.ReturnRecord) (string, error) {
	f.lastAgg = agg
	return f.id, f.err
}

func newTestAgent(store storage.Store) *Agent {
	cfg, retr := testConfigs()
	return New(store, &fakeRenderer{id: "returns_report_test.xlsx"}, cfg, retr, logger.NewZapAdapter(zap.NewNop()))
}

func TestParseQueryCountWithProduct(t *testing.T) {
	cfg, _ := testConfigs()

	q := ParseQuery("How many cameras were returned?", cfg)

	assert.Equal(t, models.QueryTypeCount, q.QueryType)
	assert.Equal(t, "cameras", q.ProductFilter)
	assert.Equal(t, 1000, q.TimeWindowDays)
}

func TestParseQueryTrendWithWindow(t *testing.T) {
	cfg, _ := testConfigs()

	q := ParseQuery("Show me return trends for the past 2 weeks", cfg)

	assert.Equal(t, models.QueryTypeTrend, q.QueryType)
	assert.Equal(t, 14, q.TimeWindowDays)
}

func TestParseQueryGeneralDefaultWindow(t *testing.T) {
	cfg, _ := testConfigs()

	q := ParseQuery("What do customers complain about?", cfg)

	assert.Equal(t, models.QueryTypeGeneral, q.QueryType)
	assert.Empty(t, q.ProductFilter)
	assert.Equal(t, 30, q.TimeWindowDays)
}

func TestRunCountWithProductFilter(t *testing.T) {
	store := &fakeStore{records: []models.ReturnRecord{
		{ID: "r1", ProductName: "Camera"},
		{ID: "r2", ProductName: "Camera"},
	}}
	agent := newTestAgent(store)

	resp := agent.Run(context.Background(), "How many cameras were returned?")

	require.True(t, resp.Success)
	assert.Equal(t, models.IntentDataAnalysis, resp.Intent)
	assert.Equal(t, AgentName, resp.AgentName)
	assert.Contains(t, resp.Message, "2 returns for cameras")

	// The plural is kept for the reply but singularized for matching.
	assert.Equal(t, "camera", store.lastFilter.Product)
	assert.Equal(t, 1000, store.lastFilter.WindowDays)

	result, ok := resp.Data["result"].(*models.AnalyticsResult)
	require.True(t, ok)
	assert.Equal(t, 2, result.Total)
}

func TestRunCountWithoutFilterUsesAggregate(t *testing.T) {
	store := &fakeStore{aggregate: storage.Aggregate{TotalCount: 42}}
	agent := newTestAgent(store)

	resp := agent.Run(context.Background(), "How many returns do we have in total?")

	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "42 returns")
}

func TestRunTrendReportsTopBuckets(t *testing.T) {
	store := &fakeStore{aggregate: storage.Aggregate{
		TotalCount: 17,
		ByProduct:  []models.ReasonCount{{Value: "iPhone", Count: 9}},
		ByReason:   []models.ReasonCount{{Value: "Screen cracked or damaged", Count: 6}},
	}}
	agent := newTestAgent(store)

	resp := agent.Run(context.Background(), "Any return trends this month?")

	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "iPhone (9)")
	assert.Contains(t, resp.Message, "Screen cracked or damaged (6)")
}

func TestRunGeneralIncludesSimilarReturns(t *testing.T) {
	store := &fakeStore{
		aggregate: storage.Aggregate{TotalCount: 3},
		records: []models.ReturnRecord{
			{ID: "r1", ProductName: "iPhone 13", ReturnReason: "Screen cracked or damaged"},
			{ID: "r2", ProductName: "Blender", ReturnReason: "Motor failure"},
		},
	}
	agent := newTestAgent(store)

	resp := agent.Run(context.Background(), "Why do people send back the iphone")

	require.True(t, resp.Success)
	result, ok := resp.Data["result"].(*models.AnalyticsResult)
	require.True(t, ok)
	require.NotEmpty(t, result.SimilarReturns)
	assert.Equal(t, "iPhone 13", result.SimilarReturns[0].ProductName)
}

func TestRunGeneralTokensMatchOnWhitespaceSplitOnly(t *testing.T) {
	store := &fakeStore{
		aggregate: storage.Aggregate{TotalCount: 3},
		records: []models.ReturnRecord{
			{ID: "r1", ProductName: "iPhone 13", ReturnReason: "Screen cracked or damaged"},
		},
	}
	agent := newTestAgent(store)

	// "iphone?" is a single token and never a substring of "iphone 13",
	// so trailing punctuation suppresses the match.
	resp := agent.Run(context.Background(), "Why do people send back the iphone?")

	require.True(t, resp.Success)
	result, ok := resp.Data["result"].(*models.AnalyticsResult)
	require.True(t, ok)
	assert.Empty(t, result.SimilarReturns)
}

func TestRunReportReturnsFileIdentifier(t *testing.T) {
	store := &fakeStore{aggregate: storage.Aggregate{TotalCount: 7}}
	cfg, retr := testConfigs()
	renderer := &fakeRenderer{id: "returns_report_abc.xlsx"}
	agent := New(store, renderer, cfg, retr, logger.NewZapAdapter(zap.NewNop()))

	resp := agent.RunReport(context.Background(), "Generate a returns report please")

	require.True(t, resp.Success)
	assert.Equal(t, models.IntentReportGeneration, resp.Intent)
	assert.Equal(t, ReportAgentName, resp.AgentName)
	assert.Equal(t, "returns_report_abc.xlsx", resp.Data["file_identifier"])
	assert.Equal(t, 7, renderer.lastAgg.TotalCount)
	assert.Contains(t, resp.Message, "7 returns")
}

func TestRunReportRenderFailure(t *testing.T) {
	store := &fakeStore{}
	cfg, retr := testConfigs()
	renderer := &fakeRenderer{err: errors.New("disk full")}
	agent := New(store, renderer, cfg, retr, logger.NewZapAdapter(zap.NewNop()))

	resp := agent.RunReport(context.Background(), "Create a report")

	require.False(t, resp.Success)
	assert.Equal(t, "REPORT_GENERATION_FAILED", resp.Data["error"])
	assert.NotContains(t, resp.Message, "disk full")
	_, present := resp.Data["file_identifier"]
	assert.False(t, present)
}

func TestRunStorageFailure(t *testing.T) {
	store := &fakeStore{aggErr: errors.New("connection refused")}
	agent := newTestAgent(store)

	resp := agent.Run(context.Background(), "Show me return trends")

	require.False(t, resp.Success)
	assert.Equal(t, models.IntentDataAnalysis, resp.Intent)
	assert.NotContains(t, resp.Message, "connection refused")
	assert.Equal(t, "QUERY_EXECUTION_FAILED", resp.Data["error"])
}
