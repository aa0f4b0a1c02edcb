// internal/agents/analytics/agent.go
package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"returns-insights/internal/agents/retrieval"
	"returns-insights/internal/common/config"
	commonerrors "returns-insights/internal/common/errors"
	"returns-insights/internal/common/logger"
	"returns-insights/internal/common/metrics"
	"returns-insights/internal/models"
	"returns-insights/internal/storage"
)

const (
	AgentName       = "insights_agent"
	ReportAgentName = "report_agent"
)

// ReportRenderer turns an aggregate plus its backing records into a
// downloadable file and returns the file identifier.
type ReportRenderer interface {
	Render(agg storage.Aggregate, records []models.ReturnRecord) (string, error)
}

// Agent answers analysis questions over the stored return records. It
// is read-only: every question turns into typed storage calls, never
// raw query syntax.
type Agent struct {
	store    storage.Store
	renderer ReportRenderer
	cfg      config.AnalyticsConfig
	retr     config.RetrievalConfig
	logger   logger.Logger
}

func New(store storage.Store, renderer ReportRenderer, cfg config.AnalyticsConfig, retr config.RetrievalConfig, log logger.Logger) *Agent {
	return &Agent{
		store:    store,
		renderer: renderer,
		cfg:      cfg,
		retr:     retr,
		logger:   log.WithFields(map[string]interface{}{"agent": AgentName}),
	}
}

// Run parses the utterance into an analytics query and computes the
// answer.
func (a *Agent) Run(ctx context.Context, utterance string) *models.AgentResponse {
	query := ParseQuery(utterance, a.cfg)

	result, err := a.execute(ctx, utterance, query)
	if err != nil {
		a.logger.Error("analytics query failed", map[string]interface{}{
			"queryType": string(query.QueryType),
			"error":     err.Error(),
		})
		stdErr := commonerrors.NewQueryExecutionFailedError(string(query.QueryType), err)
		return &models.AgentResponse{
			Success:   false,
			Message:   stdErr.UserMessage(),
			Intent:    models.IntentDataAnalysis,
			AgentName: AgentName,
			Data:      map[string]interface{}{"error": string(stdErr.Code)},
		}
	}

	return &models.AgentResponse{
		Success:   true,
		Message:   a.describe(query, result),
		Intent:    models.IntentDataAnalysis,
		AgentName: AgentName,
		Data: map[string]interface{}{
			"query":  query,
			"result": result,
		},
	}
}

// RunReport renders the requested window of returns as a downloadable
// workbook. The file identifier travels as a structured data field so
// clients never parse it out of the message text.
func (a *Agent) RunReport(ctx context.Context, utterance string) *models.AgentResponse {
	query := ParseQuery(utterance, a.cfg)
	query.QueryType = models.QueryTypeGeneral
	if query.TimeWindowDays == 0 || query.TimeWindowDays == a.cfg.CountWindowDays {
		query.TimeWindowDays = a.cfg.DefaultWindowDays
	}

	agg, err := a.store.Aggregate(ctx, query.TimeWindowDays)
	var records []models.ReturnRecord
	if err == nil {
		records, err = a.store.Query(ctx, storage.RecordFilters{
			Product:    singular(query.ProductFilter),
			WindowDays: query.TimeWindowDays,
			Limit:      a.retr.CorpusLimit,
		})
	}

	var fileID string
	if err == nil {
		fileID, err = a.renderer.Render(agg, records)
	}
	if err != nil {
		a.logger.Error("report generation failed", map[string]interface{}{"error": err.Error()})
		stdErr := commonerrors.NewReportGenerationFailedError(err)
		return &models.AgentResponse{
			Success:   false,
			Message:   stdErr.UserMessage(),
			Intent:    models.IntentReportGeneration,
			AgentName: ReportAgentName,
			Data:      map[string]interface{}{"error": string(stdErr.Code)},
		}
	}

	return &models.AgentResponse{
		Success: true,
		Message: fmt.Sprintf("Your report covering %d returns from the past %d days is ready.",
			agg.TotalCount, query.TimeWindowDays),
		Intent:    models.IntentReportGeneration,
		AgentName: ReportAgentName,
		Data: map[string]interface{}{
			"file_identifier": fileID,
			"total_count":     agg.TotalCount,
			"window_days":     query.TimeWindowDays,
		},
	}
}

func (a *Agent) execute(ctx context.Context, utterance string, query models.AnalyticsQuery) (*models.AnalyticsResult, error) {
	result := &models.AnalyticsResult{Query: query}

	if query.ProductFilter != "" {
		records, err := a.store.Query(ctx, storage.RecordFilters{
			Product:    singular(query.ProductFilter),
			WindowDays: query.TimeWindowDays,
			Limit:      a.retr.CorpusLimit,
		})
		if err != nil {
			return nil, err
		}
		result.Total = len(records)
		if query.QueryType == models.QueryTypeGeneral {
			result.SimilarReturns = topRecords(retrieval.Search(utterance, records, a.retr.TopK))
		}
		return result, nil
	}

	agg, err := a.store.Aggregate(ctx, query.TimeWindowDays)
	if err != nil {
		return nil, err
	}
	result.Total = agg.TotalCount
	result.TopProducts = agg.ByProduct
	result.TopReasons = agg.ByReason

	if query.QueryType == models.QueryTypeGeneral {
		start := time.Now()
		corpus, err := a.store.Query(ctx, storage.RecordFilters{
			WindowDays: query.TimeWindowDays,
			Limit:      a.retr.CorpusLimit,
		})
		if err != nil {
			return nil, err
		}
		result.SimilarReturns = topRecords(retrieval.Search(utterance, corpus, a.retr.TopK))
		metrics.SearchDuration.WithLabelValues("analytics").Observe(time.Since(start).Seconds())
	}

	return result, nil
}

func (a *Agent) describe(query models.AnalyticsQuery, result *models.AnalyticsResult) string {
	window := windowPhrase(query.TimeWindowDays, a.cfg.CountWindowDays)

	switch query.QueryType {
	case models.QueryTypeCount:
		if query.ProductFilter != "" {
			return fmt.Sprintf("I found %d returns for %s %s.", result.Total, query.ProductFilter, window)
		}
		return fmt.Sprintf("There are %d returns on record %s.", result.Total, window)

	case models.QueryTypeTrend:
		var b strings.Builder
		fmt.Fprintf(&b, "Over %s there were %d returns.", strings.TrimPrefix(window, "in "), result.Total)
		if len(result.TopProducts) > 0 {
			fmt.Fprintf(&b, " Most returned product: %s (%d).",
				result.TopProducts[0].Value, result.TopProducts[0].Count)
		}
		if len(result.TopReasons) > 0 {
			fmt.Fprintf(&b, " Leading reason: %s (%d).",
				result.TopReasons[0].Value, result.TopReasons[0].Count)
		}
		return b.String()

	default:
		var b strings.Builder
		fmt.Fprintf(&b, "Here's what I found %s: %d returns in total.", window, result.Total)
		if len(result.TopReasons) > 0 {
			fmt.Fprintf(&b, " The most common reason is %q.", result.TopReasons[0].Value)
		}
		if len(result.SimilarReturns) > 0 {
			fmt.Fprintf(&b, " I also found %d similar past returns.", len(result.SimilarReturns))
		}
		return b.String()
	}
}

func windowPhrase(days, allTimeDays int) string {
	if days >= allTimeDays {
		return "across all time"
	}
	return fmt.Sprintf("in the past %d days", days)
}

func topRecords(results []retrieval.Result) []models.ReturnRecord {
	records := make([]models.ReturnRecord, 0, len(results))
	for _, r := range results {
		records = append(records, r.Record)
	}
	return records
}
