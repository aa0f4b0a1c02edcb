// internal/models/analytics.go
package models

// AnalyticsQueryType selects how an analysis question is answered.
type AnalyticsQueryType string

const (
	QueryTypeCount   AnalyticsQueryType = "count"
	QueryTypeTrend   AnalyticsQueryType = "trend"
	QueryTypeGeneral AnalyticsQueryType = "general"
)

// AnalyticsQuery is a parsed analysis question.
type AnalyticsQuery struct {
	QueryType      AnalyticsQueryType `json:"query_type"`
	ProductFilter  string             `json:"product_filter,omitempty"`
	TimeWindowDays int                `json:"time_window_days"`
}

// ReasonCount is one bucket of a grouped aggregate.
type ReasonCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// AnalyticsResult holds the computed answer for an analysis question.
type AnalyticsResult struct {
	Query          AnalyticsQuery `json:"query"`
	Total          int            `json:"total"`
	TopReasons     []ReasonCount  `json:"top_reasons,omitempty"`
	TopProducts    []ReasonCount  `json:"top_products,omitempty"`
	SimilarReturns []ReturnRecord `json:"similar_returns,omitempty"`
}
