package search

import (
	"fmt"

	"github.com/dthomason/wpsearch/pkg/wordpress"
)

// Model sentinels for results not produced by an AI model.
const (
	ModelFallback = "fallback"
	ModelError    = "error"
)

// Result is the uniform outcome of one search, regardless of which path
// produced it. Immutable after construction.
type Result struct {
	Query        string                    `json:"query"`
	Records      []wordpress.ContentRecord `json:"results"`
	Analysis     string                    `json:"analysis"`
	ModelUsed    string                    `json:"model_used"`
	TotalResults int                       `json:"total_results"`
}

// newToolSearchResult packages a completed retrieve-and-analyze cycle.
func newToolSearchResult(query string, records []wordpress.ContentRecord, analysis, modelID string) *Result {
	return &Result{
		Query:        query,
		Records:      records,
		Analysis:     analysis,
		ModelUsed:    modelID,
		TotalResults: len(records),
	}
}

// newDirectAnswerResult packages a model answer given without searching.
func newDirectAnswerResult(query, analysis, modelID string) *Result {
	if analysis == "" {
		analysis = "No relevant content found."
	}
	return &Result{
		Query:     query,
		Analysis:  analysis,
		ModelUsed: modelID,
	}
}

// newFallbackResult packages a direct content fetch with no AI analysis.
func newFallbackResult(query string, records []wordpress.ContentRecord) *Result {
	return &Result{
		Query:        query,
		Records:      records,
		Analysis:     fmt.Sprintf("Found %d results for your query. (Fallback search - AI analysis unavailable)", len(records)),
		ModelUsed:    ModelFallback,
		TotalResults: len(records),
	}
}

// newErrorResult packages a total failure: no models and no content.
func newErrorResult(query string, err error) *Result {
	return &Result{
		Query:     query,
		Analysis:  fmt.Sprintf("Search failed: %v", err),
		ModelUsed: ModelError,
	}
}
