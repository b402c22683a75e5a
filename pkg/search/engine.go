// Package search drives one natural-language query across an ordered
// cascade of models, executes the retrieval tool call the winning model
// asks for, and assembles a uniform result.
package search

import (
	"context"
	"encoding/json"

	"github.com/dthomason/wpsearch/pkg/errors"
	"github.com/dthomason/wpsearch/pkg/logging"
	"github.com/dthomason/wpsearch/pkg/model"
	"github.com/dthomason/wpsearch/pkg/wordpress"
)

// Gateway is the slice of the model gateway the engine depends on.
type Gateway interface {
	CompleteWithTool(ctx context.Context, modelID, query string) (*model.ChatResponse, error)
	CompleteAnalysisOnly(ctx context.Context, modelID, query, formattedContent string) string
}

// ContentSource retrieves normalized content records.
type ContentSource interface {
	FetchAll(ctx context.Context, maxResults int) ([]wordpress.ContentRecord, error)
}

// Engine orchestrates the model cascade for one query at a time. Each
// attempt runs to completion before the next model is considered; the
// first model that completes the protocol wins.
type Engine struct {
	gateway           Gateway
	content           ContentSource
	models            []string
	defaultMaxResults int
	logger            *logging.Logger
}

// NewEngine creates a search engine over the given model cascade. The
// cascade order is fixed configuration order: primary first.
func NewEngine(gateway Gateway, content ContentSource, models []string, defaultMaxResults int, logger *logging.Logger) *Engine {
	return &Engine{
		gateway:           gateway,
		content:           content,
		models:            models,
		defaultMaxResults: defaultMaxResults,
		logger:            logger,
	}
}

// Search runs the full cascade for query. It never returns an error: every
// failure path degrades into a well-formed Result, down to the "error"
// sentinel when both the models and the direct content fetch are gone.
func (e *Engine) Search(ctx context.Context, query string, maxResults int) *Result {
	if maxResults <= 0 {
		maxResults = e.defaultMaxResults
	}

	for _, modelID := range e.models {
		result, err := e.attempt(ctx, modelID, query, maxResults)
		if err != nil {
			if ctx.Err() != nil {
				// Shutdown requested: stop retrying and surface the abort.
				return newErrorResult(query, ctx.Err())
			}
			e.logger.Warn(logging.CategoryModel, "attempt_failed", err.Error(), map[string]any{"model": modelID})
			continue
		}
		return result
	}

	return e.fallback(ctx, query, maxResults)
}

// attempt runs the two-stage protocol against one model. A non-nil error
// means this model is abandoned entirely and the cascade moves on.
func (e *Engine) attempt(ctx context.Context, modelID, query string, maxResults int) (*Result, error) {
	resp, err := e.gateway.CompleteWithTool(ctx, modelID, query)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New(errors.ErrCodeResponseMalformed, "no choices in completion response").
			WithContext("model", modelID)
	}

	msg := resp.Choices[0].Message
	modelUsed := resp.Model
	if modelUsed == "" {
		modelUsed = modelID
	}

	for _, tc := range msg.ToolCalls {
		if tc.Function.Name != model.SearchToolName {
			continue
		}
		return e.executeToolCall(ctx, tc, query, maxResults, modelUsed)
	}

	// The model chose not to search; its text stands as the analysis and
	// the attempt still counts as completed.
	e.logger.Info(logging.CategorySearch, "direct_answer", "model answered without searching",
		map[string]any{"model": modelUsed})
	return newDirectAnswerResult(query, msg.Content, modelUsed), nil
}

// executeToolCall fetches the content the model asked for and runs the
// analysis-only completion over it.
func (e *Engine) executeToolCall(ctx context.Context, tc model.ToolCall, query string, maxResults int, modelUsed string) (*Result, error) {
	inv, err := decodeInvocation(tc.Function.Arguments, query, maxResults)
	if err != nil {
		return nil, err
	}

	e.logger.Info(logging.CategorySearch, "tool_call", "executing retrieval",
		map[string]any{"model": modelUsed, "query": inv.Query, "max_results": inv.MaxResults})

	records, err := e.content.FetchAll(ctx, inv.MaxResults)
	if err != nil {
		return nil, err
	}
	// The content source already truncates, but the bound belongs to this
	// protocol step, not to any particular ContentSource implementation.
	if len(records) > inv.MaxResults {
		records = records[:inv.MaxResults]
	}

	analysis := e.gateway.CompleteAnalysisOnly(ctx, modelUsed, query, formatRecordsForAnalysis(records))
	return newToolSearchResult(query, records, analysis, modelUsed), nil
}

// fallback performs the degraded search once every model is exhausted:
// content without AI analysis, or the error sentinel when even that fails.
func (e *Engine) fallback(ctx context.Context, query string, maxResults int) *Result {
	e.logger.Warn(logging.CategorySearch, "cascade_exhausted", "falling back to direct content search", nil)

	records, err := e.content.FetchAll(ctx, maxResults)
	if err != nil {
		e.logger.Error(logging.CategorySearch, "fallback_failed", err.Error(), nil)
		return newErrorResult(query, err)
	}
	return newFallbackResult(query, records)
}

// toolInvocation is the decoded argument payload of one retrieval tool
// call. Missing or invalid fields map to the caller-supplied defaults.
type toolInvocation struct {
	Query      string
	MaxResults int
}

// decodeInvocation defensively decodes the JSON-encoded arguments string.
// Arguments that are not valid JSON fail the whole attempt; individually
// missing or mistyped fields degrade to defaults instead.
func decodeInvocation(arguments, fallbackQuery string, fallbackMax int) (toolInvocation, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(arguments), &raw); err != nil {
		return toolInvocation{}, errors.Wrap(err, errors.ErrCodeResponseMalformed, "invalid tool arguments")
	}

	inv := toolInvocation{Query: fallbackQuery, MaxResults: fallbackMax}
	if q, ok := raw["query"].(string); ok && q != "" {
		inv.Query = q
	}
	if n, ok := raw["maxResults"].(float64); ok && n > 0 {
		inv.MaxResults = int(n)
	}
	return inv, nil
}
