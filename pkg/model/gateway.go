package model

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/dthomason/wpsearch/pkg/errors"
	"github.com/dthomason/wpsearch/pkg/logging"
)

// SearchToolName is the single tool exposed to models.
const SearchToolName = "search_wordpress"

// AnalysisUnavailable is returned when the analysis completion fails.
// Retrieval results are still valid in that case, so the failure is
// absorbed here instead of surfacing.
const AnalysisUnavailable = "Unable to analyze results at this time."

const searchSystemPrompt = `You are a helpful AI assistant that searches WordPress content intelligently.

When a user asks a question:
1. Use the search_wordpress tool to retrieve content
2. Analyze ALL returned content for relevance, even if it doesn't contain exact keywords
3. Look for semantic relationships, related concepts, and contextual relevance
4. Consider synonyms, related terms, and broader topics
5. If content is tangentially related or could be helpful, include it
6. Always provide accurate citations and source links

Be flexible in your search - don't require exact keyword matches. Think about what the user is really looking for.`

const analysisSystemPrompt = `You are a helpful assistant that analyzes search results intelligently.

When analyzing results:
1. Consider ALL content for relevance, not just exact keyword matches
2. Look for semantic relationships and contextual relevance
3. Include content that might be tangentially related or helpful
4. Consider synonyms, related concepts, and broader topics
5. If content could be useful to the user, mention it
6. Provide clear, concise answers with proper citations

Be flexible and helpful - think about what would actually be useful to the user.`

// Gateway performs single chat-completion cycles against a named model.
// It owns the prompts and the search tool declaration; cascade and
// tool-call handling live with the caller.
type Gateway struct {
	client            *Client
	defaultMaxResults int
	logger            *logging.Logger
}

// NewGateway creates a Gateway on top of an OpenRouter client.
func NewGateway(client *Client, defaultMaxResults int, logger *logging.Logger) *Gateway {
	return &Gateway{
		client:            client,
		defaultMaxResults: defaultMaxResults,
		logger:            logger,
	}
}

// searchToolDefinition declares the retrieval tool in OpenAI function format.
func (g *Gateway) searchToolDefinition() map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        SearchToolName,
			"description": "Search WordPress content intelligently. Returns all available content for AI analysis - the AI will determine relevance based on semantic understanding, not just keyword matching.",
			"parameters": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query. Note: This tool returns all content - the AI analyzes relevance, not the tool.",
					},
					"maxResults": map[string]any{
						"type":        "integer",
						"description": "Maximum number of results to return",
						"default":     g.defaultMaxResults,
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// CompleteWithTool sends the user query to modelID with the search tool
// declared and tool choice left to the model.
func (g *Gateway) CompleteWithTool(ctx context.Context, modelID, query string) (*ChatResponse, error) {
	req := ChatRequest{
		Model: modelID,
		Messages: []Message{
			{Role: "system", Content: searchSystemPrompt},
			{Role: "user", Content: query},
		},
		Tools:      []map[string]any{g.searchToolDefinition()},
		ToolChoice: "auto",
	}

	resp, err := g.client.ChatCompletion(ctx, req)
	if err != nil {
		// HTTP-level rejections carry a status code; transport failures
		// and context aborts do not.
		code := errors.ErrCodeGatewayUnavailable
		var apiErr *APIError
		if stderrors.As(err, &apiErr) {
			code = errors.ErrCodeGatewayStatus
		}
		return nil, errors.Wrap(err, code, "chat completion failed").
			WithContext("model", modelID)
	}
	return resp, nil
}

// CompleteAnalysisOnly asks modelID for a cited answer over already
// retrieved content. Failures never propagate: a gateway outage during
// analysis must not discard valid retrieval results.
func (g *Gateway) CompleteAnalysisOnly(ctx context.Context, modelID, query, formattedContent string) string {
	userMessage := fmt.Sprintf(`User Query: %s

Search Results:
%s

Please provide a helpful answer based on these search results. Include relevant citations and source links.`, query, formattedContent)

	req := ChatRequest{
		Model: modelID,
		Messages: []Message{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: userMessage},
		},
	}

	resp, err := g.client.ChatCompletion(ctx, req)
	if err != nil {
		g.logger.Warn(logging.CategoryModel, "analysis_failed", err.Error(), map[string]any{"model": modelID})
		return AnalysisUnavailable
	}
	if len(resp.Choices) == 0 {
		g.logger.Warn(logging.CategoryModel, "analysis_empty", "no choices in analysis response", map[string]any{"model": modelID})
		return AnalysisUnavailable
	}
	return resp.Choices[0].Message.Content
}

// Ping issues a minimal completion to check the model endpoint. Used only
// for the startup connectivity check.
func (g *Gateway) Ping(ctx context.Context, modelID string) bool {
	req := ChatRequest{
		Model: modelID,
		Messages: []Message{
			{Role: "user", Content: "Hello"},
		},
		MaxTokens: 10,
	}

	_, err := g.client.ChatCompletion(ctx, req)
	if err != nil {
		g.logger.Debug(logging.CategoryModel, "ping_failed", err.Error(), map[string]any{"model": modelID})
		return false
	}
	return true
}
