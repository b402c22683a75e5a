package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dthomason/wpsearch/pkg/errors"
	"github.com/dthomason/wpsearch/pkg/logging"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("test-key", server.URL)
	t.Cleanup(func() { client.Close() })

	return NewGateway(client, 5, logging.Discard())
}

func TestGateway_CompleteWithTool(t *testing.T) {
	var gotReq ChatRequest

	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(ChatResponse{
			Model:   "test/model",
			Choices: []Choice{{Message: Message{Role: "assistant", Content: "direct answer"}}},
		})
	})

	resp, err := gw.CompleteWithTool(context.Background(), "test/model", "advertising compliance")
	require.NoError(t, err)
	assert.Equal(t, "direct answer", resp.Choices[0].Message.Content)

	// request shape: system + user message, declared tool, auto choice
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "advertising compliance", gotReq.Messages[1].Content)
	assert.Equal(t, "auto", gotReq.ToolChoice)
	assert.False(t, gotReq.Stream)

	require.Len(t, gotReq.Tools, 1)
	fn, ok := gotReq.Tools[0]["function"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, SearchToolName, fn["name"])
}

func TestGateway_CompleteWithTool_StatusFailure(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	})

	_, err := gw.CompleteWithTool(context.Background(), "test/model", "q")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGatewayStatus))
}

func TestGateway_CompleteWithTool_TransportFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := NewClient("test-key", server.URL)
	gw := NewGateway(client, 5, logging.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := gw.CompleteWithTool(ctx, "test/model", "q")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGatewayUnavailable))
}

func TestGateway_CompleteAnalysisOnly(t *testing.T) {
	var gotReq ChatRequest

	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(ChatResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: "cited answer"}}},
		})
	})

	got := gw.CompleteAnalysisOnly(context.Background(), "test/model", "my query", "Result 1:\nTitle: A post")
	assert.Equal(t, "cited answer", got)

	// no tools on the analysis call, and the content is embedded verbatim
	assert.Empty(t, gotReq.Tools)
	assert.Contains(t, gotReq.Messages[1].Content, "User Query: my query")
	assert.Contains(t, gotReq.Messages[1].Content, "Title: A post")
}

func TestGateway_CompleteAnalysisOnly_DegradesOnFailure(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	got := gw.CompleteAnalysisOnly(context.Background(), "test/model", "q", "content")
	assert.Equal(t, AnalysisUnavailable, got)
}

func TestGateway_Ping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       bool
	}{
		{"reachable", http.StatusOK, true},
		{"unreachable", http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.statusCode >= 500 && testing.Short() {
				t.Skip("retry backoff sleeps")
			}

			var gotMaxTokens int
			gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				var req ChatRequest
				json.NewDecoder(r.Body).Decode(&req)
				gotMaxTokens = req.MaxTokens

				if tt.statusCode != http.StatusOK {
					w.WriteHeader(tt.statusCode)
					return
				}
				json.NewEncoder(w).Encode(ChatResponse{
					Choices: []Choice{{Message: Message{Role: "assistant", Content: "Hi"}}},
				})
			})

			assert.Equal(t, tt.want, gw.Ping(context.Background(), "test/model"))
			assert.Equal(t, 10, gotMaxTokens, "ping should request minimal tokens")
		})
	}
}
