package model

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// TestNewClient tests client initialization
func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		apiKey      string
		baseURL     string
		expectedURL string
	}{
		{
			name:        "with_custom_base_url",
			apiKey:      "test-key",
			baseURL:     "https://custom.api.com",
			expectedURL: "https://custom.api.com",
		},
		{
			name:        "with_empty_base_url_uses_default",
			apiKey:      "test-key",
			baseURL:     "",
			expectedURL: defaultBaseURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.apiKey, tt.baseURL)

			if client == nil {
				t.Fatal("NewClient returned nil")
			}
			if client.apiKey != tt.apiKey {
				t.Errorf("apiKey = %q, want %q", client.apiKey, tt.apiKey)
			}
			if client.baseURL != tt.expectedURL {
				t.Errorf("baseURL = %q, want %q", client.baseURL, tt.expectedURL)
			}
			if client.httpClient == nil {
				t.Error("httpClient is nil")
			}
		})
	}
}

// TestClient_ChatCompletion tests the completion round trip
func TestClient_ChatCompletion(t *testing.T) {
	var gotAuth, gotTitle, gotPath string
	var gotReq ChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotTitle = r.Header.Get("X-Title")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)

		json.NewEncoder(w).Encode(ChatResponse{
			ID:    "gen-1",
			Model: "test/model",
			Choices: []Choice{
				{
					Message: Message{
						Role: "assistant",
						ToolCalls: []ToolCall{
							{
								ID:   "call_1",
								Type: "function",
								Function: FunctionCall{
									Name:      SearchToolName,
									Arguments: `{"query":"hfss rules","maxResults":3}`,
								},
							},
						},
					},
					FinishReason: "tool_calls",
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	defer client.Close()

	resp, err := client.ChatCompletion(context.Background(), ChatRequest{
		Model:    "test/model",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotTitle != "wpsearch" {
		t.Errorf("X-Title = %q, want wpsearch", gotTitle)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions", gotPath)
	}
	if gotReq.Stream {
		t.Error("stream must be disabled")
	}

	if len(resp.Choices) != 1 {
		t.Fatalf("choices = %d, want 1", len(resp.Choices))
	}
	tc := resp.Choices[0].Message.ToolCalls
	if len(tc) != 1 || tc[0].Function.Name != SearchToolName {
		t.Fatalf("tool calls not decoded: %+v", tc)
	}
}

// TestClient_ChatCompletion_ErrorHandling tests error parsing behavior
func TestClient_ChatCompletion_ErrorHandling(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantMsg    string
		wantRetry  bool
	}{
		{
			name:       "structured_error",
			statusCode: http.StatusUnauthorized,
			body:       `{"error":{"message":"invalid api key","type":"auth_error","code":"401"}}`,
			wantMsg:    "invalid api key",
			wantRetry:  false,
		},
		{
			name:       "unparseable_body",
			statusCode: http.StatusBadRequest,
			body:       `<html>nope</html>`,
			wantMsg:    "400",
			wantRetry:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient("test-key", server.URL)
			defer client.Close()

			_, err := client.ChatCompletion(context.Background(), ChatRequest{Model: "m"})
			if err == nil {
				t.Fatal("expected error")
			}

			apiErr, ok := err.(*APIError)
			if !ok {
				t.Fatalf("error type = %T, want *APIError", err)
			}
			if apiErr.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.statusCode)
			}
			if apiErr.Retryable != tt.wantRetry {
				t.Errorf("Retryable = %v, want %v", apiErr.Retryable, tt.wantRetry)
			}
			if got := atomic.LoadInt32(&calls); got != 1 {
				t.Errorf("non-retryable error should not retry, calls = %d", got)
			}
		})
	}
}

// TestClient_ChatCompletion_RetriesServerErrors tests retry on 5xx
func TestClient_ChatCompletion_RetriesServerErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps")
	}

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: "ok"}}},
		})
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	defer client.Close()

	resp, err := client.ChatCompletion(context.Background(), ChatRequest{Model: "m"})
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if resp.Choices[0].Message.Content != "ok" {
		t.Errorf("content = %q, want ok", resp.Choices[0].Message.Content)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

// TestClient_ChatCompletion_ContextCanceled tests prompt abort
func TestClient_ChatCompletion_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect; otherwise r.Context() is never canceled and
		// the deferred server.Close() blocks forever.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.ChatCompletion(ctx, ChatRequest{Model: "m"})
	if err == nil {
		t.Fatal("expected error from canceled context")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %s, should abort promptly", elapsed)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "5", 5 * time.Second},
		{"garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRetryAfter(tt.header); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}
