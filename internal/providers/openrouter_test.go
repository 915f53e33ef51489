package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOpenRouterClient_Chat(t *testing.T) {
	t.Run("successful chat", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Method != "POST" {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("unexpected authorization: %s", auth)
			}

			resp := map[string]any{
				"id":    "test-id",
				"model": "anthropic/claude-3.5-sonnet",
				"choices": []map[string]any{
					{
						"message": map[string]any{
							"role":    "assistant",
							"content": "Hello! How can I help you?",
						},
						"finish_reason": "stop",
					},
				},
				"usage": map[string]int{
					"prompt_tokens":     10,
					"completion_tokens": 8,
					"total_tokens":      18,
				},
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{
				{Role: "user", Content: "Hello"},
			},
		})

		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if !result.Success {
			t.Error("expected Success = true")
		}
		if result.Content != "Hello! How can I help you?" {
			t.Errorf("Content = %q", result.Content)
		}
		if result.TotalTokens != 18 {
			t.Errorf("TotalTokens = %d, want 18", result.TotalTokens)
		}
	})

	t.Run("tool calls with forced choice", func(t *testing.T) {
		var received openRouterRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}

			resp := map[string]any{
				"id":    "test-id",
				"model": "test-model",
				"choices": []map[string]any{
					{
						"message": map[string]any{
							"role": "assistant",
							"tool_calls": []map[string]any{
								{
									"id":   "call_123",
									"type": "function",
									"function": map[string]string{
										"name":      "person",
										"arguments": `{"name": "Jane", "age": 30}`,
									},
								},
							},
						},
					},
				},
				"usage": map[string]int{},
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		tools := []Tool{
			{
				Type: "function",
				Function: ToolFunction{
					Name:        "person",
					Description: "Record a person",
					Parameters:  json.RawMessage(`{"type": "object"}`),
				},
			},
		}

		result, err := client.ChatWithTools(context.Background(), &ChatRequest{
			Messages:   []Message{{Role: "user", Content: "Jane is 30"}},
			ToolChoice: "person",
		}, tools)

		if err != nil {
			t.Fatalf("ChatWithTools() error = %v", err)
		}

		// The tool and the forced choice must be in the outbound request
		if len(received.Tools) != 1 || received.Tools[0].Function.Name != "person" {
			t.Errorf("request tools = %+v, want the person function", received.Tools)
		}
		if received.ToolChoice == nil || received.ToolChoice.Function.Name != "person" {
			t.Errorf("request tool_choice = %+v, want person", received.ToolChoice)
		}

		call, ok := result.FirstToolCall()
		if !ok {
			t.Fatal("expected tool calls")
		}
		if call.Function.Name != "person" {
			t.Errorf("tool name = %s, want person", call.Function.Name)
		}
		if call.Function.Arguments != `{"name": "Jane", "age": 30}` {
			t.Errorf("arguments = %s", call.Function.Arguments)
		}
	})

	t.Run("assistant tool-call turns are forwarded", func(t *testing.T) {
		var received openRouterRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&received)

			resp := map[string]any{
				"id":      "test-id",
				"model":   "test-model",
				"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": "ok"}}},
				"usage":   map[string]int{},
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{
				{Role: "user", Content: "example input"},
				{
					Role: "assistant",
					ToolCalls: []ToolCall{{
						ID:       "call_1",
						Type:     "function",
						Function: ToolCallFunction{Name: "person", Arguments: `{}`},
					}},
				},
				{Role: "user", Content: "You have correctly called this function.", ToolCallID: "call_1"},
			},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}

		if len(received.Messages) != 3 {
			t.Fatalf("request has %d messages, want 3", len(received.Messages))
		}
		if len(received.Messages[1].ToolCalls) != 1 {
			t.Errorf("assistant message lost its tool calls: %+v", received.Messages[1])
		}
		if received.Messages[2].ToolCallID != "call_1" {
			t.Errorf("tool_call_id = %q, want call_1", received.Messages[2].ToolCallID)
		}
	})

	t.Run("API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"message": "Rate limit exceeded"}}`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "test"}},
		})

		if err == nil {
			t.Error("expected error")
		}
		if result.Success {
			t.Error("expected Success = false")
		}
		if result.ErrorType != "http_error" {
			t.Errorf("ErrorType = %s, want http_error", result.ErrorType)
		}
	})

	t.Run("API-level error in 200 body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"error": {"message": "model is overloaded"}}`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "test"}},
		})
		if err == nil {
			t.Error("expected error for API-level failure")
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id": "test-id", "model": "m", "choices": [], "usage": {}}`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "test"}},
		})
		if err == nil {
			t.Error("expected error for empty choices")
		}
		if result.ErrorType != "empty_response" {
			t.Errorf("ErrorType = %s, want empty_response", result.ErrorType)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		_, err := client.Chat(ctx, &ChatRequest{
			Messages: []Message{{Role: "user", Content: "test"}},
		})

		if err == nil {
			t.Error("expected error from cancelled context")
		}
	})
}

func TestOpenRouterClient_Config(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey: "test-key",
		})

		if client.Name() != OpenRouterName {
			t.Errorf("Name() = %s, want %s", client.Name(), OpenRouterName)
		}
		if client.baseURL != OpenRouterBaseURL {
			t.Errorf("baseURL = %s, want %s", client.baseURL, OpenRouterBaseURL)
		}
		if client.DefaultModel() != "anthropic/claude-3.5-sonnet" {
			t.Errorf("DefaultModel() = %s", client.DefaultModel())
		}
	})

	t.Run("default model used when request omits one", func(t *testing.T) {
		var received openRouterRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&received)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id": "i", "model": "m", "choices": [{"message": {"role": "assistant", "content": "ok"}}], "usage": {}}`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:       "test-key",
			BaseURL:      server.URL,
			DefaultModel: "configured-model",
		})

		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "test"}},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if received.Model != "configured-model" {
			t.Errorf("request model = %q, want configured-model", received.Model)
		}
	})

	t.Run("interface compliance", func(t *testing.T) {
		var _ LLMClient = (*OpenRouterClient)(nil)
	})
}
