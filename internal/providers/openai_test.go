package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// openAICompletion builds a minimal chat.completion response body.
func openAICompletion(message map[string]any) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       message,
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{
			"prompt_tokens":     12,
			"completion_tokens": 5,
			"total_tokens":      17,
		},
	}
}

func TestOpenAIClient_Chat(t *testing.T) {
	t.Run("successful chat", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("unexpected authorization: %s", auth)
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(openAICompletion(map[string]any{
				"role":    "assistant",
				"content": "Hello there",
			}))
		}))
		defer server.Close()

		client := NewOpenAIClient(OpenAIConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
		})

		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if !result.Success {
			t.Error("expected Success = true")
		}
		if result.Content != "Hello there" {
			t.Errorf("Content = %q", result.Content)
		}
		if result.TotalTokens != 17 {
			t.Errorf("TotalTokens = %d, want 17", result.TotalTokens)
		}
	})

	t.Run("tool calls with forced choice", func(t *testing.T) {
		var received map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(openAICompletion(map[string]any{
				"role": "assistant",
				"tool_calls": []map[string]any{
					{
						"id":   "call_abc",
						"type": "function",
						"function": map[string]string{
							"name":      "person",
							"arguments": `{"name": "Jane", "age": 30}`,
						},
					},
				},
			}))
		}))
		defer server.Close()

		client := NewOpenAIClient(OpenAIConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		tools := []Tool{
			{
				Type: "function",
				Function: ToolFunction{
					Name:        "person",
					Description: "Record a person",
					Parameters:  json.RawMessage(`{"type": "object", "properties": {"name": {"type": "string"}}}`),
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

		// The function and the forced choice must be in the outbound request
		reqTools, _ := received["tools"].([]any)
		if len(reqTools) != 1 {
			t.Fatalf("request has %d tools, want 1", len(reqTools))
		}
		fn := reqTools[0].(map[string]any)["function"].(map[string]any)
		if fn["name"] != "person" {
			t.Errorf("request tool name = %v, want person", fn["name"])
		}
		choice, _ := received["tool_choice"].(map[string]any)
		if choice == nil {
			t.Fatal("request has no tool_choice")
		}
		if choiceFn, _ := choice["function"].(map[string]any); choiceFn == nil || choiceFn["name"] != "person" {
			t.Errorf("request tool_choice = %v, want person", choice)
		}

		call, ok := result.FirstToolCall()
		if !ok {
			t.Fatal("expected a tool call")
		}
		if call.Function.Name != "person" {
			t.Errorf("tool name = %s, want person", call.Function.Name)
		}
		if call.Function.Arguments != `{"name": "Jane", "age": 30}` {
			t.Errorf("arguments = %s", call.Function.Arguments)
		}
	})

	t.Run("assistant tool-call turns are forwarded", func(t *testing.T) {
		var received map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&received)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(openAICompletion(map[string]any{
				"role":    "assistant",
				"content": "ok",
			}))
		}))
		defer server.Close()

		client := NewOpenAIClient(OpenAIConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{
				{Role: RoleSystem, Content: "preamble"},
				{Role: RoleUser, Content: "example input"},
				{
					Role: RoleAssistant,
					ToolCalls: []ToolCall{{
						ID:       "call_1",
						Type:     "function",
						Function: ToolCallFunction{Name: "person", Arguments: `{"name": "Jane"}`},
					}},
				},
			},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}

		msgs, _ := received["messages"].([]any)
		if len(msgs) != 3 {
			t.Fatalf("request has %d messages, want 3", len(msgs))
		}
		assistant := msgs[2].(map[string]any)
		if assistant["role"] != "assistant" {
			t.Errorf("role = %v, want assistant", assistant["role"])
		}
		calls, _ := assistant["tool_calls"].([]any)
		if len(calls) != 1 {
			t.Fatalf("assistant message lost its tool calls: %v", assistant)
		}
		callFn := calls[0].(map[string]any)["function"].(map[string]any)
		if callFn["name"] != "person" {
			t.Errorf("forwarded tool call name = %v, want person", callFn["name"])
		}
	})

	t.Run("unsupported role", func(t *testing.T) {
		client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key"})

		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "narrator", Content: "once upon a time"}},
		})
		if err == nil {
			t.Error("expected error for unsupported role")
		}
	})

	t.Run("API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": {"message": "boom"}}`))
		}))
		defer server.Close()

		client := NewOpenAIClient(OpenAIConfig{
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
		if result.ErrorType != "api_error" {
			t.Errorf("ErrorType = %s, want api_error", result.ErrorType)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key"})

		if client.Name() != OpenAIName {
			t.Errorf("Name() = %s, want %s", client.Name(), OpenAIName)
		}
		if client.DefaultModel() != openAIDefaultModel {
			t.Errorf("DefaultModel() = %s, want %s", client.DefaultModel(), openAIDefaultModel)
		}
	})

	t.Run("interface compliance", func(t *testing.T) {
		var _ LLMClient = (*OpenAIClient)(nil)
	})
}
