package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackzampolin/extract/internal/extract"
	"github.com/jackzampolin/extract/internal/providers"
	"github.com/jackzampolin/extract/internal/svcctx"
)

var personSchema = json.RawMessage(`{
	"type": "object",
	"title": "Person",
	"properties": {
		"name": {"type": "string"},
		"age": {"type": "integer"}
	},
	"required": ["name", "age"]
}`)

// testContext builds a request context carrying a registry with only the
// given mock client registered, under the name "mock".
func testContext(mock *providers.MockClient) context.Context {
	registry := providers.NewRegistry()
	registry.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	registry.RegisterLLM("mock", mock)
	return svcctx.WithServices(context.Background(), &svcctx.Services{Registry: registry})
}

// doJSON runs a handler against a JSON request body and returns the recorder.
func doJSON(t *testing.T, ctx context.Context, handler http.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var data []byte
	switch b := body.(type) {
	case nil:
	case string:
		data = []byte(b)
	default:
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(data)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestExtractFromText(t *testing.T) {
	endpoint := &ExtractFromTextEndpoint{}
	method, path, handler := endpoint.Route()
	if method != "POST" || path != "/extract_from_text" {
		t.Fatalf("Route() = %s %s, want POST /extract_from_text", method, path)
	}
	if endpoint.RequiresInit() {
		t.Error("RequiresInit() = true, want false")
	}

	t.Run("success", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ToolArguments = json.RawMessage(`{"name":"Jane","age":30}`)

		rec := doJSON(t, testContext(mock), handler, method, path, ExtractFromTextRequest{
			Text:        "Jane is 30 years old",
			Schema:      personSchema,
			LLMProvider: "mock",
		})

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
		}

		var resp ExtractFromTextResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		var extracted map[string]any
		if err := json.Unmarshal(resp.Extracted, &extracted); err != nil {
			t.Fatalf("extracted is not an object: %v", err)
		}
		if extracted["name"] != "Jane" {
			t.Errorf("extracted name = %v, want Jane", extracted["name"])
		}
		if extracted["age"] != float64(30) {
			t.Errorf("extracted age = %v, want 30", extracted["age"])
		}

		tools := mock.LastTools()
		if len(tools) != 1 {
			t.Fatalf("bound tools = %d, want 1", len(tools))
		}
		if tools[0].Function.Name != "Person" {
			t.Errorf("bound function = %q, want Person (from schema title)", tools[0].Function.Name)
		}

		// The caller's text is wrapped into the live human turn, not sent raw.
		req := mock.LastRequest()
		if req == nil {
			t.Fatal("mock saw no request")
		}
		last := req.Messages[len(req.Messages)-1]
		want := fmt.Sprintf(extract.ExtractionInputTemplate, "Jane is 30 years old")
		if last.Role != providers.RoleUser || last.Content != want {
			t.Errorf("live turn = %+v, want user message %q", last, want)
		}
	})

	t.Run("invalid_schema", func(t *testing.T) {
		mock := providers.NewMockClient()
		rec := doJSON(t, testContext(mock), handler, method, path, ExtractFromTextRequest{
			Text:        "Jane is 30 years old",
			Schema:      json.RawMessage(`{"type": "bogus"}`),
			LLMProvider: "mock",
		})

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
		}

		var resp DetailResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !strings.Contains(resp.Detail, "Invalid schema") {
			t.Errorf("detail = %q, want it to contain %q", resp.Detail, "Invalid schema")
		}
		if mock.RequestCount() != 0 {
			t.Errorf("model called %d times on invalid schema, want 0", mock.RequestCount())
		}
	})

	t.Run("missing_text", func(t *testing.T) {
		rec := doJSON(t, testContext(providers.NewMockClient()), handler, method, path, ExtractFromTextRequest{
			Schema:      personSchema,
			LLMProvider: "mock",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("malformed_body", func(t *testing.T) {
		rec := doJSON(t, testContext(providers.NewMockClient()), handler, method, path, `{not json`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("unknown_provider", func(t *testing.T) {
		rec := doJSON(t, testContext(providers.NewMockClient()), handler, method, path, ExtractFromTextRequest{
			Text:        "Jane is 30 years old",
			Schema:      personSchema,
			LLMProvider: "nope",
		})
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}
	})

	t.Run("model_failure", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ShouldFail = true

		rec := doJSON(t, testContext(mock), handler, method, path, ExtractFromTextRequest{
			Text:        "Jane is 30 years old",
			Schema:      personSchema,
			LLMProvider: "mock",
		})
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}

		var resp ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Error == "" {
			t.Error("error message is empty")
		}
	})

	t.Run("examples_flow_into_prompt", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ToolArguments = json.RawMessage(`{"name":"Bob","age":41}`)

		rec := doJSON(t, testContext(mock), handler, method, path, ExtractFromTextRequest{
			Text:        "Bob turned 41 last week",
			Schema:      personSchema,
			LLMProvider: "mock",
			Examples: []TextExample{
				{Content: "Alice is 25", Output: []map[string]any{{"name": "Alice", "age": 25}}},
			},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
		}

		// system preamble, example human turn, example tool-call turn,
		// tool result turn, live human turn
		req := mock.LastRequest()
		if req == nil {
			t.Fatal("mock saw no request")
		}
		if len(req.Messages) < 4 {
			t.Fatalf("prompt has %d messages, want at least 4", len(req.Messages))
		}
		if req.Messages[0].Role != providers.RoleSystem {
			t.Errorf("first message role = %q, want system", req.Messages[0].Role)
		}
		last := req.Messages[len(req.Messages)-1]
		if last.Role != providers.RoleUser || !strings.Contains(last.Content, "Bob turned 41 last week") {
			t.Errorf("last message = %+v, want live user turn containing the text", last)
		}
	})
}

func TestQueryAnalysis(t *testing.T) {
	endpoint := &QueryAnalysisEndpoint{}
	method, path, handler := endpoint.Route()
	if method != "POST" || path != "/query_analysis" {
		t.Fatalf("Route() = %s %s, want POST /query_analysis", method, path)
	}

	querySchema := json.RawMessage(`{
		"type": "object",
		"title": "Search Query",
		"properties": {"query": {"type": "string"}},
		"required": ["query"]
	}`)

	t.Run("success_with_dedupe", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ToolArguments = json.RawMessage(`{"data":[{"query":"weather"},{"query":"weather"},{"query":"news"}]}`)

		rec := doJSON(t, testContext(mock), handler, method, path, QueryAnalysisRequest{
			Messages: []WireMessage{
				{Role: "human", Content: "what's the weather"},
				{Role: "ai", Content: "let me look that up"},
			},
			Schema:      querySchema,
			LLMProvider: "mock",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
		}

		var resp QueryAnalysisResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Data) != 2 {
			t.Fatalf("data has %d items, want 2 after dedupe: %v", len(resp.Data), resp.Data)
		}

		first, ok := resp.Data[0].(map[string]any)
		if !ok || first["query"] != "weather" {
			t.Errorf("data[0] = %v, want first occurrence kept", resp.Data[0])
		}
	})

	t.Run("role_aliases_normalized", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ToolArguments = json.RawMessage(`{"data":[]}`)

		rec := doJSON(t, testContext(mock), handler, method, path, QueryAnalysisRequest{
			Messages: []WireMessage{
				{Role: "human", Content: "hi"},
				{Role: "ai", Content: "hello"},
			},
			Schema:      querySchema,
			LLMProvider: "mock",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		req := mock.LastRequest()
		if req == nil {
			t.Fatal("mock saw no request")
		}
		n := len(req.Messages)
		if req.Messages[n-2].Role != providers.RoleUser {
			t.Errorf("role = %q, want user for alias human", req.Messages[n-2].Role)
		}
		if req.Messages[n-1].Role != providers.RoleAssistant {
			t.Errorf("role = %q, want assistant for alias ai", req.Messages[n-1].Role)
		}
	})

	t.Run("long_conversation_is_windowed", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ToolArguments = json.RawMessage(`{"data":[{"query":"repeated"}]}`)

		messages := make([]WireMessage, 45)
		for i := range messages {
			messages[i] = WireMessage{Role: "human", Content: "message"}
		}

		rec := doJSON(t, testContext(mock), handler, method, path, QueryAnalysisRequest{
			Messages:    messages,
			Schema:      querySchema,
			LLMProvider: "mock",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
		}

		if got := mock.RequestCount(); got != 3 {
			t.Errorf("model called %d times for 45 messages, want 3 windows", got)
		}

		var resp QueryAnalysisResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Data) != 1 {
			t.Errorf("data has %d items, want 1 after cross-window dedupe", len(resp.Data))
		}
	})

	t.Run("missing_messages", func(t *testing.T) {
		rec := doJSON(t, testContext(providers.NewMockClient()), handler, method, path, QueryAnalysisRequest{
			Schema:      querySchema,
			LLMProvider: "mock",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("invalid_schema", func(t *testing.T) {
		rec := doJSON(t, testContext(providers.NewMockClient()), handler, method, path, QueryAnalysisRequest{
			Messages:    []WireMessage{{Role: "human", Content: "hi"}},
			Schema:      json.RawMessage(`{"type": "bogus"}`),
			LLMProvider: "mock",
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
		}

		var resp DetailResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !strings.Contains(resp.Detail, "Invalid schema") {
			t.Errorf("detail = %q, want it to contain %q", resp.Detail, "Invalid schema")
		}
	})
}

func TestWindowMessages(t *testing.T) {
	msg := func(n int) []providers.Message {
		out := make([]providers.Message, n)
		for i := range out {
			out[i] = providers.Message{Role: providers.RoleUser, Content: "m"}
		}
		return out
	}

	tests := []struct {
		name      string
		count     int
		size      int
		wantSizes []int
	}{
		{"empty", 0, 20, []int{0}},
		{"under_one_window", 5, 20, []int{5}},
		{"exactly_one_window", 20, 20, []int{20}},
		{"two_windows", 25, 20, []int{20, 5}},
		{"exact_multiple", 40, 20, []int{20, 20}},
		{"three_windows", 45, 20, []int{20, 20, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			windows := windowMessages(msg(tt.count), tt.size)
			if len(windows) != len(tt.wantSizes) {
				t.Fatalf("got %d windows, want %d", len(windows), len(tt.wantSizes))
			}
			for i, want := range tt.wantSizes {
				if len(windows[i]) != want {
					t.Errorf("window %d has %d messages, want %d", i, len(windows[i]), want)
				}
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	endpoint := &HealthEndpoint{}
	method, path, handler := endpoint.Route()

	rec := doJSON(t, context.Background(), handler, method, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestReadyEndpoint_NoStore(t *testing.T) {
	endpoint := &ReadyEndpoint{}
	method, path, handler := endpoint.Route()

	rec := doJSON(t, context.Background(), handler, method, path, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
	if resp.Database != "not_initialized" {
		t.Errorf("database = %q, want not_initialized", resp.Database)
	}
}

func TestStatusEndpoint_ExternalPostgres(t *testing.T) {
	endpoint := &StatusEndpoint{}
	method, path, handler := endpoint.Route()

	rec := doJSON(t, testContext(providers.NewMockClient()), handler, method, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Server != "running" {
		t.Errorf("server = %q, want running", resp.Server)
	}
	if resp.Postgres.Container != "external" {
		t.Errorf("container = %q, want external when no manager is set", resp.Postgres.Container)
	}
	if len(resp.Providers) != 1 || resp.Providers[0] != "mock" {
		t.Errorf("providers = %v, want [mock]", resp.Providers)
	}
}
