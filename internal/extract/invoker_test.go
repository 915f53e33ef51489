package extract

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackzampolin/extract/internal/providers"
)

func TestInvokeReturnsArguments(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ToolArguments = json.RawMessage(`{"name":"Jane","age":30}`)

	fn, err := Translate(json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"},"age":{"type":"integer"}}}`))
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	prefix, err := AssemblePrompt(ExtractionPreamble, "", nil, fn.Name)
	if err != nil {
		t.Fatalf("AssemblePrompt failed: %v", err)
	}

	iv := &Invoker{Client: mock, Model: "test-model"}
	live := []providers.Message{{Role: providers.RoleUser, Content: "Jane is 30 years old"}}

	arguments, err := iv.Invoke(context.Background(), prefix, live, fn)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(arguments, &decoded); err != nil {
		t.Fatalf("arguments are not valid JSON: %v", err)
	}
	if decoded["name"] != "Jane" || decoded["age"] != float64(30) {
		t.Errorf("arguments = %v, want Jane/30", decoded)
	}

	// The function must be bound as the only tool, with the choice forced.
	tools := mock.LastTools()
	if len(tools) != 1 {
		t.Fatalf("bound %d tools, want 1", len(tools))
	}
	if tools[0].Function.Name != fn.Name {
		t.Errorf("bound tool = %q, want %q", tools[0].Function.Name, fn.Name)
	}
	if got := mock.LastRequest().ToolChoice; got != fn.Name {
		t.Errorf("tool choice = %q, want %q", got, fn.Name)
	}

	// Live messages come after the assembled prefix.
	req := mock.LastRequest()
	last := req.Messages[len(req.Messages)-1]
	if last.Content != "Jane is 30 years old" {
		t.Errorf("final message = %q, want the live input", last.Content)
	}
}

func TestInvokeNoToolCall(t *testing.T) {
	mock := providers.NewMockClient()
	mock.NoToolCall = true

	iv := &Invoker{Client: mock}
	fn := providers.ToolFunction{Name: "f"}

	_, err := iv.Invoke(context.Background(), nil, nil, fn)
	if !errors.Is(err, ErrModelInvocation) {
		t.Fatalf("err = %v, want ErrModelInvocation", err)
	}
}

// strayCallClient answers every tool request with a call to a fixed function
// name, regardless of what was bound.
type strayCallClient struct {
	name string
}

func (c *strayCallClient) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	return &providers.ChatResult{Success: true}, nil
}

func (c *strayCallClient) ChatWithTools(ctx context.Context, req *providers.ChatRequest, tools []providers.Tool) (*providers.ChatResult, error) {
	return &providers.ChatResult{
		Success: true,
		ToolCalls: []providers.ToolCall{{
			Type:     "function",
			Function: providers.ToolCallFunction{Name: c.name, Arguments: `{}`},
		}},
	}, nil
}

func (c *strayCallClient) Name() string { return "stray" }

func TestInvokeWrongFunctionName(t *testing.T) {
	iv := &Invoker{Client: &strayCallClient{name: "other_function"}}

	_, err := iv.Invoke(context.Background(), nil, nil, providers.ToolFunction{Name: "f"})
	if !errors.Is(err, ErrModelInvocation) {
		t.Fatalf("err = %v, want ErrModelInvocation", err)
	}
	if !strings.Contains(err.Error(), "other_function") {
		t.Errorf("err = %v, want the stray function name in the message", err)
	}
}

func TestInvokeClientFailure(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ShouldFail = true

	iv := &Invoker{Client: mock}
	_, err := iv.Invoke(context.Background(), nil, nil, providers.ToolFunction{Name: "f"})
	if !errors.Is(err, ErrModelInvocation) {
		t.Fatalf("err = %v, want ErrModelInvocation", err)
	}
}

func TestInvokeMalformedArguments(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ToolArguments = json.RawMessage(`{"name":`)

	iv := &Invoker{Client: mock}
	_, err := iv.Invoke(context.Background(), nil, nil, providers.ToolFunction{Name: "f"})
	if !errors.Is(err, ErrModelInvocation) {
		t.Fatalf("err = %v, want ErrModelInvocation", err)
	}
}

func TestDataItems(t *testing.T) {
	items, err := DataItems(json.RawMessage(`{"data":[{"query":"a"},{"query":"b"}]}`))
	if err != nil {
		t.Fatalf("DataItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	// Missing data key means no results, not an error.
	items, err = DataItems(json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("DataItems failed on empty object: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}

	if _, err := DataItems(json.RawMessage(`[1,2]`)); !errors.Is(err, ErrModelInvocation) {
		t.Errorf("err = %v, want ErrModelInvocation for non-object arguments", err)
	}
	if _, err := DataItems(json.RawMessage(`{"data":{"not":"a list"}}`)); !errors.Is(err, ErrModelInvocation) {
		t.Errorf("err = %v, want ErrModelInvocation for non-list data", err)
	}
}
