package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackzampolin/extract/internal/providers"
)

// Invoker binds a translated function and an assembled prompt to a single
// model call and decodes the structured result.
//
// The function is bound as the only tool and the tool choice is forced, so a
// well-behaved provider has no response shape available other than a call to
// it. No retries, no streaming; a failed call surfaces as ErrModelInvocation.
type Invoker struct {
	Client providers.LLMClient
	Model  string
}

// Invoke appends the live messages to the assembled prefix, calls the model
// with fn bound, and returns the decoded arguments object of the returned
// function call.
func (iv *Invoker) Invoke(ctx context.Context, prefix []providers.Message, live []providers.Message, fn providers.ToolFunction) (json.RawMessage, error) {
	messages := make([]providers.Message, 0, len(prefix)+len(live))
	messages = append(messages, prefix...)
	messages = append(messages, live...)

	req := &providers.ChatRequest{
		Messages:    messages,
		Model:       iv.Model,
		Temperature: 0,
		ToolChoice:  fn.Name,
	}

	result, err := iv.Client.ChatWithTools(ctx, req, []providers.Tool{providers.FunctionTool(fn)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelInvocation, err)
	}

	call, ok := result.FirstToolCall()
	if !ok {
		return nil, fmt.Errorf("%w: model response carried no function call", ErrModelInvocation)
	}
	if call.Function.Name != fn.Name {
		return nil, fmt.Errorf("%w: model called %q, want %q", ErrModelInvocation, call.Function.Name, fn.Name)
	}

	var arguments json.RawMessage
	if err := json.Unmarshal([]byte(call.Function.Arguments), &arguments); err != nil {
		return nil, fmt.Errorf("%w: malformed function-call arguments: %v", ErrModelInvocation, err)
	}
	return arguments, nil
}

// DataItems unpacks the DataArgument list from a decoded arguments object.
// Used by query analysis, where the structured output is {"data": [...]}.
func DataItems(arguments json.RawMessage) ([]any, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(arguments, &payload); err != nil {
		return nil, fmt.Errorf("%w: arguments are not an object: %v", ErrModelInvocation, err)
	}

	raw, ok := payload[DataArgument]
	if !ok {
		// The model answered but skipped the argument; treat as no results.
		return nil, nil
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q is not a list: %v", ErrModelInvocation, DataArgument, err)
	}
	return items, nil
}
