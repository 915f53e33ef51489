package extract

import (
	"encoding/json"
	"fmt"

	"github.com/jackzampolin/extract/internal/providers"
)

// ExtractionPreamble is the system message prefix for text extraction.
const ExtractionPreamble = "You are a top-tier algorithm for extracting information from text. " +
	"Only extract information that is relevant to the provided text. " +
	"If no information is relevant, use the schema and output " +
	"an empty list where appropriate."

// ExtractionInputTemplate wraps the caller's raw text into the live human
// turn of an extraction call.
const ExtractionInputTemplate = "I need to extract information from the following text: ```\n%s\n```\n"

// QueryAnalysisPreamble is the system message prefix for query analysis.
const QueryAnalysisPreamble = "You are a world class expert at converting user questions into database " +
	"queries. Given a question, return a list of database queries optimized to " +
	"retrieve the most relevant results."

// AssemblePrompt builds the message prefix for a structured-output call.
//
// The prefix is: one system message (preamble, plus the caller's instructions
// when present), then for every example its messages followed by a synthetic
// assistant turn that shows the ideal function call for that example. The live
// input messages are appended later by the Invoker; ordering is what primes
// the model, so examples keep their input order.
func AssemblePrompt(preamble, instructions string, examples []Example, functionName string) ([]providers.Message, error) {
	system := preamble
	if instructions != "" {
		system = preamble + "\n\n" + instructions
	}

	messages := []providers.Message{
		{Role: providers.RoleSystem, Content: system},
	}

	for _, example := range examples {
		call, err := exampleToolCall(example, functionName)
		if err != nil {
			return nil, err
		}
		messages = append(messages, example.Messages...)
		messages = append(messages, providers.Message{
			Role:      providers.RoleAssistant,
			Content:   "",
			ToolCalls: []providers.ToolCall{call},
		})
	}

	return messages, nil
}

// exampleToolCall encodes an example's expected output as the function call
// an ideal assistant would have made. The output is wrapped under
// DataArgument, matching the translated function's parameter shape.
func exampleToolCall(example Example, functionName string) (providers.ToolCall, error) {
	arguments, err := json.Marshal(map[string]any{
		DataArgument: example.Output,
	})
	if err != nil {
		return providers.ToolCall{}, fmt.Errorf("failed to encode example output: %w", err)
	}

	return providers.ToolCall{
		Type: "function",
		Function: providers.ToolCallFunction{
			Name:      functionName,
			Arguments: string(arguments),
		},
	}, nil
}
