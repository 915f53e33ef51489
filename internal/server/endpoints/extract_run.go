package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/jackzampolin/extract/internal/extract"
	"github.com/jackzampolin/extract/internal/providers"
	"github.com/jackzampolin/extract/internal/svcctx"
)

// queryWindowSize is the number of conversation messages analyzed per model
// call. Longer conversations are split into windows, analyzed concurrently
// and the resulting queries deduplicated.
const queryWindowSize = 20

// resolveClient picks the LLM client for a request. An empty provider name
// falls back to the configured default.
func resolveClient(ctx context.Context, provider string) (providers.LLMClient, error) {
	registry := svcctx.RegistryFrom(ctx)
	if registry == nil {
		return nil, errors.New("provider registry not initialized")
	}

	if provider == "" {
		if cm := svcctx.ConfigFrom(ctx); cm != nil {
			provider = cm.Get().Defaults.LLMProvider
		}
	}
	if provider == "" {
		return nil, errors.New("no LLM provider configured")
	}

	return registry.GetLLM(provider)
}

// runExtraction performs a single extraction: translate the schema, assemble
// the prompt and invoke the model with the text as the live human turn.
// The schema must already have passed structural validation.
func runExtraction(ctx context.Context, schemaRaw json.RawMessage, instructions string, examples []extract.Example, text, provider, model string) (json.RawMessage, error) {
	fn, err := extract.Translate(schemaRaw)
	if err != nil {
		return nil, err
	}

	prefix, err := extract.AssemblePrompt(extract.ExtractionPreamble, instructions, examples, fn.Name)
	if err != nil {
		return nil, err
	}

	client, err := resolveClient(ctx, provider)
	if err != nil {
		return nil, err
	}

	iv := &extract.Invoker{Client: client, Model: model}
	live := []providers.Message{{
		Role:    providers.RoleUser,
		Content: fmt.Sprintf(extract.ExtractionInputTemplate, text),
	}}
	return iv.Invoke(ctx, prefix, live, fn)
}

// runQueryAnalysis converts a conversation into structured queries. The
// conversation is split into windows of queryWindowSize messages; each window
// is analyzed in its own goroutine and the per-window results merged with
// first-occurrence deduplication.
func runQueryAnalysis(ctx context.Context, schemaRaw json.RawMessage, instructions string, examples []extract.Example, messages []providers.Message, provider, model string) (extract.QueryAnalysisResponse, error) {
	var zero extract.QueryAnalysisResponse

	fn, err := extract.Translate(schemaRaw)
	if err != nil {
		return zero, err
	}

	prefix, err := extract.AssemblePrompt(extract.QueryAnalysisPreamble, instructions, examples, fn.Name)
	if err != nil {
		return zero, err
	}

	client, err := resolveClient(ctx, provider)
	if err != nil {
		return zero, err
	}
	iv := &extract.Invoker{Client: client, Model: model}

	windows := windowMessages(messages, queryWindowSize)
	responses := make([]extract.QueryAnalysisResponse, len(windows))
	errs := make([]error, len(windows))

	var wg sync.WaitGroup
	for i, window := range windows {
		wg.Add(1)
		go func(i int, window []providers.Message) {
			defer wg.Done()
			args, err := iv.Invoke(ctx, prefix, window, fn)
			if err != nil {
				errs[i] = err
				return
			}
			items, err := extract.DataItems(args)
			if err != nil {
				errs[i] = err
				return
			}
			responses[i] = extract.QueryAnalysisResponse{Data: items}
		}(i, window)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return zero, err
		}
	}

	return extract.Deduplicate(responses), nil
}

// windowMessages splits a message list into consecutive chunks of at most
// size messages. A nil or short list yields a single window.
func windowMessages(messages []providers.Message, size int) [][]providers.Message {
	if len(messages) <= size {
		return [][]providers.Message{messages}
	}
	var windows [][]providers.Message
	for start := 0; start < len(messages); start += size {
		end := start + size
		if end > len(messages) {
			end = len(messages)
		}
		windows = append(windows, messages[start:end])
	}
	return windows
}

// writeRunError maps extraction pipeline failures onto HTTP responses.
func writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, extract.ErrSchemaTranslation):
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid schema: %v", err))
	case errors.Is(err, extract.ErrModelInvocation):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
